package storage

// arenaSegmentSize is the number of cells allocated per growth chunk. Each
// segment is its own array allocation, so growing the arena (appending a
// new segment) never moves the cells of a previous segment - a cell id
// handed out before a concurrent insertion from another tree stays valid
// across it, matching spec.md §4.1's "insertion never invalidates
// outstanding borrows".
const arenaSegmentSize = 256

// arenaCell is a single storage slot. Free cells are threaded into a
// singly-linked free list through nextFree; occupied cells hold a value.
type arenaCell[T any] struct {
	value    T
	occupied bool
	nextFree *arenaCell[T]
}

// ArenaID is the id type for PointerArena: it wraps the address of the
// cell itself, so dereferencing the id is literally how Get works. This
// is the Go rendering of the spec's "raw pointer + free-list" id: a typed
// Go pointer already gives the non-moving, O(1)-dereference semantics the
// spec asks for, without resorting to unsafe.Pointer arithmetic - the
// "unsafe" in the spec's description refers to Rust's aliasing bypass, and
// the discipline that makes it sound (no two trees ever target the same
// cell) lives in the B-tree algorithms, not in how the pointer is typed.
type ArenaID[T any] struct {
	cell *arenaCell[T]
}

func (id ArenaID[T]) isNowhere() bool { return id.cell == nil }

// PointerArena is the arena-with-pointer-indices back end: segment
// allocated, free-list reused, plain unchecked borrows. Many independent
// trees may share one PointerArena; it is on them (via the B-tree
// invariants) to never target the same cell. Grounded on
// flier-goutil/pkg/arena's segment table + free list over node cells and
// alex60217101990-opa's arena `segments`/`freeHead` design.
type PointerArena[T any] struct {
	segments []*[arenaSegmentSize]arenaCell[T]
	freeHead *arenaCell[T]
	len      int
}

func NewPointerArena[T any]() *PointerArena[T] {
	return &PointerArena[T]{}
}

func (a *PointerArena[T]) Nowhere() ArenaID[T] { return ArenaID[T]{} }

func (a *PointerArena[T]) Get(id ArenaID[T]) (Ref[T], bool, error) {
	if id.isNowhere() || !id.cell.occupied {
		return Ref[T]{}, false, nil
	}
	return NewRef(&id.cell.value, nil), true, nil
}

func (a *PointerArena[T]) GetMut(id ArenaID[T]) (RefMut[T], bool, error) {
	if id.isNowhere() || !id.cell.occupied {
		return RefMut[T]{}, false, nil
	}
	return NewRefMut(&id.cell.value, nil), true, nil
}

func (a *PointerArena[T]) Insert(value T) (ArenaID[T], error) {
	cell := a.allocCell()
	cell.value = value
	cell.occupied = true
	a.len++
	return ArenaID[T]{cell: cell}, nil
}

func (a *PointerArena[T]) allocCell() *arenaCell[T] {
	if a.freeHead != nil {
		cell := a.freeHead
		a.freeHead = cell.nextFree
		cell.nextFree = nil
		return cell
	}
	return a.grow()
}

// grow allocates a new segment and threads every cell but the first into
// the free list; the first cell is handed straight to the caller that
// triggered the growth.
func (a *PointerArena[T]) grow() *arenaCell[T] {
	seg := new([arenaSegmentSize]arenaCell[T])
	a.segments = append(a.segments, seg)
	for i := len(seg) - 1; i >= 1; i-- {
		seg[i].nextFree = a.freeHead
		a.freeHead = &seg[i]
	}
	return &seg[0]
}

func (a *PointerArena[T]) Remove(id ArenaID[T]) (T, bool, error) {
	var zero T
	if id.isNowhere() || !id.cell.occupied {
		return zero, false, nil
	}
	v := id.cell.value
	id.cell.value = zero
	id.cell.occupied = false
	id.cell.nextFree = a.freeHead
	a.freeHead = id.cell
	a.len--
	return v, true, nil
}

// ClearFast always reports false: many trees routinely share one arena
// (spec.md §4.1) and there is no reliable single-owner signal to check
// from inside the arena itself, so callers must always iterate and
// release their own nodes individually.
func (a *PointerArena[T]) ClearFast() bool { return false }

// Len reports the number of currently occupied cells across every
// attached tree - a property of the arena, not of any one tree.
func (a *PointerArena[T]) Len() int { return a.len }

// AllIDs returns the id of every currently occupied cell, in no
// particular order. Exposed for pkg/snapshot's mark-sweep GC, which has
// no other way to discover a cell nothing currently reaches.
func (a *PointerArena[T]) AllIDs() []ArenaID[T] {
	ids := make([]ArenaID[T], 0, a.len)
	for _, seg := range a.segments {
		for i := range seg {
			if seg[i].occupied {
				ids = append(ids, ArenaID[T]{cell: &seg[i]})
			}
		}
	}
	return ids
}

func (a *PointerArena[T]) ConvertSimpleRef(r Ref[T]) *T { return r.Value() }
func (a *PointerArena[T]) ConvertSimpleRefMut(r RefMut[T]) *T { return r.Value() }

var (
	_ Storage[int, ArenaID[int]]             = (*PointerArena[int])(nil)
	_ StorageWithSimpleRef[int, ArenaID[int]] = (*PointerArena[int])(nil)
)
