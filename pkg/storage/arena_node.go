package storage

import (
	"cmp"

	"gengartree/pkg/bnode"
)

// NodeArenaID is the arena-with-pointer-indices id type used to back a
// pkg/index.Tree directly, as opposed to the general-purpose ArenaID[T]
// above. It has to exist separately: bnode.Node[K, V, I] carries a field
// of its own id type I (Parent, Children, ...), so wiring PointerArena[T]
// to back a tree would require solving "I = ArenaID[Node[K, V, I]]" for
// an arbitrary T - which needs a type alias that refers to itself, and
// Go's spec forbids exactly that ("the type on the right side must not
// depend on the alias itself"). Pinning the id to the tree's own (K, V)
// instead of to an opaque T sidesteps the alias entirely: NodeArenaID[K,
// V] and bnode.Node[K, V, NodeArenaID[K, V]] are two ordinary mutually
// recursive *defined* types (legal in Go, same as a linked-list node
// referring to its own type through a pointer field), not an alias
// equation. The two arena types otherwise share one idea - segment table
// plus free list over non-moving cells - grounded on the same
// flier-goutil/pkg/arena and alex60217101990-opa designs as ArenaID.
type NodeArenaID[K cmp.Ordered, V any] struct {
	cell *nodeArenaCell[K, V]
}

func (id NodeArenaID[K, V]) isNowhere() bool { return id.cell == nil }

type nodeArenaCell[K cmp.Ordered, V any] struct {
	value    bnode.Node[K, V, NodeArenaID[K, V]]
	occupied bool
	nextFree *nodeArenaCell[K, V]
}

// NodeArena is the arena back end a pkg/index.Tree (or pkg/snapshot's GC)
// actually binds to. Many independent trees may share one NodeArena; the
// B-tree algorithms in pkg/index are the proof that two trees never
// target the same cell, exactly as spec.md §4.1 describes for the
// pointer-arena back end.
type NodeArena[K cmp.Ordered, V any] struct {
	segments []*[arenaSegmentSize]nodeArenaCell[K, V]
	freeHead *nodeArenaCell[K, V]
	len      int
}

func NewNodeArena[K cmp.Ordered, V any]() *NodeArena[K, V] {
	return &NodeArena[K, V]{}
}

func (a *NodeArena[K, V]) Nowhere() NodeArenaID[K, V] { return NodeArenaID[K, V]{} }

func (a *NodeArena[K, V]) Get(id NodeArenaID[K, V]) (Ref[bnode.Node[K, V, NodeArenaID[K, V]]], bool, error) {
	if id.isNowhere() || !id.cell.occupied {
		return Ref[bnode.Node[K, V, NodeArenaID[K, V]]]{}, false, nil
	}
	return NewRef(&id.cell.value, nil), true, nil
}

func (a *NodeArena[K, V]) GetMut(id NodeArenaID[K, V]) (RefMut[bnode.Node[K, V, NodeArenaID[K, V]]], bool, error) {
	if id.isNowhere() || !id.cell.occupied {
		return RefMut[bnode.Node[K, V, NodeArenaID[K, V]]]{}, false, nil
	}
	return NewRefMut(&id.cell.value, nil), true, nil
}

func (a *NodeArena[K, V]) Insert(value bnode.Node[K, V, NodeArenaID[K, V]]) (NodeArenaID[K, V], error) {
	cell := a.allocCell()
	cell.value = value
	cell.occupied = true
	a.len++
	return NodeArenaID[K, V]{cell: cell}, nil
}

func (a *NodeArena[K, V]) allocCell() *nodeArenaCell[K, V] {
	if a.freeHead != nil {
		cell := a.freeHead
		a.freeHead = cell.nextFree
		cell.nextFree = nil
		return cell
	}
	return a.grow()
}

// grow allocates a new segment and threads every cell but the first into
// the free list, mirroring PointerArena.grow.
func (a *NodeArena[K, V]) grow() *nodeArenaCell[K, V] {
	seg := new([arenaSegmentSize]nodeArenaCell[K, V])
	a.segments = append(a.segments, seg)
	for i := len(seg) - 1; i >= 1; i-- {
		seg[i].nextFree = a.freeHead
		a.freeHead = &seg[i]
	}
	return &seg[0]
}

func (a *NodeArena[K, V]) Remove(id NodeArenaID[K, V]) (bnode.Node[K, V, NodeArenaID[K, V]], bool, error) {
	var zero bnode.Node[K, V, NodeArenaID[K, V]]
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

// ClearFast always reports false, for the same reason as PointerArena:
// many trees may share one NodeArena and there is no reliable
// single-owner signal to check from inside it.
func (a *NodeArena[K, V]) ClearFast() bool { return false }

// Len reports the number of currently occupied cells across every
// attached tree.
func (a *NodeArena[K, V]) Len() int { return a.len }

// AllIDs returns the id of every currently occupied cell, in no
// particular order. Exposed for pkg/snapshot's mark-sweep GC.
func (a *NodeArena[K, V]) AllIDs() []NodeArenaID[K, V] {
	ids := make([]NodeArenaID[K, V], 0, a.len)
	for _, seg := range a.segments {
		for i := range seg {
			if seg[i].occupied {
				ids = append(ids, NodeArenaID[K, V]{cell: &seg[i]})
			}
		}
	}
	return ids
}

var _ Storage[bnode.Node[int, string, NodeArenaID[int, string]], NodeArenaID[int, string]] = (*NodeArena[int, string])(nil)
