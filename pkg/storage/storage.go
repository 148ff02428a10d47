// Package storage implements the pluggable node arena used by the B-tree
// engine in pkg/index. A Storage is a collection of (id -> value) cells; the
// tree never holds node memory directly, it always goes through one of the
// back ends defined here.
//
// Four back ends are provided: OwnedSlab (single owner, no checks),
// SharedSlab (many trees, single-thread borrow checking), SharedConcurrentSlab
// (many trees, many goroutines, RWMutex guarded) and PointerArena (many
// trees, unchecked, proof of non-aliasing lives in the B-tree algorithms
// themselves).
package storage

import "errors"

// ErrAliasingViolation is returned by the shared, single-thread back end
// when a borrow would violate the "one writer xor many readers" rule.
var ErrAliasingViolation = errors.New("storage: aliasing violation")

// ErrAllocatorExhausted is returned when a back end cannot grow further.
// The slab and arena back ends never return it in practice; it exists for
// back ends with a bounded capacity.
var ErrAllocatorExhausted = errors.New("storage: allocator exhausted")

// Id is the constraint every back end's index/handle type must satisfy.
// It only needs to be comparable: dense-integer back ends use a plain int
// newtype, the pointer arena uses the cell pointer itself.
type Id interface {
	comparable
}

// Storage is the trait family from the spec: get/get-mut/insert/remove
// behind an opaque id, plus clear_fast. T is the element type stored in
// each cell (for a pkg/index.Tree, a bnode.Node[K, V, I] value); I is the id
// type of the concrete back end.
//
// Get/GetMut's bool return is "found at all" (an index-stale lookup is not
// an error, per spec.md §7 - it is reported the same way as an empty
// optional would be). The error return is reserved for the conditions the
// spec does treat as failures: aliasing-violation and allocator-exhausted.
// Owned and pointer-arena back ends never produce a non-nil error; they
// exist on the interface because the shared back ends do.
type Storage[T any, I Id] interface {
	// Nowhere returns the distinguished id value meaning "no node", used
	// by an empty tree's root and by the terminal value of iteration.
	Nowhere() I

	Get(id I) (Ref[T], bool, error)
	GetMut(id I) (RefMut[T], bool, error)
	Insert(value T) (I, error)
	Remove(id I) (T, bool, error)

	// ClearFast empties the storage in O(1) and reports true, but only
	// when the storage is exclusively owned by the caller; otherwise it
	// changes nothing and returns false, and the caller must iterate and
	// release each node it placed there instead.
	ClearFast() bool
}

// OwnedStorage marks a Storage whose ClearFast is always truthful: no
// other tree can be sharing it, so clearing it always empties it.
type OwnedStorage[T any, I Id] interface {
	Storage[T, I]
	// Clear empties every cell unconditionally.
	Clear()
}

// StorageWithSimpleRef marks a Storage whose Ref/RefMut are plain pointers
// under the hood, letting callers collapse a Ref into a bare *T. No
// accessor in this repository uses it yet.
type StorageWithSimpleRef[T any, I Id] interface {
	Storage[T, I]
	ConvertSimpleRef(Ref[T]) *T
	ConvertSimpleRefMut(RefMut[T]) *T
}
