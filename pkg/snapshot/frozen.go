// Package snapshot provides read-only header snapshots over a
// pkg/index.Tree and a tracing garbage collector for the pkg/storage
// arena those snapshots share with any number of still-mutable trees.
package snapshot

import (
	"cmp"

	"gengartree/pkg/bnode"
	"gengartree/pkg/index"
	"gengartree/pkg/storage"
)

// Frozen is a bit-copy of a tree's header - root id, order, size - taken
// without running any destructor. It is freely copyable and holds no
// lock; copying one costs exactly one struct copy no matter how large the
// underlying tree is. Grounded on dacapoday-smol/bptree's copy-on-write
// root/checkpoint handle and moodyjon-lbcd's
// database/internal/treap/immutable.go bit-copy-header, no-destructor
// idiom (reference pack).
//
// A Frozen only ever reads, but it is not an isolated copy: it shares
// live nodes with the store its source tree still writes into.
// Tree.Insert/Remove/Update mutate leaf and internal nodes in place
// (see tree.go's InsertItem/RemoveItem call sites), so a Frozen taken
// before a later mutation of its still-live source tree can observe
// that mutation the next time it reads through root. What Freeze does
// guarantee is cheap, GC-safe retention: as long as a Frozen exists,
// GC (see gc.go) treats its root as reachable and will not sweep the
// nodes still reachable from it, even after the source tree's own root
// has moved on past them.
type Frozen[K cmp.Ordered, V any, I comparable] struct {
	store storage.Storage[bnode.Node[K, V, I], I]
	root  I
	order int
	size  int
}

// Freeze captures tree's current header.
func Freeze[K cmp.Ordered, V any, I comparable](tree *index.Tree[K, V, I]) Frozen[K, V, I] {
	return Frozen[K, V, I]{store: tree.Store(), root: tree.RootID(), order: tree.Order(), size: tree.Len()}
}

func (f Frozen[K, V, I]) Len() int      { return f.size }
func (f Frozen[K, V, I]) IsEmpty() bool { return f.size == 0 }

// view reconstructs the read path this snapshot's root supports, reusing
// pkg/index's search/iteration machinery without exposing any mutating
// method of *index.Tree.
func (f Frozen[K, V, I]) view() *index.Tree[K, V, I] {
	return index.NewAt(f.store, f.root, f.order, f.size)
}

func (f Frozen[K, V, I]) Contains(key K) (bool, error) { return f.view().Contains(key) }
func (f Frozen[K, V, I]) Get(key K) (V, bool, error)   { return f.view().Get(key) }
func (f Frozen[K, V, I]) First() (K, V, bool, error)   { return f.view().First() }
func (f Frozen[K, V, I]) Last() (K, V, bool, error)    { return f.view().Last() }

// Iter walks the snapshot's entries in key order.
func (f Frozen[K, V, I]) Iter() (*index.Iter[K, V, I], error) { return index.NewIter(f.view()) }

// IterBack walks the snapshot's entries in reverse key order.
func (f Frozen[K, V, I]) IterBack() (*index.IterBack[K, V, I], error) {
	return index.NewIterBack(f.view())
}

// Range walks the snapshot's entries with key in [lo, hi).
func (f Frozen[K, V, I]) Range(lo, hi K) (*index.RangeIter[K, V, I], error) {
	return index.NewRange(f.view(), lo, hi)
}
