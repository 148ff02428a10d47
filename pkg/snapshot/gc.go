package snapshot

import (
	"cmp"

	"gengartree/pkg/bnode"
	"gengartree/pkg/storage"
)

// Sweepable is the capability gc needs from a storage back end: enumerate
// every currently occupied cell, so sweep can tell "never reached" apart
// from "reachable but not yet visited". Only storage.PointerArena and
// storage.NodeArena implement it in this repository (NodeArena is the one
// a Tree can be built over) - mark-sweep GC only makes sense for a
// back end whose cells genuinely outlive any single tree (spec.md §4.7);
// the slab back ends are scoped to whichever trees directly hold their
// ids, and nothing hands a slab id out to a GC root set the way Freeze
// does for an arena-backed tree.
type Sweepable[T any, I storage.Id] interface {
	storage.Storage[T, I]
	AllIDs() []I
}

// GC performs a mark-sweep collection of store, retaining every node
// reachable from any of roots and removing everything else. It assumes
// roots is the complete set of outstanding Frozen handles over store, per
// spec.md §4.7's "implicit guarantee that no other reachable handles
// exist" - a live handle left out of roots has its nodes swept out from
// under it, silently. Any still-mutable *index.Tree sharing the same
// store must be frozen (or otherwise represented) and included in roots
// before calling GC, for the same reason.
//
// Grounded on spec.md §4.7: "does a pre-order traversal of each handle to
// collect every reachable node id into a set, then sweeps the arena
// retaining only those cells."
func GC[K cmp.Ordered, V any, I comparable](store Sweepable[bnode.Node[K, V, I], I], roots []Frozen[K, V, I]) (freed int, err error) {
	reachable := make(map[I]struct{})
	for _, root := range roots {
		if err := mark(store, root.root, reachable); err != nil {
			return 0, err
		}
	}
	for _, id := range store.AllIDs() {
		if _, ok := reachable[id]; ok {
			continue
		}
		_, removed, err := store.Remove(id)
		if err != nil {
			return freed, err
		}
		if removed {
			freed++
		}
	}
	return freed, nil
}

// mark walks the subtree rooted at id in pre-order, recording every node
// id it visits. It stops descending at leaves: a leaf's Prev/Next
// leaf-chain pointers never reach a node outside this same tree, and
// every leaf is already reachable from its parent's Children, so the
// chain adds no id mark wouldn't already visit via the normal descent.
func mark[K cmp.Ordered, V any, I comparable](store storage.Storage[bnode.Node[K, V, I], I], id I, reachable map[I]struct{}) error {
	if id == store.Nowhere() {
		return nil
	}
	if _, seen := reachable[id]; seen {
		return nil
	}
	reachable[id] = struct{}{}

	ref, ok, err := store.Get(id)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	isLeaf := ref.Value().IsLeaf
	children := append([]I(nil), ref.Value().Children...)
	ref.Release()
	if isLeaf {
		return nil
	}
	for _, child := range children {
		if err := mark(store, child, reachable); err != nil {
			return err
		}
	}
	return nil
}
