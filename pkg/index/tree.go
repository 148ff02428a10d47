// Package index implements the B+-tree engine: search, insert, delete,
// and the address/cursor machinery range and drain-filter iteration sit
// on top of. Nodes are never heap-allocated one at a time - every node
// lives in a pkg/storage back end supplied by the caller, and this
// package only ever talks to nodes through that back end's Storage
// interface.
package index

import (
	"cmp"
	"errors"

	"gengartree/pkg/bnode"
	"gengartree/pkg/storage"
)

// ErrDanglingNode means a child/parent/sibling id stored in a node no
// longer resolves in the backing storage - a programming error (a bug in
// this package, or a storage back end shared incorrectly), never a user
// mistake, so it is reported rather than papered over.
var ErrDanglingNode = errors.New("index: dangling node id")

// Tree is an order-M B+-tree over a Storage[bnode.Node[K,V,I], I]. Order
// is a runtime field (pkg/bnode's doc explains why it can't be a Go
// generic const parameter): a leaf or internal node never holds more than
// Order-1 items, and a non-root node never holds fewer than
// bnode.MinFill(Order).
type Tree[K cmp.Ordered, V any, I comparable] struct {
	store storage.Storage[bnode.Node[K, V, I], I]
	root  I
	order int
	size  int
}

// New builds an empty tree of the given order (order must be >= 4 for
// rotate-then-merge rebalancing to have room to work) over store.
func New[K cmp.Ordered, V any, I comparable](store storage.Storage[bnode.Node[K, V, I], I], order int) *Tree[K, V, I] {
	return &Tree[K, V, I]{store: store, root: store.Nowhere(), order: order}
}

func (t *Tree[K, V, I]) Len() int      { return t.size }
func (t *Tree[K, V, I]) IsEmpty() bool { return t.size == 0 }
func (t *Tree[K, V, I]) Order() int    { return t.order }

// RootID returns the id of the tree's root node, or Nowhere() for an
// empty tree. Exposed for pkg/snapshot's freeze/GC machinery, which needs
// a stable handle on "where this version's data starts" independent of
// whatever root a later mutation points the live tree at.
func (t *Tree[K, V, I]) RootID() I { return t.root }

// Store returns the storage backing this tree. Exposed for pkg/snapshot,
// which walks the same storage a frozen handle's root lives in to do its
// mark-sweep.
func (t *Tree[K, V, I]) Store() storage.Storage[bnode.Node[K, V, I], I] { return t.store }

// NewAt reconstructs a read path directly over an existing root/size
// rather than starting from an empty tree, so a frozen snapshot's root
// can be searched and iterated with the exact same machinery a live tree
// uses. Only pkg/snapshot calls this; nothing stops a caller from using
// the result to mutate, but doing so would silently move the root a
// frozen handle still thinks it owns, so pkg/snapshot never exposes the
// Tree it builds this way, only read-only wrappers around it.
func NewAt[K cmp.Ordered, V any, I comparable](store storage.Storage[bnode.Node[K, V, I], I], root I, order, size int) *Tree[K, V, I] {
	return &Tree[K, V, I]{store: store, root: root, order: order, size: size}
}

// Clear empties the tree. If the backing storage is exclusively owned
// (pkg/storage.OwnedStorage) this reclaims every cell; otherwise it just
// forgets the root and leaves cleanup of the now-unreachable nodes to
// whatever else shares the storage (or to snapshot.GC).
func (t *Tree[K, V, I]) Clear() {
	if owned, ok := t.store.(storage.OwnedStorage[bnode.Node[K, V, I], I]); ok {
		owned.Clear()
	}
	t.root = t.store.Nowhere()
	t.size = 0
}

// search descends from the root and returns the leaf that would hold key,
// its offset within that leaf, and whether the key is actually present
// there. An empty tree reports the nowhere leaf id and !exact.
func (t *Tree[K, V, I]) search(key K) (leaf I, offset int, exact bool, err error) {
	id := t.root
	if id == t.store.Nowhere() {
		return id, 0, false, nil
	}
	for {
		ref, ok, gerr := t.store.Get(id)
		if gerr != nil {
			return id, 0, false, gerr
		}
		if !ok {
			return id, 0, false, ErrDanglingNode
		}
		node := ref.Value()
		off, ex := node.OffsetOf(key)
		if node.IsLeaf {
			ref.Release()
			return id, off, ex, nil
		}
		child := node.Children[off]
		ref.Release()
		id = child
	}
}

// Contains reports whether key is present.
func (t *Tree[K, V, I]) Contains(key K) (bool, error) {
	_, _, exact, err := t.search(key)
	return exact, err
}

// Get returns a copy of the value stored under key.
func (t *Tree[K, V, I]) Get(key K) (V, bool, error) {
	var zero V
	leaf, offset, exact, err := t.search(key)
	if err != nil || !exact {
		return zero, false, err
	}
	ref, ok, err := t.store.Get(leaf)
	if err != nil || !ok {
		return zero, false, err
	}
	defer ref.Release()
	return ref.Value().Values[offset], true, nil
}

// GetRef returns a read borrow of the value stored under key, built via
// storage.MapRef from a borrow of the owning leaf node. Map.GetRef
// delegates here; Get returns a copy of the value instead.
func (t *Tree[K, V, I]) GetRef(key K) (storage.Ref[V], bool, error) {
	leaf, offset, exact, err := t.search(key)
	if err != nil || !exact {
		return storage.Ref[V]{}, false, err
	}
	ref, ok, err := t.store.Get(leaf)
	if err != nil || !ok {
		return storage.Ref[V]{}, false, err
	}
	return storage.MapRef(ref, func(n *bnode.Node[K, V, I]) *V { return &n.Values[offset] }), true, nil
}

// GetRefMut is GetRef's mutable counterpart.
func (t *Tree[K, V, I]) GetRefMut(key K) (storage.RefMut[V], bool, error) {
	leaf, offset, exact, err := t.search(key)
	if err != nil || !exact {
		return storage.RefMut[V]{}, false, err
	}
	ref, ok, err := t.store.GetMut(leaf)
	if err != nil || !ok {
		return storage.RefMut[V]{}, false, err
	}
	return storage.MapRefMut(ref, func(n *bnode.Node[K, V, I]) *V { return &n.Values[offset] }), true, nil
}

// Insert stores value under key, returning the value it replaced (if
// any). On leaf overflow it calls splitUp to propagate a split as far up
// the tree as needed, growing a new root if the split reaches it - the
// generalization of the teacher's insertIntoParent recursion
// (pkg/index/btree.go) to an arbitrary K/V/I and an iterative walk over
// Parent/ParentIndex instead of a recursive call stack.
func (t *Tree[K, V, I]) Insert(key K, value V) (V, bool, error) {
	var zero V
	nowhere := t.store.Nowhere()

	if t.root == nowhere {
		leaf := bnode.NewLeaf[K, V, I](nowhere)
		leaf.InsertItem(0, key, value)
		id, err := t.store.Insert(*leaf)
		if err != nil {
			return zero, false, err
		}
		t.root = id
		t.size++
		return zero, false, nil
	}

	leafID, offset, exact, err := t.search(key)
	if err != nil {
		return zero, false, err
	}

	if exact {
		refMut, ok, err := t.store.GetMut(leafID)
		if err != nil || !ok {
			return zero, false, err
		}
		old := refMut.Value().Values[offset]
		refMut.Value().Values[offset] = value
		refMut.Release()
		return old, true, nil
	}

	refMut, ok, err := t.store.GetMut(leafID)
	if err != nil || !ok {
		return zero, false, err
	}
	refMut.Value().InsertItem(offset, key, value)
	overflow := refMut.Value().Len() >= t.order
	refMut.Release()
	t.size++

	if overflow {
		if err := t.splitUp(leafID); err != nil {
			return zero, false, err
		}
	}
	return zero, false, nil
}

// Remove deletes key, returning the value it held. On leaf underflow it
// calls rebalanceUp to borrow from or merge with a sibling, propagating
// as far up the tree as needed and collapsing the root if it empties out.
func (t *Tree[K, V, I]) Remove(key K) (V, bool, error) {
	var zero V
	if t.root == t.store.Nowhere() {
		return zero, false, nil
	}
	leafID, offset, exact, err := t.search(key)
	if err != nil || !exact {
		return zero, false, err
	}

	refMut, ok, err := t.store.GetMut(leafID)
	if err != nil || !ok {
		return zero, false, err
	}
	_, v := refMut.Value().RemoveItem(offset)
	refMut.Release()
	t.size--

	if err := t.rebalanceUp(leafID); err != nil {
		return v, true, err
	}
	return v, true, nil
}

// Update looks up key and calls f with its current value and whether the
// key was present. f reports the value to store and whether to keep an
// entry at all: present=false and keep=true inserts newVal, present=true
// and keep=false removes the entry, present=true and keep=true replaces
// it - the three-way insert/replace/remove driven off f's own return
// that _examples/original_source/src/generic/map.rs models as
// Option<V> -> (Option<V>, R). Go methods can't introduce their own type
// parameter, so there's no R slot on the return side; a caller after
// more than store/remove gets it by closing over a local in f.
//
// When the key is present, its value is excised from the leaf before f
// runs, and the reinsert (or, on panic or keep=false, a rebalance of the
// now-underfull leaf) is deferred, so a panicking f leaves the tree
// exactly one entry smaller and structurally valid rather than corrupt.
func (t *Tree[K, V, I]) Update(key K, f func(old V, present bool) (newVal V, keep bool)) (V, bool, error) {
	var zero V
	leafID, offset, exact, err := t.search(key)
	if err != nil {
		return zero, false, err
	}

	if !exact {
		newVal, keep := f(zero, false)
		if !keep {
			return zero, false, nil
		}
		if leafID == t.store.Nowhere() {
			_, _, err := t.Insert(key, newVal)
			return zero, false, err
		}
		refMut, ok, err := t.store.GetMut(leafID)
		if err != nil || !ok {
			return zero, false, err
		}
		refMut.Value().InsertItem(offset, key, newVal)
		overflow := refMut.Value().Len() >= t.order
		refMut.Release()
		t.size++
		if overflow {
			if err := t.splitUp(leafID); err != nil {
				return zero, false, err
			}
		}
		return zero, false, nil
	}

	refMut, ok, err := t.store.GetMut(leafID)
	if err != nil || !ok {
		return zero, false, err
	}
	_, old := refMut.Value().RemoveItem(offset)
	refMut.Release()
	t.size--

	reinserted := false
	defer func() {
		if !reinserted {
			_ = t.rebalanceUp(leafID)
		}
	}()

	newVal, keep := f(old, true)
	if !keep {
		return old, true, nil
	}

	refMut, ok, err = t.store.GetMut(leafID)
	if err != nil || !ok {
		return old, true, err
	}
	refMut.Value().InsertItem(offset, key, newVal)
	overflow := refMut.Value().Len() >= t.order
	refMut.Release()
	t.size++
	reinserted = true

	if overflow {
		if err := t.splitUp(leafID); err != nil {
			return old, true, err
		}
	}
	return old, true, nil
}

func (t *Tree[K, V, I]) firstLeaf() (I, error) {
	nowhere := t.store.Nowhere()
	id := t.root
	if id == nowhere {
		return nowhere, nil
	}
	for {
		ref, ok, err := t.store.Get(id)
		if err != nil || !ok {
			return nowhere, err
		}
		isLeaf := ref.Value().IsLeaf
		var next I
		if !isLeaf {
			next = ref.Value().Children[0]
		}
		ref.Release()
		if isLeaf {
			return id, nil
		}
		id = next
	}
}

func (t *Tree[K, V, I]) lastLeaf() (I, error) {
	nowhere := t.store.Nowhere()
	id := t.root
	if id == nowhere {
		return nowhere, nil
	}
	for {
		ref, ok, err := t.store.Get(id)
		if err != nil || !ok {
			return nowhere, err
		}
		isLeaf := ref.Value().IsLeaf
		var next I
		if !isLeaf {
			c := ref.Value().Children
			next = c[len(c)-1]
		}
		ref.Release()
		if isLeaf {
			return id, nil
		}
		id = next
	}
}

// First returns the smallest key and its value.
func (t *Tree[K, V, I]) First() (K, V, bool, error) {
	var zeroK K
	var zeroV V
	id, err := t.firstLeaf()
	if err != nil || id == t.store.Nowhere() {
		return zeroK, zeroV, false, err
	}
	ref, ok, err := t.store.Get(id)
	if err != nil || !ok || ref.Value().Len() == 0 {
		return zeroK, zeroV, false, err
	}
	defer ref.Release()
	return ref.Value().Keys[0], ref.Value().Values[0], true, nil
}

// Last returns the largest key and its value.
func (t *Tree[K, V, I]) Last() (K, V, bool, error) {
	var zeroK K
	var zeroV V
	id, err := t.lastLeaf()
	if err != nil || id == t.store.Nowhere() {
		return zeroK, zeroV, false, err
	}
	ref, ok, err := t.store.Get(id)
	if err != nil || !ok || ref.Value().Len() == 0 {
		return zeroK, zeroV, false, err
	}
	defer ref.Release()
	n := ref.Value().Len() - 1
	return ref.Value().Keys[n], ref.Value().Values[n], true, nil
}

// FirstAddress and LastAddress seed forward/backward cursors at the two
// ends of the structure.
func (t *Tree[K, V, I]) FirstAddress() (Address[I], error) {
	id, err := t.firstLeaf()
	if err != nil {
		return Address[I]{}, err
	}
	if id == t.store.Nowhere() {
		return Nowhere(t.store.Nowhere()), nil
	}
	return LeafAddress(id, 0), nil
}

func (t *Tree[K, V, I]) LastAddress() (Address[I], error) {
	id, err := t.lastLeaf()
	if err != nil {
		return Address[I]{}, err
	}
	if id == t.store.Nowhere() {
		return Nowhere(t.store.Nowhere()), nil
	}
	ref, ok, err := t.store.Get(id)
	if err != nil || !ok {
		return Address[I]{}, err
	}
	defer ref.Release()
	if ref.Value().Len() == 0 {
		return Nowhere(t.store.Nowhere()), nil
	}
	return LeafAddress(id, ref.Value().Len()-1), nil
}

// ItemAt reads the key/value pair at addr.
func (t *Tree[K, V, I]) ItemAt(addr Address[I]) (K, V, bool, error) {
	var zeroK K
	var zeroV V
	if addr.IsNowhere(t.store.Nowhere()) {
		return zeroK, zeroV, false, nil
	}
	ref, ok, err := t.store.Get(addr.Node)
	if err != nil || !ok {
		return zeroK, zeroV, false, err
	}
	defer ref.Release()
	if addr.Offset < 0 || addr.Offset >= ref.Value().Len() {
		return zeroK, zeroV, false, nil
	}
	return ref.Value().Keys[addr.Offset], ref.Value().Values[addr.Offset], true, nil
}

// RemoveAt deletes the item at addr directly, without re-searching for a
// key - the primitive DrainFilter and other address-driven callers need
// instead of Remove(key).
func (t *Tree[K, V, I]) RemoveAt(addr Address[I]) (K, V, bool, error) {
	var zeroK K
	var zeroV V
	if addr.IsNowhere(t.store.Nowhere()) {
		return zeroK, zeroV, false, nil
	}
	refMut, ok, err := t.store.GetMut(addr.Node)
	if err != nil || !ok {
		return zeroK, zeroV, false, err
	}
	k, v := refMut.Value().RemoveItem(addr.Offset)
	refMut.Release()
	t.size--

	if err := t.rebalanceUp(addr.Node); err != nil {
		return k, v, true, err
	}
	return k, v, true, nil
}

// AddressOf locates key's address without exposing the search internals -
// used by NewRange to resolve its bounds and by DrainFilter to resume
// after a removal (iter.go).
func (t *Tree[K, V, I]) AddressOf(key K) (Address[I], bool, error) {
	leaf, offset, exact, err := t.search(key)
	if err != nil {
		return Address[I]{}, false, err
	}
	if leaf == t.store.Nowhere() {
		return Nowhere(t.store.Nowhere()), false, nil
	}
	return LeafAddress(leaf, offset), exact, nil
}

// NowhereID exposes the backing storage's sentinel id, needed by callers
// that build Address values directly (cursor.go, pkg/ordmap).
func (t *Tree[K, V, I]) NowhereID() I { return t.store.Nowhere() }

// LeafLookup adapts this tree's storage into the minimal view address.go's
// traversal functions need.
func (t *Tree[K, V, I]) LeafLookup() LeafLookup[I] {
	return func(id I) (int, I, I, bool) {
		ref, ok, err := t.store.Get(id)
		if err != nil || !ok {
			return 0, t.store.Nowhere(), t.store.Nowhere(), false
		}
		defer ref.Release()
		return ref.Value().Len(), ref.Value().Prev, ref.Value().Next, true
	}
}

// Validate walks the whole tree and returns the first structural
// invariant violation it finds, or nil. Exercised by tests after
// randomized operation sequences, never by production code paths.
func (t *Tree[K, V, I]) Validate() error {
	if t.root == t.store.Nowhere() {
		if t.size != 0 {
			return errors.New("index: empty tree reports nonzero size")
		}
		return nil
	}
	count, _, _, err := t.validateSubtree(t.root, t.store.Nowhere(), true)
	if err != nil {
		return err
	}
	if count != t.size {
		return errors.New("index: item count does not match tracked size")
	}
	return nil
}

// validateSubtree returns the item count under id, plus its minimum and
// maximum key, checking fan-out bounds, key ordering, and parent
// back-pointers along the way.
func (t *Tree[K, V, I]) validateSubtree(id I, expectParent I, isRoot bool) (count int, min K, max K, err error) {
	ref, ok, err := t.store.Get(id)
	if err != nil {
		return 0, min, max, err
	}
	if !ok {
		return 0, min, max, ErrDanglingNode
	}
	node := ref.Value()
	length := node.Len()
	parent := node.Parent
	isLeaf := node.IsLeaf
	ref.Release()

	if parent != expectParent {
		return 0, min, max, errors.New("index: stale parent pointer")
	}
	if !isRoot {
		if length < bnode.MinFill(t.order) {
			return 0, min, max, errors.New("index: node below minimum fill")
		}
	}
	if length >= t.order {
		return 0, min, max, errors.New("index: node at or above capacity")
	}

	if isLeaf {
		ref, ok, err := t.store.Get(id)
		if err != nil || !ok {
			return 0, min, max, err
		}
		keys := append([]K(nil), ref.Value().Keys...)
		ref.Release()
		for i := 1; i < len(keys); i++ {
			if !(keys[i-1] < keys[i]) {
				return 0, min, max, errors.New("index: leaf keys out of order")
			}
		}
		if len(keys) == 0 {
			return 0, min, max, nil
		}
		return len(keys), keys[0], keys[len(keys)-1], nil
	}

	ref, ok, err = t.store.Get(id)
	if err != nil || !ok {
		return 0, min, max, err
	}
	keys := append([]K(nil), ref.Value().Keys...)
	children := append([]I(nil), ref.Value().Children...)
	ref.Release()

	total := 0
	var prevMax K
	havePrevMax := false
	for i, childID := range children {
		n, childMin, childMax, err := t.validateSubtree(childID, id, false)
		if err != nil {
			return 0, min, max, err
		}
		if n > 0 {
			if i > 0 && !(keys[i-1] <= childMin) {
				return 0, min, max, errors.New("index: separator key misplaced")
			}
			if i < len(keys) && !(childMax <= keys[i]) {
				return 0, min, max, errors.New("index: separator key misplaced")
			}
			if havePrevMax && !(prevMax <= childMin) {
				return 0, min, max, errors.New("index: subtree ranges overlap")
			}
			if !havePrevMax {
				min = childMin
				havePrevMax = true
			}
			max = childMax
			prevMax = childMax
		}
		total += n
	}
	return total, min, max, nil
}
