// Package ordmap is the public ordered-dictionary facade: Map and Set
// wrap a pkg/index.Tree the way the teacher's pkg/index.BTree wrapped its
// on-disk pages with Open/Insert/Get, generalized to arbitrary K/V and to
// any pkg/storage back end instead of one *os.File.
package ordmap

import (
	"cmp"

	"gengartree/pkg/bnode"
	"gengartree/pkg/index"
	"gengartree/pkg/storage"
)

// Map is an ordered key/value dictionary backed by a B+-tree over a
// caller-supplied storage back end.
type Map[K cmp.Ordered, V any, I comparable] struct {
	tree *index.Tree[K, V, I]
}

// New builds an empty Map of the given tree order over store.
func New[K cmp.Ordered, V any, I comparable](store storage.Storage[bnode.Node[K, V, I], I], order int) *Map[K, V, I] {
	return &Map[K, V, I]{tree: index.New[K, V, I](store, order)}
}

func (m *Map[K, V, I]) Len() int      { return m.tree.Len() }
func (m *Map[K, V, I]) IsEmpty() bool { return m.tree.IsEmpty() }
func (m *Map[K, V, I]) Clear()        { m.tree.Clear() }

func (m *Map[K, V, I]) Contains(key K) (bool, error) { return m.tree.Contains(key) }
func (m *Map[K, V, I]) Get(key K) (V, bool, error)    { return m.tree.Get(key) }

func (m *Map[K, V, I]) GetRef(key K) (storage.Ref[V], bool, error)       { return m.tree.GetRef(key) }
func (m *Map[K, V, I]) GetRefMut(key K) (storage.RefMut[V], bool, error) { return m.tree.GetRefMut(key) }

// Insert stores value under key, returning the value it replaced if key
// was already present.
func (m *Map[K, V, I]) Insert(key K, value V) (V, bool, error) {
	return m.tree.Insert(key, value)
}

// Remove deletes key, returning the value it held.
func (m *Map[K, V, I]) Remove(key K) (V, bool, error) { return m.tree.Remove(key) }

// RemoveEntry is Remove, but also hands back the key. The key returned is
// the key argument itself, not a copy read from the tree.
func (m *Map[K, V, I]) RemoveEntry(key K) (K, V, bool, error) {
	v, ok, err := m.tree.Remove(key)
	if err != nil || !ok {
		var zeroK K
		return zeroK, v, ok, err
	}
	return key, v, true, nil
}

func (m *Map[K, V, I]) First() (K, V, bool, error) { return m.tree.First() }
func (m *Map[K, V, I]) Last() (K, V, bool, error)  { return m.tree.Last() }

// PopFirst removes and returns the smallest entry.
func (m *Map[K, V, I]) PopFirst() (K, V, bool, error) {
	k, v, ok, err := m.tree.First()
	if err != nil || !ok {
		return k, v, ok, err
	}
	_, _, err = m.tree.Remove(k)
	return k, v, true, err
}

// PopLast removes and returns the largest entry.
func (m *Map[K, V, I]) PopLast() (K, V, bool, error) {
	k, v, ok, err := m.tree.Last()
	if err != nil || !ok {
		return k, v, ok, err
	}
	_, _, err = m.tree.Remove(k)
	return k, v, true, err
}

// Update looks up key and calls f with its current value and whether the
// key was present, storing whatever f says to store: keep=true inserts
// or replaces with newVal, keep=false removes (or, for a missing key, is
// a no-op). See index.Tree.Update for the full insert/replace/remove
// contract and the panic-safety guarantee: a panicking f leaves an
// already-present entry removed, not corrupt.
func (m *Map[K, V, I]) Update(key K, f func(old V, present bool) (newVal V, keep bool)) (V, bool, error) {
	return m.tree.Update(key, f)
}

// Retain keeps only the entries for which keep returns true, removing the
// rest.
func (m *Map[K, V, I]) Retain(keep func(K, V) bool) error {
	df, err := index.NewDrainFilter(m.tree, func(k K, v V) bool { return !keep(k, v) })
	if err != nil {
		return err
	}
	for {
		_, _, ok, err := df.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// Entry returns a handle for in-place insert-or-update at key, mirroring
// the teacher's BTree.Insert "duplicate key" check turned into a
// composable API instead of a single rejecting call.
func (m *Map[K, V, I]) Entry(key K) (Entry[K, V, I], error) {
	occupied, err := m.tree.Contains(key)
	if err != nil {
		return Entry[K, V, I]{}, err
	}
	return Entry[K, V, I]{m: m, key: key, occupied: occupied}, nil
}

// Tree exposes the underlying tree for pkg/ordmap's own Set type and for
// pkg/snapshot; not part of the ordered-dictionary surface proper.
func (m *Map[K, V, I]) Tree() *index.Tree[K, V, I] { return m.tree }
