package ordmap

import (
	"cmp"

	"gengartree/pkg/index"
)

// Iter walks a Map's entries in key order.
func (m *Map[K, V, I]) Iter() (*index.Iter[K, V, I], error) { return index.NewIter(m.tree) }

// IterBack walks a Map's entries in reverse key order.
func (m *Map[K, V, I]) IterBack() (*index.IterBack[K, V, I], error) { return index.NewIterBack(m.tree) }

// Range walks entries with key in [lo, hi).
func (m *Map[K, V, I]) Range(lo, hi K) (*index.RangeIter[K, V, I], error) {
	return index.NewRange(m.tree, lo, hi)
}

// Keys projects Iter down to just the key of each entry.
type Keys[K cmp.Ordered, V any, I comparable] struct{ it *index.Iter[K, V, I] }

func (m *Map[K, V, I]) Keys() (Keys[K, V, I], error) {
	it, err := index.NewIter(m.tree)
	return Keys[K, V, I]{it: it}, err
}

func (k Keys[K, V, I]) Next() (K, bool, error) {
	key, _, ok, err := k.it.Next()
	return key, ok, err
}

// Values projects Iter down to just the value of each entry.
type Values[K cmp.Ordered, V any, I comparable] struct{ it *index.Iter[K, V, I] }

func (m *Map[K, V, I]) Values() (Values[K, V, I], error) {
	it, err := index.NewIter(m.tree)
	return Values[K, V, I]{it: it}, err
}

func (v Values[K, V, I]) Next() (V, bool, error) {
	_, val, ok, err := v.it.Next()
	return val, ok, err
}

// IntoKeys drains the map, yielding and removing each key in order.
func (m *Map[K, V, I]) IntoKeys() ([]K, error) {
	var out []K
	for {
		k, _, ok, err := m.PopFirst()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, k)
	}
}

// IntoValues drains the map, yielding and removing each value in order.
func (m *Map[K, V, I]) IntoValues() ([]V, error) {
	var out []V
	for {
		_, v, ok, err := m.PopFirst()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Append moves every entry of other into m, leaving other empty. Entries
// already present in m are overwritten, matching Insert's replace
// semantics.
func (m *Map[K, V, I]) Append(other *Map[K, V, I]) error {
	for {
		k, v, ok, err := other.PopFirst()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if _, _, err := m.Insert(k, v); err != nil {
			return err
		}
	}
}
