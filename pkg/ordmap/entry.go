package ordmap

import "cmp"

// Entry is a handle on one key's slot, obtained once via Map.Entry and
// carrying the occupied/vacant answer from that lookup through an
// insert-or-update decision - the same role Rust's
// std::collections::BTreeMap::entry plays, rendered without sum types as
// an explicit occupied flag. It does not avoid a second tree search:
// OrInsert, OrInsertWith and AndModify each call back into Map, which
// re-searches the tree from its root.
type Entry[K cmp.Ordered, V any, I comparable] struct {
	m        *Map[K, V, I]
	key      K
	occupied bool
}

// IsOccupied reports whether the key already had a value when this Entry
// was obtained. Stale after any subsequent mutation through this Entry.
func (e Entry[K, V, I]) IsOccupied() bool { return e.occupied }

// Key returns the entry's key.
func (e Entry[K, V, I]) Key() K { return e.key }

// OrInsert returns the existing value, or inserts and returns value if
// the key was vacant.
func (e Entry[K, V, I]) OrInsert(value V) (V, error) {
	if e.occupied {
		v, _, err := e.m.Get(e.key)
		return v, err
	}
	_, _, err := e.m.Insert(e.key, value)
	return value, err
}

// OrInsertWith is OrInsert, but only calls f (to build the default) when
// the key is actually vacant.
func (e Entry[K, V, I]) OrInsertWith(f func() V) (V, error) {
	if e.occupied {
		v, _, err := e.m.Get(e.key)
		return v, err
	}
	value := f()
	_, _, err := e.m.Insert(e.key, value)
	return value, err
}

// AndModify runs f against the current value in place (via Map.Update)
// if the key is occupied, otherwise it is a no-op. Returns an Entry
// reflecting the (unchanged) occupied state, so it can still be chained
// into OrInsert.
func (e Entry[K, V, I]) AndModify(f func(V) V) (Entry[K, V, I], error) {
	if e.occupied {
		replace := func(old V, _ bool) (V, bool) { return f(old), true }
		if _, _, err := e.m.Update(e.key, replace); err != nil {
			return e, err
		}
	}
	return e, nil
}
