package index

import "cmp"

// Cursor walks a Tree's item addresses one step at a time, forward or
// backward, detaching to Nowhere when it steps off either end. Ported
// from _examples/original_source/src/cursor.rs's Cursor: the same
// advance/advance_back/key_value/detach shape, with storage
// Get/ItemAt calls standing in for the original's unsafe NodePtr
// dereferences.
type Cursor[K cmp.Ordered, V any, I comparable] struct {
	tree *Tree[K, V, I]
	addr Address[I]
}

// NewCursorAt builds a cursor already positioned at addr (which may be
// the Nowhere sentinel, yielding a detached cursor).
func NewCursorAt[K cmp.Ordered, V any, I comparable](tree *Tree[K, V, I], addr Address[I]) *Cursor[K, V, I] {
	return &Cursor[K, V, I]{tree: tree, addr: addr}
}

// IsAttached reports whether the cursor currently names a real item.
func (c *Cursor[K, V, I]) IsAttached() bool { return !c.addr.IsNowhere(c.tree.NowhereID()) }

// Detach makes the cursor have no current entry.
func (c *Cursor[K, V, I]) Detach() { c.addr = Nowhere(c.tree.NowhereID()) }

// Address returns the cursor's current position.
func (c *Cursor[K, V, I]) Address() Address[I] { return c.addr }

// Advance moves to the next entry, detaching if there is none.
func (c *Cursor[K, V, I]) Advance() {
	c.addr = NextItemAddress(c.addr, c.tree.NowhereID(), c.tree.LeafLookup())
}

// AdvanceBack moves to the previous entry, detaching if there is none.
func (c *Cursor[K, V, I]) AdvanceBack() {
	c.addr = PreviousItemAddress(c.addr, c.tree.NowhereID(), c.tree.LeafLookup())
}

// KeyValue reads the entry the cursor currently names.
func (c *Cursor[K, V, I]) KeyValue() (K, V, bool, error) {
	return c.tree.ItemAt(c.addr)
}
