package index

// An Address names one item slot in the leaf chain: the leaf holding it
// plus the item's offset inside that leaf. Internal nodes never appear in
// an Address - this tree's leaves carry every value and are linked
// front-to-back, so cursoring never needs to climb back up to a parent
// the way a classical B-tree's address algebra would. Grounded on
// _examples/original_source/src/cursor.rs's Cursor, which likewise tracks
// only a leaf pointer and an in-leaf index.
type Address[I comparable] struct {
	Node   I
	Offset int
}

// IsNowhere reports whether addr denotes the detached/off-the-end
// position rather than a real item.
func (addr Address[I]) IsNowhere(nowhere I) bool { return addr.Node == nowhere }

// Nowhere is the sentinel address used by a detached cursor and returned
// by traversal past either end of the chain.
func Nowhere[I comparable](nowhere I) Address[I] { return Address[I]{Node: nowhere} }

// LeafAddress builds the address of item offset within leaf. Trivial on
// its own; named to match the role it plays once a tree descent has
// already located the owning leaf (see Tree.search).
func LeafAddress[I comparable](leaf I, offset int) Address[I] {
	return Address[I]{Node: leaf, Offset: offset}
}

// LeafLookup gives the address algebra just enough of a leaf's shape to
// cross a node boundary, without pulling in the storage package: how many
// items it holds, and its neighbors in the sibling chain. ok is false for
// the nowhere id.
type LeafLookup[I comparable] func(id I) (length int, prev, next I, ok bool)

// NextItemAddress returns the address immediately following addr: the
// next offset in the same leaf, or offset 0 of the next leaf if addr was
// already the last item, or Nowhere if addr was the last item of the last
// leaf.
func NextItemAddress[I comparable](addr Address[I], nowhere I, lookup LeafLookup[I]) Address[I] {
	length, _, next, ok := lookup(addr.Node)
	if !ok {
		return Nowhere(nowhere)
	}
	if addr.Offset < length-1 {
		return Address[I]{Node: addr.Node, Offset: addr.Offset + 1}
	}
	if next == nowhere {
		return Nowhere(nowhere)
	}
	return Address[I]{Node: next, Offset: 0}
}

// PreviousItemAddress is NextItemAddress's mirror image.
func PreviousItemAddress[I comparable](addr Address[I], nowhere I, lookup LeafLookup[I]) Address[I] {
	if addr.Offset > 0 {
		return Address[I]{Node: addr.Node, Offset: addr.Offset - 1}
	}
	_, prev, _, ok := lookup(addr.Node)
	if !ok || prev == nowhere {
		return Nowhere(nowhere)
	}
	prevLen, _, _, _ := lookup(prev)
	return Address[I]{Node: prev, Offset: prevLen - 1}
}

// PreviousFrontAddress and NextBackAddress name the two "one past either
// end" positions: the slot just before the structure's very first item,
// and the slot just after its very last. Both collapse to the same
// Nowhere representation in this leaf-chain scheme. The iterators in
// iter.go do not start from them: they seed their cursors at
// Tree.FirstAddress/LastAddress, since advancing a cursor that sits at
// Nowhere leaves it at Nowhere.
func PreviousFrontAddress[I comparable](nowhere I) Address[I] { return Nowhere(nowhere) }

func NextBackAddress[I comparable](nowhere I) Address[I] { return Nowhere(nowhere) }

// Normalize collapses the two ways of naming a position at a leaf
// boundary - offset == length of this leaf vs. offset 0 of the next leaf -
// into the latter, canonical form, so two addresses denoting the same
// item always compare equal.
func Normalize[I comparable](addr Address[I], nowhere I, lookup LeafLookup[I]) Address[I] {
	if addr.IsNowhere(nowhere) {
		return addr
	}
	length, _, next, ok := lookup(addr.Node)
	if !ok {
		return addr
	}
	if addr.Offset < length {
		return addr
	}
	if next == nowhere {
		return Nowhere(nowhere)
	}
	return Address[I]{Node: next, Offset: 0}
}
