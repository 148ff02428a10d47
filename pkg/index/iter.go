package index

import (
	"cmp"
	"errors"
)

// ErrInvalidRange is returned by NewRange when lo > hi - a programmer
// error per spec.md §7 ("invalid range bounds ... fail fast with a
// documented programmer-error condition"), never a recoverable miss.
var ErrInvalidRange = errors.New("index: invalid range bounds")

// Iter walks every entry forward, one Cursor.Advance per Next. Grounded
// on _examples/original_source/src/generic/set.rs's Iter, which is the
// same single-cursor walk over a leaf chain.
type Iter[K cmp.Ordered, V any, I comparable] struct {
	cur *Cursor[K, V, I]
}

func NewIter[K cmp.Ordered, V any, I comparable](tree *Tree[K, V, I]) (*Iter[K, V, I], error) {
	addr, err := tree.FirstAddress()
	if err != nil {
		return nil, err
	}
	return &Iter[K, V, I]{cur: NewCursorAt(tree, addr)}, nil
}

func (it *Iter[K, V, I]) Next() (K, V, bool, error) {
	k, v, ok, err := it.cur.KeyValue()
	if err != nil || !ok {
		return k, v, false, err
	}
	it.cur.Advance()
	return k, v, true, nil
}

// IterBack walks every entry backward.
type IterBack[K cmp.Ordered, V any, I comparable] struct {
	cur *Cursor[K, V, I]
}

func NewIterBack[K cmp.Ordered, V any, I comparable](tree *Tree[K, V, I]) (*IterBack[K, V, I], error) {
	addr, err := tree.LastAddress()
	if err != nil {
		return nil, err
	}
	return &IterBack[K, V, I]{cur: NewCursorAt(tree, addr)}, nil
}

func (it *IterBack[K, V, I]) Next() (K, V, bool, error) {
	k, v, ok, err := it.cur.KeyValue()
	if err != nil || !ok {
		return k, v, false, err
	}
	it.cur.AdvanceBack()
	return k, v, true, nil
}

// RangeIter walks every entry in [lo, hi) forward. Built from two
// independent address lookups rather than two cursors meeting in the
// middle - this tree's leaf-chain-only address algebra (see address.go)
// makes a single forward cursor bounded by a precomputed end address
// exactly as cheap, without needing the double-ended meet-in-the-middle
// machinery a classical-shape tree's cursor would require.
type RangeIter[K cmp.Ordered, V any, I comparable] struct {
	tree *Tree[K, V, I]
	cur  *Cursor[K, V, I]
	end  Address[I]
}

// NewRange iterates every entry with key >= lo and < hi.
func NewRange[K cmp.Ordered, V any, I comparable](tree *Tree[K, V, I], lo, hi K) (*RangeIter[K, V, I], error) {
	if lo > hi {
		return nil, ErrInvalidRange
	}
	nowhere := tree.NowhereID()
	lookup := tree.LeafLookup()

	start, _, err := tree.AddressOf(lo)
	if err != nil {
		return nil, err
	}
	end, _, err := tree.AddressOf(hi)
	if err != nil {
		return nil, err
	}

	// AddressOf can land either bound at offset == len of a leaf (a miss
	// that falls between that leaf's max key and the next leaf's min
	// key). A forward cursor never holds such an address - it always
	// steps straight to {next, 0} - so without normalizing, the end
	// comparison in Next never matches and the range runs off the end of
	// the tree, and a normalized-away start would come back empty.
	// Normalize collapses both onto the canonical {next, 0} form (or
	// Nowhere, past the last leaf) per spec.md §4.3.
	start = Normalize(start, nowhere, lookup)
	end = Normalize(end, nowhere, lookup)

	return &RangeIter[K, V, I]{tree: tree, cur: NewCursorAt(tree, start), end: end}, nil
}

func (r *RangeIter[K, V, I]) Next() (K, V, bool, error) {
	var zeroK K
	var zeroV V
	if !r.cur.IsAttached() {
		return zeroK, zeroV, false, nil
	}
	if r.cur.Address() == r.end {
		return zeroK, zeroV, false, nil
	}
	k, v, ok, err := r.cur.KeyValue()
	if err != nil || !ok {
		return zeroK, zeroV, false, err
	}
	r.cur.Advance()
	return k, v, true, nil
}

// DrainFilter visits every entry in order, removing and yielding the ones
// pred matches. Resumes after a removal by re-locating the following
// survivor's key rather than trusting a precomputed address: a removal
// can trigger a merge or rotation that moves or frees the node a raw
// "next address" would have pointed into, but a key is stable until
// something removes it. Grounded on
// _examples/original_source/src/generic/set.rs's IntoIter retain-like
// consumption, adapted for this tree's rebalancing.
type DrainFilter[K cmp.Ordered, V any, I comparable] struct {
	tree *Tree[K, V, I]
	addr Address[I]
	pred func(K, V) bool
}

func NewDrainFilter[K cmp.Ordered, V any, I comparable](tree *Tree[K, V, I], pred func(K, V) bool) (*DrainFilter[K, V, I], error) {
	addr, err := tree.FirstAddress()
	if err != nil {
		return nil, err
	}
	return &DrainFilter[K, V, I]{tree: tree, addr: addr, pred: pred}, nil
}

// Next advances past non-matching items and returns the next matched
// item along with the value that was removed for it, or ok=false once
// every remaining item has been visited.
func (d *DrainFilter[K, V, I]) Next() (K, V, bool, error) {
	nowhere := d.tree.NowhereID()
	var zeroK K
	var zeroV V

	for !d.addr.IsNowhere(nowhere) {
		k, v, ok, err := d.tree.ItemAt(d.addr)
		if err != nil || !ok {
			return zeroK, zeroV, false, err
		}
		if !d.pred(k, v) {
			d.addr = NextItemAddress(d.addr, nowhere, d.tree.LeafLookup())
			continue
		}

		nextAddr := NextItemAddress(d.addr, nowhere, d.tree.LeafLookup())
		var resumeKey K
		haveResumeKey := false
		if !nextAddr.IsNowhere(nowhere) {
			resumeKey, _, _, err = d.tree.ItemAt(nextAddr)
			if err != nil {
				return zeroK, zeroV, false, err
			}
			haveResumeKey = true
		}

		_, removedV, _, err := d.tree.RemoveAt(d.addr)
		if err != nil {
			return zeroK, zeroV, false, err
		}

		if haveResumeKey {
			addr, _, aerr := d.tree.AddressOf(resumeKey)
			if aerr != nil {
				return k, removedV, false, aerr
			}
			d.addr = addr
		} else {
			d.addr = Nowhere(nowhere)
		}
		return k, removedV, true, nil
	}
	return zeroK, zeroV, false, nil
}
