package ordmap

import (
	"cmp"

	"github.com/dolthub/maphash"

	"gengartree/pkg/bnode"
	"gengartree/pkg/index"
	"gengartree/pkg/storage"
)

// Set is an ordered set of keys, implemented as a Map[K, struct{}, I] -
// the same zero-width-value trick the teacher's index never needed but
// every generic ordered-set library in the pack (and the original source
// it was distilled from) uses.
type Set[K cmp.Ordered, I comparable] struct {
	m *Map[K, struct{}, I]
}

func NewSet[K cmp.Ordered, I comparable](store storage.Storage[bnode.Node[K, struct{}, I], I], order int) *Set[K, I] {
	return &Set[K, I]{m: New[K, struct{}, I](store, order)}
}

func (s *Set[K, I]) Len() int      { return s.m.Len() }
func (s *Set[K, I]) IsEmpty() bool { return s.m.IsEmpty() }
func (s *Set[K, I]) Clear()        { s.m.Clear() }

func (s *Set[K, I]) Contains(key K) (bool, error) { return s.m.Contains(key) }

// Insert adds key, reporting whether it was newly added (false if it was
// already a member).
func (s *Set[K, I]) Insert(key K) (bool, error) {
	_, replaced, err := s.m.Insert(key, struct{}{})
	return !replaced, err
}

func (s *Set[K, I]) Remove(key K) (bool, error) {
	_, ok, err := s.m.Remove(key)
	return ok, err
}

func (s *Set[K, I]) First() (K, bool, error) {
	k, _, ok, err := s.m.First()
	return k, ok, err
}

func (s *Set[K, I]) Last() (K, bool, error) {
	k, _, ok, err := s.m.Last()
	return k, ok, err
}

// Iter walks the set's members in order.
func (s *Set[K, I]) Iter() (Keys[K, struct{}, I], error) { return s.m.Keys() }

// setSeq is a tiny peekable sequence used by the merge-walk set
// operations below; it exists only so Union/Intersection/Difference/
// SymmetricDifference can drive two sets in lockstep without exposing
// index.Iter.
type setSeq[K cmp.Ordered, I comparable] struct {
	it *index.Iter[K, struct{}, I]
}

func (s *Set[K, I]) seq() (*setSeq[K, I], error) {
	it, err := index.NewIter(s.m.tree)
	return &setSeq[K, I]{it: it}, err
}

func (sq *setSeq[K, I]) next() (K, bool, error) {
	k, _, ok, err := sq.it.Next()
	return k, ok, err
}

// tiebreak picks a side when both operands hold an equal key, via a
// randomly-seeded hash of the key rather than always favoring one
// operand. Grounded on
// _examples/original_source/src/generic/set.rs's EitherElemRef::either
// (hashes two sentinel markers with DefaultHasher to choose a side) and
// on TomTonic-multimap's use of the same github.com/dolthub/maphash
// package in the reference pack. Since this Set carries no payload
// beyond the key itself, the two instances are always equal - the
// tiebreak exists to keep the merge-walk's choice from being a silent,
// permanent left-bias, which would matter the moment Set grows a
// richer element type.
func tiebreak[K comparable](hasher maphash.Hasher[K], key K) bool {
	return hasher.Hash(key)%2 == 0
}

// Union returns a new set containing every key in a or b, built fresh
// over store/order rather than mutating either operand.
func Union[K cmp.Ordered, I comparable](a, b *Set[K, I], store storage.Storage[bnode.Node[K, struct{}, I], I], order int) (*Set[K, I], error) {
	out := NewSet[K, I](store, order)
	hasher := maphash.NewHasher[K]()

	aSeq, err := a.seq()
	if err != nil {
		return nil, err
	}
	bSeq, err := b.seq()
	if err != nil {
		return nil, err
	}

	ak, aok, err := aSeq.next()
	if err != nil {
		return nil, err
	}
	bk, bok, err := bSeq.next()
	if err != nil {
		return nil, err
	}

	for aok || bok {
		switch {
		case aok && (!bok || ak < bk):
			if _, err = out.Insert(ak); err != nil {
				return nil, err
			}
			ak, aok, err = aSeq.next()
		case bok && (!aok || bk < ak):
			if _, err = out.Insert(bk); err != nil {
				return nil, err
			}
			bk, bok, err = bSeq.next()
		default:
			chosen := ak
			if !tiebreak(hasher, ak) {
				chosen = bk
			}
			if _, err = out.Insert(chosen); err != nil {
				return nil, err
			}
			if ak, aok, err = aSeq.next(); err != nil {
				return nil, err
			}
			bk, bok, err = bSeq.next()
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Intersection returns a new set containing only keys present in both a
// and b.
func Intersection[K cmp.Ordered, I comparable](a, b *Set[K, I], store storage.Storage[bnode.Node[K, struct{}, I], I], order int) (*Set[K, I], error) {
	out := NewSet[K, I](store, order)
	hasher := maphash.NewHasher[K]()

	aSeq, err := a.seq()
	if err != nil {
		return nil, err
	}
	bSeq, err := b.seq()
	if err != nil {
		return nil, err
	}

	ak, aok, err := aSeq.next()
	if err != nil {
		return nil, err
	}
	bk, bok, err := bSeq.next()
	if err != nil {
		return nil, err
	}

	for aok && bok {
		switch {
		case ak < bk:
			ak, aok, err = aSeq.next()
		case bk < ak:
			bk, bok, err = bSeq.next()
		default:
			chosen := ak
			if !tiebreak(hasher, ak) {
				chosen = bk
			}
			if _, err = out.Insert(chosen); err != nil {
				return nil, err
			}
			if ak, aok, err = aSeq.next(); err != nil {
				return nil, err
			}
			bk, bok, err = bSeq.next()
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Difference returns a new set containing the keys in a that are not
// in b.
func Difference[K cmp.Ordered, I comparable](a, b *Set[K, I], store storage.Storage[bnode.Node[K, struct{}, I], I], order int) (*Set[K, I], error) {
	out := NewSet[K, I](store, order)

	aSeq, err := a.seq()
	if err != nil {
		return nil, err
	}
	bSeq, err := b.seq()
	if err != nil {
		return nil, err
	}

	ak, aok, err := aSeq.next()
	if err != nil {
		return nil, err
	}
	bk, bok, err := bSeq.next()
	if err != nil {
		return nil, err
	}

	for aok {
		switch {
		case !bok || ak < bk:
			if _, err = out.Insert(ak); err != nil {
				return nil, err
			}
			ak, aok, err = aSeq.next()
		case bok && bk < ak:
			bk, bok, err = bSeq.next()
		default:
			if ak, aok, err = aSeq.next(); err != nil {
				return nil, err
			}
			bk, bok, err = bSeq.next()
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SymmetricDifference returns a new set containing the keys present in
// exactly one of a or b.
func SymmetricDifference[K cmp.Ordered, I comparable](a, b *Set[K, I], store storage.Storage[bnode.Node[K, struct{}, I], I], order int) (*Set[K, I], error) {
	out := NewSet[K, I](store, order)

	aSeq, err := a.seq()
	if err != nil {
		return nil, err
	}
	bSeq, err := b.seq()
	if err != nil {
		return nil, err
	}

	ak, aok, err := aSeq.next()
	if err != nil {
		return nil, err
	}
	bk, bok, err := bSeq.next()
	if err != nil {
		return nil, err
	}

	for aok || bok {
		switch {
		case aok && (!bok || ak < bk):
			if _, err = out.Insert(ak); err != nil {
				return nil, err
			}
			ak, aok, err = aSeq.next()
		case bok && (!aok || bk < ak):
			if _, err = out.Insert(bk); err != nil {
				return nil, err
			}
			bk, bok, err = bSeq.next()
		default:
			if ak, aok, err = aSeq.next(); err != nil {
				return nil, err
			}
			bk, bok, err = bSeq.next()
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
