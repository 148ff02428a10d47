package storage

// OwnedSlab is the exclusive-ownership back end: exactly one Tree ever
// refers to it, so there are no runtime borrow checks at all - Go's
// compile-time aliasing rules for plain pointers are the only discipline,
// same as the teacher's BTree holding its one *os.File outright.
type OwnedSlab[T any] struct {
	core slabCore[T]
}

// NewOwnedSlab constructs an empty owned slab.
func NewOwnedSlab[T any]() *OwnedSlab[T] {
	return &OwnedSlab[T]{}
}

func (s *OwnedSlab[T]) Nowhere() SlabID { return NowhereID }

func (s *OwnedSlab[T]) Get(id SlabID) (Ref[T], bool, error) {
	if !s.core.valid(id) {
		return Ref[T]{}, false, nil
	}
	return NewRef(&s.core.cells[id].value, nil), true, nil
}

func (s *OwnedSlab[T]) GetMut(id SlabID) (RefMut[T], bool, error) {
	if !s.core.valid(id) {
		return RefMut[T]{}, false, nil
	}
	return NewRefMut(&s.core.cells[id].value, nil), true, nil
}

func (s *OwnedSlab[T]) Insert(value T) (SlabID, error) {
	return s.core.insert(value), nil
}

func (s *OwnedSlab[T]) Remove(id SlabID) (T, bool, error) {
	v, ok := s.core.remove(id)
	return v, ok, nil
}

// ClearFast always succeeds: an owned slab is never shared.
func (s *OwnedSlab[T]) ClearFast() bool {
	s.Clear()
	return true
}

func (s *OwnedSlab[T]) Clear() {
	s.core.clear()
}

// Len reports the number of live cells.
func (s *OwnedSlab[T]) Len() int { return s.core.len() }

func (s *OwnedSlab[T]) ConvertSimpleRef(r Ref[T]) *T { return r.Value() }
func (s *OwnedSlab[T]) ConvertSimpleRefMut(r RefMut[T]) *T { return r.Value() }

var (
	_ Storage[int, SlabID]             = (*OwnedSlab[int])(nil)
	_ OwnedStorage[int, SlabID]        = (*OwnedSlab[int])(nil)
	_ StorageWithSimpleRef[int, SlabID] = (*OwnedSlab[int])(nil)
)
