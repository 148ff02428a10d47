package ordmap

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"gengartree/pkg/bnode"
	"gengartree/pkg/storage"
)

func newTestSet(order int) *Set[int, storage.SlabID] {
	s := storage.NewOwnedSlab[bnode.Node[int, struct{}, storage.SlabID]]()
	return NewSet[int, storage.SlabID](s, order)
}

func setMembers(t *testing.T, s *Set[int, storage.SlabID]) []int {
	t.Helper()
	it, err := s.Iter()
	require.NoError(t, err)
	var got []int
	for {
		k, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, k)
	}
	return got
}

func TestSet_InsertReportsNewness(t *testing.T) {
	s := newTestSet(4)
	added, err := s.Insert(1)
	require.NoError(t, err)
	require.True(t, added)

	added, err = s.Insert(1)
	require.NoError(t, err)
	require.False(t, added)

	require.Equal(t, 1, s.Len())
}

func TestSet_RemoveContains(t *testing.T) {
	s := newTestSet(4)
	for _, k := range []int{1, 2, 3} {
		_, err := s.Insert(k)
		require.NoError(t, err)
	}

	ok, err := s.Contains(2)
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := s.Remove(2)
	require.NoError(t, err)
	require.True(t, removed)

	ok, err = s.Contains(2)
	require.NoError(t, err)
	require.False(t, ok)
}

func fromSlice(t *testing.T, order int, keys []int) *Set[int, storage.SlabID] {
	t.Helper()
	s := newTestSet(order)
	for _, k := range keys {
		_, err := s.Insert(k)
		require.NoError(t, err)
	}
	return s
}

func TestSet_Union(t *testing.T) {
	a := fromSlice(t, 4, []int{1, 2, 3})
	b := fromSlice(t, 4, []int{3, 4, 5})

	store := storage.NewOwnedSlab[bnode.Node[int, struct{}, storage.SlabID]]()
	u, err := Union[int, storage.SlabID](a, b, store, 4)
	require.NoError(t, err)

	got := setMembers(t, u)
	sort.Ints(got)
	require.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestSet_Intersection(t *testing.T) {
	a := fromSlice(t, 4, []int{1, 2, 3, 4})
	b := fromSlice(t, 4, []int{3, 4, 5, 6})

	store := storage.NewOwnedSlab[bnode.Node[int, struct{}, storage.SlabID]]()
	i, err := Intersection[int, storage.SlabID](a, b, store, 4)
	require.NoError(t, err)

	got := setMembers(t, i)
	sort.Ints(got)
	require.Equal(t, []int{3, 4}, got)
}

func TestSet_Difference(t *testing.T) {
	a := fromSlice(t, 4, []int{1, 2, 3, 4})
	b := fromSlice(t, 4, []int{3, 4, 5, 6})

	store := storage.NewOwnedSlab[bnode.Node[int, struct{}, storage.SlabID]]()
	d, err := Difference[int, storage.SlabID](a, b, store, 4)
	require.NoError(t, err)

	got := setMembers(t, d)
	sort.Ints(got)
	require.Equal(t, []int{1, 2}, got)
}

func TestSet_SymmetricDifference(t *testing.T) {
	a := fromSlice(t, 4, []int{1, 2, 3, 4})
	b := fromSlice(t, 4, []int{3, 4, 5, 6})

	store := storage.NewOwnedSlab[bnode.Node[int, struct{}, storage.SlabID]]()
	sd, err := SymmetricDifference[int, storage.SlabID](a, b, store, 4)
	require.NoError(t, err)

	got := setMembers(t, sd)
	sort.Ints(got)
	require.Equal(t, []int{1, 2, 5, 6}, got)
}

func TestSet_OperationsLeaveOperandsUntouched(t *testing.T) {
	a := fromSlice(t, 4, []int{1, 2, 3})
	b := fromSlice(t, 4, []int{3, 4, 5})

	store := storage.NewOwnedSlab[bnode.Node[int, struct{}, storage.SlabID]]()
	_, err := Union[int, storage.SlabID](a, b, store, 4)
	require.NoError(t, err)

	require.Equal(t, 3, a.Len())
	require.Equal(t, 3, b.Len())
}
