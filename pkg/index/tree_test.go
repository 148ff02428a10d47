package index

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"gengartree/pkg/bnode"
	"gengartree/pkg/storage"
)

func newTestTree(order int) *Tree[int, string, storage.SlabID] {
	s := storage.NewOwnedSlab[bnode.Node[int, string, storage.SlabID]]()
	return New[int, string, storage.SlabID](s, order)
}

func TestTree_InsertAndGet_Sequential(t *testing.T) {
	tr := newTestTree(8)
	for i := 0; i < 200; i++ {
		old, replaced, err := tr.Insert(i, "v")
		require.NoError(t, err)
		require.False(t, replaced)
		require.Empty(t, old)
	}
	require.NoError(t, tr.Validate())
	require.Equal(t, 200, tr.Len())

	for i := 0; i < 200; i++ {
		v, ok, err := tr.Get(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "v", v)
	}
}

func TestTree_DuplicateKeyReplaces(t *testing.T) {
	tr := newTestTree(4)
	_, replaced, err := tr.Insert(1, "a")
	require.NoError(t, err)
	require.False(t, replaced)

	old, replaced, err := tr.Insert(1, "b")
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, "a", old)

	v, _, _ := tr.Get(1)
	require.Equal(t, "b", v)
	require.Equal(t, 1, tr.Len())
}

func TestTree_SpansMultipleLevelsAndValidates(t *testing.T) {
	tr := newTestTree(4)
	for i := 0; i < 500; i++ {
		_, _, err := tr.Insert(i, "v")
		require.NoError(t, err)
		require.NoError(t, tr.Validate())
	}
}

func TestTree_RemoveDownToEmpty_CollapsesRoot(t *testing.T) {
	tr := newTestTree(4)
	for i := 0; i < 100; i++ {
		_, _, err := tr.Insert(i, "v")
		require.NoError(t, err)
	}
	for i := 0; i < 100; i++ {
		v, ok, err := tr.Remove(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "v", v)
		require.NoError(t, tr.Validate())
	}
	require.Equal(t, 0, tr.Len())
	require.True(t, tr.IsEmpty())

	_, ok, err := tr.Remove(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTree_RemoveInReverseOrder(t *testing.T) {
	tr := newTestTree(5)
	for i := 0; i < 300; i++ {
		_, _, _ = tr.Insert(i, "v")
	}
	for i := 299; i >= 0; i-- {
		_, ok, err := tr.Remove(i)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tr.Validate())
	}
	require.Equal(t, 0, tr.Len())
}

func TestTree_FirstAndLast(t *testing.T) {
	tr := newTestTree(4)
	_, _, ok, err := tr.First()
	require.NoError(t, err)
	require.False(t, ok)

	for _, k := range []int{5, 1, 9, 3, 7} {
		_, _, _ = tr.Insert(k, "v")
	}
	firstK, _, ok, err := tr.First()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, firstK)

	lastK, _, ok, err := tr.Last()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 9, lastK)
}

func TestTree_UpdatePanicSafety(t *testing.T) {
	tr := newTestTree(4)
	for i := 0; i < 20; i++ {
		_, _, _ = tr.Insert(i, "v")
	}
	require.Equal(t, 20, tr.Len())

	func() {
		defer func() { _ = recover() }()
		_, _, _ = tr.Update(10, func(v string, present bool) (string, bool) {
			panic("boom")
		})
	}()

	require.Equal(t, 19, tr.Len(), "a panicking update leaves the tree exactly one entry smaller")
	require.NoError(t, tr.Validate())
	_, ok, err := tr.Get(10)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTree_UpdateReplacesValue(t *testing.T) {
	tr := newTestTree(4)
	_, _, _ = tr.Insert(1, "a")

	old, found, err := tr.Update(1, func(v string, present bool) (string, bool) { return v + "!", true })
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a", old)

	v, _, _ := tr.Get(1)
	require.Equal(t, "a!", v)
	require.NoError(t, tr.Validate())
}

func TestTree_UpdateInsertsMissingKeyWhenKeepIsTrue(t *testing.T) {
	tr := newTestTree(4)
	_, _, _ = tr.Insert(1, "a")

	old, found, err := tr.Update(2, func(v string, present bool) (string, bool) {
		require.False(t, present)
		return "b", true
	})
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, "", old)

	v, ok, err := tr.Get(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", v)
	require.Equal(t, 2, tr.Len())
	require.NoError(t, tr.Validate())
}

func TestTree_UpdateRemovesOnKeepFalse(t *testing.T) {
	tr := newTestTree(4)
	_, _, _ = tr.Insert(1, "a")

	old, found, err := tr.Update(1, func(v string, present bool) (string, bool) {
		require.True(t, present)
		return v, false
	})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "a", old)

	_, ok, err := tr.Get(1)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, tr.Len())
	require.NoError(t, tr.Validate())
}

func TestTree_RandomizedAgainstReference(t *testing.T) {
	tr := newTestTree(5)
	reference := map[int]string{}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 2000; i++ {
		key := rng.Intn(150)
		if rng.Intn(3) == 0 {
			_, existed, err := tr.Remove(key)
			require.NoError(t, err)
			_, refExisted := reference[key]
			require.Equal(t, refExisted, existed)
			delete(reference, key)
		} else {
			val := "v"
			_, _, err := tr.Insert(key, val)
			require.NoError(t, err)
			reference[key] = val
		}
	}
	require.NoError(t, tr.Validate())
	require.Equal(t, len(reference), tr.Len())

	keys := make([]int, 0, len(reference))
	for k := range reference {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		v, ok, err := tr.Get(k)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, reference[k], v)
	}

	firstK, _, ok, err := tr.First()
	require.NoError(t, err)
	if len(keys) > 0 {
		require.True(t, ok)
		require.Equal(t, keys[0], firstK)
	}
}
