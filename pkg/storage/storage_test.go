package storage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnedSlab_InsertGetRemove(t *testing.T) {
	s := NewOwnedSlab[string]()

	id, err := s.Insert("a")
	require.NoError(t, err)

	ref, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", *ref.Value())

	v, ok, err := s.Remove(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", v)

	_, ok, err = s.Get(id)
	require.NoError(t, err)
	require.False(t, ok, "removed id must be index-stale, not an error")
}

func TestOwnedSlab_ReusesFreedSlots(t *testing.T) {
	s := NewOwnedSlab[int]()
	a, _ := s.Insert(1)
	b, _ := s.Insert(2)
	_, _, _ = s.Remove(a)
	c, _ := s.Insert(3)
	require.Equal(t, a, c, "freed slot should be reused before growing")
	require.NotEqual(t, a, b)
}

func TestOwnedSlab_ClearFastAlwaysTrue(t *testing.T) {
	s := NewOwnedSlab[int]()
	s.Insert(1)
	s.Insert(2)
	require.True(t, s.ClearFast())
	require.Equal(t, 0, s.Len())
}

func TestSharedSlab_ReadersCanCoexist(t *testing.T) {
	s := NewSharedSlab[int]()
	id, _ := s.Insert(42)

	r1, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	r2, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)

	r1.Release()
	r2.Release()
}

func TestSharedSlab_WriterExcludesEverything(t *testing.T) {
	s := NewSharedSlab[int]()
	id, _ := s.Insert(42)

	w, ok, err := s.GetMut(id)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = s.Get(id)
	require.ErrorIs(t, err, ErrAliasingViolation)

	_, err = s.Insert(7)
	require.ErrorIs(t, err, ErrAliasingViolation)

	w.Release()

	_, ok, err = s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSharedSlab_ClearFastRespectsAttachment(t *testing.T) {
	s := NewSharedSlab[int]()
	s.Attach()
	s.Attach()
	s.Insert(1)
	require.False(t, s.ClearFast(), "two attached trees must not let either clear the arena")

	s.Detach()
	require.True(t, s.ClearFast())
}

func TestSharedConcurrentSlab_ConcurrentReaders(t *testing.T) {
	s := NewSharedConcurrentSlab[int]()
	id, _ := s.Insert(7)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, ok, err := s.Get(id)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, 7, *ref.Value())
			ref.Release()
		}()
	}
	wg.Wait()
}

func TestSharedConcurrentSlab_WriteSerializes(t *testing.T) {
	s := NewSharedConcurrentSlab[int]()
	id, _ := s.Insert(0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, ok, err := s.GetMut(id)
			require.NoError(t, err)
			require.True(t, ok)
			*ref.Value()++
			ref.Release()
		}()
	}
	wg.Wait()

	ref, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 50, *ref.Value())
}

func TestPointerArena_InsertGetRemove(t *testing.T) {
	a := NewPointerArena[string]()

	id, err := a.Insert("x")
	require.NoError(t, err)

	ref, ok, err := a.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", *ref.Value())

	v, ok, err := a.Remove(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x", v)

	_, ok, _ = a.Get(id)
	require.False(t, ok)
}

func TestPointerArena_GrowthNeverMovesLiveCells(t *testing.T) {
	a := NewPointerArena[int]()

	ids := make([]ArenaID[int], 0, arenaSegmentSize+10)
	for i := 0; i < arenaSegmentSize+10; i++ {
		id, _ := a.Insert(i)
		ids = append(ids, id)
	}

	// Growing past one segment must not have invalidated earlier ids.
	for i, id := range ids {
		ref, ok, err := a.Get(id)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, *ref.Value())
	}
}

func TestPointerArena_ClearFastAlwaysFalse(t *testing.T) {
	a := NewPointerArena[int]()
	a.Insert(1)
	require.False(t, a.ClearFast())
}

func TestRef_MapAndTryMap(t *testing.T) {
	type pair struct {
		K int
		V string
	}
	s := NewOwnedSlab[pair]()
	id, _ := s.Insert(pair{K: 1, V: "one"})
	ref, _, _ := s.Get(id)

	vref := MapRef(ref, func(p *pair) *string { return &p.V })
	require.Equal(t, "one", *vref.Value())

	mapped, original, ok := TryMapRef(ref, func(p *pair) (*int, bool) {
		if p.K > 0 {
			return &p.K, true
		}
		return nil, false
	})
	require.True(t, ok)
	require.Equal(t, 1, *mapped.Value())
	require.Nil(t, original.Value())

	_, original, ok = TryMapRef(ref, func(p *pair) (*int, bool) { return nil, false })
	require.False(t, ok)
	require.Equal(t, "one", original.Value().V)
}
