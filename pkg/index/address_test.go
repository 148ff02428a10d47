package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeChain is a minimal three-leaf chain (lengths 2, 1, 3) used to drive
// the address algebra without a real Tree.
func fakeChain() LeafLookup[int] {
	shape := map[int][3]int{
		1: {2, -1, 2},
		2: {1, 1, 3},
		3: {3, 2, -1},
	}
	return func(id int) (int, int, int, bool) {
		s, ok := shape[id]
		if !ok {
			return 0, -1, -1, false
		}
		return s[0], s[1], s[2], true
	}
}

func TestNextItemAddress_WithinAndAcrossLeaf(t *testing.T) {
	lookup := fakeChain()

	next := NextItemAddress(Address[int]{Node: 1, Offset: 0}, -1, lookup)
	require.Equal(t, Address[int]{Node: 1, Offset: 1}, next)

	next = NextItemAddress(Address[int]{Node: 1, Offset: 1}, -1, lookup)
	require.Equal(t, Address[int]{Node: 2, Offset: 0}, next)

	next = NextItemAddress(Address[int]{Node: 3, Offset: 2}, -1, lookup)
	require.True(t, next.IsNowhere(-1))
}

func TestPreviousItemAddress_WithinAndAcrossLeaf(t *testing.T) {
	lookup := fakeChain()

	prev := PreviousItemAddress(Address[int]{Node: 2, Offset: 0}, -1, lookup)
	require.Equal(t, Address[int]{Node: 1, Offset: 1}, prev)

	prev = PreviousItemAddress(Address[int]{Node: 1, Offset: 0}, -1, lookup)
	require.True(t, prev.IsNowhere(-1))
}

func TestNormalize_CollapsesBoundaryForm(t *testing.T) {
	lookup := fakeChain()

	addr := Normalize(Address[int]{Node: 1, Offset: 2}, -1, lookup)
	require.Equal(t, Address[int]{Node: 2, Offset: 0}, addr)

	addr = Normalize(Address[int]{Node: 1, Offset: 0}, -1, lookup)
	require.Equal(t, Address[int]{Node: 1, Offset: 0}, addr)

	addr = Normalize(Address[int]{Node: 3, Offset: 3}, -1, lookup)
	require.True(t, addr.IsNowhere(-1))
}

func TestFrontBackSentinels(t *testing.T) {
	require.True(t, PreviousFrontAddress(-1).IsNowhere(-1))
	require.True(t, NextBackAddress(-1).IsNowhere(-1))
}
