package ordmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntry_OrInsertOnVacant(t *testing.T) {
	m := newTestMap(4)

	e, err := m.Entry(1)
	require.NoError(t, err)
	require.False(t, e.IsOccupied())

	v, err := e.OrInsert("default")
	require.NoError(t, err)
	require.Equal(t, "default", v)

	got, ok, err := m.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "default", got)
}

func TestEntry_OrInsertOnOccupiedReturnsExisting(t *testing.T) {
	m := newTestMap(4)
	_, _, err := m.Insert(1, "existing")
	require.NoError(t, err)

	e, err := m.Entry(1)
	require.NoError(t, err)
	require.True(t, e.IsOccupied())

	v, err := e.OrInsert("default")
	require.NoError(t, err)
	require.Equal(t, "existing", v)
}

func TestEntry_OrInsertWithOnlyCallsBuilderWhenVacant(t *testing.T) {
	m := newTestMap(4)
	_, _, err := m.Insert(1, "existing")
	require.NoError(t, err)

	calls := 0
	build := func() string {
		calls++
		return "built"
	}

	e, err := m.Entry(1)
	require.NoError(t, err)
	v, err := e.OrInsertWith(build)
	require.NoError(t, err)
	require.Equal(t, "existing", v)
	require.Equal(t, 0, calls)

	e, err = m.Entry(2)
	require.NoError(t, err)
	v, err = e.OrInsertWith(build)
	require.NoError(t, err)
	require.Equal(t, "built", v)
	require.Equal(t, 1, calls)
}

func TestEntry_AndModifyThenOrInsertChains(t *testing.T) {
	m := newTestMap(4)
	_, _, err := m.Insert(1, "1")
	require.NoError(t, err)

	e, err := m.Entry(1)
	require.NoError(t, err)
	e, err = e.AndModify(func(v string) string { return v + "1" })
	require.NoError(t, err)
	_, err = e.OrInsert("0")
	require.NoError(t, err)

	got, ok, err := m.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "11", got)

	e, err = m.Entry(2)
	require.NoError(t, err)
	e, err = e.AndModify(func(v string) string { return v + "!" })
	require.NoError(t, err)
	_, err = e.OrInsert("seed")
	require.NoError(t, err)

	got, ok, err = m.Get(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "seed", got)
}
