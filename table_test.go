package bnfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetGet(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Set("x", I64(1)))

	v, ok := tbl.Get("x")
	require.True(t, ok)
	got, _ := v.AsI64()
	assert.Equal(t, int64(1), got)

	_, ok = tbl.Get("missing")
	assert.False(t, ok)
}

func TestTableSetRejectsEmptyKey(t *testing.T) {
	tbl := NewTable()
	err := tbl.Set("", I64(1))
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestTableSetRejectsControlByteKey(t *testing.T) {
	tbl := NewTable()
	err := tbl.Set("a\x01b", I64(1))
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestTableRemove(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Set("x", I64(1)))
	tbl.Remove("x")
	assert.False(t, tbl.Has("x"))
	assert.Equal(t, 0, tbl.Len())
}

func TestTableSortedKeys(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Set("b", I64(1)))
	require.NoError(t, tbl.Set("a", I64(2)))
	require.NoError(t, tbl.Set("c", I64(3)))

	assert.Equal(t, []string{"a", "b", "c"}, tbl.SortedKeys())
}

func TestTableGetPath(t *testing.T) {
	tbl := NewTable()
	inner := NewTable()
	require.NoError(t, inner.Set("c", I64(42)))
	arr := NewArray()
	require.NoError(t, arr.Push(TableValue(inner)))
	require.NoError(t, tbl.Set("b", ArrayValue(arr)))
	outer := NewTable()
	require.NoError(t, outer.Set("a", TableValue(tbl)))

	v, err := outer.GetPath("a.b[0].c")
	require.NoError(t, err)
	n, _ := v.AsI64()
	assert.Equal(t, int64(42), n)

	_, err = outer.GetPath("a.missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = outer.GetPath("a.b[5].c")
	assert.True(t, errors.Is(err, ErrIndexOutOfBounds))

	_, err = outer.GetPath("a.b[0].c.d")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestTableEqual(t *testing.T) {
	t1 := NewTable()
	require.NoError(t, t1.Set("x", I64(1)))
	t2 := NewTable()
	require.NoError(t, t2.Set("x", I64(1)))
	assert.True(t, t1.equal(t2))

	require.NoError(t, t2.Set("y", I64(2)))
	assert.False(t, t1.equal(t2))
}
