package binreader

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/bnfg/internal/binwriter"
	"github.com/scigolib/bnfg/internal/wire"
)

func buildBuffer(t *testing.T, build func(w *binwriter.Writer)) []byte {
	t.Helper()
	w, err := binwriter.New(1)
	require.NoError(t, err)
	build(w)
	buf, err := w.Finish()
	require.NoError(t, err)
	return buf
}

func TestReadMinimalBinary(t *testing.T) {
	buf := buildBuffer(t, func(w *binwriter.Writer) {
		require.NoError(t, w.Bool("x", true))
	})

	r, err := New(buf)
	require.NoError(t, err)

	v, err := r.Root().Get("x")
	require.NoError(t, err)
	b, err := v.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}

func TestReadRejectsBadMagic(t *testing.T) {
	buf := buildBuffer(t, func(w *binwriter.Writer) {
		require.NoError(t, w.Bool("x", true))
	})
	buf[0] ^= 0xFF

	_, err := New(buf)
	assert.ErrorIs(t, err, wire.ErrBadMagic)
}

func TestReadRejectsLengthMismatch(t *testing.T) {
	buf := buildBuffer(t, func(w *binwriter.Writer) {
		require.NoError(t, w.Bool("x", true))
	})

	_, err := New(append(buf, 0, 0, 0))
	assert.ErrorIs(t, err, wire.ErrLengthMismatch)
}

func TestReadRejectsTruncatedBuffer(t *testing.T) {
	_, err := New([]byte{1, 2, 3})
	assert.ErrorIs(t, err, wire.ErrUnexpectedEndOfBuffer)
}

func TestIterIsLexicographic(t *testing.T) {
	w, err := binwriter.New(2)
	require.NoError(t, err)
	require.NoError(t, w.I64("a", 2))
	require.NoError(t, w.I64("b", 1))
	buf, err := w.Finish()
	require.NoError(t, err)

	r, err := New(buf)
	require.NoError(t, err)

	var keys []string
	r.Root().Iter(func(key string, v ValueRef) bool {
		keys = append(keys, key)
		return true
	})
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestGetMissingKey(t *testing.T) {
	buf := buildBuffer(t, func(w *binwriter.Writer) {
		require.NoError(t, w.Bool("x", true))
	})
	r, err := New(buf)
	require.NoError(t, err)

	_, err = r.Root().Get("missing")
	assert.ErrorIs(t, err, wire.ErrKeyNotFound)
}

func TestTypedAccessorMismatch(t *testing.T) {
	buf := buildBuffer(t, func(w *binwriter.Writer) {
		require.NoError(t, w.Bool("x", true))
	})
	r, err := New(buf)
	require.NoError(t, err)

	v, err := r.Root().Get("x")
	require.NoError(t, err)
	_, err = v.AsString()
	assert.ErrorIs(t, err, wire.ErrIncorrectValueType)
}

func TestNestedArrayAndTable(t *testing.T) {
	w, err := binwriter.New(1)
	require.NoError(t, err)
	require.NoError(t, w.Table("t", 1))
	require.NoError(t, w.Array("nums", 3))
	require.NoError(t, w.I64("", 10))
	require.NoError(t, w.I64("", 20))
	require.NoError(t, w.I64("", 30))
	require.NoError(t, w.End())
	require.NoError(t, w.End())
	buf, err := w.Finish()
	require.NoError(t, err)

	r, err := New(buf)
	require.NoError(t, err)

	tv, err := r.Root().Get("t")
	require.NoError(t, err)
	tbl, err := tv.AsTable()
	require.NoError(t, err)

	av, err := tbl.Get("nums")
	require.NoError(t, err)
	arr, err := av.AsArray()
	require.NoError(t, err)
	require.Equal(t, 3, arr.Len())

	for i := 0; i < 3; i++ {
		ev, err := arr.Get(i)
		require.NoError(t, err)
		n, err := ev.AsI64()
		require.NoError(t, err)
		assert.Equal(t, int64((i+1)*10), n)
	}

	_, err = arr.Get(3)
	assert.ErrorIs(t, err, wire.ErrIndexOutOfBounds)
}

func TestGetPath(t *testing.T) {
	w, err := binwriter.New(1)
	require.NoError(t, err)
	require.NoError(t, w.Table("a", 1))
	require.NoError(t, w.Array("b", 1))
	require.NoError(t, w.Table("", 1))
	require.NoError(t, w.I64("c", 42))
	require.NoError(t, w.End())
	require.NoError(t, w.End())
	require.NoError(t, w.End())
	buf, err := w.Finish()
	require.NoError(t, err)

	r, err := New(buf)
	require.NoError(t, err)

	v, err := r.Root().GetPath("a.b[0].c")
	require.NoError(t, err)
	n, err := v.AsI64()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = r.Root().GetPath("a.b[5].c")
	assert.ErrorIs(t, err, wire.ErrIndexOutOfBounds)

	_, err = r.Root().GetPath("a.b[0].c.d")
	assert.ErrorIs(t, err, wire.ErrTypeMismatch)

	_, err = r.Root().GetPath("a.missing")
	assert.ErrorIs(t, err, wire.ErrKeyNotFound)
}

func TestFloatRoundTripsBitExact(t *testing.T) {
	buf := buildBuffer(t, func(w *binwriter.Writer) {
		require.NoError(t, w.F64("n", math.NaN()))
	})
	r, err := New(buf)
	require.NoError(t, err)

	v, err := r.Root().Get("n")
	require.NoError(t, err)
	f, err := v.AsF64()
	require.NoError(t, err)
	assert.Equal(t, math.Float64bits(math.NaN()), math.Float64bits(f))
}

func TestStringInterningRoundTrips(t *testing.T) {
	w, err := binwriter.New(2)
	require.NoError(t, err)
	require.NoError(t, w.String("a", "hi"))
	require.NoError(t, w.String("b", "hi"))
	buf, err := w.Finish()
	require.NoError(t, err)

	r, err := New(buf)
	require.NoError(t, err)

	av, err := r.Root().Get("a")
	require.NoError(t, err)
	as, err := av.AsString()
	require.NoError(t, err)

	bv, err := r.Root().Get("b")
	require.NoError(t, err)
	bs, err := bv.AsString()
	require.NoError(t, err)

	assert.Equal(t, "hi", as)
	assert.Equal(t, "hi", bs)
}
