package bnfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFromINIRoundTrip covers spec.md §8 property 6: parsing a
// rendered table reproduces the original tree, for the restricted
// subset the INI dialect can express (no nested arrays/tables inside
// an array, and every table value is either a scalar or a section).
func TestFromINIRoundTrip(t *testing.T) {
	orig := NewTable()
	require.NoError(t, orig.Set("name", String("demo")))
	require.NoError(t, orig.Set("enabled", Bool(true)))
	require.NoError(t, orig.Set("ratio", F64(2.5)))
	require.NoError(t, orig.Set("count", I64(-7)))

	nums := NewArray()
	require.NoError(t, nums.Push(I64(1)))
	require.NoError(t, nums.Push(I64(2)))
	require.NoError(t, nums.Push(I64(3)))
	require.NoError(t, orig.Set("nums", ArrayValue(nums)))

	section := NewTable()
	require.NoError(t, section.Set("inner", String("value")))
	require.NoError(t, orig.Set("section", TableValue(section)))

	rendered, err := ToINI(orig)
	require.NoError(t, err)

	parsed, err := FromINI(rendered)
	require.NoError(t, err)
	assert.True(t, parsed.equal(orig))
}

// TestFromINIRoundTrip_EscapedString exercises the scenario the
// maintainer flagged: a string containing bytes ToINI must escape for
// the round-trip to survive (a literal newline would otherwise break
// the parser's line-oriented scanning).
func TestFromINIRoundTrip_EscapedString(t *testing.T) {
	orig := NewTable()
	require.NoError(t, orig.Set("s", String("a\nb\tc\"d\\e")))

	rendered, err := ToINI(orig)
	require.NoError(t, err)

	parsed, err := FromINI(rendered)
	require.NoError(t, err)
	assert.True(t, parsed.equal(orig))

	v, ok := parsed.Get("s")
	require.True(t, ok)
	got, _ := v.AsString()
	assert.Equal(t, "a\nb\tc\"d\\e", got)
}

func TestToINIRejectsNestedContainerInArray(t *testing.T) {
	orig := NewTable()
	arr := NewArray()
	require.NoError(t, arr.Push(TableValue(NewTable())))
	require.NoError(t, orig.Set("bad", ArrayValue(arr)))

	_, err := ToINI(orig)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}
