package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	segs, err := ParsePath("a.b[3].c")
	require.NoError(t, err)
	require.Equal(t, []PathSegment{
		{Key: "a"},
		{Key: "b"},
		{HasIndex: true, Index: 3},
		{Key: "c"},
	}, segs)
}

func TestParsePath_MultipleIndices(t *testing.T) {
	segs, err := ParsePath("m[0][1]")
	require.NoError(t, err)
	require.Equal(t, []PathSegment{
		{Key: "m"},
		{HasIndex: true, Index: 0},
		{HasIndex: true, Index: 1},
	}, segs)
}

func TestParsePath_Simple(t *testing.T) {
	segs, err := ParsePath("x")
	require.NoError(t, err)
	require.Equal(t, []PathSegment{{Key: "x"}}, segs)
}

func TestParsePath_Errors(t *testing.T) {
	cases := []string{"", "a..b", "a[3", "a[x]", "a[-1]", "[3]"}
	for _, c := range cases {
		_, err := ParsePath(c)
		require.Error(t, err, "path %q should fail", c)
	}
}
