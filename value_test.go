package bnfg

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueAccessors(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		tag   Tag
	}{
		{"bool", Bool(true), TagBool},
		{"i64", I64(-42), TagI64},
		{"f64", F64(3.5), TagF64},
		{"string", String("hi"), TagString},
		{"array", ArrayValue(NewArray()), TagArray},
		{"table", TableValue(NewTable()), TagTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tag, tt.value.Tag())
		})
	}
}

func TestValueEqual(t *testing.T) {
	assert.True(t, I64(5).Equal(I64(5)))
	assert.False(t, I64(5).Equal(I64(6)))
	assert.False(t, I64(5).Equal(Bool(true)))
	assert.True(t, String("a").Equal(String("a")))
}

func TestValueEqual_NaNBitwise(t *testing.T) {
	a := F64(math.NaN())
	b := F64(math.NaN())
	assert.True(t, a.Equal(b))

	zero := F64(0.0)
	negZero := F64(math.Copysign(0, -1))
	assert.False(t, zero.Equal(negZero)) // bit patterns differ for +0.0 and -0.0
}

func TestValueEqual_Containers(t *testing.T) {
	a1 := NewArray()
	require := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	require(a1.Push(I64(1)))
	require(a1.Push(I64(2)))

	a2 := NewArray()
	require(a2.Push(I64(1)))
	require(a2.Push(I64(2)))

	assert.True(t, ArrayValue(a1).Equal(ArrayValue(a2)))

	require(a2.Push(I64(3)))
	assert.False(t, ArrayValue(a1).Equal(ArrayValue(a2)))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, `"hi"`, String("hi").String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "42", I64(42).String())
}
