// Package bnfg implements a multi-representation configuration library:
// an in-memory mutable Dynamic tree, a zero-copy immutable Binary form,
// and an INI dialect parser that drives the Dynamic tree as its sink.
package bnfg

import (
	"fmt"
	"math"
	"strings"

	"github.com/scigolib/bnfg/internal/wire"
)

// Tag identifies the variant a Value holds.
type Tag = wire.Tag

// The six value tags, re-exported from the wire layer so callers never
// need to import internal/wire directly.
const (
	TagBool   = wire.TagBool
	TagI64    = wire.TagI64
	TagF64    = wire.TagF64
	TagString = wire.TagString
	TagArray  = wire.TagArray
	TagTable  = wire.TagTable
)

// Value is a tagged sum over the six value variants described in
// spec.md §3. Exactly one of the typed fields is meaningful, selected
// by Tag.
type Value struct {
	tag    Tag
	b      bool
	i      int64
	f      float64
	s      string
	array  *Array
	table  *Table
}

// Bool constructs a Bool value.
func Bool(v bool) Value { return Value{tag: TagBool, b: v} }

// I64 constructs an I64 value.
func I64(v int64) Value { return Value{tag: TagI64, i: v} }

// F64 constructs an F64 value.
func F64(v float64) Value { return Value{tag: TagF64, f: v} }

// String constructs a String value.
func String(v string) Value { return Value{tag: TagString, s: v} }

// ArrayValue wraps an *Array as a Value.
func ArrayValue(v *Array) Value { return Value{tag: TagArray, array: v} }

// TableValue wraps a *Table as a Value.
func TableValue(v *Table) Value { return Value{tag: TagTable, table: v} }

// Tag returns the value's type tag.
func (v Value) Tag() Tag { return v.tag }

// AsBool returns the bool payload and whether the tag matched.
func (v Value) AsBool() (bool, bool) { return v.b, v.tag == TagBool }

// AsI64 returns the int64 payload and whether the tag matched.
func (v Value) AsI64() (int64, bool) { return v.i, v.tag == TagI64 }

// AsF64 returns the float64 payload and whether the tag matched.
func (v Value) AsF64() (float64, bool) { return v.f, v.tag == TagF64 }

// AsString returns the string payload and whether the tag matched.
func (v Value) AsString() (string, bool) { return v.s, v.tag == TagString }

// AsArray returns the array payload and whether the tag matched.
func (v Value) AsArray() (*Array, bool) { return v.array, v.tag == TagArray }

// AsTable returns the table payload and whether the tag matched.
func (v Value) AsTable() (*Table, bool) { return v.table, v.tag == TagTable }

// Equal reports whether two values are equal. Arrays and tables compare
// their elements/entries recursively. NaN floats are only equal to
// other NaN floats here (bitwise comparison, per spec.md §8's testable
// properties), not under the usual IEEE-754 "NaN != NaN" rule.
func (v Value) Equal(other Value) bool {
	if v.tag != other.tag {
		return false
	}
	switch v.tag {
	case TagBool:
		return v.b == other.b
	case TagI64:
		return v.i == other.i
	case TagF64:
		return math.Float64bits(v.f) == math.Float64bits(other.f)
	case TagString:
		return v.s == other.s
	case TagArray:
		return v.array.equal(other.array)
	case TagTable:
		return v.table.equal(other.table)
	default:
		return false
	}
}

// String implements fmt.Stringer using the canonical Lua-ish rendering
// described in spec.md §6 (kept in scope only as a diagnostic form; see
// SPEC_FULL.md §1).
func (v Value) String() string {
	var sb strings.Builder
	writeLuaValue(&sb, v, 0)
	return sb.String()
}

// GoString supports %#v and debugging.
func (v Value) GoString() string {
	return fmt.Sprintf("Value{%s: %v}", v.tag, v.goValue())
}

func (v Value) goValue() interface{} {
	switch v.tag {
	case TagBool:
		return v.b
	case TagI64:
		return v.i
	case TagF64:
		return v.f
	case TagString:
		return v.s
	case TagArray:
		return v.array
	case TagTable:
		return v.table
	default:
		return nil
	}
}
