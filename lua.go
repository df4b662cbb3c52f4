package bnfg

import (
	"strconv"
	"strings"
)

// writeLuaValue renders v in the canonical Lua-ish textual form
// described in spec.md §6: tables and arrays open their bracket on the
// current line and close it on its own line at the parent's indent,
// with comma-terminated entries and a trailing "-- key" comment on
// nested containers for human scanning. This is a diagnostic
// Stringer, not the full pretty-printer package spec.md marks
// out of scope (see SPEC_FULL.md §1, §4).
func writeLuaValue(sb *strings.Builder, v Value, indent int) {
	switch v.Tag() {
	case TagBool:
		b, _ := v.AsBool()
		sb.WriteString(strconv.FormatBool(b))
	case TagI64:
		i, _ := v.AsI64()
		sb.WriteString(strconv.FormatInt(i, 10))
	case TagF64:
		f, _ := v.AsF64()
		sb.WriteString(formatFloat(f))
	case TagString:
		s, _ := v.AsString()
		sb.WriteString(quoteLuaString(s))
	case TagArray:
		arr, _ := v.AsArray()
		writeLuaArray(sb, arr, indent)
	case TagTable:
		tbl, _ := v.AsTable()
		writeLuaTable(sb, tbl, indent)
	}
}

func writeLuaArray(sb *strings.Builder, arr *Array, indent int) {
	sb.WriteByte('[')
	if arr.Len() == 0 {
		sb.WriteByte(']')
		return
	}
	sb.WriteByte('\n')
	childIndent := indent + 1
	arr.Iter(func(_ int, v Value) bool {
		writeIndent(sb, childIndent)
		writeLuaValue(sb, v, childIndent)
		sb.WriteString(",\n")
		return true
	})
	writeIndent(sb, indent)
	sb.WriteByte(']')
}

func writeLuaTable(sb *strings.Builder, tbl *Table, indent int) {
	sb.WriteByte('{')
	keys := tbl.SortedKeys()
	if len(keys) == 0 {
		sb.WriteByte('}')
		return
	}
	sb.WriteByte('\n')
	childIndent := indent + 1
	for _, key := range keys {
		v, _ := tbl.Get(key)
		writeIndent(sb, childIndent)
		sb.WriteString(key)
		sb.WriteString(" = ")
		writeLuaValue(sb, v, childIndent)
		sb.WriteByte(',')
		if v.Tag() == TagArray || v.Tag() == TagTable {
			sb.WriteString(" -- ")
			sb.WriteString(key)
		}
		sb.WriteByte('\n')
	}
	writeIndent(sb, indent)
	sb.WriteByte('}')
}

func writeIndent(sb *strings.Builder, indent int) {
	for i := 0; i < indent; i++ {
		sb.WriteString("    ")
	}
}

// quoteLuaString double-quotes s, escaping '"' and '\' with '\'.
func quoteLuaString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// formatFloat prints enough digits to uniquely recover the value
// (spec.md §6), using Go's shortest round-trip formatting.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// String renders the table using the canonical Lua-ish form.
func (t *Table) String() string {
	var sb strings.Builder
	writeLuaTable(&sb, t, 0)
	return sb.String()
}

// String renders the array using the canonical Lua-ish form.
func (a *Array) String() string {
	var sb strings.Builder
	writeLuaArray(&sb, a, 0)
	return sb.String()
}
