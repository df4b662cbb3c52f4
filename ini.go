package bnfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scigolib/bnfg/internal/ini"
)

// FromINI parses text under the default INI dialect (ini.Default())
// into a freshly populated table.
func FromINI(text string) (*Table, error) {
	return FromINIOptions(text, ini.Default())
}

// FromINIOptions parses text under opts into a freshly populated
// table (spec.md §4.5).
func FromINIOptions(text string, opts ini.Options) (*Table, error) {
	root := NewTable()
	sink := &tableSink{stack: []*Table{root}}
	if err := ini.Parse(text, opts, sink); err != nil {
		return nil, err
	}
	return root, nil
}

// tableSink adapts a dynamic Table tree to the ini.Sink protocol: a
// stack of open tables mirrors the parser's section stack, and a
// single in-progress array (INI forbids nested arrays) mirrors its
// array state.
type tableSink struct {
	stack    []*Table
	curArray *Array
}

func (s *tableSink) current() *Table {
	return s.stack[len(s.stack)-1]
}

func (s *tableSink) ContainsKey(key string) (present, ok bool) {
	v, found := s.current().Get(key)
	if !found {
		return false, false
	}
	return v.Tag() == TagTable, true
}

func (s *tableSink) AddValue(key string, value ini.ScalarValue, overwrite bool) error {
	v, err := scalarToValue(value)
	if err != nil {
		return err
	}
	return s.current().Set(key, v)
}

func (s *tableSink) StartSection(name string, overwrite bool) error {
	cur := s.current()
	if existing, found := cur.Get(name); found && !overwrite {
		tbl, ok := existing.AsTable()
		if !ok {
			return fmt.Errorf("%w: %q is not a section", ErrTypeMismatch, name)
		}
		s.stack = append(s.stack, tbl)
		return nil
	}
	child := NewTable()
	if err := cur.Set(name, TableValue(child)); err != nil {
		return err
	}
	s.stack = append(s.stack, child)
	return nil
}

func (s *tableSink) EndSection(name string) error {
	if len(s.stack) <= 1 {
		return fmt.Errorf("end_section(%q) called with no open section", name)
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

func (s *tableSink) StartArray(name string, overwrite bool) error {
	arr := NewArray()
	if err := s.current().Set(name, ArrayValue(arr)); err != nil {
		return err
	}
	s.curArray = arr
	return nil
}

func (s *tableSink) AddArrayValue(value ini.ScalarValue) error {
	v, err := scalarToValue(value)
	if err != nil {
		return err
	}
	return s.curArray.Push(v)
}

func (s *tableSink) EndArray(name string) error {
	s.curArray = nil
	return nil
}

func scalarToValue(v ini.ScalarValue) (Value, error) {
	switch v.Kind {
	case ini.ScalarBool:
		return Bool(v.Bool), nil
	case ini.ScalarI64:
		return I64(v.I64), nil
	case ini.ScalarF64:
		return F64(v.F64), nil
	case ini.ScalarString:
		return String(v.String), nil
	default:
		return Value{}, fmt.Errorf("unrecognized scalar kind %d", v.Kind)
	}
}

// ToINI renders t in the INI dialect (spec.md §8 property 6: the
// restricted round-trip). Nested tables become `[a.b]` sections;
// arrays use `key = [a, b, c]` syntax. It fails with ErrTypeMismatch
// if an array holds an array or a table; no other shape is rejected.
func ToINI(t *Table) (string, error) {
	var sb strings.Builder
	if err := renderINISection(&sb, t, nil); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func renderINISection(sb *strings.Builder, t *Table, path []string) error {
	var scalarKeys, sectionKeys []string
	for _, k := range t.SortedKeys() {
		v, _ := t.Get(k)
		if v.Tag() == TagTable {
			sectionKeys = append(sectionKeys, k)
		} else {
			scalarKeys = append(scalarKeys, k)
		}
	}

	if len(path) > 0 {
		sb.WriteByte('[')
		sb.WriteString(strings.Join(path, "."))
		sb.WriteString("]\n")
	}
	for _, k := range scalarKeys {
		v, _ := t.Get(k)
		rendered, err := renderINIValue(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		sb.WriteString(k)
		sb.WriteString(" = ")
		sb.WriteString(rendered)
		sb.WriteByte('\n')
	}
	for _, k := range sectionKeys {
		v, _ := t.Get(k)
		child, _ := v.AsTable()
		if err := renderINISection(sb, child, append(path, k)); err != nil {
			return err
		}
	}
	return nil
}

// quoteINIString renders s as a double-quoted INI string literal that
// internal/ini.Parse can read back exactly, unlike quoteLuaString: the
// parser splits input into lines before scanning, so a literal newline
// (or any other control byte) inside the quotes would corrupt the
// round-trip rather than just look ugly. Escapes the bytes
// internal/ini's decodeEscape knows how to reverse.
func quoteINIString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if b < 0x20 || b == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, b)
			} else {
				sb.WriteByte(b)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func renderINIValue(v Value) (string, error) {
	switch v.Tag() {
	case TagBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), nil
	case TagI64:
		i, _ := v.AsI64()
		return strconv.FormatInt(i, 10), nil
	case TagF64:
		f, _ := v.AsF64()
		s := formatFloat(f)
		if !strings.ContainsAny(s, ".eEnN") {
			// An integral float such as 3 would otherwise parse back as I64.
			s += ".0"
		}
		return s, nil
	case TagString:
		s, _ := v.AsString()
		return quoteINIString(s), nil
	case TagArray:
		arr, _ := v.AsArray()
		var parts []string
		var rErr error
		arr.Iter(func(_ int, elem Value) bool {
			if elem.Tag() == TagArray || elem.Tag() == TagTable {
				rErr = fmt.Errorf("%w: INI arrays cannot hold nested arrays or tables", ErrTypeMismatch)
				return false
			}
			rendered, err := renderINIValue(elem)
			if err != nil {
				rErr = err
				return false
			}
			parts = append(parts, rendered)
			return true
		})
		if rErr != nil {
			return "", rErr
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("%w: tables cannot appear inside INI arrays", ErrTypeMismatch)
	}
}
