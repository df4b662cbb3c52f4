package bnfg

import (
	"fmt"
	"sort"

	"github.com/scigolib/bnfg/internal/utils"
)

// Table is an owned, unordered mapping from non-empty UTF-8 keys to
// values. Iteration order is unspecified for the dynamic form; it is
// sorted lexicographically only when serialized to the binary form
// (spec.md §3).
type Table struct {
	entries map[string]Value
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Value)}
}

// ValidateKey reports whether key is a legal table key: non-empty and
// free of ASCII control bytes (spec.md §3). The INI parser layers
// additional restrictions (forbidding brackets, quotes, comma and
// whitespace) on top of this.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x20 || key[i] == 0x7f {
			return fmt.Errorf("%w: key %q contains control byte", ErrEmptyKey, key)
		}
	}
	return nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Get returns the value for key and whether it was present.
func (t *Table) Get(key string) (Value, bool) {
	v, ok := t.entries[key]
	return v, ok
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	_, ok := t.entries[key]
	return ok
}

// Set inserts or replaces the value at key.
func (t *Table) Set(key string, v Value) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	t.entries[key] = v
	return nil
}

// Remove deletes key, if present.
func (t *Table) Remove(key string) {
	delete(t.entries, key)
}

// Iter calls fn for each (key, value) pair in unspecified order.
// Iteration stops early if fn returns false.
func (t *Table) Iter(fn func(key string, v Value) bool) {
	for k, v := range t.entries {
		if !fn(k, v) {
			return
		}
	}
}

// SortedKeys returns the table's keys sorted lexicographically by key
// byte order, the canonical order used by the binary writer and the
// textual renderer.
func (t *Table) SortedKeys() []string {
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetPath resolves a dotted path with optional bracket indexing, e.g.
// "a.b[3].c" (spec.md §4.2). The path is interpreted relative to this
// table acting as the root.
func (t *Table) GetPath(path string) (Value, error) {
	segments, err := utils.ParsePath(path)
	if err != nil {
		return Value{}, err
	}

	cur := TableValue(t)
	for _, seg := range segments {
		if seg.HasIndex {
			arr, ok := cur.AsArray()
			if !ok {
				return Value{}, fmt.Errorf("%w: cannot index into %s", ErrTypeMismatch, cur.Tag())
			}
			v, err := arr.Get(seg.Index)
			if err != nil {
				return Value{}, err
			}
			cur = v
			continue
		}

		tbl, ok := cur.AsTable()
		if !ok {
			return Value{}, fmt.Errorf("%w: cannot look up key %q in %s", ErrTypeMismatch, seg.Key, cur.Tag())
		}
		v, ok := tbl.Get(seg.Key)
		if !ok {
			return Value{}, fmt.Errorf("%w: %q", ErrKeyNotFound, seg.Key)
		}
		cur = v
	}
	return cur, nil
}

func (t *Table) equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.entries) != len(other.entries) {
		return false
	}
	for k, v := range t.entries {
		ov, ok := other.entries[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
