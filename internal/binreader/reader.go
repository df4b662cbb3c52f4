// Package binreader implements zero-copy, random-access traversal of
// the binary configuration format defined in internal/wire: a
// TableRef/ArrayRef/ValueRef family that borrows directly from the
// validated buffer rather than copying it into an owned tree. The
// validation pass that runs once at construction (internal/core's
// header-message validation in the HDF5 codebase this module started
// from is the closest analog) is what lets every later access be
// infallible beyond key-not-found.
package binreader

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/scigolib/bnfg/internal/utils"
	"github.com/scigolib/bnfg/internal/wire"
)

// Reader owns a validated buffer and is the entry point for borrowing
// a TableRef over its root table.
type Reader struct {
	buf []byte
}

// New validates buf against every rule in spec.md §4.2 and returns a
// Reader borrowing it. The buffer must not be mutated while any
// TableRef/ArrayRef/ValueRef derived from the Reader is in use.
func New(buf []byte) (*Reader, error) {
	if len(buf) < wire.HeaderSize {
		return nil, wire.ErrUnexpectedEndOfBuffer
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != wire.Magic {
		return nil, fmt.Errorf("%w: got %#x, want %#x", wire.ErrBadMagic, magic, wire.Magic)
	}
	totalLen := binary.LittleEndian.Uint32(buf[4:8])
	if int(totalLen) != len(buf) {
		return nil, fmt.Errorf("%w: header says %d, buffer is %d bytes", wire.ErrLengthMismatch, totalLen, len(buf))
	}
	rootCount := binary.LittleEndian.Uint32(buf[8:12])

	r := &Reader{buf: buf}
	if err := r.validateEntryArray(wire.HeaderSize, rootCount, false); err != nil {
		return nil, err
	}
	return r, nil
}

// Root returns a TableRef over the root table.
func (r *Reader) Root() TableRef {
	rootCount := binary.LittleEndian.Uint32(r.buf[8:12])
	return TableRef{buf: r.buf, entriesOff: wire.HeaderSize, count: rootCount}
}

// validateEntryArray recursively checks every rule from spec.md §4.2:
// bounds, recognized tags, UTF-8 strings, strictly ascending table
// keys, and homogeneous array elements.
func (r *Reader) validateEntryArray(entriesOff int, count uint32, isArray bool) error {
	span, err := utils.SafeMultiply(uint64(count), uint64(wire.EntrySize))
	if err != nil {
		return fmt.Errorf("%w: %v", wire.ErrUnexpectedEndOfBuffer, err)
	}
	end := entriesOff + int(span)
	if end < entriesOff || end > len(r.buf) {
		return wire.ErrUnexpectedEndOfBuffer
	}

	var lastKey string
	hasLastKey := false
	var elemTag wire.Tag
	hasElemTag := false

	for i := 0; i < int(count); i++ {
		pos := entriesOff + i*wire.EntrySize
		e := wire.GetEntry(r.buf[pos : pos+wire.EntrySize])
		if !e.Tag.Valid() {
			return fmt.Errorf("%w: %d", wire.ErrUnknownType, e.Tag)
		}

		if isArray {
			if e.KeyLen != 0 {
				return fmt.Errorf("%w: array element has non-zero key length", wire.ErrKeyOutOfBounds)
			}
			if hasElemTag && e.Tag != elemTag {
				return fmt.Errorf("%w: expected %s, got %s", wire.ErrMixedArray, elemTag, e.Tag)
			}
			elemTag, hasElemTag = e.Tag, true
		} else {
			if e.KeyLen == 0 {
				return wire.ErrEmptyKey
			}
			key, err := r.readString(e.KeyOff, e.KeyLen)
			if err != nil {
				return err
			}
			if hasLastKey && key <= lastKey {
				return fmt.Errorf("%w: %q does not follow %q", wire.ErrKeysNotSorted, key, lastKey)
			}
			lastKey, hasLastKey = key, true
		}

		if err := r.validateValue(e); err != nil {
			return err
		}
	}
	return nil
}

// validateValue checks the payload of a single entry: bounds and
// UTF-8 for strings, recursive validation for containers.
func (r *Reader) validateValue(e wire.Entry) error {
	switch e.Tag {
	case wire.TagBool, wire.TagI64, wire.TagF64:
		return nil
	case wire.TagString:
		length, offset := wire.UnpackLenOffset(e.Value)
		_, err := r.readString(offset, length)
		return err
	case wire.TagArray:
		length, offset := wire.UnpackLenOffset(e.Value)
		if length == 0 {
			return nil
		}
		return r.validateEntryArray(int(offset), length, true)
	case wire.TagTable:
		length, offset := wire.UnpackLenOffset(e.Value)
		if length == 0 {
			return nil
		}
		return r.validateEntryArray(int(offset), length, false)
	default:
		return fmt.Errorf("%w: %d", wire.ErrUnknownType, e.Tag)
	}
}

// readString bounds-checks and UTF-8-validates the byte range
// [offset, offset+length) of the buffer.
func (r *Reader) readString(offset, length uint32) (string, error) {
	start := int(offset)
	end := start + int(length)
	if start < 0 || end < start || end > len(r.buf) {
		return "", wire.ErrValueOutOfBounds
	}
	b := r.buf[start:end]
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: offset %d", wire.ErrNonUTF8String, offset)
	}
	return string(b), nil
}

// TableRef is an immutable, borrowed view over a table's entry array
// within a validated buffer.
type TableRef struct {
	buf        []byte
	entriesOff int
	count      uint32
}

// Len returns the number of entries.
func (t TableRef) Len() int {
	return int(t.count)
}

func (t TableRef) entryAt(i int) wire.Entry {
	pos := t.entriesOff + i*wire.EntrySize
	return wire.GetEntry(t.buf[pos : pos+wire.EntrySize])
}

func (t TableRef) keyAt(i int) string {
	e := t.entryAt(i)
	s, _ := readStringUnchecked(t.buf, e.KeyOff, e.KeyLen)
	return s
}

// Get performs a binary search for key over the table's sorted entry
// array.
func (t TableRef) Get(key string) (ValueRef, error) {
	lo, hi := 0, int(t.count)
	for lo < hi {
		mid := (lo + hi) / 2
		k := t.keyAt(mid)
		switch {
		case k == key:
			return ValueRef{buf: t.buf, entry: t.entryAt(mid)}, nil
		case k < key:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return ValueRef{}, fmt.Errorf("%w: %q", wire.ErrKeyNotFound, key)
}

// GetPath resolves a dotted path with optional bracket indexing
// relative to this table, e.g. "a.b[3].c" (spec.md §4.2).
func (t TableRef) GetPath(path string) (ValueRef, error) {
	segments, err := utils.ParsePath(path)
	if err != nil {
		return ValueRef{}, err
	}
	cur := ValueRef{buf: t.buf, entry: wire.Entry{Tag: wire.TagTable, Value: wire.PackLenOffset(t.count, uint32(t.entriesOff))}}
	for _, seg := range segments {
		if seg.HasIndex {
			arr, err := cur.AsArray()
			if err != nil {
				return ValueRef{}, fmt.Errorf("%w: cannot index into %s", wire.ErrTypeMismatch, cur.Tag())
			}
			v, err := arr.Get(seg.Index)
			if err != nil {
				return ValueRef{}, err
			}
			cur = v
			continue
		}
		tbl, err := cur.AsTable()
		if err != nil {
			return ValueRef{}, fmt.Errorf("%w: cannot look up key %q in %s", wire.ErrTypeMismatch, seg.Key, cur.Tag())
		}
		v, err := tbl.Get(seg.Key)
		if err != nil {
			return ValueRef{}, err
		}
		cur = v
	}
	return cur, nil
}

// Iter calls fn for each (key, ValueRef) pair in stored lexicographic
// order. Iteration stops early if fn returns false.
func (t TableRef) Iter(fn func(key string, v ValueRef) bool) {
	for i := 0; i < int(t.count); i++ {
		e := t.entryAt(i)
		key := t.keyAt(i)
		if !fn(key, ValueRef{buf: t.buf, entry: e}) {
			return
		}
	}
}

// ArrayRef is an immutable, borrowed view over an array's entry array
// within a validated buffer.
type ArrayRef struct {
	buf        []byte
	entriesOff int
	count      uint32
}

// Len returns the number of elements.
func (a ArrayRef) Len() int {
	return int(a.count)
}

// Get returns the element at index, or ErrIndexOutOfBounds.
func (a ArrayRef) Get(index int) (ValueRef, error) {
	if index < 0 || index >= int(a.count) {
		return ValueRef{}, fmt.Errorf("%w: index %d, length %d", wire.ErrIndexOutOfBounds, index, a.count)
	}
	pos := a.entriesOff + index*wire.EntrySize
	return ValueRef{buf: a.buf, entry: wire.GetEntry(a.buf[pos : pos+wire.EntrySize])}, nil
}

// Iter calls fn for each (index, ValueRef) pair in index order.
// Iteration stops early if fn returns false.
func (a ArrayRef) Iter(fn func(index int, v ValueRef) bool) {
	for i := 0; i < int(a.count); i++ {
		v, _ := a.Get(i)
		if !fn(i, v) {
			return
		}
	}
}

// ValueRef is a borrowed reference to one entry's value, typed by its
// tag. Typed accessors fail with ErrIncorrectValueType if the tag
// doesn't match.
type ValueRef struct {
	buf   []byte
	entry wire.Entry
}

// Tag returns the value's type tag.
func (v ValueRef) Tag() wire.Tag {
	return v.entry.Tag
}

func readStringUnchecked(buf []byte, offset, length uint32) (string, error) {
	start, end := int(offset), int(offset)+int(length)
	if start < 0 || end > len(buf) {
		return "", wire.ErrValueOutOfBounds
	}
	return string(buf[start:end]), nil
}

// AsBool returns the Bool payload or ErrIncorrectValueType.
func (v ValueRef) AsBool() (bool, error) {
	if v.entry.Tag != wire.TagBool {
		return false, incorrectType(v.entry.Tag)
	}
	return v.entry.Value&1 != 0, nil
}

// AsI64 returns the I64 payload or ErrIncorrectValueType.
func (v ValueRef) AsI64() (int64, error) {
	if v.entry.Tag != wire.TagI64 {
		return 0, incorrectType(v.entry.Tag)
	}
	return int64(v.entry.Value), nil
}

// AsF64 returns the F64 payload or ErrIncorrectValueType.
func (v ValueRef) AsF64() (float64, error) {
	if v.entry.Tag != wire.TagF64 {
		return 0, incorrectType(v.entry.Tag)
	}
	return math.Float64frombits(v.entry.Value), nil
}

// AsString returns the String payload or ErrIncorrectValueType.
func (v ValueRef) AsString() (string, error) {
	if v.entry.Tag != wire.TagString {
		return "", incorrectType(v.entry.Tag)
	}
	length, offset := wire.UnpackLenOffset(v.entry.Value)
	return readStringUnchecked(v.buf, offset, length)
}

// AsArray returns an ArrayRef over the array payload or
// ErrIncorrectValueType.
func (v ValueRef) AsArray() (ArrayRef, error) {
	if v.entry.Tag != wire.TagArray {
		return ArrayRef{}, incorrectType(v.entry.Tag)
	}
	length, offset := wire.UnpackLenOffset(v.entry.Value)
	return ArrayRef{buf: v.buf, entriesOff: int(offset), count: length}, nil
}

// AsTable returns a TableRef over the table payload or
// ErrIncorrectValueType.
func (v ValueRef) AsTable() (TableRef, error) {
	if v.entry.Tag != wire.TagTable {
		return TableRef{}, incorrectType(v.entry.Tag)
	}
	length, offset := wire.UnpackLenOffset(v.entry.Value)
	return TableRef{buf: v.buf, entriesOff: int(offset), count: length}, nil
}

func incorrectType(actual wire.Tag) error {
	return fmt.Errorf("%w: %s", wire.ErrIncorrectValueType, actual)
}
