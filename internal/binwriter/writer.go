// Package binwriter implements the push-style, depth-first binary
// config writer described in spec.md §4.3: a small stack mirrors the
// open arrays and tables, entries are bump-allocated into a growing
// "entries region" as soon as their container's length is known, and
// key/string bytes are appended as a deduplicated heap with their
// offsets patched in once the entries region's final size is known.
// The bump-allocation strategy over a pre-sized region is adapted from
// the teacher's end-of-file space allocator (internal/writer in the
// HDF5 codebase this module started from), retargeted from file
// offsets to offsets within an in-memory buffer.
package binwriter

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scigolib/bnfg/internal/utils"
	"github.com/scigolib/bnfg/internal/wire"
)

// frame tracks one open table or array: how many children remain, the
// cursor into its pre-allocated entry slots, and (for tables) the
// ascending-key check or (for arrays) the established element tag.
type frame struct {
	isArray    bool
	entriesPos int // offset of this container's entry array within w.entries
	remaining  int
	cursor     int
	lastKey    string
	hasLastKey bool
	elemTag    wire.Tag
	hasElemTag bool
}

type stringPatch struct {
	pos int // offset within w.entries where a uint32 needs the string's final offset
	str string
}

// Writer emits a canonical binary buffer from a sequence of push calls.
// It is single-owner and not safe for concurrent use (spec.md §5).
type Writer struct {
	root     frame
	rootLen  uint32
	stack    []*frame
	entries  []byte
	interned map[string]int
	order    []string
	patches  []stringPatch
	poisoned bool
	finished bool
}

// New creates a writer for a root table with the given entry count.
// The root table must be non-empty.
func New(rootLen uint32) (*Writer, error) {
	if rootLen == 0 {
		return nil, wire.ErrEmptyRootTable
	}
	if err := utils.ValidateCount(uint64(rootLen), "root table entry count"); err != nil {
		return nil, fmt.Errorf("%w: %v", wire.ErrOverflow, err)
	}

	w := &Writer{interned: make(map[string]int), rootLen: rootLen}
	pos := w.allocate(int(rootLen) * wire.EntrySize)
	w.root = frame{entriesPos: pos, remaining: int(rootLen)}
	return w, nil
}

// allocate bump-allocates n bytes at the end of the entries region and
// returns the offset, relative to the entries region, where it starts.
func (w *Writer) allocate(n int) int {
	pos := len(w.entries)
	w.entries = append(w.entries, make([]byte, n)...)
	return pos
}

func (w *Writer) current() *frame {
	if len(w.stack) > 0 {
		return w.stack[len(w.stack)-1]
	}
	return &w.root
}

// Bool emits a Bool entry.
func (w *Writer) Bool(key string, v bool) error {
	var payload uint64
	if v {
		payload = 1
	}
	return w.scalar(key, wire.TagBool, payload)
}

// I64 emits an I64 entry.
func (w *Writer) I64(key string, v int64) error {
	return w.scalar(key, wire.TagI64, uint64(v))
}

// F64 emits an F64 entry.
func (w *Writer) F64(key string, v float64) error {
	return w.scalar(key, wire.TagF64, float64bits(v))
}

// String emits a String entry. The string's bytes are interned: two
// equal strings (including keys) share one region of the heap.
func (w *Writer) String(key string, v string) error {
	if w.poisoned {
		return wire.ErrNotFinished
	}
	if err := utils.ValidateCount(uint64(len(v)), "string length"); err != nil {
		w.poison()
		return fmt.Errorf("%w: %v", wire.ErrOverflow, err)
	}

	pos, err := w.beginEntry(key, wire.TagString)
	if err != nil {
		return err
	}
	wire.PutEntry(w.entries[pos:pos+wire.EntrySize], wire.Entry{
		Tag:    wire.TagString,
		KeyLen: uint32(len(key)),
		Value:  wire.PackLenOffset(uint32(len(v)), 0),
	})
	w.internAndPatch(pos+4, key)
	w.patches = append(w.patches, stringPatch{pos: pos + 12, str: v})
	w.intern(v)
	return nil
}

// Array opens a nested array with the given length.
func (w *Writer) Array(key string, length uint32) error {
	return w.openContainer(key, wire.TagArray, length, true)
}

// Table opens a nested table with the given length.
func (w *Writer) Table(key string, length uint32) error {
	return w.openContainer(key, wire.TagTable, length, false)
}

func (w *Writer) openContainer(key string, tag wire.Tag, length uint32, isArray bool) error {
	if w.poisoned {
		return wire.ErrNotFinished
	}
	if err := utils.ValidateCount(uint64(length), "entry count"); err != nil {
		w.poison()
		return fmt.Errorf("%w: %v", wire.ErrOverflow, err)
	}

	pos, err := w.beginEntry(key, tag)
	if err != nil {
		return err
	}

	childPos := w.allocate(int(length) * wire.EntrySize)
	wire.PutEntry(w.entries[pos:pos+wire.EntrySize], wire.Entry{
		Tag:    tag,
		KeyLen: uint32(len(key)),
		Value:  wire.PackLenOffset(length, uint32(wire.HeaderSize+childPos)),
	})
	w.internAndPatch(pos+4, key)

	w.stack = append(w.stack, &frame{
		isArray:    isArray,
		entriesPos: childPos,
		remaining:  int(length),
	})
	return nil
}

// End closes the most recently opened array or table. Exactly length
// children must have been provided before calling End.
func (w *Writer) End() error {
	if w.poisoned {
		return wire.ErrNotFinished
	}
	if len(w.stack) == 0 {
		w.poison()
		return fmt.Errorf("end called with no open container")
	}
	f := w.stack[len(w.stack)-1]
	if f.remaining != 0 {
		w.poison()
		return wire.ErrTooFewEntries
	}
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

// scalar writes a fixed-payload (Bool/I64/F64) entry.
func (w *Writer) scalar(key string, tag wire.Tag, payload uint64) error {
	if w.poisoned {
		return wire.ErrNotFinished
	}
	pos, err := w.beginEntry(key, tag)
	if err != nil {
		return err
	}
	wire.PutEntry(w.entries[pos:pos+wire.EntrySize], wire.Entry{
		Tag:    tag,
		KeyLen: uint32(len(key)),
		Value:  payload,
	})
	w.internAndPatch(pos+4, key)
	return nil
}

// beginEntry validates key/ordering/homogeneity rules against the
// current frame, advances its bookkeeping, and returns the relative
// offset within w.entries of the 16-byte slot the caller should fill.
func (w *Writer) beginEntry(key string, tag wire.Tag) (int, error) {
	f := w.current()

	if f.isArray {
		if key != "" {
			w.poison()
			return 0, wire.ErrKeyNotExpected
		}
		if f.hasElemTag && tag != f.elemTag {
			w.poison()
			return 0, fmt.Errorf("%w: expected %s, got %s", wire.ErrMixedArray, f.elemTag, tag)
		}
	} else {
		if key == "" {
			w.poison()
			return 0, wire.ErrKeyExpected
		}
		if f.hasLastKey && key <= f.lastKey {
			w.poison()
			return 0, fmt.Errorf("%w: %q does not follow %q", wire.ErrKeysNotSorted, key, f.lastKey)
		}
	}

	if f.remaining == 0 {
		w.poison()
		return 0, wire.ErrTooManyEntries
	}

	pos := f.entriesPos + f.cursor*wire.EntrySize
	f.cursor++
	f.remaining--
	if f.isArray {
		if !f.hasElemTag {
			f.elemTag = tag
			f.hasElemTag = true
		}
	} else {
		f.lastKey = key
		f.hasLastKey = true
	}
	return pos, nil
}

func (w *Writer) intern(s string) int {
	if idx, ok := w.interned[s]; ok {
		return idx
	}
	idx := len(w.order)
	w.interned[s] = idx
	w.order = append(w.order, s)
	return idx
}

// internAndPatch schedules the 4-byte field at pos to be patched with
// key's final absolute offset once the string heap is laid out. A
// zero-length key (array element) needs no patch.
func (w *Writer) internAndPatch(pos int, key string) {
	if key == "" {
		return
	}
	w.intern(key)
	w.patches = append(w.patches, stringPatch{pos: pos, str: key})
}

func (w *Writer) poison() {
	w.poisoned = true
}

// Finish completes the buffer. It is only legal once every opened
// array/table has been closed and the root table's declared entry
// count has been satisfied.
func (w *Writer) Finish() ([]byte, error) {
	if w.poisoned {
		return nil, wire.ErrNotFinished
	}
	if w.finished {
		return nil, wire.ErrNotFinished
	}
	if len(w.stack) != 0 {
		w.poison()
		return nil, wire.ErrNotFinished
	}
	if w.root.remaining != 0 {
		w.poison()
		return nil, wire.ErrTooFewEntries
	}

	heap, offsets := buildStringHeap(w.order)
	heapBase := uint32(wire.HeaderSize + len(w.entries))

	for _, p := range w.patches {
		idx := w.interned[p.str]
		binary.LittleEndian.PutUint32(w.entries[p.pos:p.pos+4], heapBase+offsets[idx])
	}

	total := wire.HeaderSize + len(w.entries) + len(heap)
	if err := utils.ValidateCount(uint64(total), "total encoded size"); err != nil {
		w.poison()
		return nil, fmt.Errorf("%w: %v", wire.ErrOverflow, err)
	}

	buf := make([]byte, total)
	wire.PutHeader(buf, uint32(total), w.rootLen)
	copy(buf[wire.HeaderSize:], w.entries)
	copy(buf[wire.HeaderSize+len(w.entries):], heap)

	w.finished = true
	return buf, nil
}

// buildStringHeap concatenates strs (already deduplicated, in
// first-seen order) and returns the heap bytes plus each string's
// offset within that heap. The concatenation runs in a pooled scratch
// buffer; the returned slice is a fresh copy sized to fit, so the
// scratch buffer can go back to the pool immediately.
func buildStringHeap(strs []string) ([]byte, []uint32) {
	offsets := make([]uint32, len(strs))
	scratch := utils.GetBuffer(0)
	defer utils.ReleaseBuffer(scratch)
	for i, s := range strs {
		offsets[i] = uint32(len(scratch))
		scratch = append(scratch, s...)
	}

	heap := make([]byte, len(scratch))
	copy(heap, scratch)
	return heap, offsets
}

func float64bits(f float64) uint64 {
	return math.Float64bits(f)
}
