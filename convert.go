package bnfg

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/scigolib/bnfg/internal/binreader"
	"github.com/scigolib/bnfg/internal/binwriter"
)

// ToBinary serializes t into the canonical binary form (spec.md
// §4.1, §4.4). It fails with ErrEmptyRootTable if t has no entries.
func (t *Table) ToBinary() ([]byte, error) {
	if t.Len() == 0 {
		return nil, ErrEmptyRootTable
	}
	w, err := binwriter.New(uint32(t.Len()))
	if err != nil {
		return nil, err
	}
	if err := writeTable(w, t); err != nil {
		return nil, err
	}
	return w.Finish()
}

func writeTable(w *binwriter.Writer, t *Table) error {
	for _, key := range t.SortedKeys() {
		v, _ := t.Get(key)
		if err := writeEntry(w, key, v); err != nil {
			return err
		}
	}
	return nil
}

func writeArray(w *binwriter.Writer, a *Array) error {
	var err error
	a.Iter(func(_ int, v Value) bool {
		err = writeEntry(w, "", v)
		return err == nil
	})
	return err
}

func writeEntry(w *binwriter.Writer, key string, v Value) error {
	switch v.Tag() {
	case TagBool:
		b, _ := v.AsBool()
		return w.Bool(key, b)
	case TagI64:
		i, _ := v.AsI64()
		return w.I64(key, i)
	case TagF64:
		f, _ := v.AsF64()
		return w.F64(key, f)
	case TagString:
		s, _ := v.AsString()
		return w.String(key, s)
	case TagArray:
		arr, _ := v.AsArray()
		if err := w.Array(key, uint32(arr.Len())); err != nil {
			return err
		}
		if err := writeArray(w, arr); err != nil {
			return err
		}
		return w.End()
	case TagTable:
		tbl, _ := v.AsTable()
		if err := w.Table(key, uint32(tbl.Len())); err != nil {
			return err
		}
		if err := writeTable(w, tbl); err != nil {
			return err
		}
		return w.End()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, v.Tag())
	}
}

// FromBinaryBytes validates buf and copies it into an owned dynamic
// tree (spec.md §4.4). The returned table owns all its data and may
// outlive buf.
func FromBinaryBytes(buf []byte) (*Table, error) {
	r, err := binreader.New(buf)
	if err != nil {
		return nil, err
	}
	return copyTable(r.Root())
}

func copyTable(ref binreader.TableRef) (*Table, error) {
	t := NewTable()
	var copyErr error
	ref.Iter(func(key string, v binreader.ValueRef) bool {
		val, err := copyValue(v)
		if err != nil {
			copyErr = err
			return false
		}
		if err := t.Set(key, val); err != nil {
			copyErr = err
			return false
		}
		return true
	})
	if copyErr != nil {
		return nil, copyErr
	}
	return t, nil
}

func copyArray(ref binreader.ArrayRef) (*Array, error) {
	a := NewArray()
	for i := 0; i < ref.Len(); i++ {
		elemRef, err := ref.Get(i)
		if err != nil {
			return nil, err
		}
		v, err := copyValue(elemRef)
		if err != nil {
			return nil, err
		}
		if err := a.Push(v); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func copyValue(ref binreader.ValueRef) (Value, error) {
	switch ref.Tag() {
	case TagBool:
		b, err := ref.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case TagI64:
		i, err := ref.AsI64()
		if err != nil {
			return Value{}, err
		}
		return I64(i), nil
	case TagF64:
		f, err := ref.AsF64()
		if err != nil {
			return Value{}, err
		}
		return F64(f), nil
	case TagString:
		s, err := ref.AsString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case TagArray:
		arrRef, err := ref.AsArray()
		if err != nil {
			return Value{}, err
		}
		arr, err := copyArray(arrRef)
		if err != nil {
			return Value{}, err
		}
		return ArrayValue(arr), nil
	case TagTable:
		tblRef, err := ref.AsTable()
		if err != nil {
			return Value{}, err
		}
		tbl, err := copyTable(tblRef)
		if err != nil {
			return Value{}, err
		}
		return TableValue(tbl), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownType, ref.Tag())
	}
}

// ValidateAll constructs a Reader over each of buffers and reports the
// first validation error encountered, if any. Each buffer is
// completely independent and read-only, so the batch fans out across
// an errgroup: this does not violate the single-owner rule of spec.md
// §5, since no two goroutines ever touch the same buffer or the same
// writer/dynamic tree.
func ValidateAll(ctx context.Context, buffers [][]byte) error {
	g, ctx := errgroup.WithContext(ctx)
	for i, buf := range buffers {
		i, buf := i, buf
		g.Go(func() error {
			if _, err := binreader.New(buf); err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			return ctx.Err()
		})
	}
	return g.Wait()
}
