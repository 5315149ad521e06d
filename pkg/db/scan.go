package db

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/schema"
)

type ScanOptionFunc = func(o *scanOption)

type scanOption struct {
	index   schema.IndexID
	lower   *schema.Key
	upper   *schema.Key
	reverse bool
}

// ByIndex scans secondary slot instead of the primary index.
func ByIndex(slot int) ScanOptionFunc {
	return func(o *scanOption) {
		o.index = schema.SecondaryIndex(slot)
	}
}

// From is the inclusive lower bound. Primary scans take a uint64 key.
func From(k schema.Key) ScanOptionFunc {
	return func(o *scanOption) {
		o.lower = &k
	}
}

// To is the exclusive upper bound. Primary scans take a uint64 key.
func To(k schema.Key) ScanOptionFunc {
	return func(o *scanOption) {
		o.upper = &k
	}
}

func Reverse() ScanOptionFunc {
	return func(o *scanOption) {
		o.reverse = true
	}
}

// Scan emits the records of ref in index order. Tables never written scan
// empty.
func Scan(ref schema.TableRef, optFns ...ScanOptionFunc) Operator {
	op := &scanOperator{ref: ref}
	for i := range optFns {
		optFns[i](&op.opt)
	}
	return op
}

type scanOperator struct {
	Op
	ref schema.TableRef
	opt scanOption
}

func (op *scanOperator) Iterate(in State, next func(out State) error) error {
	return op.IteratePrev(in, func(out State) error {
		tx := out.Tx()
		if tx == nil {
			return errors.New("scan outside of a transaction")
		}

		ctx := out.Context()

		t, err := tx.Open(ctx, op.ref)
		if err != nil {
			if errors.Is(err, dberr.ErrNotFound) {
				return nil
			}
			return err
		}

		s, err := op.scanner(t)
		if err != nil {
			return err
		}

		out.SetTable(t)

		if err := s.walk(ctx, func(c Cursor, r *Record) error {
			out.SetCursor(c)
			out.SetRecord(r)
			return next(out)
		}); err != nil && !errors.Is(err, ErrBreak) {
			return err
		}
		return nil
	})
}

func (op *scanOperator) String() string {
	return fmt.Sprintf("Scan(%s, %s)", op.ref, op.opt.index)
}

func (op *scanOperator) scanner(t Table) (*scanner, error) {
	s := &scanner{table: t, scanOption: op.opt}

	if op.opt.index.IsPrimary() {
		s.codec, _ = schema.CodecFor(schema.KeyTypeUint64)
	} else {
		idx, err := t.Index(op.opt.index.Slot())
		if err != nil {
			return nil, err
		}
		s.index = idx
		s.codec, _ = schema.CodecFor(idx.KeyType())
	}

	for _, k := range []*schema.Key{op.opt.lower, op.opt.upper} {
		if k != nil {
			if err := schema.Validate(s.codec, *k); err != nil {
				return nil, err
			}
		}
	}

	return s, nil
}

type scanner struct {
	scanOption
	table Table
	index Index
	codec schema.KeyCodec
}

func (s *scanner) keyOf(r *Record) schema.Key {
	if s.index == nil {
		return schema.Uint64Key(r.PrimaryKey)
	}
	return r.Keys[s.index.ID().Slot()]
}

func (s *scanner) lowerBound(ctx context.Context, k schema.Key) (Cursor, error) {
	if s.index == nil {
		return s.table.LowerBound(ctx, k.Uint64())
	}
	return s.index.LowerBound(ctx, k)
}

func (s *scanner) begin(ctx context.Context) (Cursor, error) {
	if s.index == nil {
		return s.table.Begin(ctx)
	}
	return s.index.Begin(ctx)
}

func (s *scanner) end() Cursor {
	if s.index == nil {
		return s.table.End()
	}
	return s.index.End()
}

// walk fetches the following cursor before yielding, so yield may erase the
// current record.
func (s *scanner) walk(ctx context.Context, yield func(c Cursor, r *Record) error) error {
	if s.reverse {
		return s.walkBackward(ctx, yield)
	}
	return s.walkForward(ctx, yield)
}

func (s *scanner) walkForward(ctx context.Context, yield func(c Cursor, r *Record) error) error {
	var (
		c   Cursor
		err error
	)

	if s.lower != nil {
		c, err = s.lowerBound(ctx, *s.lower)
	} else {
		c, err = s.begin(ctx)
	}
	if err != nil {
		return err
	}

	for c.IsValid() {
		r, err := s.table.Get(ctx, c)
		if err != nil {
			return err
		}

		if s.upper != nil && s.codec.Compare(s.keyOf(r), *s.upper) >= 0 {
			return nil
		}

		n, err := s.table.Next(ctx, c)
		if err != nil {
			return err
		}

		if err := yield(c, r); err != nil {
			return err
		}

		c = n
	}

	return nil
}

func (s *scanner) walkBackward(ctx context.Context, yield func(c Cursor, r *Record) error) error {
	c := s.end()

	if s.upper != nil {
		upper, err := s.lowerBound(ctx, *s.upper)
		if err != nil {
			return err
		}
		c = upper
	}

	c, err := s.table.Prev(ctx, c)
	if err != nil {
		if errors.Is(err, dberr.ErrIteratorExceedBegin) {
			return nil
		}
		return err
	}

	for {
		r, err := s.table.Get(ctx, c)
		if err != nil {
			return err
		}

		if s.lower != nil && s.codec.Compare(s.keyOf(r), *s.lower) < 0 {
			return nil
		}

		p, err := s.table.Prev(ctx, c)
		atBegin := errors.Is(err, dberr.ErrIteratorExceedBegin)
		if err != nil && !atBegin {
			return err
		}

		if err := yield(c, r); err != nil {
			return err
		}

		if atBegin {
			return nil
		}
		c = p
	}
}
