package db

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Emit passes each record downstream.
func Emit(records ...*Record) Operator {
	return &emitOperator{records: records}
}

type emitOperator struct {
	Op
	records []*Record
}

func (op *emitOperator) Iterate(in State, next func(out State) error) error {
	return op.IteratePrev(in, func(out State) error {
		for i := range op.records {
			out.SetRecord(op.records[i])
			if err := next(out); err != nil {
				if errors.Is(err, ErrBreak) {
					return nil
				}
				return err
			}
		}
		return nil
	})
}

func (op *emitOperator) String() string {
	var sb strings.Builder

	sb.WriteString("Emit(")
	for i, r := range op.records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", r.PrimaryKey))
	}
	sb.WriteByte(')')

	return sb.String()
}

// Each calls fn with every record passing through.
func Each(fn func(r *Record) error) Operator {
	return &eachOperator{fn: fn}
}

type eachOperator struct {
	Op
	fn func(r *Record) error
}

func (op *eachOperator) Iterate(in State, next func(out State) error) error {
	return op.IteratePrev(in, func(out State) error {
		if err := op.fn(out.Record()); err != nil {
			return err
		}
		return next(out)
	})
}

func (op *eachOperator) String() string {
	return "Each()"
}
