package meter

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

var ErrBudgetExceeded = errors.New("step budget exceeded")

// Meter is charged once per step of a multi-entry operation. A non-nil
// error aborts the operation; state written by earlier steps stays staged
// in the transaction, which the caller may roll back.
type Meter interface {
	Step(ctx context.Context) error
}

type contextKey struct{}

func FromContext(ctx context.Context) Meter {
	if m, ok := ctx.Value(contextKey{}).(Meter); ok {
		return m
	}
	return nil
}

func InjectContext(ctx context.Context, m Meter) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// Checkpoint aborts when ctx is done or its meter refuses another step.
func Checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m := FromContext(ctx); m != nil {
		return m.Step(ctx)
	}
	return nil
}

func NewBudget(limit uint64) *Budget {
	return &Budget{limit: limit}
}

// Budget allows limit steps.
type Budget struct {
	limit uint64
	used  atomic.Uint64
}

func (b *Budget) Step(ctx context.Context) error {
	if n := b.used.Add(1); n > b.limit {
		return errors.Wrapf(ErrBudgetExceeded, "%d steps", b.limit)
	}
	return nil
}

func (b *Budget) Used() uint64 {
	return b.used.Load()
}
