package meter_test

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	. "github.com/octohelm/x/testing"

	"github.com/octohelm/tabledb/pkg/meter"
)

func TestCheckpoint(t *testing.T) {
	t.Run("Given no meter", func(t *testing.T) {
		err := meter.Checkpoint(context.Background())
		Expect(t, err, Be[error](nil))
	})

	t.Run("Given budget of 2 steps", func(t *testing.T) {
		b := meter.NewBudget(2)
		ctx := meter.InjectContext(context.Background(), b)

		Expect(t, meter.Checkpoint(ctx), Be[error](nil))
		Expect(t, meter.Checkpoint(ctx), Be[error](nil))

		t.Run("third step is refused", func(t *testing.T) {
			err := meter.Checkpoint(ctx)
			Expect(t, errors.Is(err, meter.ErrBudgetExceeded), Be(true))
			Expect(t, b.Used(), Be(uint64(3)))
		})
	})

	t.Run("Given canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := meter.Checkpoint(ctx)
		Expect(t, errors.Is(err, context.Canceled), Be(true))
	})
}
