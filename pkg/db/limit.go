package db

import (
	"fmt"
)

// Limit passes at most limit states, then stops the upstream scan.
func Limit(limit int64) Operator {
	return &limitOperator{limit: limit}
}

type limitOperator struct {
	Op
	limit int64
}

func (op *limitOperator) Iterate(in State, f func(out State) error) error {
	var count int64

	return op.IteratePrev(in, func(out State) error {
		if count >= op.limit {
			return ErrBreak
		}
		count++
		if err := f(out); err != nil {
			return err
		}
		if count >= op.limit {
			return ErrBreak
		}
		return nil
	})
}

func (op *limitOperator) String() string {
	return fmt.Sprintf("Limit(%d)", op.limit)
}
