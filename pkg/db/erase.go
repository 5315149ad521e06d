package db

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/octohelm/tabledb/pkg/schema"
)

// EraseAll erases every record reaching it on behalf of requester.
func EraseAll(requester schema.Name) Operator {
	return &eraseOperator{requester: requester}
}

type eraseOperator struct {
	Op
	requester schema.Name
}

func (op *eraseOperator) Iterate(in State, f func(out State) error) error {
	return op.IteratePrev(in, func(out State) error {
		t := out.Table()
		if t == nil {
			return errors.New("erase needs a table")
		}

		if _, err := t.Erase(out.Context(), out.Cursor(), op.requester); err != nil {
			return err
		}

		return f(out)
	})
}

func (op *eraseOperator) String() string {
	return fmt.Sprintf("EraseAll(%s)", op.requester)
}
