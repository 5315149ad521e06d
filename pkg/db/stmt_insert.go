package db

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/octohelm/tabledb/internal/database"
	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/schema"
)

// Insert stores each upstream record in ref on behalf of requester.
func Insert(ref schema.TableRef, requester schema.Name, slots ...schema.KeyType) Operator {
	return &insertOperator{ref: ref, requester: requester, slots: slots}
}

type insertOperator struct {
	Op
	ref       schema.TableRef
	requester schema.Name
	slots     []schema.KeyType
}

func (op *insertOperator) Iterate(in State, f func(out State) error) error {
	var table Table

	return op.IteratePrev(in, func(out State) error {
		if table == nil {
			tx := out.Tx()
			if tx == nil {
				return errors.New("insert outside of a transaction")
			}
			t, err := tx.Resolve(out.Context(), op.ref, op.slots...)
			if err != nil {
				return err
			}
			table = t
		}

		out.SetTable(table)

		r := out.Record()
		if r == nil {
			return nil
		}

		c, err := table.Store(out.Context(), r.PrimaryKey, r.Payload, r.Keys, op.requester)
		if err != nil {
			return err
		}

		out.SetCursor(c)

		return f(out)
	})
}

func (op *insertOperator) String() string {
	return fmt.Sprintf("Insert(%s)", op.ref)
}

func DoNothing() Operator {
	return nil
}

// OnConflict runs action for records whose primary key is taken, instead of
// failing. A nil action skips them.
func OnConflict(action Operator) Operator {
	return &onConflict{
		action: action,
	}
}

type onConflict struct {
	Op
	action Operator
}

func (o *onConflict) Iterate(in State, next func(state State) error) error {
	return o.IteratePrev(in, func(state State) error {
		if err := next(state); err != nil {
			if _, ok := dberr.IsConflictError(err); ok {
				if o.action == nil {
					return nil
				}

				s := database.NewStateWithContext(in.Context())
				s.SetOuter(state)

				return o.action.Iterate(s, func(state database.State) error {
					return nil
				})
			}
			return err
		}

		return nil
	})
}

func (o *onConflict) String() string {
	if o.action == nil {
		return "OnConflict(DoNothing())"
	}
	return fmt.Sprintf("OnConflict(%s)", database.Stringify(o.action))
}

// Update overwrites the stored record with the primary key of the upstream
// record with its keys and payload.
func Update(requester schema.Name) Operator {
	return &updateOperator{requester: requester}
}

type updateOperator struct {
	Op
	requester schema.Name
}

func (op *updateOperator) Iterate(in State, f func(out State) error) error {
	return op.IteratePrev(in, func(out State) error {
		t, r := out.Table(), out.Record()
		if t == nil || r == nil {
			return errors.New("update needs a table and a record")
		}

		ctx := out.Context()

		c, err := t.LowerBound(ctx, r.PrimaryKey)
		if err != nil {
			return err
		}
		if !c.IsValid() || c.PrimaryKey() != r.PrimaryKey {
			return dberr.Newf(dberr.ErrNotFound, "record %d not found in %s", r.PrimaryKey, t.Schema().Ref)
		}

		err = t.Modify(ctx, c, func(stored *Record) error {
			stored.Keys = append(stored.Keys[:0], r.Keys...)
			stored.Payload = r.Payload
			return nil
		}, op.requester)
		if err != nil {
			return err
		}

		out.SetCursor(c)
		return f(out)
	})
}

func (op *updateOperator) String() string {
	return fmt.Sprintf("Update(%s)", op.requester)
}
