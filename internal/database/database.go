package database

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/octohelm/tabledb/pkg/id"
	"github.com/octohelm/tabledb/pkg/kv"
)

type Database interface {
	Name() string
	Execute(ctx context.Context, op Operator) error
	// Update runs fn in a write transaction, committed when fn succeeds.
	Update(ctx context.Context, fn func(tx Transaction) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Transaction) error) error
	Begin(ctx context.Context, optFns ...TransactionOptionFunc) Transaction
}

type OptionFunc = func(d *database)

// WithJournal appends every committed write set to j.
func WithJournal(j Appender) OptionFunc {
	return func(d *database) {
		d.journal = j
	}
}

func WithNoSync() OptionFunc {
	return func(d *database) {
		d.noSync = true
	}
}

func New(dbName string, s kv.Store, gen id.Gen, optFns ...OptionFunc) Database {
	db := &database{
		name:  dbName,
		store: s,
		gen:   gen,
	}

	for i := range optFns {
		optFns[i](db)
	}

	return db
}

type database struct {
	name    string
	store   kv.Store
	gen     id.Gen
	journal Appender
	noSync  bool
}

type databaseTx struct {
	Op
	db *database
}

func (d *databaseTx) String() string {
	return fmt.Sprintf("Tx(db=%s)", d.db.name)
}

func (d *databaseTx) Iterate(in State, next func(state State) error) error {
	tx := d.db.Begin(in.Context())

	in.SetTx(tx)
	in.SetDatabase(d.db)

	if err := next(in); err != nil && !errors.Is(err, ErrBreak) {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (d *database) Name() string {
	return d.name
}

func (d *database) Execute(ctx context.Context, op Operator) (err error) {
	c := NewStateWithContext(ctx)

	head := op
	for head.Prev() != nil {
		head = head.Prev()
	}
	if dt, ok := head.(*databaseTx); ok {
		dt.db = d
	} else {
		Pipe(&databaseTx{db: d}, head)
	}

	return op.Iterate(c, func(out State) error {
		return nil
	})
}

func (d *database) Begin(ctx context.Context, optFns ...TransactionOptionFunc) Transaction {
	fns := make([]TransactionOptionFunc, 0, len(optFns)+2)
	if d.journal != nil {
		fns = append(fns, TransactionJournal(d.journal))
	}
	if d.noSync {
		fns = append(fns, TransactionNoSync())
	}
	return NewTransaction(ctx, d.name, d.store, d.gen, append(fns, optFns...)...)
}

func (d *database) Update(ctx context.Context, fn func(tx Transaction) error) error {
	tx := d.Begin(ctx)

	if err := fn(tx); err != nil {
		if e := tx.Rollback(); e != nil {
			return errors.CombineErrors(err, e)
		}
		return err
	}

	return tx.Commit()
}

func (d *database) View(ctx context.Context, fn func(tx Transaction) error) error {
	tx := d.Begin(ctx, TransactionReadOnly())
	defer func() {
		_ = tx.Rollback()
	}()

	return fn(tx)
}
