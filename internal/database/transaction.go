package database

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/id"
	"github.com/octohelm/tabledb/pkg/kv"
	"github.com/octohelm/tabledb/pkg/schema"
)

// Transaction is the unit of isolation and rollback. Every table resolved
// through it shares its kv session and table registry, so nested calls see
// each other's writes.
type Transaction interface {
	// ID is a trace id, used in logs and the journal only.
	ID() uint64
	Session() kv.Session
	ReadOnly() bool

	// Resolve returns the table ref with the given secondary slot types.
	Resolve(ctx context.Context, ref schema.TableRef, slots ...schema.KeyType) (Table, error)
	// Open returns a materialized table with its persisted slot types.
	Open(ctx context.Context, ref schema.TableRef) (Table, error)
	Tables(ctx context.Context) ([]TableInfo, error)

	// WriteSet returns every write applied so far, in order.
	WriteSet() []kv.Op

	Rollback() error
	Commit() error
	On(event TransactionEvent, callback func())
}

type TransactionEvent string

var (
	TransactionEventCommit   TransactionEvent = "commit"
	TransactionEventRollback TransactionEvent = "rollback"
)

// Appender receives the write set of each committed transaction.
type Appender interface {
	Append(ctx context.Context, txID uint64, ops []kv.Op) (uint64, error)
}

type TransactionOptionFunc = func(o *transactionOption)

type transactionOption struct {
	readOnly bool
	noSync   bool
	journal  Appender
}

func TransactionReadOnly() func(o *transactionOption) {
	return func(o *transactionOption) {
		o.readOnly = true
	}
}

func TransactionNoSync() func(o *transactionOption) {
	return func(o *transactionOption) {
		o.noSync = true
	}
}

func TransactionJournal(j Appender) func(o *transactionOption) {
	return func(o *transactionOption) {
		o.journal = j
	}
}

func NewTransaction(ctx context.Context, dbName string, s kv.Store, idgen id.Gen, optFns ...TransactionOptionFunc) Transaction {
	o := &transactionOption{}

	for i := range optFns {
		optFns[i](o)
	}

	tx := &transaction{
		opt:   o,
		hooks: map[TransactionEvent][]func(){},
	}

	if idgen != nil {
		txID, err := idgen.ID()
		if err == nil {
			tx.id = txID
		}
	}

	tx.logger = logr.FromContextOrDiscard(ctx).WithValues("db", dbName, "tx", tx.id)

	if o.readOnly {
		tx.session = s.NewSnapshotSession(dbName)
	} else {
		tx.recorder = kv.NewRecorder(s.NewBatchSession(dbName))
		tx.session = tx.recorder
	}

	tx.catalog = newCatalog(tx.session)
	tx.registry = newRegistry(tx)

	tx.logger.V(2).Info("Begin", "readOnly", o.readOnly)

	return tx
}

type transaction struct {
	id       uint64
	opt      *transactionOption
	logger   logr.Logger
	session  kv.Session
	recorder *kv.Recorder
	catalog  *catalog
	registry *registry
	hooks    map[TransactionEvent][]func()
}

func (tx *transaction) ID() uint64 {
	return tx.id
}

func (tx *transaction) Session() kv.Session {
	return tx.session
}

func (tx *transaction) ReadOnly() bool {
	return tx.opt.readOnly
}

func (tx *transaction) Resolve(ctx context.Context, ref schema.TableRef, slots ...schema.KeyType) (Table, error) {
	t, err := tx.registry.Resolve(ref, slots)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (tx *transaction) Open(ctx context.Context, ref schema.TableRef) (Table, error) {
	t, err := tx.registry.Open(ref)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (tx *transaction) Tables(ctx context.Context) ([]TableInfo, error) {
	list, err := tx.catalog.List(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]TableInfo, len(list))
	for i := range list {
		// tables of this transaction may be ahead of what was listed
		if t, ok := tx.registry.tables[list[i].Ref]; ok && t.info != nil {
			infos[i] = *t.info.clone()
			continue
		}
		infos[i] = *list[i]
	}
	return infos, nil
}

func (tx *transaction) WriteSet() []kv.Op {
	if tx.recorder == nil {
		return nil
	}
	return tx.recorder.Ops()
}

func (tx *transaction) On(event TransactionEvent, callback func()) {
	tx.hooks[event] = append(tx.hooks[event], callback)
}

func (tx *transaction) Rollback() error {
	err := tx.session.Close()
	if err != nil {
		return err
	}

	tx.registry = newRegistry(tx)
	tx.logger.V(1).Info("Rollback", "ops", len(tx.WriteSet()))

	if hooks, ok := tx.hooks[TransactionEventRollback]; ok {
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
	}

	return nil
}

func (tx *transaction) Commit() error {
	if tx.opt.readOnly {
		return errors.New("cannot commit read-only transaction")
	}

	var opts []kv.CommitOptionFunc
	if tx.opt.noSync {
		opts = append(opts, kv.NoSync)
	}

	err := tx.session.Commit(opts...)
	if err != nil {
		return err
	}

	ops := tx.WriteSet()

	tx.logger.V(1).Info("Committed", "ops", len(ops))

	if j := tx.opt.journal; j != nil {
		if _, err := j.Append(logr.NewContext(context.Background(), tx.logger), tx.id, ops); err != nil {
			return errors.WithMessage(err, "committed but not journaled")
		}
	}

	if hooks, ok := tx.hooks[TransactionEventCommit]; ok {
		for i := len(hooks) - 1; i >= 0; i-- {
			hooks[i]()
		}
	}
	return nil
}
