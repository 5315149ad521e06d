package pebble

import (
	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/kv"
)

var _ kv.Session = (*BatchSession)(nil)

const (
	// 10MB
	defaultMaxBatchSize = 10 * 1024 * 1024
)

type BatchSession struct {
	DB           *pebble.DB
	Batch        *pebble.Batch
	store        *store
	closed       bool
	maxBatchSize int
}

func (s *BatchSession) Commit(opts ...kv.CommitOptionFunc) error {
	if s.closed {
		return kv.ErrSessionClosed
	}

	w := pebble.Sync

	opt := &kv.CommitOption{}
	for i := range opts {
		opts[i](opt)
	}

	if opt.NoSync {
		w = pebble.NoSync
	}

	err := s.Batch.Commit(w)
	if err != nil {
		return err
	}

	return s.Close()
}

func (s *BatchSession) Close() error {
	if s.closed {
		return kv.ErrSessionClosed
	}
	s.closed = true
	s.store.unlockSharedSnapshot()
	return s.Batch.Close()
}

// Get returns a value associated with the given key. If not found, returns ErrKeyNotFound.
func (s *BatchSession) Get(k []byte) ([]byte, error) {
	return get(s.Batch, k)
}

// Exists returns whether a key exists and is visible by the current session.
func (s *BatchSession) Exists(k []byte) (bool, error) {
	return exists(s.Batch, k)
}

// The whole batch is the unit of rollback, so it is never committed early.
// A write set that would grow it past maxBatchSize is refused instead.
func (s *BatchSession) ensureBatchSize(extra int) error {
	if s.Batch.Len()+extra <= s.maxBatchSize {
		return nil
	}
	return errors.Wrapf(kv.ErrBatchTooLarge, "%d + %d bytes > %d", s.Batch.Len(), extra, s.maxBatchSize)
}

func checkPair(k, v []byte) error {
	if len(k) == 0 {
		return errors.New("cannot store empty key")
	}

	if len(v) == 0 {
		return errors.New("cannot store empty value")
	}
	return nil
}

// Insert inserts a key-value pair. If it already exists, it returns ErrKeyAlreadyExists.
func (s *BatchSession) Insert(k, v []byte) error {
	if err := checkPair(k, v); err != nil {
		return err
	}

	ok, err := s.Exists(k)
	if err != nil {
		return err
	}
	if ok {
		return kv.ErrKeyAlreadyExists
	}

	return s.Put(k, v)
}

// Put stores a key value pair. If it already exists, it overrides it.
func (s *BatchSession) Put(k, v []byte) error {
	return s.Apply(kv.PutOp(k, v))
}

// Delete a record by key. If the key doesn't exist, it doesn't do anything.
func (s *BatchSession) Delete(k []byte) error {
	return s.Apply(kv.DeleteOp(k))
}

// Apply stages ops in a scratch batch first, so a rejected op leaves the
// session batch untouched.
func (s *BatchSession) Apply(ops ...kv.Op) error {
	if s.closed {
		return kv.ErrSessionClosed
	}
	if len(ops) == 0 {
		return nil
	}

	scratch := s.DB.NewBatch()
	defer scratch.Close()

	for _, op := range ops {
		switch op.Type {
		case kv.OpPut:
			if err := checkPair(op.Key, op.Value); err != nil {
				return err
			}
			if err := scratch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case kv.OpDelete:
			if err := scratch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return errors.Errorf("unknown op type %d", op.Type)
		}
	}

	if err := s.ensureBatchSize(scratch.Len()); err != nil {
		return err
	}

	return s.Batch.Apply(scratch, nil)
}

func (s *BatchSession) Iterator(start []byte, end []byte) kv.Iterator {
	it, err := s.Batch.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return &kv.ErrIterator{Err: err}
	}
	return it
}
