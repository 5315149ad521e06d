package badger

import (
	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/kv"
)

var _ kv.Session = (*session)(nil)

type session struct {
	txn      *badger.Txn
	limits   *limits
	readOnly bool
	closed   bool
	// pending entries and their estimated size, as badger counts them
	count, size int64
	// set when a write failed half way
	err error
}

func (s *session) Get(k []byte) ([]byte, error) {
	item, err := s.txn.Get(k)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, kv.ErrKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (s *session) Exists(k []byte) (bool, error) {
	_, err := s.txn.Get(k)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *session) Insert(k, v []byte) error {
	ok, err := s.Exists(k)
	if err != nil {
		return err
	}
	if ok {
		return kv.ErrKeyAlreadyExists
	}
	return s.Put(k, v)
}

func (s *session) Put(k, v []byte) error {
	return s.Apply(kv.PutOp(k, v))
}

func (s *session) Delete(k []byte) error {
	return s.Apply(kv.DeleteOp(k))
}

// Apply checks every op against the limits badger enforces on a txn before
// writing any of them, so a refused write set leaves the txn untouched.
func (s *session) Apply(ops ...kv.Op) error {
	if s.closed {
		return kv.ErrSessionClosed
	}
	if s.readOnly {
		return kv.ErrMethodNotAllowed
	}
	if s.err != nil {
		return s.err
	}
	if len(ops) == 0 {
		return nil
	}

	count, size := s.count, s.size

	for i, op := range ops {
		if err := s.limits.check(op); err != nil {
			return errors.WithMessagef(err, "op %d of %d", i+1, len(ops))
		}
		count++
		size += s.limits.entrySize(op)
	}

	if count >= s.limits.maxCount || size >= s.limits.maxSize {
		return errors.Wrapf(kv.ErrBatchTooLarge, "%d entries of %d bytes, limits %d entries of %d bytes", count, size, s.limits.maxCount, s.limits.maxSize)
	}

	for i, op := range ops {
		var err error
		if op.Type == kv.OpPut {
			err = s.txn.Set(op.Key, op.Value)
		} else {
			err = s.txn.Delete(op.Key)
		}
		if err != nil {
			// the txn now holds part of the write set and may not be committed
			s.err = errors.WithMessagef(err, "apply op %d of %d", i+1, len(ops))
			return s.err
		}
	}

	s.count, s.size = count, size
	return nil
}

func (s *session) Commit(opts ...kv.CommitOptionFunc) error {
	if s.closed {
		return kv.ErrSessionClosed
	}
	if s.readOnly {
		return kv.ErrMethodNotAllowed
	}
	if s.err != nil {
		_ = s.Close()
		return errors.WithMessage(s.err, "refusing to commit")
	}
	if err := s.txn.Commit(); err != nil {
		return err
	}
	s.closed = true
	return nil
}

func (s *session) Close() error {
	if s.closed {
		return kv.ErrSessionClosed
	}
	s.closed = true
	s.txn.Discard()
	return nil
}

func (s *session) Iterator(start []byte, end []byte) kv.Iterator {
	return &iterator{txn: s.txn, start: start, end: end}
}
