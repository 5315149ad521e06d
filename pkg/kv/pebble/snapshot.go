package pebble

import (
	"io"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/octohelm/tabledb/pkg/kv"
)

var _ kv.Session = (*SnapshotSession)(nil)

type snapshot struct {
	snapshot *pebble.Snapshot
	refCount int32
}

func (s *snapshot) Incr() {
	atomic.AddInt32(&s.refCount, 1)
}

func (s *snapshot) Done() {
	if atomic.AddInt32(&s.refCount, -1) == 0 {
		_ = s.snapshot.Close()
	}
}

// SnapshotSession is a read-only session over a point-in-time view.
type SnapshotSession struct {
	Snapshot *snapshot
	store    *store
	closed   bool
}

func (s *SnapshotSession) Insert(k, v []byte) error {
	return kv.ErrMethodNotAllowed
}

func (s *SnapshotSession) Put(k, v []byte) error {
	return kv.ErrMethodNotAllowed
}

func (s *SnapshotSession) Delete(k []byte) error {
	return kv.ErrMethodNotAllowed
}

func (s *SnapshotSession) Apply(ops ...kv.Op) error {
	return kv.ErrMethodNotAllowed
}

func (s *SnapshotSession) Commit(opts ...kv.CommitOptionFunc) error {
	return kv.ErrMethodNotAllowed
}

func (s *SnapshotSession) Close() error {
	if s.closed {
		return kv.ErrSessionClosed
	}
	s.closed = true
	s.Snapshot.Done()
	return nil
}

func (s *SnapshotSession) Get(k []byte) ([]byte, error) {
	return get(s.Snapshot.snapshot, k)
}

func (s *SnapshotSession) Exists(k []byte) (bool, error) {
	return exists(s.Snapshot.snapshot, k)
}

func (s *SnapshotSession) Iterator(start []byte, end []byte) kv.Iterator {
	it, err := s.Snapshot.snapshot.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return &kv.ErrIterator{Err: err}
	}
	return it
}

type getter interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(r getter, k []byte) ([]byte, error) {
	v, closer, err := r.Get(k)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, kv.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	return append(make([]byte, 0, len(v)), v...), nil
}

func exists(r getter, k []byte) (bool, error) {
	_, closer, err := r.Get(k)
	if err != nil {
		if err == pebble.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	_ = closer.Close()
	return true, nil
}
