// Package journal keeps the write set of every committed transaction in a
// segmented log, so a store can be rebuilt by replaying it.
package journal

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/tidwall/wal"

	"github.com/octohelm/tabledb/pkg/kv"
	"github.com/octohelm/tabledb/pkg/meter"
)

type Options struct {
	// NoSync skips fsync after each append.
	NoSync bool
}

type Journal struct {
	mu        sync.Mutex
	log       *wal.Log
	nextIndex uint64
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

func Open(path string, opts Options) (*Journal, error) {
	log, err := wal.Open(path, &wal.Options{
		NoSync: opts.NoSync,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "could not open journal")
	}

	lastIndex, err := log.LastIndex()
	if err != nil {
		_ = log.Close()
		return nil, errors.WithMessage(err, "could not read last index")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = log.Close()
		return nil, errors.Wrap(err, "zstd writer")
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = log.Close()
		return nil, errors.Wrap(err, "zstd reader")
	}

	return &Journal{
		log:       log,
		nextIndex: lastIndex + 1,
		enc:       enc,
		dec:       dec,
	}, nil
}

// Append stores the write set of one committed transaction and returns its
// index. Empty write sets are skipped and return 0.
func (j *Journal) Append(ctx context.Context, txID uint64, ops []kv.Op) (uint64, error) {
	if len(ops) == 0 {
		return 0, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	data := j.enc.EncodeAll(encodeEntry(txID, ops), nil)

	index := j.nextIndex
	if err := j.log.Write(index, data); err != nil {
		return 0, errors.WithMessagef(err, "could not write index %d", index)
	}
	j.nextIndex++

	logr.FromContextOrDiscard(ctx).V(1).Info("Journaled", "index", index, "tx", txID, "ops", len(ops))

	return index, nil
}

// Entry is one journaled write set.
type Entry struct {
	Index uint64
	TxID  uint64
	Ops   []kv.Op
}

// Range calls fn with every entry in index order.
func (j *Journal) Range(ctx context.Context, fn func(e *Entry) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	first, err := j.log.FirstIndex()
	if err != nil {
		return errors.WithMessage(err, "could not read first index")
	}
	last, err := j.log.LastIndex()
	if err != nil {
		return errors.WithMessage(err, "could not read last index")
	}

	if first == 0 {
		return nil
	}

	for i := first; i <= last; i++ {
		if err := meter.Checkpoint(ctx); err != nil {
			return err
		}

		data, err := j.log.Read(i)
		if err != nil {
			return errors.WithMessagef(err, "could not read index %d", i)
		}

		raw, err := j.dec.DecodeAll(data, nil)
		if err != nil {
			return errors.WithMessagef(err, "could not decompress index %d", i)
		}

		e, err := decodeEntry(raw)
		if err != nil {
			return errors.WithMessagef(err, "corrupt entry at index %d", i)
		}
		e.Index = i

		if err := fn(e); err != nil {
			return err
		}
	}

	return nil
}

// Replay applies every entry to s, one commit per entry.
func (j *Journal) Replay(ctx context.Context, s kv.Store, dbName string) (int, error) {
	l := logr.FromContextOrDiscard(ctx)

	n := 0

	err := j.Range(ctx, func(e *Entry) error {
		session := s.NewBatchSession(dbName)

		if err := session.Apply(e.Ops...); err != nil {
			_ = session.Close()
			return errors.WithMessagef(err, "replay index %d", e.Index)
		}

		if err := session.Commit(); err != nil {
			return errors.WithMessagef(err, "commit index %d", e.Index)
		}

		l.V(1).Info("Replayed", "index", e.Index, "tx", e.TxID, "ops", len(e.Ops))
		n++
		return nil
	})

	return n, err
}

func (j *Journal) Sync() error {
	return j.log.Sync()
}

func (j *Journal) Close() error {
	j.enc.Close()
	j.dec.Close()
	return j.log.Close()
}

func encodeEntry(txID uint64, ops []kv.Op) []byte {
	b := binary.AppendUvarint(nil, txID)
	b = binary.AppendUvarint(b, uint64(len(ops)))

	for _, op := range ops {
		b = append(b, byte(op.Type))
		b = binary.AppendUvarint(b, uint64(len(op.Key)))
		b = append(b, op.Key...)
		if op.Type == kv.OpPut {
			b = binary.AppendUvarint(b, uint64(len(op.Value)))
			b = append(b, op.Value...)
		}
	}

	return b
}

var errTruncated = errors.New("truncated entry")

func decodeEntry(b []byte) (*Entry, error) {
	readUvarint := func() (uint64, error) {
		v, n := binary.Uvarint(b)
		if n <= 0 {
			return 0, errTruncated
		}
		b = b[n:]
		return v, nil
	}

	readBytes := func() ([]byte, error) {
		l, err := readUvarint()
		if err != nil {
			return nil, err
		}
		if uint64(len(b)) < l {
			return nil, errTruncated
		}
		v := append([]byte(nil), b[:l]...)
		b = b[l:]
		return v, nil
	}

	e := &Entry{}

	txID, err := readUvarint()
	if err != nil {
		return nil, err
	}
	e.TxID = txID

	count, err := readUvarint()
	if err != nil {
		return nil, err
	}

	e.Ops = make([]kv.Op, 0, count)

	for i := uint64(0); i < count; i++ {
		if len(b) == 0 {
			return nil, errTruncated
		}
		op := kv.Op{Type: kv.OpType(b[0])}
		b = b[1:]

		if op.Key, err = readBytes(); err != nil {
			return nil, err
		}

		switch op.Type {
		case kv.OpPut:
			if op.Value, err = readBytes(); err != nil {
				return nil, err
			}
		case kv.OpDelete:
		default:
			return nil, errors.Errorf("unknown op type %d", op.Type)
		}

		e.Ops = append(e.Ops, op)
	}

	return e, nil
}
