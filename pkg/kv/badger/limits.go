package badger

import (
	"bytes"
	"math"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/kv"
)

const maxKeySize = 65000

var badgerPrefix = []byte("!badger!")

// limits mirrors the accounting badger applies to a pending txn, so a write
// set can be refused before any of it reaches the txn.
type limits struct {
	maxCount       int64
	maxSize        int64
	valueThreshold int64
	maxValueSize   int64
}

func newLimits(db *badger.DB, opts badger.Options, maxBatchSize int) *limits {
	l := &limits{
		maxCount:       db.MaxBatchCount(),
		maxSize:        db.MaxBatchSize(),
		valueThreshold: int64(opts.ValueThreshold),
		maxValueSize:   opts.ValueLogFileSize,
	}
	if opts.InMemory {
		l.valueThreshold = math.MaxInt32
	}
	if maxBatchSize > 0 && int64(maxBatchSize) < l.maxSize {
		l.maxSize = int64(maxBatchSize)
	}
	return l
}

func (l *limits) check(op kv.Op) error {
	switch {
	case len(op.Key) == 0:
		return errors.WithMessage(badger.ErrEmptyKey, "check op")
	case bytes.HasPrefix(op.Key, badgerPrefix):
		return errors.WithMessage(badger.ErrInvalidKey, "check op")
	case len(op.Key) > maxKeySize:
		return errors.Wrapf(kv.ErrBatchTooLarge, "key of %d bytes exceeds %d", len(op.Key), maxKeySize)
	case int64(len(op.Value)) > l.maxValueSize:
		return errors.Wrapf(kv.ErrBatchTooLarge, "value of %d bytes exceeds %d", len(op.Value), l.maxValueSize)
	}
	return nil
}

// entrySize is the size badger charges an entry, plus its fixed per entry overhead.
func (l *limits) entrySize(op kv.Op) int64 {
	k, v := int64(len(op.Key)), int64(len(op.Value))
	if op.Type != kv.OpPut {
		v = 0
	}
	if v < l.valueThreshold {
		return k + v + 2 + 10
	}
	return k + 12 + 2 + 10
}
