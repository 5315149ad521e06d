package badger

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/kv"
)

func init() {
	kv.RegisterEngine("badger", &engine{})
}

type engine struct {
}

func (engine) New(opt kv.Options) (kv.Store, error) {
	path, ok := opt.Extra["path"]
	if !ok {
		return nil, errors.New("engine badger need `path`")
	}

	var badgerOpts badger.Options
	if path == ":memory:" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(path).WithSyncWrites(false).WithTruncate(true)
	}

	l := opt.Logger
	if l.GetSink() == nil {
		l = logr.Discard()
	}
	badgerOpts = badgerOpts.WithLogger(&logger{l: l.WithValues("engine", "badger")})

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.WithMessage(err, "could not open backing db")
	}

	return &store{
		db:       db,
		inMemory: path == ":memory:",
		limits:   newLimits(db, badgerOpts, opt.MaxBatchSize),
	}, nil
}

// logger adapts badger logs to logr. Badger info and debug output goes to V(2).
type logger struct {
	l logr.Logger
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.l.Error(nil, fmt.Sprintf(format, args...))
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.l.V(1).Info(fmt.Sprintf(format, args...))
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.l.V(2).Info(fmt.Sprintf(format, args...))
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.l.V(3).Info(fmt.Sprintf(format, args...))
}
