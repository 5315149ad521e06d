package db

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/internal/database"
	"github.com/octohelm/tabledb/pkg/config"
	"github.com/octohelm/tabledb/pkg/id"
	"github.com/octohelm/tabledb/pkg/journal"
	"github.com/octohelm/tabledb/pkg/kv"
	_ "github.com/octohelm/tabledb/pkg/kv/badger"
	_ "github.com/octohelm/tabledb/pkg/kv/pebble"
)

// Instance is an opened database with the store and journal behind it.
type Instance struct {
	Database
	Store   kv.Store
	Journal *journal.Journal
}

func Open(ctx context.Context, c config.Config) (*Instance, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	l := logr.FromContextOrDiscard(ctx)

	opts := c.StoreOptions()
	opts.Logger = l

	s, err := kv.NewStore(c.Engine, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store at %s", c.Engine, c.Path)
	}

	gen, err := id.New()
	if err != nil {
		_ = s.Shutdown(ctx)
		return nil, errors.Wrap(err, "id generator")
	}

	i := &Instance{Store: s}

	var optFns []database.OptionFunc

	if c.Journal.Path != "" {
		j, err := journal.Open(c.Journal.Path, journal.Options{NoSync: c.Journal.NoSync})
		if err != nil {
			_ = s.Shutdown(ctx)
			return nil, err
		}
		i.Journal = j
		optFns = append(optFns, database.WithJournal(j))
	}

	i.Database = database.New(c.Name, s, gen, optFns...)

	l.V(1).Info("Opened", "db", c.Name, "engine", c.Engine, "path", c.Path, "journal", c.Journal.Path)

	return i, nil
}

func (i *Instance) Close(ctx context.Context) error {
	var errs []error

	if i.Journal != nil {
		if err := i.Journal.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close journal"))
		}
	}

	if err := i.Store.Shutdown(ctx); err != nil {
		errs = append(errs, errors.Wrap(err, "shutdown store"))
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
