package badger

import (
	"context"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/go-logr/logr"

	"github.com/octohelm/tabledb/pkg/kv"
)

type store struct {
	db       *badger.DB
	inMemory bool
	limits   *limits
}

func (s *store) NewSnapshotSession(dbName string) kv.Session {
	return &session{txn: s.db.NewTransaction(false), limits: s.limits, readOnly: true}
}

func (s *store) NewBatchSession(dbName string) kv.Session {
	return &session{txn: s.db.NewTransaction(true), limits: s.limits}
}

func (s *store) Shutdown(ctx context.Context) error {
	if !s.inMemory {
		if err := s.db.Sync(); err != nil {
			logr.FromContextOrDiscard(ctx).Error(err, "Sync")
		}
	}
	return s.db.Close()
}
