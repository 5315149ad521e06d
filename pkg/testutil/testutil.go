package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/octohelm/tabledb/internal/database"
	"github.com/octohelm/tabledb/internal/tree"
	"github.com/octohelm/tabledb/pkg/journal"
	"github.com/octohelm/tabledb/pkg/kv"
	_ "github.com/octohelm/tabledb/pkg/kv/badger"
	_ "github.com/octohelm/tabledb/pkg/kv/pebble"
	. "github.com/octohelm/x/testing"
)

func TempDir(t testing.TB) string {
	dir, err := os.MkdirTemp("", "tabledb")
	Expect(t, err, Be[error](nil))
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// Engines lists the store engines every storage test runs against.
var Engines = []string{"pebble", "badger"}

// EachEngine runs fn as a subtest per engine.
func EachEngine(t *testing.T, fn func(t *testing.T, engine string)) {
	for _, engine := range Engines {
		t.Run("Given "+engine, func(t *testing.T) {
			fn(t, engine)
		})
	}
}

type StoreOptionFunc = func(o *kv.Options)

func WithMaxBatchSize(n int) StoreOptionFunc {
	return func(o *kv.Options) {
		o.MaxBatchSize = n
	}
}

// NewStore opens an in-memory store of engine.
func NewStore(t testing.TB, engine string, optFns ...StoreOptionFunc) kv.Store {
	t.Helper()
	return NewEngineStore(t, engine, ":memory:", optFns...)
}

// NewMemStore opens an in-memory store of engine.
func NewMemStore(t testing.TB, engine string) kv.Store {
	t.Helper()
	return NewStore(t, engine)
}

func NewEngineStore(t testing.TB, engine string, path string, optFns ...StoreOptionFunc) kv.Store {
	t.Helper()
	opts := kv.Options{
		Extra: map[string]string{
			"path": path,
		},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	s, err := kv.NewStore(engine, opts)
	Expect(t, err, Be[error](nil))
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})
	return s
}

func NewTree(t testing.TB, engine string, namespace tree.Namespace) *tree.Tree {
	t.Helper()
	session := NewStore(t, engine).NewBatchSession("test")
	t.Cleanup(func() {
		_ = session.Close()
	})
	return tree.New(session, namespace)
}

func NewDatabase(t testing.TB, engine string, dbName string, optFns ...database.OptionFunc) database.Database {
	t.Helper()
	return database.New(dbName, NewStore(t, engine), NewIDGen(t), optFns...)
}

// NewTransaction begins a write transaction on a fresh store, rolled back
// when the test ends unless committed.
func NewTransaction(t testing.TB, engine string, optFns ...StoreOptionFunc) database.Transaction {
	t.Helper()
	tx := database.NewTransaction(context.Background(), "test", NewStore(t, engine, optFns...), NewIDGen(t))
	t.Cleanup(func() {
		_ = tx.Rollback()
	})
	return tx
}

func NewJournal(t testing.TB) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(TempDir(t), "journal"), journal.Options{NoSync: true})
	Expect(t, err, Be[error](nil))
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}
