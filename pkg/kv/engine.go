package kv

import (
	"sort"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

type Options struct {
	MaxBatchSize int
	Extra        map[string]string
	// Logger receives the engine's own diagnostics.
	Logger logr.Logger
}

type StoreEngine interface {
	New(opt Options) (Store, error)
}

var engines = map[string]StoreEngine{}

func RegisterEngine(engine string, store StoreEngine) {
	engines[engine] = store
}

func NewStore(engine string, opt Options) (Store, error) {
	if e, ok := engines[engine]; ok {
		return e.New(opt)
	}
	return nil, errors.Errorf("unknown engine %s", engine)
}

// Engines lists registered engine names.
func Engines() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
