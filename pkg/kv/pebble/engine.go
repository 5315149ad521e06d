package pebble

import (
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/kv"
)

func init() {
	kv.RegisterEngine("pebble", &engine{})
}

type engine struct {
}

func (e engine) New(opt kv.Options) (kv.Store, error) {
	var opts pebble.Options

	path, ok := opt.Extra["path"]
	if !ok {
		return nil, errors.New("engine pebble need `path`")
	}

	if path == ":memory:" {
		opts.FS = vfs.NewMem()
		path = ""
	} else if err := EnsureDirectory(path); err != nil {
		return nil, err
	}

	pdb, err := Open(path, &opts)
	if err != nil {
		return nil, errors.Wrap(err, "open pebble")
	}

	return NewStore(pdb, opt), nil
}

// Open a database. Keys are compared bytewise: every key written by tabledb
// is already order-preserving.
func Open(path string, opts *pebble.Options) (*pebble.DB, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	if opts.Comparer == nil {
		opts.Comparer = pebble.DefaultComparer
	}
	return pebble.Open(path, opts)
}

type DB = pebble.DB

func EnsureDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o777)
	} else if err == nil && !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}
	return err
}
