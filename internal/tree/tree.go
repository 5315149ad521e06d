package tree

import (
	"github.com/octohelm/tabledb/pkg/kv"
)

func New(session kv.Session, ns Namespace) *Tree {
	return &Tree{
		Namespace: ns,
		Session:   session,
	}
}

// Tree is an ordered map of byte suffixes within one namespace.
type Tree struct {
	Namespace Namespace
	Session   kv.Session
}

// Entry is a pair of a tree. Key is the suffix, without namespace.
// Both slices are owned by the caller.
type Entry struct {
	Key   []byte
	Value []byte
}

var defaultValue = []byte{0}

func (t *Tree) PutOp(key []byte, value []byte) kv.Op {
	if len(value) == 0 {
		value = defaultValue
	}
	return kv.PutOp(t.Namespace.Key(key), value)
}

func (t *Tree) DeleteOp(key []byte) kv.Op {
	return kv.DeleteOp(t.Namespace.Key(key))
}

func (t *Tree) Get(key []byte) ([]byte, error) {
	return t.Session.Get(t.Namespace.Key(key))
}

func (t *Tree) Exists(key []byte) (bool, error) {
	return t.Session.Exists(t.Namespace.Key(key))
}

func (t *Tree) iterator() kv.Iterator {
	return t.Session.Iterator(t.Namespace.Prefix(), (t.Namespace + 1).Prefix())
}

func (t *Tree) entry(it kv.Iterator) Entry {
	return Entry{
		Key:   kv.Clone(it.Key()[8:]),
		Value: kv.Clone(it.Value()),
	}
}

func (t *Tree) seek(move func(it kv.Iterator) bool) (Entry, bool, error) {
	it := t.iterator()
	defer it.Close()

	if !move(it) {
		return Entry{}, false, it.Error()
	}
	return t.entry(it), true, nil
}

// SeekGE returns the first entry with a key >= key.
func (t *Tree) SeekGE(key []byte) (Entry, bool, error) {
	return t.seek(func(it kv.Iterator) bool {
		return it.SeekGE(t.Namespace.Key(key))
	})
}

// SeekGT returns the first entry whose key does not start with prefix and is
// greater than it.
func (t *Tree) SeekGT(prefix []byte) (Entry, bool, error) {
	next := Successor(prefix)
	if next == nil {
		return Entry{}, false, nil
	}
	return t.SeekGE(next)
}

// SeekLT returns the last entry with a key < key.
func (t *Tree) SeekLT(key []byte) (Entry, bool, error) {
	return t.seek(func(it kv.Iterator) bool {
		return it.SeekLT(t.Namespace.Key(key))
	})
}

func (t *Tree) First() (Entry, bool, error) {
	return t.seek(func(it kv.Iterator) bool {
		return it.First()
	})
}

func (t *Tree) Last() (Entry, bool, error) {
	return t.seek(func(it kv.Iterator) bool {
		return it.Last()
	})
}

// Range calls fn for each entry of the tree in key order.
func (t *Tree) Range(fn func(e Entry) error) error {
	it := t.iterator()
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if err := fn(t.entry(it)); err != nil {
			return err
		}
	}

	return it.Error()
}
