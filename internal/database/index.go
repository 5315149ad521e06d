package database

import (
	"bytes"
	"context"

	"github.com/octohelm/tabledb/pkg/schema"
)

// Index is a secondary index of a table. Entries are ordered by key, then by
// primary key.
type Index interface {
	ID() schema.IndexID
	KeyType() schema.KeyType

	// Find returns the entry with key k and the lowest primary key, or End.
	Find(ctx context.Context, k schema.Key) (Cursor, error)
	LowerBound(ctx context.Context, k schema.Key) (Cursor, error)
	UpperBound(ctx context.Context, k schema.Key) (Cursor, error)
	Begin(ctx context.Context) (Cursor, error)
	End() Cursor
}

type index struct {
	table *table
	slot  int
}

func (idx *index) ID() schema.IndexID {
	return schema.SecondaryIndex(idx.slot)
}

func (idx *index) KeyType() schema.KeyType {
	return idx.table.schema.Slots[idx.slot]
}

// bound is the canonical encoding of a lookup key.
func (idx *index) bound(k schema.Key) ([]byte, error) {
	c := idx.table.codecs[idx.slot]
	if err := schema.Validate(c, k); err != nil {
		return nil, err
	}
	return schema.AppendIndexKey(c, nil, k), nil
}

func (idx *index) Find(ctx context.Context, k schema.Key) (Cursor, error) {
	b, err := idx.bound(k)
	if err != nil {
		return Cursor{}, err
	}
	if idx.table.info == nil {
		return idx.End(), nil
	}

	e, ok, err := idx.table.tree(idx.ID()).SeekGE(b)
	if err != nil {
		return Cursor{}, err
	}
	if !ok || !bytes.HasPrefix(e.Key, b) {
		return idx.End(), nil
	}
	return idx.table.cursorAt(idx.ID(), e), nil
}

func (idx *index) LowerBound(ctx context.Context, k schema.Key) (Cursor, error) {
	b, err := idx.bound(k)
	if err != nil {
		return Cursor{}, err
	}
	if idx.table.info == nil {
		return idx.End(), nil
	}
	return idx.table.seekResult(idx.ID())(idx.table.tree(idx.ID()).SeekGE(b))
}

func (idx *index) UpperBound(ctx context.Context, k schema.Key) (Cursor, error) {
	b, err := idx.bound(k)
	if err != nil {
		return Cursor{}, err
	}
	if idx.table.info == nil {
		return idx.End(), nil
	}
	return idx.table.seekResult(idx.ID())(idx.table.tree(idx.ID()).SeekGT(b))
}

func (idx *index) Begin(ctx context.Context) (Cursor, error) {
	return idx.table.begin(idx.ID())
}

func (idx *index) End() Cursor {
	return idx.table.end(idx.ID())
}
