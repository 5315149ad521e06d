package database

import (
	"bytes"
	"context"
	"math"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/internal/tree"
	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/kv"
	"github.com/octohelm/tabledb/pkg/meter"
	"github.com/octohelm/tabledb/pkg/schema"
)

type Table interface {
	Schema() schema.TableSchema
	// Info returns the persisted state, false until the table is materialized
	// by its first Store or NextPrimaryKey.
	Info() (TableInfo, bool)
	Count(ctx context.Context) (uint64, error)

	Store(ctx context.Context, pk uint64, payload []byte, keys []schema.Key, requester schema.Name) (Cursor, error)
	Modify(ctx context.Context, c Cursor, updater func(r *Record) error, requester schema.Name) error
	// Erase removes the entry at c and returns a cursor to the following
	// entry of the same index.
	Erase(ctx context.Context, c Cursor, requester schema.Name) (Cursor, error)
	NextPrimaryKey(ctx context.Context, requester schema.Name) (uint64, error)

	Find(ctx context.Context, pk uint64) (*Record, bool, error)
	Get(ctx context.Context, c Cursor) (*Record, error)
	LowerBound(ctx context.Context, pk uint64) (Cursor, error)
	UpperBound(ctx context.Context, pk uint64) (Cursor, error)
	Begin(ctx context.Context) (Cursor, error)
	End() Cursor
	Unbound() Cursor

	Next(ctx context.Context, c Cursor) (Cursor, error)
	Prev(ctx context.Context, c Cursor) (Cursor, error)

	Index(slot int) (Index, error)
	// IteratorTo returns the cursor of r in index.
	IteratorTo(ctx context.Context, r *Record, index schema.IndexID) (Cursor, error)
	// CursorTo moves c to the entry of the same record in index.
	CursorTo(ctx context.Context, c Cursor, index schema.IndexID) (Cursor, error)
}

func newTable(tx *transaction, s schema.TableSchema, info *TableInfo) (*table, error) {
	codecs, err := s.Codecs()
	if err != nil {
		return nil, err
	}
	return &table{
		tx:     tx,
		schema: s,
		codecs: codecs,
		info:   info,
	}, nil
}

type table struct {
	tx     *transaction
	schema schema.TableSchema
	codecs []schema.KeyCodec
	// nil until materialized
	info *TableInfo
}

func (t *table) Schema() schema.TableSchema {
	return t.schema
}

func (t *table) Info() (TableInfo, bool) {
	if t.info == nil {
		return TableInfo{Ref: t.schema.Ref, Slots: t.schema.Slots}, false
	}
	return *t.info.clone(), true
}

func (t *table) Count(ctx context.Context) (uint64, error) {
	if t.info == nil {
		return 0, nil
	}
	return t.info.Count, nil
}

func (t *table) treeOf(info *TableInfo, index schema.IndexID) *tree.Tree {
	return tree.New(t.tx.session, tree.TableNamespace(info.ID, uint8(index)))
}

func (t *table) tree(index schema.IndexID) *tree.Tree {
	return t.treeOf(t.info, index)
}

func primarySuffix(pk uint64) []byte {
	return tree.Uint64(nil, pk)
}

func (t *table) secondarySuffix(slot int, k schema.Key, pk uint64) []byte {
	b := schema.AppendIndexKey(t.codecs[slot], make([]byte, 0, k.Type().Size()+8), k)
	return tree.Uint64(b, pk)
}

func (t *table) validateKeys(keys []schema.Key) error {
	if len(keys) != len(t.codecs) {
		return dberr.Newf(dberr.ErrInvalidKey, "%s needs %d secondary keys, got %d", t.schema.Ref, len(t.codecs), len(keys))
	}
	for i, c := range t.codecs {
		if err := schema.Validate(c, keys[i]); err != nil {
			return err
		}
	}
	return nil
}

// materialize returns a copy of the table info to stage changes on, creating
// it when the table has never been written.
func (t *table) materialize() (*TableInfo, []kv.Op, error) {
	if t.info != nil {
		return t.info.clone(), nil, nil
	}

	id, op, err := t.tx.catalog.NextTableID()
	if err != nil {
		return nil, nil, err
	}

	info := &TableInfo{
		Ref:   t.schema.Ref,
		ID:    id,
		Slots: append([]schema.KeyType(nil), t.schema.Slots...),
	}

	return info, []kv.Op{op}, nil
}

// commit applies ops together with the updated table info.
func (t *table) commit(ctx context.Context, info *TableInfo, ops []kv.Op) error {
	ops = append(ops, t.tx.catalog.PutOp(info))

	if err := t.tx.session.Apply(ops...); err != nil {
		return errors.Wrapf(err, "write %s", t.schema.Ref)
	}

	if t.info == nil {
		logr.FromContextOrDiscard(ctx).V(1).Info("Materialized", "table", t.schema.Ref.String(), "id", info.ID)
	}

	t.info = info
	return nil
}

func (t *table) load(pk uint64) (*Record, bool, error) {
	if t.info == nil {
		return nil, false, nil
	}

	data, err := t.tree(schema.PrimaryIndex).Get(primarySuffix(pk))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	r, err := decodeRecord(t.schema.Ref, t.codecs, pk, data)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func (t *table) Store(ctx context.Context, pk uint64, payload []byte, keys []schema.Key, requester schema.Name) (Cursor, error) {
	if err := t.guard(requester); err != nil {
		return Cursor{}, err
	}
	if err := t.validateKeys(keys); err != nil {
		return Cursor{}, err
	}

	info, ops, err := t.materialize()
	if err != nil {
		return Cursor{}, err
	}

	primary := t.treeOf(info, schema.PrimaryIndex)

	exists, err := primary.Exists(primarySuffix(pk))
	if err != nil {
		return Cursor{}, err
	}
	if exists {
		return Cursor{}, &dberr.ConflictError{
			Table:      t.schema.Ref.String(),
			PrimaryKey: pk,
		}
	}

	ops = append(ops, primary.PutOp(primarySuffix(pk), encodeRecord(t.codecs, keys, payload)))

	for slot := range t.codecs {
		ops = append(ops, t.treeOf(info, schema.SecondaryIndex(slot)).PutOp(t.secondarySuffix(slot, keys[slot], pk), nil))
	}

	info.Count++
	info.observe(pk)

	if err := t.commit(ctx, info, ops); err != nil {
		return Cursor{}, err
	}

	return Cursor{
		table: t.schema.Ref,
		index: schema.PrimaryIndex,
		state: CursorValid,
		pk:    pk,
	}, nil
}

func (t *table) NextPrimaryKey(ctx context.Context, requester schema.Name) (uint64, error) {
	if err := t.guard(requester); err != nil {
		return 0, err
	}

	info, ops, err := t.materialize()
	if err != nil {
		return 0, err
	}

	pk, err := info.allocate()
	if err != nil {
		return 0, err
	}

	if err := t.commit(ctx, info, ops); err != nil {
		return 0, err
	}
	return pk, nil
}

func (t *table) Modify(ctx context.Context, c Cursor, updater func(r *Record) error, requester schema.Name) error {
	if c.state == CursorEnd {
		return dberr.New(dberr.ErrEndIteratorMisuse, "cannot pass end iterator to modify")
	}
	if err := t.guard(requester); err != nil {
		return err
	}

	old, err := t.deref(c)
	if err != nil {
		return err
	}

	r := old.Clone()
	if updater != nil {
		if err := updater(r); err != nil {
			return err
		}
	}

	if r.PrimaryKey != old.PrimaryKey {
		return dberr.ErrPrimaryKeyImmutable
	}
	if err := t.validateKeys(r.Keys); err != nil {
		return err
	}

	ops := []kv.Op{
		t.tree(schema.PrimaryIndex).PutOp(primarySuffix(r.PrimaryKey), encodeRecord(t.codecs, r.Keys, r.Payload)),
	}

	for slot := range t.codecs {
		from := t.secondarySuffix(slot, old.Keys[slot], old.PrimaryKey)
		to := t.secondarySuffix(slot, r.Keys[slot], r.PrimaryKey)
		if bytes.Equal(from, to) {
			continue
		}
		idx := t.tree(schema.SecondaryIndex(slot))
		ops = append(ops, idx.DeleteOp(from), idx.PutOp(to, nil))
	}

	return t.commit(ctx, t.info.clone(), ops)
}

func (t *table) Erase(ctx context.Context, c Cursor, requester schema.Name) (Cursor, error) {
	if c.state == CursorEnd {
		return Cursor{}, dberr.New(dberr.ErrEndIteratorMisuse, "cannot pass end iterator to erase")
	}
	if err := t.guard(requester); err != nil {
		return Cursor{}, err
	}

	r, err := t.deref(c)
	if err != nil {
		return Cursor{}, err
	}

	next, err := t.seekResult(c.index)(t.tree(c.index).SeekGT(c.suffix()))
	if err != nil {
		return Cursor{}, err
	}

	ops := []kv.Op{
		t.tree(schema.PrimaryIndex).DeleteOp(primarySuffix(r.PrimaryKey)),
	}
	for slot := range t.codecs {
		ops = append(ops, t.tree(schema.SecondaryIndex(slot)).DeleteOp(t.secondarySuffix(slot, r.Keys[slot], r.PrimaryKey)))
	}

	info := t.info.clone()
	info.Count--

	if err := t.commit(ctx, info, ops); err != nil {
		return Cursor{}, err
	}

	return next, nil
}

func (t *table) Find(ctx context.Context, pk uint64) (*Record, bool, error) {
	return t.load(pk)
}

func (t *table) Get(ctx context.Context, c Cursor) (*Record, error) {
	if c.state == CursorEnd {
		return nil, dberr.New(dberr.ErrEndIteratorMisuse, "cannot dereference end iterator")
	}
	return t.deref(c)
}

// deref checks a valid cursor and loads its record.
func (t *table) deref(c Cursor) (*Record, error) {
	if err := t.check(c); err != nil {
		return nil, err
	}
	if c.state != CursorValid {
		return nil, dberr.Newf(dberr.ErrNotInIndex, "cursor %s has no entry", c)
	}
	if err := t.checkEntry(c); err != nil {
		return nil, err
	}

	r, ok, err := t.load(c.pk)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberr.Newf(dberr.ErrNotInIndex, "cursor %s refers to a missing record", c)
	}
	return r, nil
}

// check fails for unbound cursors and cursors of other tables or indexes.
func (t *table) check(c Cursor) error {
	if c.state == CursorUnbound {
		return dberr.Newf(dberr.ErrNotInIndex, "cursor is unbound")
	}
	if c.table != t.schema.Ref || int(c.index) > len(t.codecs) {
		return dberr.Newf(dberr.ErrNotInIndex, "cursor %s is not in %s", c, t.schema.Ref)
	}
	return nil
}

// checkEntry fails when the entry of a valid cursor is gone.
func (t *table) checkEntry(c Cursor) error {
	if t.info != nil {
		ok, err := t.tree(c.index).Exists(c.suffix())
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return dberr.Newf(dberr.ErrNotInIndex, "cursor %s refers to an erased entry", c)
}

func (t *table) cursorAt(index schema.IndexID, e tree.Entry) Cursor {
	c := Cursor{
		table: t.schema.Ref,
		index: index,
		state: CursorValid,
		pk:    tree.ReadUint64(e.Key),
	}
	if !index.IsPrimary() {
		c.key = string(e.Key[:len(e.Key)-8])
	}
	return c
}

func (t *table) end(index schema.IndexID) Cursor {
	return Cursor{
		table: t.schema.Ref,
		index: index,
		state: CursorEnd,
	}
}

func (t *table) seekResult(index schema.IndexID) func(e tree.Entry, ok bool, err error) (Cursor, error) {
	return func(e tree.Entry, ok bool, err error) (Cursor, error) {
		if err != nil {
			return Cursor{}, err
		}
		if !ok {
			return t.end(index), nil
		}
		return t.cursorAt(index, e), nil
	}
}

func (t *table) LowerBound(ctx context.Context, pk uint64) (Cursor, error) {
	if t.info == nil {
		return t.End(), nil
	}
	return t.seekResult(schema.PrimaryIndex)(t.tree(schema.PrimaryIndex).SeekGE(primarySuffix(pk)))
}

func (t *table) UpperBound(ctx context.Context, pk uint64) (Cursor, error) {
	if t.info == nil || pk == math.MaxUint64 {
		return t.End(), nil
	}
	return t.seekResult(schema.PrimaryIndex)(t.tree(schema.PrimaryIndex).SeekGE(primarySuffix(pk + 1)))
}

func (t *table) Begin(ctx context.Context) (Cursor, error) {
	return t.begin(schema.PrimaryIndex)
}

func (t *table) begin(index schema.IndexID) (Cursor, error) {
	if t.info == nil {
		return t.end(index), nil
	}
	return t.seekResult(index)(t.tree(index).First())
}

func (t *table) End() Cursor {
	return t.end(schema.PrimaryIndex)
}

func (t *table) Unbound() Cursor {
	return Cursor{table: t.schema.Ref}
}

func (t *table) Next(ctx context.Context, c Cursor) (Cursor, error) {
	if err := t.check(c); err != nil {
		return Cursor{}, err
	}
	if c.state == CursorEnd {
		return Cursor{}, dberr.ErrIteratorExceedEnd
	}
	if err := meter.Checkpoint(ctx); err != nil {
		return Cursor{}, err
	}
	if err := t.checkEntry(c); err != nil {
		return Cursor{}, err
	}
	return t.seekResult(c.index)(t.tree(c.index).SeekGT(c.suffix()))
}

func (t *table) Prev(ctx context.Context, c Cursor) (Cursor, error) {
	if err := t.check(c); err != nil {
		return Cursor{}, err
	}
	if err := meter.Checkpoint(ctx); err != nil {
		return Cursor{}, err
	}

	var (
		e   tree.Entry
		ok  bool
		err error
	)

	if c.state == CursorEnd {
		if t.info != nil {
			e, ok, err = t.tree(c.index).Last()
		}
	} else {
		if err := t.checkEntry(c); err != nil {
			return Cursor{}, err
		}
		e, ok, err = t.tree(c.index).SeekLT(c.suffix())
	}

	if err != nil {
		return Cursor{}, err
	}
	if !ok {
		if c.index.IsPrimary() {
			return Cursor{}, dberr.New(dberr.ErrIteratorExceedBegin, "cannot decrement iterator at beginning of table")
		}
		return Cursor{}, dberr.New(dberr.ErrIteratorExceedBegin, "cannot decrement iterator at beginning of index")
	}
	return t.cursorAt(c.index, e), nil
}

func (t *table) Index(slot int) (Index, error) {
	if slot < 0 || slot >= len(t.codecs) {
		return nil, dberr.Newf(dberr.ErrInvalidKey, "%s has no secondary index %d", t.schema.Ref, slot)
	}
	return &index{table: t, slot: slot}, nil
}

func (t *table) IteratorTo(ctx context.Context, r *Record, index schema.IndexID) (Cursor, error) {
	if r == nil || !r.stored || r.table != t.schema.Ref || int(index) > len(t.codecs) {
		return Cursor{}, dberr.ErrNotInIndex
	}

	current, ok, err := t.load(r.PrimaryKey)
	if err != nil {
		return Cursor{}, err
	}
	if !ok {
		return Cursor{}, dberr.ErrNotInIndex
	}

	if index.IsPrimary() {
		return Cursor{
			table: t.schema.Ref,
			index: index,
			state: CursorValid,
			pk:    current.PrimaryKey,
		}, nil
	}

	suffix := t.secondarySuffix(index.Slot(), current.Keys[index.Slot()], current.PrimaryKey)
	exists, err := t.tree(index).Exists(suffix)
	if err != nil {
		return Cursor{}, err
	}
	if !exists {
		return Cursor{}, dberr.ErrNotInIndex
	}
	return t.cursorAt(index, tree.Entry{Key: suffix}), nil
}

func (t *table) CursorTo(ctx context.Context, c Cursor, index schema.IndexID) (Cursor, error) {
	if c.state == CursorEnd {
		return Cursor{}, dberr.Newf(dberr.ErrNotInIndex, "end cursor has no record")
	}
	r, err := t.deref(c)
	if err != nil {
		return Cursor{}, err
	}
	return t.IteratorTo(ctx, r, index)
}
