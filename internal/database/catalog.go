package database

import (
	"context"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/internal/tree"
	"github.com/octohelm/tabledb/pkg/kv"
	"github.com/octohelm/tabledb/pkg/meter"
	"github.com/octohelm/tabledb/pkg/schema"
)

const (
	tableInfoVersion = 1
	// table ids are shifted left by 8 bits to make room for the index id.
	maxTableID = 1<<56 - 1
)

var sequenceTableID = []byte("table")

// TableInfo is the persisted state of a materialized table.
type TableInfo struct {
	Ref   schema.TableRef
	ID    uint64
	Slots []schema.KeyType
	// NextPrimaryKey is the value NextPrimaryKey hands out next.
	NextPrimaryKey uint64
	Exhausted      bool
	Count          uint64
}

func (i *TableInfo) clone() *TableInfo {
	c := *i
	c.Slots = append([]schema.KeyType(nil), i.Slots...)
	return &c
}

func (i *TableInfo) marshal() []byte {
	b := make([]byte, 0, 1+8*3+2+len(i.Slots))
	b = append(b, tableInfoVersion)
	b = binary.BigEndian.AppendUint64(b, i.ID)
	b = binary.BigEndian.AppendUint64(b, i.NextPrimaryKey)
	b = binary.BigEndian.AppendUint64(b, i.Count)
	if i.Exhausted {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	b = append(b, byte(len(i.Slots)))
	for _, s := range i.Slots {
		b = append(b, byte(s))
	}
	return b
}

func unmarshalTableInfo(ref schema.TableRef, b []byte) (*TableInfo, error) {
	if len(b) < 27 || b[0] != tableInfoVersion {
		return nil, errors.Errorf("invalid table info of %s", ref)
	}

	i := &TableInfo{
		Ref:            ref,
		ID:             binary.BigEndian.Uint64(b[1:]),
		NextPrimaryKey: binary.BigEndian.Uint64(b[9:]),
		Count:          binary.BigEndian.Uint64(b[17:]),
		Exhausted:      b[25] == 1,
	}

	n := int(b[26])
	if len(b) != 27+n {
		return nil, errors.Errorf("invalid table info of %s: %d slots in %d bytes", ref, n, len(b))
	}

	i.Slots = make([]schema.KeyType, n)
	for k := 0; k < n; k++ {
		i.Slots[k] = schema.KeyType(b[27+k])
	}

	return i, nil
}

func catalogKey(ref schema.TableRef) []byte {
	b := make([]byte, 0, 24)
	b = tree.Uint64(b, uint64(ref.Owner))
	b = tree.Uint64(b, uint64(ref.Scope))
	return tree.Uint64(b, uint64(ref.Name))
}

func refFromCatalogKey(b []byte) (schema.TableRef, error) {
	if len(b) != 24 {
		return schema.TableRef{}, errors.Errorf("invalid catalog key %x", b)
	}
	return schema.TableRef{
		Owner: schema.Name(binary.BigEndian.Uint64(b)),
		Scope: schema.Name(binary.BigEndian.Uint64(b[8:])),
		Name:  schema.Name(binary.BigEndian.Uint64(b[16:])),
	}, nil
}

func newCatalog(s kv.Session) *catalog {
	return &catalog{
		tables:    tree.New(s, tree.NamespaceCatalog),
		sequences: tree.New(s, tree.NamespaceSequence),
	}
}

// catalog maps table refs to their persisted TableInfo.
type catalog struct {
	tables    *tree.Tree
	sequences *tree.Tree
}

func (c *catalog) Load(ref schema.TableRef) (*TableInfo, bool, error) {
	data, err := c.tables.Get(catalogKey(ref))
	if err != nil {
		if errors.Is(err, kv.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	i, err := unmarshalTableInfo(ref, data)
	if err != nil {
		return nil, false, err
	}
	return i, true, nil
}

func (c *catalog) List(ctx context.Context) ([]*TableInfo, error) {
	list := make([]*TableInfo, 0)

	err := c.tables.Range(func(e tree.Entry) error {
		if err := meter.Checkpoint(ctx); err != nil {
			return err
		}

		ref, err := refFromCatalogKey(e.Key)
		if err != nil {
			return err
		}

		i, err := unmarshalTableInfo(ref, e.Value)
		if err != nil {
			return err
		}

		list = append(list, i)
		return nil
	})

	return list, err
}

func (c *catalog) PutOp(i *TableInfo) kv.Op {
	return c.tables.PutOp(catalogKey(i.Ref), i.marshal())
}

// NextTableID reads the table id sequence. The returned op stores the
// advanced sequence and must be applied with the catalog entry.
func (c *catalog) NextTableID() (uint64, kv.Op, error) {
	id := uint64(1)

	data, err := c.sequences.Get(sequenceTableID)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			return 0, kv.Op{}, err
		}
	} else {
		id = tree.ReadUint64(data)
	}

	if id > maxTableID {
		return 0, kv.Op{}, errors.Errorf("table id sequence exhausted at %d", id)
	}

	return id, c.sequences.PutOp(sequenceTableID, tree.Uint64(nil, id+1)), nil
}
