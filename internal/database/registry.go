package database

import (
	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/schema"
)

func newRegistry(tx *transaction) *registry {
	return &registry{
		tx:     tx,
		tables: map[schema.TableRef]*table{},
	}
}

// registry holds one handle per table for the life of a transaction, so
// table state cached in a handle is shared by every caller.
type registry struct {
	tx     *transaction
	tables map[schema.TableRef]*table
}

func (r *registry) Resolve(ref schema.TableRef, slots []schema.KeyType) (*table, error) {
	s := schema.TableSchema{
		Ref:   ref,
		Slots: append([]schema.KeyType(nil), slots...),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	if t, ok := r.tables[ref]; ok {
		if !t.schema.IsEqual(&s) {
			return nil, mismatch(&t.schema, slots)
		}
		return t, nil
	}

	info, ok, err := r.tx.catalog.Load(ref)
	if err != nil {
		return nil, err
	}
	if ok {
		stored := schema.TableSchema{Ref: ref, Slots: info.Slots}
		if !stored.IsEqual(&s) {
			return nil, mismatch(&stored, slots)
		}
	}

	t, err := newTable(r.tx, s, info)
	if err != nil {
		return nil, err
	}

	r.tables[ref] = t
	return t, nil
}

func (r *registry) Open(ref schema.TableRef) (*table, error) {
	if t, ok := r.tables[ref]; ok {
		return t, nil
	}

	info, ok, err := r.tx.catalog.Load(ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dberr.Newf(dberr.ErrNotFound, "table %s not found", ref)
	}

	return r.Resolve(ref, info.Slots)
}

func mismatch(s *schema.TableSchema, slots []schema.KeyType) error {
	return dberr.Newf(dberr.ErrSchemaMismatch, "%s has secondary slots %v, got %v", s.Ref, s.Slots, slots)
}
