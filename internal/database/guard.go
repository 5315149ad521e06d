package database

import (
	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/schema"
)

// guard allows writes by the table owner only. Reads are not guarded.
func (t *table) guard(requester schema.Name) error {
	if ref := t.schema.Ref; requester != ref.Owner {
		return &dberr.AccessViolationError{
			Table:     ref.String(),
			Owner:     ref.Owner.String(),
			Requester: requester.String(),
		}
	}
	return nil
}
