package database

import (
	"math"

	"github.com/octohelm/tabledb/pkg/dberr"
)

// AutoincrementLimit is the first value NextPrimaryKey never hands out.
const AutoincrementLimit uint64 = math.MaxUint64 - 1

// observe keeps NextPrimaryKey above every stored primary key.
func (i *TableInfo) observe(pk uint64) {
	if pk >= i.NextPrimaryKey {
		if pk == math.MaxUint64 {
			i.NextPrimaryKey = math.MaxUint64
		} else {
			i.NextPrimaryKey = pk + 1
		}
	}
	if i.NextPrimaryKey >= AutoincrementLimit {
		i.Exhausted = true
	}
}

func (i *TableInfo) allocate() (uint64, error) {
	if i.Exhausted || i.NextPrimaryKey >= AutoincrementLimit {
		i.Exhausted = true
		return 0, dberr.ErrAutoincrementExhausted
	}

	pk := i.NextPrimaryKey
	i.observe(pk)
	return pk, nil
}
