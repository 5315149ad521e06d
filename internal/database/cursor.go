package database

import (
	"fmt"

	"github.com/octohelm/tabledb/internal/tree"
	"github.com/octohelm/tabledb/pkg/schema"
)

type CursorState uint8

const (
	CursorUnbound CursorState = iota
	CursorValid
	CursorEnd
)

// Cursor is a position in one index of one table. It holds the entry by
// value, so it survives unrelated writes and is checked again on every use.
// The zero Cursor is unbound.
type Cursor struct {
	table schema.TableRef
	index schema.IndexID
	state CursorState
	// canonical key encoding, empty for the primary index
	key string
	pk  uint64
}

func (c Cursor) Table() schema.TableRef {
	return c.table
}

func (c Cursor) Index() schema.IndexID {
	return c.index
}

func (c Cursor) State() CursorState {
	return c.state
}

func (c Cursor) IsValid() bool {
	return c.state == CursorValid
}

func (c Cursor) IsEnd() bool {
	return c.state == CursorEnd
}

func (c Cursor) IsUnbound() bool {
	return c.state == CursorUnbound
}

// PrimaryKey of the entry the cursor points at. Zero unless valid.
func (c Cursor) PrimaryKey() uint64 {
	return c.pk
}

func (c Cursor) suffix() []byte {
	return tree.Uint64([]byte(c.key), c.pk)
}

func (c Cursor) String() string {
	switch c.state {
	case CursorValid:
		return fmt.Sprintf("%s[%s]@%d", c.table, c.index, c.pk)
	case CursorEnd:
		return fmt.Sprintf("%s[%s]@end", c.table, c.index)
	}
	return "unbound"
}
