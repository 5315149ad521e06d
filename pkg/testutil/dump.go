package testutil

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/octohelm/tabledb/internal/database"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          false,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

// Dump logs every record of t, in primary key order.
func Dump(tb testing.TB, t database.Table) {
	tb.Helper()

	ctx := context.Background()

	records := make([]*database.Record, 0)

	c, err := t.Begin(ctx)
	for err == nil && c.IsValid() {
		var r *database.Record
		if r, err = t.Get(ctx, c); err == nil {
			records = append(records, r)
			c, err = t.Next(ctx, c)
		}
	}
	if err != nil {
		tb.Logf("dump %s: %v", t.Schema().Ref, err)
	}

	tb.Logf("%s\n%s", t.Schema().Ref, dumper.Sdump(records))
}
