package database_test

import (
	"context"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/octohelm/tabledb/internal/database"
	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/schema"
	"github.com/octohelm/tabledb/pkg/testutil"
	. "github.com/octohelm/x/testing"
)

func secondaryKeys(t testing.TB, tbl database.Table, idx database.Index) []uint64 {
	t.Helper()
	ctx := context.Background()

	pks := make([]uint64, 0)
	c, err := idx.Begin(ctx)
	Expect(t, err, Be[error](nil))
	for c.IsValid() {
		pks = append(pks, c.PrimaryKey())
		c, err = tbl.Next(ctx, c)
		Expect(t, err, Be[error](nil))
	}
	return pks
}

func TestIndexOrder(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "orders", schema.KeyTypeFloat64, schema.KeyTypeUint128)

		store := func(pk uint64, price float64, id uint64) {
			_, err := tbl.Store(ctx, pk, nil, []schema.Key{
				schema.Float64Key(price),
				schema.Uint128Key(uint128.New(id, 1)),
			}, owner)
			Expect(t, err, Be[error](nil))
		}

		store(7, 2.5, 3)
		store(3, -1, 2)
		store(5, 2.5, 2)
		store(1, math.Copysign(0, -1), 1)
		store(9, 0, 9)

		prices, _ := tbl.Index(0)
		ids, _ := tbl.Index(1)

		t.Run("entries are ordered by key then primary key", func(t *testing.T) {
			Expect(t, secondaryKeys(t, tbl, prices), Equal([]uint64{3, 1, 9, 5, 7}))
			Expect(t, secondaryKeys(t, tbl, ids), Equal([]uint64{1, 3, 5, 7, 9}))
		})

		t.Run("find returns the lowest primary key among duplicates", func(t *testing.T) {
			c, err := prices.Find(ctx, schema.Float64Key(2.5))
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(5)))

			c, err = prices.Find(ctx, schema.Float64Key(0))
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(1)))

			c, err = prices.Find(ctx, schema.Float64Key(1))
			Expect(t, err, Be[error](nil))
			Expect(t, c.IsEnd(), Be(true))
		})

		t.Run("-0 and +0 are the same key", func(t *testing.T) {
			c, err := prices.Find(ctx, schema.Float64Key(math.Copysign(0, -1)))
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(1)))

			r, err := tbl.Get(ctx, c)
			Expect(t, err, Be[error](nil))
			Expect(t, math.Signbit(r.Keys[0].Float64()), Be(true))
		})

		t.Run("bounds", func(t *testing.T) {
			c, err := prices.LowerBound(ctx, schema.Float64Key(1))
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(5)))

			c, err = prices.UpperBound(ctx, schema.Float64Key(0))
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(5)))

			c, err = prices.UpperBound(ctx, schema.Float64Key(2.5))
			Expect(t, err, Be[error](nil))
			Expect(t, c.IsEnd(), Be(true))

			c, err = prices.LowerBound(ctx, schema.Float64Key(math.Inf(-1)))
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(3)))
		})

		t.Run("prev walks back to the beginning of the index", func(t *testing.T) {
			c, err := tbl.Prev(ctx, prices.End())
			Expect(t, err, Be[error](nil))
			Expect(t, c.PrimaryKey(), Be(uint64(7)))

			first, _ := prices.Begin(ctx)
			_, err = tbl.Prev(ctx, first)
			Expect(t, errors.Is(err, dberr.ErrIteratorExceedBegin), Be(true))
			Expect(t, err.Error(), Be("cannot decrement iterator at beginning of index"))
		})

		t.Run("keys of another type are refused", func(t *testing.T) {
			_, err := ids.Find(ctx, schema.Uint64Key(1))
			Expect(t, errors.Is(err, dberr.ErrInvalidKey), Be(true))

			_, err = tbl.Index(2)
			Expect(t, errors.Is(err, dberr.ErrInvalidKey), Be(true))
		})
	})
}

func TestIndexResolution(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "wide", schema.KeyTypeUint256, schema.KeyTypeFloat128)

		for pk := uint64(1); pk <= 5; pk++ {
			_, err := tbl.Store(ctx, pk, []byte{byte(pk)}, []schema.Key{
				schema.Uint256Key(new(uint256.Int).Lsh(uint256.NewInt(6-pk), 128)),
				schema.Float128Key(schema.Float128FromFloat64(float64(pk) / 4)),
			}, owner)
			Expect(t, err, Be[error](nil))
		}

		t.Run("primary to secondary and back is the same record", func(t *testing.T) {
			for _, id := range []schema.IndexID{schema.SecondaryIndex(0), schema.SecondaryIndex(1)} {
				c, _ := tbl.Begin(ctx)
				for c.IsValid() {
					r, err := tbl.Get(ctx, c)
					Expect(t, err, Be[error](nil))

					sc, err := tbl.IteratorTo(ctx, r, id)
					Expect(t, err, Be[error](nil))
					Expect(t, sc.Index(), Be(id))

					back, err := tbl.Get(ctx, sc)
					Expect(t, err, Be[error](nil))
					Expect(t, back, Equal(r))

					pc, err := tbl.CursorTo(ctx, sc, schema.PrimaryIndex)
					Expect(t, err, Be[error](nil))
					Expect(t, pc, Equal(c))

					c, err = tbl.Next(ctx, c)
					Expect(t, err, Be[error](nil))
				}
			}
		})

		t.Run("records not read from the table are not in it", func(t *testing.T) {
			_, err := tbl.IteratorTo(ctx, nil, schema.PrimaryIndex)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))

			_, err = tbl.IteratorTo(ctx, database.NewRecord(1, nil), schema.PrimaryIndex)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
		})

		t.Run("erased records are not in the table", func(t *testing.T) {
			r, _, _ := tbl.Find(ctx, 3)
			c, _ := tbl.IteratorTo(ctx, r, schema.PrimaryIndex)
			_, err := tbl.Erase(ctx, c, owner)
			Expect(t, err, Be[error](nil))

			_, err = tbl.IteratorTo(ctx, r, schema.SecondaryIndex(1))
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
		})

		t.Run("uint256 index is ordered by value", func(t *testing.T) {
			idx, _ := tbl.Index(0)
			Expect(t, secondaryKeys(t, tbl, idx), Equal([]uint64{5, 4, 2, 1}))
		})
	})
}
