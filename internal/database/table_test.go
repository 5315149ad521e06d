package database_test

import (
	"context"
	"math"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/octohelm/tabledb/internal/database"
	"github.com/octohelm/tabledb/pkg/dberr"
	"github.com/octohelm/tabledb/pkg/kv"
	"github.com/octohelm/tabledb/pkg/schema"
	"github.com/octohelm/tabledb/pkg/testutil"
	. "github.com/octohelm/x/testing"
)

var (
	owner    = schema.MustParseName("alice")
	stranger = schema.MustParseName("bob")
)

func resolve(t testing.TB, tx database.Transaction, name string, slots ...schema.KeyType) database.Table {
	t.Helper()
	tbl, err := tx.Resolve(context.Background(), schema.Ref("alice", "alice", name), slots...)
	Expect(t, err, Be[error](nil))
	return tbl
}

func primaryKeys(t testing.TB, tbl database.Table) []uint64 {
	t.Helper()
	ctx := context.Background()

	pks := make([]uint64, 0)
	c, err := tbl.Begin(ctx)
	Expect(t, err, Be[error](nil))
	for c.IsValid() {
		pks = append(pks, c.PrimaryKey())
		c, err = tbl.Next(ctx, c)
		Expect(t, err, Be[error](nil))
	}
	return pks
}

func TestTableStore(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "accounts")

		t.Run("Given owner stores pk 10", func(t *testing.T) {
			c, err := tbl.Store(ctx, 10, []byte("P"), nil, owner)
			Expect(t, err, Be[error](nil))
			Expect(t, c.IsValid(), Be(true))
			Expect(t, c.PrimaryKey(), Be(uint64(10)))

			t.Run("find returns the payload", func(t *testing.T) {
				r, ok, err := tbl.Find(ctx, 10)
				Expect(t, err, Be[error](nil))
				Expect(t, ok, Be(true))
				Expect(t, r.Payload, Equal([]byte("P")))
			})

			t.Run("storing pk 10 again is a conflict", func(t *testing.T) {
				_, err := tbl.Store(ctx, 10, []byte("Q"), nil, owner)
				Expect(t, errors.Is(err, dberr.ErrDuplicatePrimaryKey), Be(true))

				ce, ok := dberr.IsConflictError(err)
				Expect(t, ok, Be(true))
				Expect(t, ce.PrimaryKey, Be(uint64(10)))

				r, _, _ := tbl.Find(ctx, 10)
				Expect(t, r.Payload, Equal([]byte("P")))
			})

			t.Run("another requester may not store or modify", func(t *testing.T) {
				_, err := tbl.Store(ctx, 11, []byte("X"), nil, stranger)
				Expect(t, errors.Is(err, dberr.ErrAccessViolation), Be(true))

				err = tbl.Modify(ctx, c, func(r *database.Record) error {
					r.Payload = []byte("X")
					return nil
				}, stranger)
				Expect(t, errors.Is(err, dberr.ErrAccessViolation), Be(true))

				ave, ok := dberr.IsAccessViolationError(err)
				Expect(t, ok, Be(true))
				Expect(t, ave.Requester, Be("bob"))

				_, err = tbl.Erase(ctx, c, stranger)
				Expect(t, errors.Is(err, dberr.ErrAccessViolation), Be(true))

				_, err = tbl.NextPrimaryKey(ctx, stranger)
				Expect(t, errors.Is(err, dberr.ErrAccessViolation), Be(true))

				r, ok, err := tbl.Find(ctx, 10)
				Expect(t, err, Be[error](nil))
				Expect(t, ok, Be(true))
				Expect(t, r.Payload, Equal([]byte("P")))

				n, _ := tbl.Count(ctx)
				Expect(t, n, Be(uint64(1)))
			})

			t.Run("reads are not restricted", func(t *testing.T) {
				other, err := tx.Resolve(ctx, tbl.Schema().Ref)
				Expect(t, err, Be[error](nil))

				_, ok, err := other.Find(ctx, 10)
				Expect(t, err, Be[error](nil))
				Expect(t, ok, Be(true))
			})
		})

		t.Run("wrong number of secondary keys is refused", func(t *testing.T) {
			_, err := tbl.Store(ctx, 20, nil, []schema.Key{schema.Uint64Key(1)}, owner)
			Expect(t, errors.Is(err, dberr.ErrInvalidKey), Be(true))
		})
	})
}

func TestTableLowerBound(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "bounds")

		t.Run("Given empty table", func(t *testing.T) {
			c, err := tbl.LowerBound(ctx, 0)
			Expect(t, err, Be[error](nil))
			Expect(t, c.IsEnd(), Be(true))

			c, err = tbl.Begin(ctx)
			Expect(t, err, Be[error](nil))
			Expect(t, c, Equal(tbl.End()))
		})

		t.Run("Given pks 1 3 5 and max", func(t *testing.T) {
			for _, pk := range []uint64{5, 1, math.MaxUint64, 3} {
				_, err := tbl.Store(ctx, pk, nil, nil, owner)
				Expect(t, err, Be[error](nil))
			}

			expectPK := func(t *testing.T, c database.Cursor, err error, pk uint64) {
				Expect(t, err, Be[error](nil))
				Expect(t, c.IsValid(), Be(true))
				Expect(t, c.PrimaryKey(), Be(pk))
			}

			t.Run("lower bound is the smallest pk >= k", func(t *testing.T) {
				c, err := tbl.LowerBound(ctx, 0)
				expectPK(t, c, err, 1)
				c, err = tbl.LowerBound(ctx, 3)
				expectPK(t, c, err, 3)
				c, err = tbl.LowerBound(ctx, 4)
				expectPK(t, c, err, 5)
				c, err = tbl.LowerBound(ctx, 6)
				expectPK(t, c, err, math.MaxUint64)
			})

			t.Run("upper bound is the smallest pk > k", func(t *testing.T) {
				c, err := tbl.UpperBound(ctx, 3)
				expectPK(t, c, err, 5)

				c, err = tbl.UpperBound(ctx, math.MaxUint64)
				Expect(t, err, Be[error](nil))
				Expect(t, c.IsEnd(), Be(true))
			})

			t.Run("keys are iterated in order", func(t *testing.T) {
				Expect(t, primaryKeys(t, tbl), Equal([]uint64{1, 3, 5, math.MaxUint64}))
			})
		})
	})
}

func TestTableIteration(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "single")

		t.Run("Given empty table", func(t *testing.T) {
			_, err := tbl.Prev(ctx, tbl.End())
			Expect(t, errors.Is(err, dberr.ErrIteratorExceedBegin), Be(true))

			_, err = tbl.Next(ctx, tbl.End())
			Expect(t, errors.Is(err, dberr.ErrIteratorExceedEnd), Be(true))
		})

		t.Run("Given only pk 5", func(t *testing.T) {
			_, err := tbl.Store(ctx, 5, []byte("five"), nil, owner)
			Expect(t, err, Be[error](nil))

			begin, err := tbl.Begin(ctx)
			Expect(t, err, Be[error](nil))
			Expect(t, begin.PrimaryKey(), Be(uint64(5)))

			t.Run("prev of begin exceeds begin", func(t *testing.T) {
				_, err := tbl.Prev(ctx, begin)
				Expect(t, errors.Is(err, dberr.ErrIteratorExceedBegin), Be(true))
				Expect(t, err.Error(), Be("cannot decrement iterator at beginning of table"))
			})

			t.Run("next of 5 is end", func(t *testing.T) {
				end, err := tbl.Next(ctx, begin)
				Expect(t, err, Be[error](nil))
				Expect(t, end.IsEnd(), Be(true))

				t.Run("next of end exceeds end", func(t *testing.T) {
					_, err := tbl.Next(ctx, end)
					Expect(t, errors.Is(err, dberr.ErrIteratorExceedEnd), Be(true))
					Expect(t, err.Error(), Be("cannot increment end iterator"))
				})

				t.Run("prev of end is 5", func(t *testing.T) {
					c, err := tbl.Prev(ctx, end)
					Expect(t, err, Be[error](nil))
					Expect(t, c, Equal(begin))
				})
			})
		})
	})
}

func TestTableNaN(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "prices", schema.KeyTypeUint64, schema.KeyTypeFloat64)

		t.Run("storing NaN stores nothing", func(t *testing.T) {
			_, err := tbl.Store(ctx, 1, nil, []schema.Key{schema.Uint64Key(1), schema.Float64Key(math.NaN())}, owner)
			Expect(t, errors.Is(err, dberr.ErrNotAllowedNaN), Be(true))
			Expect(t, err.Error(), Be("NaN is not an allowed value for a secondary key"))

			n, err := tbl.Count(ctx)
			Expect(t, err, Be[error](nil))
			Expect(t, n, Be(uint64(0)))

			idx, _ := tbl.Index(0)
			c, err := idx.Begin(ctx)
			Expect(t, err, Be[error](nil))
			Expect(t, c.IsEnd(), Be(true))
		})

		t.Run("Given a record", func(t *testing.T) {
			c, err := tbl.Store(ctx, 2, nil, []schema.Key{schema.Uint64Key(1), schema.Float64Key(1.5)}, owner)
			Expect(t, err, Be[error](nil))

			t.Run("modify to NaN keeps the record", func(t *testing.T) {
				err := tbl.Modify(ctx, c, func(r *database.Record) error {
					r.Keys[1] = schema.Float64Key(math.NaN())
					return nil
				}, owner)
				Expect(t, errors.Is(err, dberr.ErrNotAllowedNaN), Be(true))

				r, _, _ := tbl.Find(ctx, 2)
				Expect(t, r.Keys[1].Float64(), Be(1.5))
			})

			t.Run("NaN lookup bounds are refused", func(t *testing.T) {
				idx, _ := tbl.Index(1)
				nan := schema.Float64Key(math.NaN())

				_, err := idx.Find(ctx, nan)
				Expect(t, errors.Is(err, dberr.ErrNotAllowedNaN), Be(true))
				_, err = idx.LowerBound(ctx, nan)
				Expect(t, errors.Is(err, dberr.ErrNotAllowedNaN), Be(true))
				_, err = idx.UpperBound(ctx, nan)
				Expect(t, errors.Is(err, dberr.ErrNotAllowedNaN), Be(true))
			})
		})
	})
}

func TestTableEndIterator(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "ends", schema.KeyTypeUint64)

		_, err := tbl.Store(ctx, 1, []byte("one"), []schema.Key{schema.Uint64Key(7)}, owner)
		Expect(t, err, Be[error](nil))

		idx, _ := tbl.Index(0)

		for _, end := range []database.Cursor{tbl.End(), idx.End()} {
			t.Run("modify end of "+end.Index().String(), func(t *testing.T) {
				err := tbl.Modify(ctx, end, func(r *database.Record) error {
					r.Payload = []byte("changed")
					return nil
				}, owner)
				Expect(t, errors.Is(err, dberr.ErrEndIteratorMisuse), Be(true))
				Expect(t, err.Error(), Be("cannot pass end iterator to modify"))
			})

			t.Run("erase end of "+end.Index().String(), func(t *testing.T) {
				_, err := tbl.Erase(ctx, end, owner)
				Expect(t, errors.Is(err, dberr.ErrEndIteratorMisuse), Be(true))
				Expect(t, err.Error(), Be("cannot pass end iterator to erase"))
			})

			t.Run("a non owner passing end of "+end.Index().String()+" is refused as end misuse", func(t *testing.T) {
				err := tbl.Modify(ctx, end, nil, stranger)
				Expect(t, errors.Is(err, dberr.ErrEndIteratorMisuse), Be(true))
				Expect(t, errors.Is(err, dberr.ErrAccessViolation), Be(false))

				_, err = tbl.Erase(ctx, end, stranger)
				Expect(t, errors.Is(err, dberr.ErrEndIteratorMisuse), Be(true))
				Expect(t, errors.Is(err, dberr.ErrAccessViolation), Be(false))
			})

			t.Run("cursor to from end of "+end.Index().String(), func(t *testing.T) {
				_, err := tbl.CursorTo(ctx, end, schema.PrimaryIndex)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			})
		}

		r, ok, err := tbl.Find(ctx, 1)
		Expect(t, err, Be[error](nil))
		Expect(t, ok, Be(true))
		Expect(t, r.Payload, Equal([]byte("one")))
	})
}

func TestTableModify(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "balances", schema.KeyTypeUint64)

		for pk := uint64(1); pk <= 3; pk++ {
			_, err := tbl.Store(ctx, pk, []byte{byte(pk)}, []schema.Key{schema.Uint64Key(pk * 10)}, owner)
			Expect(t, err, Be[error](nil))
		}

		idx, _ := tbl.Index(0)

		t.Run("changing the primary key is refused", func(t *testing.T) {
			c, _ := tbl.LowerBound(ctx, 2)
			err := tbl.Modify(ctx, c, func(r *database.Record) error {
				r.PrimaryKey = 9
				r.Payload = []byte("lost")
				return nil
			}, owner)
			Expect(t, errors.Is(err, dberr.ErrPrimaryKeyImmutable), Be(true))
			Expect(t, err.Error(), Be("updater cannot change primary key when modifying an object"))

			r, ok, _ := tbl.Find(ctx, 2)
			Expect(t, ok, Be(true))
			Expect(t, r.Payload, Equal([]byte{2}))

			_, ok, _ = tbl.Find(ctx, 9)
			Expect(t, ok, Be(false))
		})

		t.Run("updater errors are returned as is", func(t *testing.T) {
			c, _ := tbl.LowerBound(ctx, 2)
			boom := errors.New("boom")
			err := tbl.Modify(ctx, c, func(r *database.Record) error {
				return boom
			}, owner)
			Expect(t, err, Be(boom))
		})

		t.Run("When modify key of 1 from 10 to 25", func(t *testing.T) {
			c, _ := idx.Find(ctx, schema.Uint64Key(10))
			Expect(t, c.PrimaryKey(), Be(uint64(1)))

			err := tbl.Modify(ctx, c, func(r *database.Record) error {
				r.Keys[0] = schema.Uint64Key(25)
				r.Payload = []byte("moved")
				return nil
			}, owner)
			Expect(t, err, Be[error](nil))

			t.Run("old key is gone", func(t *testing.T) {
				c, err := idx.Find(ctx, schema.Uint64Key(10))
				Expect(t, err, Be[error](nil))
				Expect(t, c.IsEnd(), Be(true))
			})

			t.Run("the record moved between 20 and 30", func(t *testing.T) {
				c, err := idx.LowerBound(ctx, schema.Uint64Key(21))
				Expect(t, err, Be[error](nil))
				Expect(t, c.PrimaryKey(), Be(uint64(1)))

				r, err := tbl.Get(ctx, c)
				Expect(t, err, Be[error](nil))
				Expect(t, r.Payload, Equal([]byte("moved")))

				next, err := tbl.Next(ctx, c)
				Expect(t, err, Be[error](nil))
				Expect(t, next.PrimaryKey(), Be(uint64(3)))
			})

			t.Run("the old secondary cursor is stale", func(t *testing.T) {
				_, err := tbl.Next(ctx, c)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			})
		})
	})
}

func TestTableErase(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "erasable", schema.KeyTypeUint64)

		for pk := uint64(1); pk <= 4; pk++ {
			_, err := tbl.Store(ctx, pk, nil, []schema.Key{schema.Uint64Key(100 - pk)}, owner)
			Expect(t, err, Be[error](nil))
		}

		t.Run("erase returns the following primary entry", func(t *testing.T) {
			c, _ := tbl.LowerBound(ctx, 2)
			next, err := tbl.Erase(ctx, c, owner)
			Expect(t, err, Be[error](nil))
			Expect(t, next.PrimaryKey(), Be(uint64(3)))

			Expect(t, primaryKeys(t, tbl), Equal([]uint64{1, 3, 4}))

			n, _ := tbl.Count(ctx)
			Expect(t, n, Be(uint64(3)))

			t.Run("the erased cursor is stale", func(t *testing.T) {
				_, err := tbl.Get(ctx, c)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))

				_, err = tbl.Erase(ctx, c, owner)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			})
		})

		t.Run("erase through a secondary cursor removes every entry", func(t *testing.T) {
			idx, _ := tbl.Index(0)
			c, _ := idx.Begin(ctx)
			Expect(t, c.PrimaryKey(), Be(uint64(4)))

			next, err := tbl.Erase(ctx, c, owner)
			Expect(t, err, Be[error](nil))
			Expect(t, next.Index(), Be(schema.SecondaryIndex(0)))
			Expect(t, next.PrimaryKey(), Be(uint64(3)))

			_, ok, _ := tbl.Find(ctx, 4)
			Expect(t, ok, Be(false))
			Expect(t, primaryKeys(t, tbl), Equal([]uint64{1, 3}))
		})

		t.Run("erasing the last entry returns end", func(t *testing.T) {
			c, _ := tbl.LowerBound(ctx, 3)
			next, err := tbl.Erase(ctx, c, owner)
			Expect(t, err, Be[error](nil))
			Expect(t, next.IsEnd(), Be(true))
		})
	})
}

func TestTableCrossTable(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		a := resolve(t, tx, "a", schema.KeyTypeUint64)
		b := resolve(t, tx, "b", schema.KeyTypeUint64)

		ca, err := a.Store(ctx, 1, nil, []schema.Key{schema.Uint64Key(1)}, owner)
		Expect(t, err, Be[error](nil))
		_, err = b.Store(ctx, 1, nil, []schema.Key{schema.Uint64Key(1)}, owner)
		Expect(t, err, Be[error](nil))

		idxA, _ := a.Index(0)
		sa, _ := idxA.Begin(ctx)

		for _, c := range []database.Cursor{ca, sa, a.End()} {
			t.Run("cursor of a used on b: "+c.String(), func(t *testing.T) {
				_, err := b.Next(ctx, c)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
				_, err = b.Prev(ctx, c)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
				_, err = b.Get(ctx, c)
				if !c.IsEnd() {
					Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
				}
				_, err = b.CursorTo(ctx, c, schema.PrimaryIndex)
				Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			})
		}

		t.Run("modify and erase with cursors of a fail on b", func(t *testing.T) {
			err := b.Modify(ctx, ca, nil, owner)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			_, err = b.Erase(ctx, sa, owner)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))

			_, ok, _ := b.Find(ctx, 1)
			Expect(t, ok, Be(true))
		})

		t.Run("record of a is not in b", func(t *testing.T) {
			r, _, _ := a.Find(ctx, 1)
			_, err := b.IteratorTo(ctx, r, schema.PrimaryIndex)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			Expect(t, err.Error(), Be("object passed to iterator_to is not in multi_index"))
		})
	})
}

func TestTableUnboundCursor(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine)
		tbl := resolve(t, tx, "unbound")

		_, err := tbl.Store(ctx, 1, nil, nil, owner)
		Expect(t, err, Be[error](nil))

		for _, c := range []database.Cursor{tbl.Unbound(), {}} {
			Expect(t, c.IsUnbound(), Be(true))

			_, err := tbl.Next(ctx, c)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			_, err = tbl.Get(ctx, c)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
			err = tbl.Modify(ctx, c, nil, owner)
			Expect(t, errors.Is(err, dberr.ErrNotInIndex), Be(true))
		}
	})
}

func TestTableWriteSetTooLarge(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		tx := testutil.NewTransaction(t, engine, testutil.WithMaxBatchSize(4096))
		tbl := resolve(t, tx, "bounded", schema.KeyTypeUint64, schema.KeyTypeUint64, schema.KeyTypeUint64)

		keysOf := func(pk uint64) []schema.Key {
			return []schema.Key{schema.Uint64Key(pk), schema.Uint64Key(pk * 2), schema.Uint64Key(pk * 3)}
		}
		payload := make([]byte, 100)

		stored := uint64(0)
		var err error
		for pk := uint64(1); pk <= 1000; pk++ {
			if _, err = tbl.Store(ctx, pk, payload, keysOf(pk), owner); err != nil {
				break
			}
			stored++
		}

		t.Run("a store past the limit is refused", func(t *testing.T) {
			Expect(t, errors.Is(err, kv.ErrBatchTooLarge), Be(true))
			Expect(t, stored > 0, Be(true))
		})

		t.Run("the refused store left nothing behind", func(t *testing.T) {
			failed := stored + 1

			_, ok, err := tbl.Find(ctx, failed)
			Expect(t, err, Be[error](nil))
			Expect(t, ok, Be(false))

			n, err := tbl.Count(ctx)
			Expect(t, err, Be[error](nil))
			Expect(t, n, Be(stored))

			for slot, k := range keysOf(failed) {
				idx, err := tbl.Index(slot)
				Expect(t, err, Be[error](nil))
				c, err := idx.Find(ctx, k)
				Expect(t, err, Be[error](nil))
				Expect(t, c.IsEnd(), Be(true))
			}

			Expect(t, len(primaryKeys(t, tbl)), Be(int(stored)))
		})

		t.Run("earlier stores are intact", func(t *testing.T) {
			r, ok, err := tbl.Find(ctx, stored)
			Expect(t, err, Be[error](nil))
			Expect(t, ok, Be(true))
			Expect(t, r.Payload, Equal(payload))
		})
	})
}

func TestTableRollback(t *testing.T) {
	testutil.EachEngine(t, func(t *testing.T, engine string) {
		ctx := context.Background()
		db := testutil.NewDatabase(t, engine, "test")
		ref := schema.Ref("alice", "alice", "rollback")

		err := db.Update(ctx, func(tx database.Transaction) error {
			tbl, err := tx.Resolve(ctx, ref)
			if err != nil {
				return err
			}
			_, err = tbl.Store(ctx, 1, []byte("kept"), nil, owner)
			return err
		})
		Expect(t, err, Be[error](nil))

		t.Run("failed transaction leaves no trace", func(t *testing.T) {
			err := db.Update(ctx, func(tx database.Transaction) error {
				tbl, err := tx.Resolve(ctx, ref)
				if err != nil {
					return err
				}
				if _, err := tbl.Store(ctx, 2, []byte("dropped"), nil, owner); err != nil {
					return err
				}
				_, err = tbl.Store(ctx, 1, []byte("conflict"), nil, owner)
				return err
			})
			Expect(t, errors.Is(err, dberr.ErrDuplicatePrimaryKey), Be(true))

			err = db.View(ctx, func(tx database.Transaction) error {
				tbl, err := tx.Open(ctx, ref)
				if err != nil {
					return err
				}
				Expect(t, primaryKeys(t, tbl), Equal([]uint64{1}))

				n, err := tbl.Count(ctx)
				Expect(t, n, Be(uint64(1)))
				return err
			})
			Expect(t, err, Be[error](nil))
		})
	})
}
