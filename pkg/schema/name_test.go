package schema_test

import (
	"testing"

	. "github.com/octohelm/x/testing"

	"github.com/octohelm/tabledb/pkg/schema"
)

func TestName(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, s := range []string{"", "a", "alice", "eosio.token", "tabledb", "zzzzzzzzzzzzj", "1.2.3.4.5"} {
			n, err := schema.ParseName(s)
			Expect(t, err, Be[error](nil))
			Expect(t, n.String(), Be(s))
		}
	})

	t.Run("known values", func(t *testing.T) {
		Expect(t, uint64(schema.MustParseName("")), Be(uint64(0)))
		Expect(t, uint64(schema.MustParseName("eosio")), Be(uint64(6138663577826885632)))
	})

	t.Run("names order as their text", func(t *testing.T) {
		Expect(t, schema.MustParseName("alice") < schema.MustParseName("bob"), Be(true))
		Expect(t, schema.MustParseName("a") < schema.MustParseName("a1"), Be(true))
	})

	t.Run("invalid names", func(t *testing.T) {
		for _, s := range []string{"Alice", "bob6", "aaaaaaaaaaaaaa", "zzzzzzzzzzzzz", "a-b"} {
			_, err := schema.ParseName(s)
			Expect(t, err, Not(Be[error](nil)))
		}
	})

	t.Run("text marshal", func(t *testing.T) {
		var n schema.Name
		err := n.UnmarshalText([]byte("owner"))
		Expect(t, err, Be[error](nil))

		text, err := n.MarshalText()
		Expect(t, err, Be[error](nil))
		Expect(t, string(text), Be("owner"))
	})
}

func TestParseRef(t *testing.T) {
	ref, err := schema.ParseRef("alice/market/prices")
	Expect(t, err, Be[error](nil))
	Expect(t, ref, Be(schema.Ref("alice", "market", "prices")))
	Expect(t, ref.String(), Be("alice/market/prices"))

	for _, s := range []string{"alice", "alice/market", "Alice/market/prices", "a/b/c/d"} {
		_, err := schema.ParseRef(s)
		Expect(t, err, Not(Be[error](nil)))
	}
}
