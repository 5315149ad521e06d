package tree

import "encoding/binary"

// Namespace partitions the keyspace. Every key of a tree starts with the
// 8 byte big-endian namespace.
type Namespace uint64

const (
	NamespaceCatalog  Namespace = 0
	NamespaceSequence Namespace = 1
)

// TableNamespace is the namespace of one index of a table. The low byte is
// the index id, so all indexes of a table are adjacent.
func TableNamespace(tableID uint64, index uint8) Namespace {
	return Namespace(tableID<<8 | uint64(index))
}

func (ns Namespace) Prefix() []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8+32+8), uint64(ns))
}

// Key returns the full kv key of suffix within ns.
func (ns Namespace) Key(suffix []byte) []byte {
	return append(ns.Prefix(), suffix...)
}

// Successor returns the smallest key greater than every key having b as a
// prefix, or nil when there is none.
func Successor(b []byte) []byte {
	s := append([]byte(nil), b...)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] < 0xFF {
			s[i]++
			return s[:i+1]
		}
	}
	return nil
}

// Uint64 appends the order-preserving encoding of v.
func Uint64(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

// ReadUint64 decodes the trailing 8 bytes of b.
func ReadUint64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b[len(b)-8:])
}
