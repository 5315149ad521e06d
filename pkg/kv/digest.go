package kv

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest hashes every pair visible to s in key order. Two sessions with the
// same contents have the same digest.
func Digest(s Session) (uint64, error) {
	h := xxhash.New()

	var lenBuf [8]byte

	err := Walk(s, nil, nil, func(k, v []byte) error {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(k)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(k)
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(v)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(v)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return h.Sum64(), nil
}
