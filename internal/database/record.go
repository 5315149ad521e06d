package database

import (
	"github.com/pkg/errors"

	"github.com/octohelm/tabledb/pkg/schema"
)

const recordVersion = 1

// Record is a row of a table: its primary key, the caller derived secondary
// keys, one per slot, and an opaque payload.
type Record struct {
	PrimaryKey uint64
	Keys       []schema.Key
	Payload    []byte

	// set when read from a table
	table  schema.TableRef
	stored bool
}

func NewRecord(pk uint64, payload []byte, keys ...schema.Key) *Record {
	return &Record{
		PrimaryKey: pk,
		Payload:    payload,
		Keys:       keys,
	}
}

// Table returns the table the record was read from.
func (r *Record) Table() (schema.TableRef, bool) {
	return r.table, r.stored
}

// Clone copies the record, keeping its table binding.
func (r *Record) Clone() *Record {
	c := *r
	c.Keys = append([]schema.Key(nil), r.Keys...)
	c.Payload = append([]byte(nil), r.Payload...)
	return &c
}

// encodeRecord writes the full-precision encodings of keys followed by the payload.
func encodeRecord(codecs []schema.KeyCodec, keys []schema.Key, payload []byte) []byte {
	size := 1 + len(payload)
	for _, c := range codecs {
		size += c.Type().Size()
	}

	b := make([]byte, 0, size)
	b = append(b, recordVersion)
	for i, c := range codecs {
		b = c.Append(b, keys[i])
	}
	return append(b, payload...)
}

func decodeRecord(ref schema.TableRef, codecs []schema.KeyCodec, pk uint64, b []byte) (*Record, error) {
	if len(b) == 0 || b[0] != recordVersion {
		return nil, errors.Errorf("invalid record %d of %s", pk, ref)
	}
	b = b[1:]

	r := &Record{
		PrimaryKey: pk,
		Keys:       make([]schema.Key, len(codecs)),
		table:      ref,
		stored:     true,
	}

	for i, c := range codecs {
		k, err := c.Decode(b)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d of %s", pk, ref)
		}
		r.Keys[i] = k
		b = b[c.Type().Size():]
	}

	r.Payload = append([]byte{}, b...)

	return r, nil
}
