package schema

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"github.com/octohelm/tabledb/pkg/dberr"
)

// KeyCodec is the total order and the order-preserving fixed-width encoding
// of one key type. It is resolved once per slot when a table is configured.
type KeyCodec interface {
	Type() KeyType
	Compare(a, b Key) int
	// Canonical maps keys that compare equal to one representative.
	Canonical(k Key) Key
	// Append appends the ordered encoding of k, keeping every bit of k.
	Append(dst []byte, k Key) []byte
	Decode(b []byte) (Key, error)
}

func CodecFor(t KeyType) (KeyCodec, error) {
	switch t {
	case KeyTypeUint64:
		return uint64Codec{}, nil
	case KeyTypeUint128:
		return uint128Codec{}, nil
	case KeyTypeUint256:
		return uint256Codec{}, nil
	case KeyTypeFloat64:
		return float64Codec{}, nil
	case KeyTypeFloat128:
		return float128Codec{}, nil
	}
	return nil, dberr.Newf(dberr.ErrInvalidKey, "unsupported key type %d", t)
}

// Validate checks k against the slot type of c.
func Validate(c KeyCodec, k Key) error {
	if k.Type() != c.Type() {
		return dberr.Newf(dberr.ErrInvalidKey, "key of type %s given for %s slot", k.Type(), c.Type())
	}
	if k.IsNaN() {
		return dberr.ErrNotAllowedNaN
	}
	return nil
}

// AppendIndexKey appends the encoding used inside secondary indexes.
func AppendIndexKey(c KeyCodec, dst []byte, k Key) []byte {
	return c.Append(dst, c.Canonical(k))
}

func short(t KeyType, b []byte) error {
	return dberr.Newf(dberr.ErrInvalidKey, "%s key needs %d bytes, got %d", t, t.Size(), len(b))
}

type uint64Codec struct{}

func (uint64Codec) Type() KeyType { return KeyTypeUint64 }

func (uint64Codec) Compare(a, b Key) int {
	return cmpUint64(a.Uint64(), b.Uint64())
}

func (uint64Codec) Canonical(k Key) Key { return k }

func (uint64Codec) Append(dst []byte, k Key) []byte {
	return binary.BigEndian.AppendUint64(dst, k.Uint64())
}

func (uint64Codec) Decode(b []byte) (Key, error) {
	if len(b) < 8 {
		return Key{}, short(KeyTypeUint64, b)
	}
	return Uint64Key(binary.BigEndian.Uint64(b)), nil
}

type uint128Codec struct{}

func (uint128Codec) Type() KeyType { return KeyTypeUint128 }

func (uint128Codec) Compare(a, b Key) int {
	return a.Uint128().Cmp(b.Uint128())
}

func (uint128Codec) Canonical(k Key) Key { return k }

func (uint128Codec) Append(dst []byte, k Key) []byte {
	var buf [16]byte
	k.Uint128().PutBytesBE(buf[:])
	return append(dst, buf[:]...)
}

func (uint128Codec) Decode(b []byte) (Key, error) {
	if len(b) < 16 {
		return Key{}, short(KeyTypeUint128, b)
	}
	return Uint128Key(uint128.FromBytesBE(b[:16])), nil
}

type uint256Codec struct{}

func (uint256Codec) Type() KeyType { return KeyTypeUint256 }

func (uint256Codec) Compare(a, b Key) int {
	return a.Uint256().Cmp(b.Uint256())
}

func (uint256Codec) Canonical(k Key) Key { return k }

func (uint256Codec) Append(dst []byte, k Key) []byte {
	buf := k.Uint256().Bytes32()
	return append(dst, buf[:]...)
}

func (uint256Codec) Decode(b []byte) (Key, error) {
	if len(b) < 32 {
		return Key{}, short(KeyTypeUint256, b)
	}
	return Uint256Key(new(uint256.Int).SetBytes32(b[:32])), nil
}

type float64Codec struct{}

func (float64Codec) Type() KeyType { return KeyTypeFloat64 }

func (c float64Codec) Compare(a, b Key) int {
	return cmpUint64(orderedFloat64(c.Canonical(a).w[0]), orderedFloat64(c.Canonical(b).w[0]))
}

func (float64Codec) Canonical(k Key) Key {
	if k.w[0] == f128SignBit {
		return Float64Key(0)
	}
	return k
}

func (float64Codec) Append(dst []byte, k Key) []byte {
	return binary.BigEndian.AppendUint64(dst, orderedFloat64(k.w[0]))
}

func (float64Codec) Decode(b []byte) (Key, error) {
	if len(b) < 8 {
		return Key{}, short(KeyTypeFloat64, b)
	}
	o := binary.BigEndian.Uint64(b)
	if o&f128SignBit != 0 {
		o &^= f128SignBit
	} else {
		o = ^o
	}
	return Key{typ: KeyTypeFloat64, w: [4]uint64{o}}, nil
}

func orderedFloat64(bits uint64) uint64 {
	if bits&f128SignBit != 0 {
		return ^bits
	}
	return bits | f128SignBit
}

type float128Codec struct{}

func (float128Codec) Type() KeyType { return KeyTypeFloat128 }

func (c float128Codec) Compare(a, b Key) int {
	ah, al := orderedFloat128(c.Canonical(a).Float128())
	bh, bl := orderedFloat128(c.Canonical(b).Float128())
	if r := cmpUint64(ah, bh); r != 0 {
		return r
	}
	return cmpUint64(al, bl)
}

func (float128Codec) Canonical(k Key) Key {
	if f := k.Float128(); f.IsZero() {
		return Float128Key(Float128{})
	}
	return k
}

func (float128Codec) Append(dst []byte, k Key) []byte {
	hi, lo := orderedFloat128(k.Float128())
	dst = binary.BigEndian.AppendUint64(dst, hi)
	return binary.BigEndian.AppendUint64(dst, lo)
}

func (float128Codec) Decode(b []byte) (Key, error) {
	if len(b) < 16 {
		return Key{}, short(KeyTypeFloat128, b)
	}
	hi, lo := binary.BigEndian.Uint64(b), binary.BigEndian.Uint64(b[8:])
	if hi&f128SignBit != 0 {
		hi &^= f128SignBit
	} else {
		hi, lo = ^hi, ^lo
	}
	return Float128Key(Float128{Hi: hi, Lo: lo}), nil
}

func orderedFloat128(f Float128) (uint64, uint64) {
	if f.Hi&f128SignBit != 0 {
		return ^f.Hi, ^f.Lo
	}
	return f.Hi | f128SignBit, f.Lo
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
