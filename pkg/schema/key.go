package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// KeyType is the type tag of a secondary index slot.
type KeyType uint8

const (
	KeyTypeUint64 KeyType = iota + 1
	KeyTypeUint128
	KeyTypeUint256
	KeyTypeFloat64
	KeyTypeFloat128
)

func ParseKeyType(s string) (KeyType, error) {
	switch s {
	case "idx64", "uint64":
		return KeyTypeUint64, nil
	case "idx128", "uint128":
		return KeyTypeUint128, nil
	case "idx256", "uint256":
		return KeyTypeUint256, nil
	case "idx_double", "float64":
		return KeyTypeFloat64, nil
	case "idx_long_double", "float128":
		return KeyTypeFloat128, nil
	}
	return 0, fmt.Errorf("unknown key type %q", s)
}

func (t KeyType) String() string {
	switch t {
	case KeyTypeUint64:
		return "uint64"
	case KeyTypeUint128:
		return "uint128"
	case KeyTypeUint256:
		return "uint256"
	case KeyTypeFloat64:
		return "float64"
	case KeyTypeFloat128:
		return "float128"
	}
	return fmt.Sprintf("KeyType(%d)", t)
}

// Size is the width of the type's ordered encoding.
func (t KeyType) Size() int {
	switch t {
	case KeyTypeUint64, KeyTypeFloat64:
		return 8
	case KeyTypeUint128, KeyTypeFloat128:
		return 16
	case KeyTypeUint256:
		return 32
	}
	return 0
}

func (t KeyType) IsValid() bool {
	return t >= KeyTypeUint64 && t <= KeyTypeFloat128
}

func (t KeyType) IsFloat() bool {
	return t == KeyTypeFloat64 || t == KeyTypeFloat128
}

// Key is a secondary key value. Words are little-endian: w[0] holds the
// lowest 64 bits. Keys are comparable with ==, which compares raw bits.
type Key struct {
	typ KeyType
	w   [4]uint64
}

func Uint64Key(v uint64) Key {
	return Key{typ: KeyTypeUint64, w: [4]uint64{v}}
}

func Uint128Key(v uint128.Uint128) Key {
	return Key{typ: KeyTypeUint128, w: [4]uint64{v.Lo, v.Hi}}
}

func Uint256Key(v *uint256.Int) Key {
	return Key{typ: KeyTypeUint256, w: [4]uint64(*v)}
}

func Float64Key(v float64) Key {
	return Key{typ: KeyTypeFloat64, w: [4]uint64{math.Float64bits(v)}}
}

func Float128Key(v Float128) Key {
	return Key{typ: KeyTypeFloat128, w: [4]uint64{v.Lo, v.Hi}}
}

func (k Key) Type() KeyType {
	return k.typ
}

func (k Key) Uint64() uint64 {
	return k.w[0]
}

func (k Key) Uint128() uint128.Uint128 {
	return uint128.New(k.w[0], k.w[1])
}

func (k Key) Uint256() *uint256.Int {
	v := uint256.Int(k.w)
	return &v
}

func (k Key) Float64() float64 {
	return math.Float64frombits(k.w[0])
}

func (k Key) Float128() Float128 {
	return Float128{Hi: k.w[1], Lo: k.w[0]}
}

func (k Key) IsNaN() bool {
	switch k.typ {
	case KeyTypeFloat64:
		return math.IsNaN(k.Float64())
	case KeyTypeFloat128:
		return k.Float128().IsNaN()
	}
	return false
}

func (k Key) String() string {
	switch k.typ {
	case KeyTypeUint64:
		return fmt.Sprintf("%d", k.Uint64())
	case KeyTypeUint128:
		return k.Uint128().String()
	case KeyTypeUint256:
		return k.Uint256().Hex()
	case KeyTypeFloat64:
		return fmt.Sprintf("%g", k.Float64())
	case KeyTypeFloat128:
		return k.Float128().String()
	}
	return "<invalid key>"
}

// ParseKey parses the text form of a key of type t, as printed by String.
// uint256 keys are read as hex when prefixed with 0x, decimal otherwise.
func ParseKey(t KeyType, s string) (Key, error) {
	switch t {
	case KeyTypeUint64:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return Key{}, err
		}
		return Uint64Key(v), nil
	case KeyTypeUint128:
		v, err := uint128.FromString(s)
		if err != nil {
			return Key{}, err
		}
		return Uint128Key(v), nil
	case KeyTypeUint256:
		var (
			v   *uint256.Int
			err error
		)
		if strings.HasPrefix(s, "0x") {
			v, err = uint256.FromHex(s)
		} else {
			v, err = uint256.FromDecimal(s)
		}
		if err != nil {
			return Key{}, err
		}
		return Uint256Key(v), nil
	case KeyTypeFloat64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Key{}, err
		}
		return Float64Key(v), nil
	case KeyTypeFloat128:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Key{}, err
		}
		return Float128Key(Float128FromFloat64(v)), nil
	}
	return Key{}, fmt.Errorf("unknown key type %d", t)
}
