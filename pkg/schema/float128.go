package schema

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	f128SignBit  = uint64(1) << 63
	f128ExpMask  = uint64(0x7fff)
	f128ExpBias  = 16383
	f128FracMask = uint64(1)<<48 - 1
)

// Float128 is an IEEE 754 binary128 value stored as its raw bits.
type Float128 struct {
	Hi uint64
	Lo uint64
}

// Float128FromFloat64 widens f exactly.
func Float128FromFloat64(f float64) Float128 {
	b := math.Float64bits(f)

	sign := b >> 63
	exp := (b >> 52) & 0x7ff
	frac := b & (uint64(1)<<52 - 1)

	var hi, lo uint64

	switch {
	case exp == 0x7ff:
		hi = f128ExpMask<<48 | frac>>4
		lo = frac << 60
	case exp == 0 && frac == 0:
	case exp == 0:
		p := bits.Len64(frac) - 1
		m := frac &^ (uint64(1) << p)
		s := 112 - p
		if s >= 64 {
			hi = m << (s - 64)
		} else {
			hi = m >> (64 - s)
			lo = m << s
		}
		hi |= uint64(p-1074+f128ExpBias) << 48
	default:
		hi = (exp-1023+f128ExpBias)<<48 | frac>>4
		lo = frac << 60
	}

	return Float128{Hi: sign<<63 | hi, Lo: lo}
}

func (f Float128) exp() uint64 {
	return (f.Hi >> 48) & f128ExpMask
}

func (f Float128) IsNaN() bool {
	return f.exp() == f128ExpMask && (f.Hi&f128FracMask != 0 || f.Lo != 0)
}

func (f Float128) IsZero() bool {
	return f.Hi&^f128SignBit == 0 && f.Lo == 0
}

func (f Float128) Signbit() bool {
	return f.Hi&f128SignBit != 0
}

func (f Float128) Neg() Float128 {
	return Float128{Hi: f.Hi ^ f128SignBit, Lo: f.Lo}
}

// Float64 narrows f, truncating bits that do not fit.
func (f Float128) Float64() float64 {
	sign := f.Hi & f128SignBit
	exp := f.exp()
	frac52 := (f.Hi&f128FracMask)<<4 | f.Lo>>60

	switch {
	case exp == f128ExpMask:
		if f.IsNaN() {
			return math.NaN()
		}
		return math.Float64frombits(sign | 0x7ff<<52)
	case exp == 0:
		return math.Float64frombits(sign)
	}

	e := int(exp) - f128ExpBias
	switch {
	case e > 1023:
		return math.Float64frombits(sign | 0x7ff<<52)
	case e >= -1022:
		return math.Float64frombits(sign | uint64(e+1023)<<52 | frac52)
	case e >= -1074:
		m := (uint64(1)<<52 | frac52) >> uint(-1022-e)
		return math.Float64frombits(sign | m)
	}
	return math.Float64frombits(sign)
}

func (f Float128) String() string {
	return fmt.Sprintf("%g", f.Float64())
}
