package schema

import (
	"strings"

	"github.com/pkg/errors"
)

const nameCharmap = ".12345abcdefghijklmnopqrstuvwxyz"

// Name is a 64-bit identity used for owners, scopes, table names and requesters.
// Its text form is up to 13 characters of [.1-5a-z].
type Name uint64

func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func ParseName(s string) (Name, error) {
	if len(s) > 13 {
		return 0, errors.Errorf("invalid name %q: longer than 13 characters", s)
	}

	var n uint64

	for i := 0; i < 13; i++ {
		var c uint64
		if i < len(s) {
			sym, ok := charToSymbol(s[i])
			if !ok {
				return 0, errors.Errorf("invalid name %q: unexpected character %q", s, s[i])
			}
			c = sym
		}
		if i < 12 {
			n |= (c & 0x1f) << (64 - 5*(i+1))
		} else {
			if c > 0x0f {
				return 0, errors.Errorf("invalid name %q: thirteenth character must be one of [.1-5a-j]", s)
			}
			n |= c & 0x0f
		}
	}

	return Name(n), nil
}

func charToSymbol(c byte) (uint64, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c == '.':
		return 0, true
	}
	return 0, false
}

func (n Name) String() string {
	var buf [13]byte

	tmp := uint64(n)
	for i := 0; i < 13; i++ {
		if i == 0 {
			buf[12] = nameCharmap[tmp&0x0f]
			tmp >>= 4
		} else {
			buf[12-i] = nameCharmap[tmp&0x1f]
			tmp >>= 5
		}
	}

	return strings.TrimRight(string(buf[:]), ".")
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	v, err := ParseName(string(text))
	if err != nil {
		return err
	}
	*n = v
	return nil
}
