package burrowdb

import (
	"fmt"
	"math/big"
)

// Uint128 is an unsigned 128-bit integer stored as two 64-bit halves.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a two's complement signed 128-bit integer.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Uint128From64 widens v.
func Uint128From64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// Int128From64 sign-extends v.
func Int128From64(v int64) Int128 {
	return Int128{Hi: v >> 63, Lo: uint64(v)}
}

// Big returns u as a big.Int.
func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(u.Lo))
}

func (u Uint128) String() string {
	return u.Big().String()
}

// Big returns i as a big.Int.
func (i Int128) Big() *big.Int {
	if i.Hi >= 0 {
		return Uint128{Hi: uint64(i.Hi), Lo: i.Lo}.Big()
	}
	// -(^x + 1)
	neg := Uint128{Hi: ^uint64(i.Hi), Lo: ^i.Lo}.Big()
	neg.Add(neg, big.NewInt(1))
	return neg.Neg(neg)
}

func (i Int128) String() string {
	return i.Big().String()
}

var (
	maxUint128 = Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}.Big()
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	mask64     = new(big.Int).SetUint64(^uint64(0))
)

// ParseUint128 parses a base-10 unsigned 128-bit integer.
func ParseUint128(s string) (Uint128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("parse uint128 %q: invalid syntax", s)
	}
	if b.Sign() < 0 || b.Cmp(maxUint128) > 0 {
		return Uint128{}, fmt.Errorf("parse uint128 %q: %w", s, ErrIntegerOverflow)
	}
	lo := new(big.Int).And(b, mask64).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return Uint128{Hi: hi, Lo: lo}, nil
}

// ParseInt128 parses a base-10 signed 128-bit integer.
func ParseInt128(s string) (Int128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("parse int128 %q: invalid syntax", s)
	}
	if b.Cmp(minInt128) < 0 || b.Cmp(maxInt128) > 0 {
		return Int128{}, fmt.Errorf("parse int128 %q: %w", s, ErrIntegerOverflow)
	}
	if b.Sign() < 0 {
		// two's complement: 2^128 + b
		b = new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 128), b)
	}
	lo := new(big.Int).And(b, mask64).Uint64()
	hi := new(big.Int).Rsh(b, 64).Uint64()
	return Int128{Hi: int64(hi), Lo: lo}, nil
}
