package platform

import (
	"math"
	"math/bits"
)

// BasisPoints is the denominator for fee rates
const BasisPoints = 10_000

// MulDiv returns floor(a*b/c) using a 128-bit intermediate. It saturates at
// MaxUint64 when the quotient does not fit and returns 0 when c is 0.
func MulDiv(a, b, c uint64) uint64 {
	if c == 0 {
		return 0
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, c)
	return q
}

// ConstantProductOut returns floor(outReserve*in/(inReserve+in)).
func ConstantProductOut(inReserve, outReserve, in uint64) uint64 {
	if in == 0 || outReserve == 0 {
		return 0
	}
	denom, carry := bits.Add64(inReserve, in, 0)
	if carry != 0 {
		return 0
	}
	return MulDiv(outReserve, in, denom)
}

// FeeOf returns floor(amount*bps/10000).
func FeeOf(amount, bps uint64) uint64 {
	return MulDiv(amount, bps, BasisPoints)
}
