package utils

import (
	"math"
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

var lamportsPerSOL = decimal.NewFromInt(LamportsPerSOL)

// SOLToLamports converts a SOL amount to lamports, rounding down. Negative
// amounts convert to zero.
func SOLToLamports(sol decimal.Decimal) uint64 {
	if sol.Sign() <= 0 {
		return 0
	}
	l := sol.Mul(lamportsPerSOL).Floor()
	if l.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxUint64
	}
	return uint64(l.IntPart())
}

// LamportsToSOL converts lamports to SOL
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), 0).Div(lamportsPerSOL)
}

// ApplySlippage returns floor(amount * (1 - slippage)). slippage is a fraction
// and is clamped to [0, 1].
func ApplySlippage(amount uint64, slippage decimal.Decimal) uint64 {
	if slippage.Sign() < 0 {
		slippage = decimal.Zero
	}
	if slippage.GreaterThan(decimal.NewFromInt(1)) {
		slippage = decimal.NewFromInt(1)
	}

	v := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0).
		Mul(decimal.NewFromInt(1).Sub(slippage)).
		Floor()
	return v.BigInt().Uint64()
}

// PercentChange returns (to - from) / from * 100, or zero when from is zero
func PercentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100))
}

// Percentile returns the nearest-rank p-th percentile of values. p is clamped
// to [0, 100]; an empty input yields zero. values is not modified.
func Percentile(values []uint64, p float64) uint64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]uint64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
