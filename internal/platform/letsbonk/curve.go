package letsbonk

import (
	"context"
	"fmt"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

// Curves reads and prices launchpad pools
type Curves struct {
	reader platform.AccountReader
	addrs  Addresses
	feeBps uint64
}

// FetchState reads the pool state account of mint
func (c *Curves) FetchState(ctx context.Context, mint solana.PublicKey) (platform.CurveState, error) {
	if c.reader == nil {
		return platform.CurveState{}, fmt.Errorf("launchpad curve manager has no account reader")
	}
	pool, err := c.addrs.Curve(mint)
	if err != nil {
		return platform.CurveState{}, fmt.Errorf("failed to derive pool state: %w", err)
	}

	acc, err := c.reader.GetAccount(ctx, pool)
	if err != nil {
		return platform.CurveState{}, fmt.Errorf("failed to get pool state %s: %w", pool, err)
	}
	if !acc.Owner.Equals(ProgramID) {
		return platform.CurveState{}, fmt.Errorf("pool state %s owned by %s, not raydium launchpad", pool, acc.Owner)
	}
	return c.DecodeState(acc.Data)
}

// DecodeState decodes PoolState account data. Any non-zero status means the
// pool stopped trading on the curve.
func (c *Curves) DecodeState(data []byte) (platform.CurveState, error) {
	fields, err := IDL.DecodeAccount(data, "PoolState")
	if err != nil {
		return platform.CurveState{}, err
	}

	totalSell := fields["total_base_sell"].(uint64)
	state := platform.CurveState{
		VirtualBase:  fields["virtual_base"].(uint64),
		VirtualQuote: fields["virtual_quote"].(uint64),
		RealBase:     fields["real_base"].(uint64),
		RealQuote:    fields["real_quote"].(uint64),
		TotalSupply:  fields["supply"].(uint64),
		Complete:     fields["status"].(uint8) != 0,
		Creator:      fields["creator"].(solana.PublicKey),
		BaseDecimals: fields["base_decimals"].(uint8),
	}
	if totalSell > state.RealBase {
		state.AvailableBase = totalSell - state.RealBase
	}
	state.AvailableQuote = state.RealQuote
	return state, nil
}

func reserves(state platform.CurveState) (base, quote uint64) {
	if state.VirtualBase > state.RealBase {
		base = state.VirtualBase - state.RealBase
	}
	return base, state.VirtualQuote + state.RealQuote
}

// Price returns SOL per whole token at the current reserves
func (c *Curves) Price(state platform.CurveState) float64 {
	base, quote := reserves(state)
	if base == 0 {
		return 0
	}
	decimals := state.BaseDecimals
	if decimals == 0 {
		decimals = TokenDecimals
	}
	scale := 1.0
	for i := uint8(0); i < decimals; i++ {
		scale *= 10
	}
	return (float64(quote) / 1e9) / (float64(base) / scale)
}

// BuyOut returns tokens received for quoteIn lamports. Fees are taken out of
// the input before it reaches the curve.
func (c *Curves) BuyOut(state platform.CurveState, quoteIn uint64) uint64 {
	base, quote := reserves(state)
	net := quoteIn - platform.FeeOf(quoteIn, c.feeBps)
	return platform.ConstantProductOut(quote, base, net)
}

// SellOut returns lamports received for baseIn tokens, net of fees
func (c *Curves) SellOut(state platform.CurveState, baseIn uint64) uint64 {
	base, quote := reserves(state)
	gross := platform.ConstantProductOut(base, quote, baseIn)
	return gross - platform.FeeOf(gross, c.feeBps)
}
