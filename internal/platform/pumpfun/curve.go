package pumpfun

import (
	"context"
	"fmt"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

// Curves reads and prices pump.fun bonding curves
type Curves struct {
	reader platform.AccountReader
	addrs  Addresses
	feeBps uint64
}

// FetchState reads the bonding curve account of mint
func (c *Curves) FetchState(ctx context.Context, mint solana.PublicKey) (platform.CurveState, error) {
	if c.reader == nil {
		return platform.CurveState{}, fmt.Errorf("pump.fun curve manager has no account reader")
	}
	curve, err := c.addrs.Curve(mint)
	if err != nil {
		return platform.CurveState{}, fmt.Errorf("failed to derive bonding curve: %w", err)
	}

	acc, err := c.reader.GetAccount(ctx, curve)
	if err != nil {
		return platform.CurveState{}, fmt.Errorf("failed to get bonding curve %s: %w", curve, err)
	}
	if !acc.Owner.Equals(ProgramID) {
		return platform.CurveState{}, fmt.Errorf("bonding curve %s owned by %s, not pump.fun", curve, acc.Owner)
	}
	return c.DecodeState(acc.Data)
}

// DecodeState decodes BondingCurve account data
func (c *Curves) DecodeState(data []byte) (platform.CurveState, error) {
	fields, err := IDL.DecodeAccount(data, "BondingCurve")
	if err != nil {
		return platform.CurveState{}, err
	}

	state := platform.CurveState{
		VirtualBase:  fields["virtual_token_reserves"].(uint64),
		VirtualQuote: fields["virtual_sol_reserves"].(uint64),
		RealBase:     fields["real_token_reserves"].(uint64),
		RealQuote:    fields["real_sol_reserves"].(uint64),
		TotalSupply:  fields["token_total_supply"].(uint64),
		Complete:     fields["complete"].(bool),
		Creator:      fields["creator"].(solana.PublicKey),
		BaseDecimals: TokenDecimals,
	}
	state.AvailableBase = state.RealBase
	state.AvailableQuote = state.RealQuote
	return state, nil
}

// Price returns SOL per whole token from virtual reserves
func (c *Curves) Price(state platform.CurveState) float64 {
	if state.VirtualBase == 0 {
		return 0
	}
	sol := float64(state.VirtualQuote) / 1e9
	tokens := float64(state.VirtualBase) / 1e6
	return sol / tokens
}

// BuyOut returns tokens received for quoteIn lamports. The fee is charged on
// top of the curve cost, so only quoteIn*10000/(10000+fee) reaches the curve.
// The result never exceeds the real tokens left on the curve.
func (c *Curves) BuyOut(state platform.CurveState, quoteIn uint64) uint64 {
	net := platform.MulDiv(quoteIn, platform.BasisPoints, platform.BasisPoints+c.feeBps)
	out := platform.ConstantProductOut(state.VirtualQuote, state.VirtualBase, net)
	if out > state.RealBase {
		return state.RealBase
	}
	return out
}

// SellOut returns lamports received for baseIn tokens after the fee
func (c *Curves) SellOut(state platform.CurveState, baseIn uint64) uint64 {
	gross := platform.ConstantProductOut(state.VirtualBase, state.VirtualQuote, baseIn)
	return gross - platform.FeeOf(gross, c.feeBps)
}
