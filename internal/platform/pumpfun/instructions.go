package pumpfun

import (
	"fmt"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
)

// Builder builds pump.fun buy and sell instructions
type Builder struct {
	addrs Addresses
}

// BuildBuy spends at most AmountIn lamports for exactly MinOut tokens
func (b *Builder) BuildBuy(p platform.TradeParams) (platform.TradeInstructions, error) {
	addrs, err := b.accounts(p)
	if err != nil {
		return platform.TradeInstructions{}, err
	}
	if addrs["global_volume_accumulator"], err = b.addrs.GlobalVolumeAccumulator(); err != nil {
		return platform.TradeInstructions{}, fmt.Errorf("failed to derive global volume accumulator: %w", err)
	}
	if addrs["user_volume_accumulator"], err = b.addrs.UserVolumeAccumulator(p.Trader); err != nil {
		return platform.TradeInstructions{}, fmt.Errorf("failed to derive user volume accumulator: %w", err)
	}

	createATA, _, err := platform.CreateIdempotentATA(p.Trader, p.Trader, p.Mint)
	if err != nil {
		return platform.TradeInstructions{}, fmt.Errorf("failed to build ATA instruction: %w", err)
	}

	ix, err := platform.BuildInstruction(IDL, ProgramID, "buy", addrs, map[string]interface{}{
		"amount":       p.MinOut,
		"max_sol_cost": p.AmountIn,
	})
	if err != nil {
		return platform.TradeInstructions{}, err
	}

	return platform.TradeInstructions{
		Pre:   []solana.Instruction{createATA},
		Trade: ix,
	}, nil
}

// BuildSell sells AmountIn tokens for at least MinOut lamports
func (b *Builder) BuildSell(p platform.TradeParams) (platform.TradeInstructions, error) {
	addrs, err := b.accounts(p)
	if err != nil {
		return platform.TradeInstructions{}, err
	}

	ix, err := platform.BuildInstruction(IDL, ProgramID, "sell", addrs, map[string]interface{}{
		"amount":         p.AmountIn,
		"min_sol_output": p.MinOut,
	})
	if err != nil {
		return platform.TradeInstructions{}, err
	}
	return platform.TradeInstructions{Trade: ix}, nil
}

// accounts resolves the roles shared by buy and sell
func (b *Builder) accounts(p platform.TradeParams) (map[string]solana.PublicKey, error) {
	if p.Curve.Creator.IsZero() {
		return nil, fmt.Errorf("curve state has no creator for mint %s", p.Mint)
	}

	curve, err := b.addrs.Curve(p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonding curve: %w", err)
	}
	vault, err := b.addrs.vaultOf(curve, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive associated bonding curve: %w", err)
	}
	userATA, err := b.addrs.UserTokenAccount(p.Trader, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user token account: %w", err)
	}
	creatorVault, err := b.addrs.CreatorVault(p.Curve.Creator)
	if err != nil {
		return nil, fmt.Errorf("failed to derive creator vault: %w", err)
	}

	return map[string]solana.PublicKey{
		"global":                   GlobalAccount,
		"fee_recipient":            FeeRecipient,
		"mint":                     p.Mint,
		"bonding_curve":            curve,
		"associated_bonding_curve": vault,
		"associated_user":          userATA,
		"user":                     p.Trader,
		"system_program":           solana.SystemProgramID,
		"token_program":            solana.TokenProgramID,
		"creator_vault":            creatorVault,
		"event_authority":          EventAuthority,
		"program":                  ProgramID,
	}, nil
}
