package letsbonk

import (
	"fmt"

	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// Builder builds launchpad buy_exact_in and sell_exact_in instructions.
// The quote side goes through the trader's WSOL associated account, which is
// created before the trade and closed after it.
type Builder struct {
	addrs Addresses
}

// BuildBuy spends exactly AmountIn lamports for at least MinOut tokens
func (b *Builder) BuildBuy(p platform.TradeParams) (platform.TradeInstructions, error) {
	addrs, err := b.accounts(p)
	if err != nil {
		return platform.TradeInstructions{}, err
	}

	createWSOL, wsol, err := platform.CreateIdempotentATA(p.Trader, p.Trader, QuoteMint)
	if err != nil {
		return platform.TradeInstructions{}, fmt.Errorf("failed to build WSOL account instruction: %w", err)
	}
	createBase, _, err := platform.CreateIdempotentATA(p.Trader, p.Trader, p.Mint)
	if err != nil {
		return platform.TradeInstructions{}, fmt.Errorf("failed to build ATA instruction: %w", err)
	}

	ix, err := platform.BuildInstruction(IDL, ProgramID, "buy_exact_in", addrs, map[string]interface{}{
		"amount_in":          p.AmountIn,
		"minimum_amount_out": p.MinOut,
		"share_fee_rate":     uint64(0),
	})
	if err != nil {
		return platform.TradeInstructions{}, err
	}

	return platform.TradeInstructions{
		Pre: []solana.Instruction{
			createWSOL,
			system.NewTransferInstruction(p.AmountIn, p.Trader, wsol).Build(),
			token.NewSyncNativeInstruction(wsol).Build(),
			createBase,
		},
		Trade: ix,
		Post:  []solana.Instruction{closeWSOL(wsol, p.Trader)},
	}, nil
}

// BuildSell sells exactly AmountIn tokens for at least MinOut lamports
func (b *Builder) BuildSell(p platform.TradeParams) (platform.TradeInstructions, error) {
	addrs, err := b.accounts(p)
	if err != nil {
		return platform.TradeInstructions{}, err
	}

	createWSOL, wsol, err := platform.CreateIdempotentATA(p.Trader, p.Trader, QuoteMint)
	if err != nil {
		return platform.TradeInstructions{}, fmt.Errorf("failed to build WSOL account instruction: %w", err)
	}

	ix, err := platform.BuildInstruction(IDL, ProgramID, "sell_exact_in", addrs, map[string]interface{}{
		"amount_in":          p.AmountIn,
		"minimum_amount_out": p.MinOut,
		"share_fee_rate":     uint64(0),
	})
	if err != nil {
		return platform.TradeInstructions{}, err
	}

	return platform.TradeInstructions{
		Pre:   []solana.Instruction{createWSOL},
		Trade: ix,
		Post:  []solana.Instruction{closeWSOL(wsol, p.Trader)},
	}, nil
}

// closeWSOL unwraps the remaining WSOL back to the owner
func closeWSOL(wsol, owner solana.PublicKey) solana.Instruction {
	return token.NewCloseAccountInstruction(wsol, owner, owner, nil).Build()
}

func (b *Builder) accounts(p platform.TradeParams) (map[string]solana.PublicKey, error) {
	pool, err := b.addrs.Curve(p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive pool state: %w", err)
	}
	baseVault, err := b.addrs.vaultOf(pool, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive base vault: %w", err)
	}
	quoteVault, err := b.addrs.vaultOf(pool, QuoteMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive quote vault: %w", err)
	}
	authority, err := b.addrs.Authority()
	if err != nil {
		return nil, fmt.Errorf("failed to derive authority: %w", err)
	}
	eventAuthority, err := b.addrs.EventAuthority()
	if err != nil {
		return nil, fmt.Errorf("failed to derive event authority: %w", err)
	}
	userBase, err := b.addrs.UserTokenAccount(p.Trader, p.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user token account: %w", err)
	}
	userQuote, err := b.addrs.UserTokenAccount(p.Trader, QuoteMint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user WSOL account: %w", err)
	}

	return map[string]solana.PublicKey{
		"payer":               p.Trader,
		"authority":           authority,
		"global_config":       GlobalConfig,
		"platform_config":     PlatformConfig,
		"pool_state":          pool,
		"user_base_token":     userBase,
		"user_quote_token":    userQuote,
		"base_vault":          baseVault,
		"quote_vault":         quoteVault,
		"base_token_mint":     p.Mint,
		"quote_token_mint":    QuoteMint,
		"base_token_program":  solana.TokenProgramID,
		"quote_token_program": solana.TokenProgramID,
		"event_authority":     eventAuthority,
		"program":             ProgramID,
	}, nil
}
