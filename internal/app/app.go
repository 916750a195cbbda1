// Package app builds the execution stack shared by the binaries.
package app

import (
	"errors"
	"fmt"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/config"
	"launch-sniper-go/internal/engine"
	"launch-sniper-go/internal/fee"
	"launch-sniper-go/internal/platform"
	"launch-sniper-go/internal/platform/letsbonk"
	"launch-sniper-go/internal/platform/pumpfun"
	"launch-sniper-go/internal/wallet"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Stack is the wired execution path
type Stack struct {
	RPC      *client.Client
	Registry *platform.Registry
	Engine   *engine.Engine
}

// NewStack wires the RPC client, platform registry, signer, fee manager and
// engine from cfg
func NewStack(cfg *config.Config, logger *logrus.Logger) (*Stack, error) {
	rpc := client.New(client.Config{
		RPCEndpoint:   cfg.RPCUrl,
		APIKey:        cfg.RPCAPIKey,
		Timeout:       cfg.GetRPCTimeout(),
		SkipPreflight: cfg.Retry.SkipPreflight,
	}, logger)

	registry, err := NewRegistry(cfg.Platform.Enabled, rpc)
	if err != nil {
		return nil, err
	}

	signer, err := NewSigner(cfg, logger)
	if err != nil {
		return nil, err
	}

	var submitter engine.Submitter = rpc
	if cfg.JITO.Enabled {
		logger.Info("🛡️ Submitting through the Jito block engine")
		submitter = client.NewJitoClient(client.JitoConfig{
			Endpoint:    cfg.JITO.Endpoint,
			APIKey:      cfg.JITO.APIKey,
			TipLamports: cfg.JITO.TipLamports,
			Timeout:     cfg.GetRPCTimeout(),
		}, logger)
	}

	eng := engine.New(engine.Config{
		MaxAttempts:      cfg.Retry.MaxAttempts,
		Backoff:          cfg.Retry.Backoff,
		RetryDelay:       cfg.GetRetryDelay(),
		ConfirmTimeout:   cfg.GetConfirmTimeout(),
		PollInterval:     cfg.GetConfirmPollInterval(),
		ComputeUnitLimit: cfg.Fee.ComputeUnitLimit,
	}, registry, rpc, submitter, signer, NewFeeManager(cfg.Fee, rpc, registry, logger), logger)

	return &Stack{RPC: rpc, Registry: registry, Engine: eng}, nil
}

// NewRegistry registers an adapter for every enabled platform name
func NewRegistry(enabled []string, reader platform.AccountReader) (*platform.Registry, error) {
	registry := platform.NewRegistry(reader)
	for _, name := range enabled {
		p, err := platform.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		switch p {
		case platform.PumpFun:
			registry.Register(pumpfun.New(reader))
		case platform.LetsBonk:
			registry.Register(letsbonk.New(reader))
		}
	}
	if len(registry.Platforms()) == 0 {
		return nil, errors.New("no platforms enabled")
	}
	return registry, nil
}

// NewFeeManager builds the configured fee strategy. Dynamic quotes sample
// fees paid around the registered platform programs.
func NewFeeManager(cfg config.FeeConfig, sampler fee.Sampler, registry *platform.Registry, logger *logrus.Logger) *fee.Manager {
	var strategy fee.Strategy = fee.Fixed{Price: cfg.FixedMicroLamports}
	if cfg.Mode == config.FeeModeDynamic {
		var programs []solana.PublicKey
		for _, a := range registry.Adapters() {
			programs = append(programs, a.ProgramID)
		}
		strategy = fee.NewDynamic(sampler, fee.DynamicConfig{
			Window:     cfg.Window,
			Percentile: cfg.Percentile,
			Multiplier: decimal.NewFromFloat(cfg.Multiplier),
			Accounts:   programs,
		}, logger)
	}
	return fee.NewManager(strategy, cfg.Extra, cfg.Cap, logger)
}

// dryRunSigner stands in for the wallet when no key is configured. Dry runs
// never reach the signing step.
type dryRunSigner struct{}

func (dryRunSigner) PublicKey() solana.PublicKey { return solana.PublicKey{} }

func (dryRunSigner) SignTransaction(*solana.Transaction) error {
	return errors.New("dry run: no wallet configured")
}

// NewSigner loads the wallet, or a placeholder in dry-run mode without keys
func NewSigner(cfg *config.Config, logger *logrus.Logger) (engine.Signer, error) {
	if cfg.Wallet.PrivateKey == "" && cfg.Wallet.Mnemonic == "" && cfg.Trading.DryRun {
		logger.Warn("🧪 Dry run without a wallet")
		return dryRunSigner{}, nil
	}

	w, err := wallet.New(wallet.Config{
		PrivateKey: cfg.Wallet.PrivateKey,
		Mnemonic:   cfg.Wallet.Mnemonic,
		Passphrase: cfg.Wallet.Passphrase,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return w, nil
}
