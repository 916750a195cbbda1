// Command sell liquidates the wallet's full balance of one or more tokens
// still trading on their bonding curve.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"launch-sniper-go/internal/app"
	"launch-sniper-go/internal/config"
	"launch-sniper-go/internal/engine"
	"launch-sniper-go/internal/logger"
	"launch-sniper-go/internal/platform"
	"launch-sniper-go/internal/trader"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	configFile   = flag.String("config", "", "Path to config file")
	envFile      = flag.String("env", "", "Path to .env file")
	mints        = flag.String("mints", "", "Comma-separated token mints to sell")
	platformFlag = flag.String("platform", "", "Platform of the mints (resolved on chain when empty)")
	slippageBP   = flag.Int("slippage-bp", 0, "Slippage in basis points (default: exit.slippage_bp)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		TradeLogDir: cfg.Logging.TradeLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	targets, err := parseMints(*mints)
	if err != nil {
		log.WithError(err).Fatal("Invalid -mints")
	}

	var p platform.Platform
	if *platformFlag != "" {
		if p, err = platform.ParsePlatform(*platformFlag); err != nil {
			log.WithError(err).Fatal("Invalid -platform")
		}
	}

	slippage := cfg.GetExitSlippage()
	if *slippageBP > 0 {
		slippage = decimal.New(int64(*slippageBP), -4)
	}

	cfg.Trading.DryRun = false
	stack, err := app.NewStack(cfg, log.Logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to build execution stack")
	}

	tradeLogger, err := logger.NewTradeLogger(cfg.Logging.TradeLogDir, log.Logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to create trade logger")
	}

	tr := trader.NewTrader(trader.Config{
		Exit: trader.ExitConfig{Slippage: slippage},
	}, stack.Engine, tradeLogger, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, mint := range targets {
		res := tr.Sell(ctx, platform.TokenInfo{Mint: mint, Platform: p}, "manual")
		fields := logrus.Fields{
			"mint":     mint,
			"platform": res.Platform,
			"amount":   res.AmountIn,
			"attempts": res.Attempts,
		}
		switch {
		case res.Success:
			log.WithFields(fields).WithField("signature", res.Signature).Info("💰 Sold")
		case errors.Is(res.Err, engine.ErrNothingToSell):
			log.WithFields(fields).Info("🫙 Nothing to sell")
		default:
			failed++
			log.WithFields(fields).WithError(res.Err).Error("❌ Sell failed")
		}
		if ctx.Err() != nil {
			break
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func parseMints(s string) ([]solana.PublicKey, error) {
	var out []solana.PublicKey
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, err := solana.PublicKeyFromBase58(part)
		if err != nil {
			return nil, fmt.Errorf("invalid mint %q: %w", part, err)
		}
		out = append(out, key)
	}
	if len(out) == 0 {
		return nil, errors.New("at least one mint is required")
	}
	return out, nil
}
