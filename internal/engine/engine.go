// Package engine turns a trade intent into a confirmed transaction against
// the owning platform's program.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/platform"
	"launch-sniper-go/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Network is the read side of the RPC node the engine needs
type Network interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SignatureStatus(ctx context.Context, sig solana.Signature, searchHistory bool) (client.TxStatus, error)
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error)
}

// Submitter sends a signed transaction. The RPC client and the Jito block
// engine client both implement it.
type Submitter interface {
	Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Tipper is implemented by submitters that expect a tip instruction in
// every transaction
type Tipper interface {
	TipInstruction(ctx context.Context, payer solana.PublicKey) (solana.Instruction, error)
}

// Signer is the wallet collaborator
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// FeeQuoter returns the priority fee in micro-lamports per compute unit, or false for none
type FeeQuoter interface {
	Fee(ctx context.Context) (uint64, bool)
}

// Adapters finds the platform adapter of a mint
type Adapters interface {
	Get(p platform.Platform) (*platform.Adapter, error)
	Resolve(ctx context.Context, mint solana.PublicKey) (*platform.Adapter, error)
}

// Direction of a trade
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Backoff modes between attempts
const (
	BackoffFixed  = "fixed"
	BackoffLinear = "linear"
)

// Config contains engine settings
type Config struct {
	MaxAttempts      int
	Backoff          string
	RetryDelay       time.Duration
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
	ComputeUnitLimit uint32
}

// BuyRequest spends QuoteAmount lamports on Mint. An empty Platform is
// resolved from chain.
type BuyRequest struct {
	Mint        solana.PublicKey
	Platform    platform.Platform
	QuoteAmount uint64
	MaxSlippage decimal.Decimal
}

// SellRequest sells Amount tokens, or the whole balance when All is set
type SellRequest struct {
	Mint        solana.PublicKey
	Platform    platform.Platform
	Amount      uint64
	All         bool
	MaxSlippage decimal.Decimal
}

// TradeResult is the outcome of a buy or sell. Err is one of the typed
// errors of this package, or a resolution/read error.
type TradeResult struct {
	Success   bool
	Direction Direction
	Platform  platform.Platform
	Mint      solana.PublicKey
	Signature solana.Signature
	AmountIn  uint64
	// Amount is the expected output at the fetched curve state
	Amount   uint64
	MinOut   uint64
	Price    float64
	Attempts int
	Duration time.Duration
	Err      error
}

// Engine executes trades
type Engine struct {
	cfg       Config
	adapters  Adapters
	network   Network
	submitter Submitter
	signer    Signer
	fees      FeeQuoter
	logger    *logrus.Entry
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates an engine
func New(cfg Config, adapters Adapters, network Network, submitter Submitter, signer Signer, fees FeeQuoter, logger *logrus.Logger) *Engine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff == "" {
		cfg.Backoff = BackoffFixed
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	return &Engine{
		cfg:       cfg,
		adapters:  adapters,
		network:   network,
		submitter: submitter,
		signer:    signer,
		fees:      fees,
		logger:    logger.WithField("component", "engine"),
		sleep:     sleepCtx,
	}
}

// Buy executes req. Failures are reported in TradeResult.Err.
func (e *Engine) Buy(ctx context.Context, req BuyRequest) TradeResult {
	start := time.Now()
	res := TradeResult{Direction: Buy, Mint: req.Mint, AmountIn: req.QuoteAmount}
	defer func() { res.Duration = time.Since(start) }()

	adapter, state, err := e.prepare(ctx, req.Mint, req.Platform)
	if adapter != nil {
		res.Platform = adapter.Platform
	}
	if err != nil {
		res.Err = err
		return res
	}

	res.Price = adapter.Curves.Price(state)
	res.Amount = adapter.Curves.BuyOut(state, req.QuoteAmount)
	res.MinOut = utils.ApplySlippage(res.Amount, req.MaxSlippage)
	if res.MinOut == 0 || res.MinOut > state.AvailableBase {
		res.Err = &SlippageExceededError{Mint: req.Mint, Expected: res.Amount, MinOut: res.MinOut, Available: state.AvailableBase}
		return res
	}

	ixs, err := adapter.Builder.BuildBuy(platform.TradeParams{
		Mint:     req.Mint,
		Trader:   e.signer.PublicKey(),
		AmountIn: req.QuoteAmount,
		MinOut:   res.MinOut,
		Curve:    state,
	})
	if err != nil {
		res.Err = &SubmissionError{Mint: req.Mint, Err: fmt.Errorf("failed to build buy: %w", err)}
		return res
	}

	e.logger.WithFields(logrus.Fields{
		"mint":         req.Mint,
		"platform":     adapter.Platform,
		"amount_in":    req.QuoteAmount,
		"expected_out": res.Amount,
		"min_out":      res.MinOut,
	}).Info("🛒 Executing buy")

	res.Signature, res.Attempts, res.Err = e.execute(ctx, req.Mint, ixs.All())
	res.Success = res.Err == nil
	return res
}

// Sell executes req. Failures are reported in TradeResult.Err.
func (e *Engine) Sell(ctx context.Context, req SellRequest) TradeResult {
	start := time.Now()
	res := TradeResult{Direction: Sell, Mint: req.Mint, AmountIn: req.Amount}
	defer func() { res.Duration = time.Since(start) }()

	adapter, state, err := e.prepare(ctx, req.Mint, req.Platform)
	if adapter != nil {
		res.Platform = adapter.Platform
	}
	if err != nil {
		res.Err = err
		return res
	}

	if req.All {
		balance, err := e.network.TokenBalance(ctx, e.signer.PublicKey(), req.Mint)
		if err != nil && !errors.Is(err, platform.ErrAccountNotFound) {
			res.Err = fmt.Errorf("failed to read token balance: %w", err)
			return res
		}
		res.AmountIn = balance
	}
	if res.AmountIn == 0 {
		res.Err = &SubmissionError{Mint: req.Mint, Err: ErrNothingToSell}
		return res
	}

	res.Price = adapter.Curves.Price(state)
	res.Amount = adapter.Curves.SellOut(state, res.AmountIn)
	res.MinOut = utils.ApplySlippage(res.Amount, req.MaxSlippage)
	if res.MinOut == 0 || res.MinOut > state.AvailableQuote {
		res.Err = &SlippageExceededError{Mint: req.Mint, Expected: res.Amount, MinOut: res.MinOut, Available: state.AvailableQuote}
		return res
	}

	ixs, err := adapter.Builder.BuildSell(platform.TradeParams{
		Mint:     req.Mint,
		Trader:   e.signer.PublicKey(),
		AmountIn: res.AmountIn,
		MinOut:   res.MinOut,
		Curve:    state,
	})
	if err != nil {
		res.Err = &SubmissionError{Mint: req.Mint, Err: fmt.Errorf("failed to build sell: %w", err)}
		return res
	}

	e.logger.WithFields(logrus.Fields{
		"mint":         req.Mint,
		"platform":     adapter.Platform,
		"amount_in":    res.AmountIn,
		"expected_out": res.Amount,
		"min_out":      res.MinOut,
	}).Info("💰 Executing sell")

	res.Signature, res.Attempts, res.Err = e.execute(ctx, req.Mint, ixs.All())
	res.Success = res.Err == nil
	return res
}

// prepare resolves the adapter and fetches a fresh curve state
func (e *Engine) prepare(ctx context.Context, mint solana.PublicKey, p platform.Platform) (*platform.Adapter, platform.CurveState, error) {
	var adapter *platform.Adapter
	var err error
	if p != "" {
		adapter, err = e.adapters.Get(p)
	} else {
		adapter, err = e.adapters.Resolve(ctx, mint)
	}
	if err != nil {
		return nil, platform.CurveState{}, err
	}

	state, err := adapter.Curves.FetchState(ctx, mint)
	if err != nil {
		return adapter, platform.CurveState{}, fmt.Errorf("failed to fetch curve state: %w", err)
	}
	if state.Complete {
		return adapter, state, &CurveCompleteError{Mint: mint, Platform: adapter.Platform}
	}
	return adapter, state, nil
}

// Price returns the current spot price of mint in SOL per whole token
func (e *Engine) Price(ctx context.Context, mint solana.PublicKey, p platform.Platform) (float64, platform.CurveState, error) {
	adapter, state, err := e.prepare(ctx, mint, p)
	if err != nil {
		return 0, state, err
	}
	return adapter.Curves.Price(state), state, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
