// Package trader applies the trading policy to detected tokens and drives
// the execution engine.
package trader

import (
	"context"
	"errors"
	"sync"
	"time"

	"launch-sniper-go/internal/engine"
	"launch-sniper-go/internal/logger"
	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Executor is the engine as seen by the trader
type Executor interface {
	Buy(ctx context.Context, req engine.BuyRequest) engine.TradeResult
	Sell(ctx context.Context, req engine.SellRequest) engine.TradeResult
	Price(ctx context.Context, mint solana.PublicKey, p platform.Platform) (float64, platform.CurveState, error)
}

// Journal records trade results
type Journal interface {
	LogTrade(trade logger.TradeLog) error
}

// Config contains the trading policy
type Config struct {
	BuyAmount        uint64 // lamports
	Slippage         decimal.Decimal
	DryRun           bool
	MaxTokenAge      time.Duration
	MaxBuysPerMinute int
	Exit             ExitConfig
}

// Trader handles detected tokens
type Trader struct {
	cfg     Config
	exec    Executor
	journal Journal
	logger  *logrus.Entry
	locks   *keyedLock
	limiter *rate.Limiter
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewTrader creates a new trader instance. journal may be nil.
func NewTrader(cfg Config, exec Executor, journal Journal, logger *logrus.Logger) *Trader {
	limit := rate.Inf
	burst := 1
	if cfg.MaxBuysPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxBuysPerMinute))
		burst = cfg.MaxBuysPerMinute
	}

	return &Trader{
		cfg:     cfg,
		exec:    exec,
		journal: journal,
		logger:  logger.WithField("component", "trader"),
		locks:   newKeyedLock(),
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// HandleToken is the listener hub handler. It returns immediately; the
// trade runs in its own goroutine.
func (t *Trader) HandleToken(ctx context.Context, info platform.TokenInfo) {
	if ok, reason := t.ShouldBuy(info); !ok {
		t.logger.WithFields(logrus.Fields{
			"mint":   info.Mint,
			"symbol": info.Symbol,
			"reason": reason,
		}).Info("⏭️ Skipping token")
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		res := t.Buy(ctx, info)
		if res.Success && t.cfg.Exit.Enabled && !t.cfg.DryRun {
			t.watch(ctx, info, res)
		}
	}()
}

// ShouldBuy applies the age and rate limits
func (t *Trader) ShouldBuy(info platform.TokenInfo) (bool, string) {
	if t.cfg.MaxTokenAge > 0 && !info.CreatedAt.IsZero() {
		if age := t.now().Sub(info.CreatedAt); age > t.cfg.MaxTokenAge {
			return false, "token too old: " + age.Round(time.Millisecond).String()
		}
	}
	if !t.limiter.Allow() {
		return false, "buy rate limit reached"
	}
	return true, ""
}

// Buy spends the configured amount on info.Mint. Concurrent buys of the
// same mint run one at a time.
func (t *Trader) Buy(ctx context.Context, info platform.TokenInfo) engine.TradeResult {
	unlock, err := t.locks.lock(ctx, tradeKey{info.Mint, engine.Buy})
	if err != nil {
		return engine.TradeResult{Direction: engine.Buy, Mint: info.Mint, Platform: info.Platform, Err: err}
	}
	defer unlock()

	if t.cfg.DryRun {
		return t.dryRun(ctx, info)
	}

	res := t.exec.Buy(ctx, engine.BuyRequest{
		Mint:        info.Mint,
		Platform:    info.Platform,
		QuoteAmount: t.cfg.BuyAmount,
		MaxSlippage: t.cfg.Slippage,
	})
	t.record(info, res, "")
	return res
}

// Sell sells the full balance of info.Mint. Concurrent sells of the same
// mint run one at a time.
func (t *Trader) Sell(ctx context.Context, info platform.TokenInfo, reason string) engine.TradeResult {
	unlock, err := t.locks.lock(ctx, tradeKey{info.Mint, engine.Sell})
	if err != nil {
		return engine.TradeResult{Direction: engine.Sell, Mint: info.Mint, Platform: info.Platform, Err: err}
	}
	defer unlock()

	slippage := t.cfg.Exit.Slippage
	if slippage.IsZero() {
		slippage = t.cfg.Slippage
	}
	res := t.exec.Sell(ctx, engine.SellRequest{
		Mint:        info.Mint,
		Platform:    info.Platform,
		All:         true,
		MaxSlippage: slippage,
	})
	t.record(info, res, reason)
	return res
}

func (t *Trader) dryRun(ctx context.Context, info platform.TokenInfo) engine.TradeResult {
	res := engine.TradeResult{Direction: engine.Buy, Mint: info.Mint, Platform: info.Platform, AmountIn: t.cfg.BuyAmount}

	price, _, err := t.exec.Price(ctx, info.Mint, info.Platform)
	if err != nil {
		res.Err = err
	} else {
		res.Success = true
		res.Price = price
	}
	t.record(info, res, "dry_run")
	return res
}

// Wait blocks until every trade started by HandleToken has finished
func (t *Trader) Wait() {
	t.wg.Wait()
}

func (t *Trader) record(info platform.TokenInfo, res engine.TradeResult, reason string) {
	status := "success"
	switch {
	case t.cfg.DryRun && res.Direction == engine.Buy:
		status = "dry_run"
	case !res.Success:
		status = "failed"
	}

	p := res.Platform
	if p == "" {
		p = info.Platform
	}
	entry := logger.TradeLog{
		Direction:   string(res.Direction),
		Platform:    string(p),
		Mint:        info.Mint.String(),
		TokenName:   info.Name,
		TokenSymbol: info.Symbol,
		AmountIn:    res.AmountIn,
		AmountOut:   res.Amount,
		MinOut:      res.MinOut,
		Price:       res.Price,
		Attempts:    res.Attempts,
		Status:      status,
		Reason:      reason,
		DurationMs:  res.Duration.Milliseconds(),
	}
	if res.Signature != (solana.Signature{}) {
		entry.Signature = res.Signature.String()
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}

	fields := logrus.Fields{
		"direction": res.Direction,
		"mint":      info.Mint,
		"symbol":    info.Symbol,
		"attempts":  res.Attempts,
		"status":    status,
	}
	switch {
	case res.Success:
		t.logger.WithFields(fields).Info("🎯 Trade completed")
	case errors.Is(res.Err, context.Canceled):
		t.logger.WithFields(fields).Debug("🛑 Trade cancelled")
	default:
		t.logger.WithFields(fields).WithError(res.Err).Warn("❌ Trade failed")
	}

	if t.journal == nil {
		return
	}
	if err := t.journal.LogTrade(entry); err != nil {
		t.logger.WithError(err).Warn("⚠️ Failed to journal trade")
	}
}
