package trader

import (
	"context"
	"errors"
	"time"

	"launch-sniper-go/internal/engine"
	"launch-sniper-go/internal/platform"
	"launch-sniper-go/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ExitConfig drives the position exit watcher. Percentages are whole
// percent (50 means +50%); zero disables a rule.
type ExitConfig struct {
	Enabled      bool
	TakeProfit   decimal.Decimal
	StopLoss     decimal.Decimal
	MaxHold      time.Duration
	PollInterval time.Duration
	Slippage     decimal.Decimal
}

// Exit reasons
const (
	ExitTakeProfit = "take_profit"
	ExitStopLoss   = "stop_loss"
	ExitMaxHold    = "max_hold"
)

// exitSignal returns the exit reason for a position bought at entry now
// priced at current and held for held, or "" to keep holding
func (c ExitConfig) exitSignal(entry, current decimal.Decimal, held time.Duration) string {
	if c.MaxHold > 0 && held >= c.MaxHold {
		return ExitMaxHold
	}
	if entry.Sign() <= 0 {
		return ""
	}
	change := utils.PercentChange(entry, current)
	if c.TakeProfit.Sign() > 0 && change.GreaterThanOrEqual(c.TakeProfit) {
		return ExitTakeProfit
	}
	if c.StopLoss.Sign() > 0 && change.LessThanOrEqual(c.StopLoss.Neg()) {
		return ExitStopLoss
	}
	return ""
}

// watch polls the curve price of a bought token and sells the full balance
// when an exit rule fires
func (t *Trader) watch(ctx context.Context, info platform.TokenInfo, buy engine.TradeResult) {
	interval := t.cfg.Exit.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	entry := decimal.NewFromFloat(buy.Price)
	start := t.now()

	log := t.logger.WithFields(logrus.Fields{"mint": info.Mint, "symbol": info.Symbol})
	log.WithField("entry_price", buy.Price).Info("👀 Watching position")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current := entry
		price, _, err := t.exec.Price(ctx, info.Mint, info.Platform)
		var complete *engine.CurveCompleteError
		switch {
		case errors.As(err, &complete):
			log.Info("🎓 Curve completed, position left to the post-graduation market")
			return
		case err != nil:
			log.WithError(err).Debug("⚠️ Price check failed")
		default:
			current = decimal.NewFromFloat(price)
		}

		reason := t.cfg.Exit.exitSignal(entry, current, t.now().Sub(start))
		if reason == "" {
			continue
		}

		log.WithFields(logrus.Fields{
			"reason":        reason,
			"entry_price":   buy.Price,
			"current_price": current.String(),
		}).Info("🚪 Exit signal")
		t.Sell(ctx, info, reason)
		return
	}
}
