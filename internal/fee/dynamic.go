package fee

import (
	"context"
	"math/big"
	"sort"

	"launch-sniper-go/pkg/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sample is one recent prioritization fee observation
type Sample struct {
	Slot uint64
	Fee  uint64
}

// Sampler queries recent prioritization fees paid by transactions that
// locked the given accounts.
type Sampler interface {
	RecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]Sample, error)
}

// DynamicConfig tunes the dynamic strategy
type DynamicConfig struct {
	// Window is how many of the most recent samples are considered
	Window int
	// Percentile over the window, 50 is the median
	Percentile float64
	Multiplier decimal.Decimal
	// Cap of zero disables clamping
	Cap uint64
	// Accounts narrows the query to fees paid around these accounts
	Accounts []solana.PublicKey
}

// Dynamic derives the fee from what recent transactions paid
type Dynamic struct {
	sampler Sampler
	cfg     DynamicConfig
	log     *logrus.Entry
}

// NewDynamic creates a dynamic strategy. Zero values fall back to a window of
// 150 slots, the median and a multiplier of one.
func NewDynamic(sampler Sampler, cfg DynamicConfig, log *logrus.Logger) *Dynamic {
	if cfg.Window <= 0 {
		cfg.Window = 150
	}
	if cfg.Percentile <= 0 {
		cfg.Percentile = 50
	}
	if cfg.Multiplier.Sign() <= 0 {
		cfg.Multiplier = decimal.NewFromInt(1)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dynamic{
		sampler: sampler,
		cfg:     cfg,
		log:     log.WithField("component", "fee"),
	}
}

// Fee returns percentile(recent fees) * multiplier, capped. Query errors and
// empty windows yield none.
func (d *Dynamic) Fee(ctx context.Context) (uint64, bool) {
	samples, err := d.sampler.RecentPrioritizationFees(ctx, d.cfg.Accounts)
	if err != nil {
		d.log.WithError(err).Debug("⚠️ Priority fee lookup failed, sending without fee")
		return 0, false
	}
	if len(samples) == 0 {
		return 0, false
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i].Slot > samples[j].Slot })
	if len(samples) > d.cfg.Window {
		samples = samples[:d.cfg.Window]
	}

	fees := make([]uint64, len(samples))
	for i, s := range samples {
		fees[i] = s.Fee
	}
	stat := utils.Percentile(fees, d.cfg.Percentile)

	price := decimal.NewFromBigInt(new(big.Int).SetUint64(stat), 0).
		Mul(d.cfg.Multiplier).
		Floor()
	v := price.BigInt()
	out := ^uint64(0)
	if v.IsUint64() {
		out = v.Uint64()
	}
	if d.cfg.Cap > 0 && out > d.cfg.Cap {
		out = d.cfg.Cap
	}

	d.log.WithFields(logrus.Fields{
		"samples":    len(samples),
		"percentile": d.cfg.Percentile,
		"statistic":  stat,
		"price":      out,
	}).Debug("📊 Dynamic priority fee")

	return out, out > 0
}
