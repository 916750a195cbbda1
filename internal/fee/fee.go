// Package fee produces priority fee quotes in micro-lamports per compute unit.
package fee

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Strategy returns a priority fee, or false when no fee should be attached.
// A strategy never fails: lookup problems degrade to no fee.
type Strategy interface {
	Fee(ctx context.Context) (uint64, bool)
}

// Fixed always quotes the same price
type Fixed struct {
	Price uint64
}

// Fee returns the configured price, or none when it is zero
func (f Fixed) Fee(context.Context) (uint64, bool) {
	return f.Price, f.Price > 0
}

// Manager adds a flat extra on top of a strategy and clamps to a hard cap
type Manager struct {
	strategy Strategy
	extra    uint64
	cap      uint64
	log      *logrus.Entry
}

// NewManager wraps strategy. cap of zero disables clamping.
func NewManager(strategy Strategy, extra, cap uint64, log *logrus.Logger) *Manager {
	if strategy == nil {
		strategy = Fixed{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		strategy: strategy,
		extra:    extra,
		cap:      cap,
		log:      log.WithField("component", "fee"),
	}
}

// Fee returns strategy output plus extra, reclamped to the cap
func (m *Manager) Fee(ctx context.Context) (uint64, bool) {
	base, ok := m.strategy.Fee(ctx)
	if !ok {
		base = 0
	}

	price := base + m.extra
	if price < base {
		price = ^uint64(0)
	}
	if m.cap > 0 && price > m.cap {
		price = m.cap
	}

	m.log.WithFields(logrus.Fields{
		"strategy_fee": base,
		"extra":        m.extra,
		"price":        price,
	}).Debug("💸 Priority fee quoted")

	return price, price > 0
}
