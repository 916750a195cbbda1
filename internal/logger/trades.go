package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TradeLog represents a trade journal entry
type TradeLog struct {
	Timestamp   time.Time `json:"timestamp"`
	Direction   string    `json:"direction"` // "buy" or "sell"
	Platform    string    `json:"platform"`
	Mint        string    `json:"mint"`
	TokenName   string    `json:"token_name,omitempty"`
	TokenSymbol string    `json:"token_symbol,omitempty"`
	AmountIn    uint64    `json:"amount_in"`
	AmountOut   uint64    `json:"amount_out"`
	MinOut      uint64    `json:"min_out"`
	Price       float64   `json:"price"`
	Signature   string    `json:"signature,omitempty"`
	Attempts    int       `json:"attempts"`
	Status      string    `json:"status"` // "success", "failed" or "dry_run"
	Error       string    `json:"error,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
}

// TradeLogger appends trades to a daily JSONL file
type TradeLogger struct {
	baseDir string
	logger  *logrus.Logger
	mu      sync.Mutex
	now     func() time.Time
}

// NewTradeLogger creates a new trade logger
func NewTradeLogger(baseDir string, logger *logrus.Logger) (*TradeLogger, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trade log directory: %w", err)
	}

	return &TradeLogger{
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// LogTrade writes trade to the structured log and the daily trade file
func (tl *TradeLogger) LogTrade(trade TradeLog) error {
	if trade.Timestamp.IsZero() {
		trade.Timestamp = tl.now()
	}

	entry := tl.logger.WithFields(logrus.Fields{
		"event":      "trade_logged",
		"direction":  trade.Direction,
		"platform":   trade.Platform,
		"mint":       trade.Mint,
		"amount_in":  trade.AmountIn,
		"amount_out": trade.AmountOut,
		"signature":  trade.Signature,
		"attempts":   trade.Attempts,
		"status":     trade.Status,
	})
	if trade.Error != "" {
		entry.WithField("error", trade.Error).Warn("📒 Trade logged")
	} else {
		entry.Info("📒 Trade logged")
	}

	line, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	return appendLine(tl.path(trade.Timestamp), line)
}

func (tl *TradeLogger) path(ts time.Time) string {
	return filepath.Join(tl.baseDir, fmt.Sprintf("trades_%s.jsonl", ts.Format("2006-01-02")))
}

func appendLine(path string, line []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
