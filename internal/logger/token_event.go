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

// TokenDetection is one detected token creation as written to the journal
type TokenDetection struct {
	Mint       string    `json:"mint"`
	Name       string    `json:"name"`
	Symbol     string    `json:"symbol"`
	URI        string    `json:"uri,omitempty"`
	Creator    string    `json:"creator"`
	Platform   string    `json:"platform"`
	Source     string    `json:"source"`
	Signature  string    `json:"signature,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	DetectedAt time.Time `json:"detected_at"`
	LatencyMs  int64     `json:"latency_ms"`
	Accepted   bool      `json:"accepted"`
	Reason     string    `json:"reason,omitempty"`
}

// TokenLogger writes detections to tokens_<date>.jsonl and the main log
type TokenLogger struct {
	baseDir string
	logger  *logrus.Logger
	mu      sync.Mutex
}

// NewTokenLogger creates a token journal in baseDir. An empty baseDir only
// logs to the structured log.
func NewTokenLogger(baseDir string, logger *logrus.Logger) (*TokenLogger, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create token log directory: %w", err)
		}
	}
	return &TokenLogger{baseDir: baseDir, logger: logger}, nil
}

// LogDetection records d. The log level follows detection latency: fresh
// tokens log at info, slow ones at warn.
func (tl *TokenLogger) LogDetection(d TokenDetection) error {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now()
	}
	if d.LatencyMs == 0 && !d.CreatedAt.IsZero() {
		d.LatencyMs = d.DetectedAt.Sub(d.CreatedAt).Milliseconds()
	}

	entry := tl.logger.WithFields(logrus.Fields{
		"event":      "token_discovered",
		"mint":       d.Mint,
		"name":       d.Name,
		"symbol":     d.Symbol,
		"creator":    d.Creator,
		"platform":   d.Platform,
		"source":     d.Source,
		"latency_ms": d.LatencyMs,
		"accepted":   d.Accepted,
	})
	if d.Reason != "" {
		entry = entry.WithField("reason", d.Reason)
	}
	entry.Log(detectionLevel(d), formatDetection(d))

	if tl.baseDir == "" {
		return nil
	}
	line, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal detection: %w", err)
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()
	path := filepath.Join(tl.baseDir, fmt.Sprintf("tokens_%s.jsonl", d.DetectedAt.Format("2006-01-02")))
	return appendLine(path, line)
}

func detectionLevel(d TokenDetection) logrus.Level {
	switch {
	case !d.Accepted:
		return logrus.DebugLevel
	case d.LatencyMs > 5000:
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

func formatDetection(d TokenDetection) string {
	var indicator string
	switch {
	case d.LatencyMs < 50:
		indicator = "⚡"
	case d.LatencyMs < 200:
		indicator = "🚀"
	case d.LatencyMs < 500:
		indicator = "🎯"
	case d.LatencyMs < 1000:
		indicator = "⏳"
	default:
		indicator = "🐌"
	}
	if !d.Accepted {
		indicator = "✗"
	}

	return fmt.Sprintf("%s TOKEN DISCOVERED: %s (%s) | Mint: %s | Source: %s | Latency: %dms",
		indicator, d.Name, d.Symbol, d.Mint, d.Source, d.LatencyMs)
}
