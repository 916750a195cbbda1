package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
	file   *os.File
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json", "text" or "" for the console format
	LogToFile   bool
	LogFilePath string
	TradeLogDir string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	if config.Level == "" {
		config.Level = "info"
	}
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	if config.TradeLogDir != "" {
		if err := os.MkdirAll(config.TradeLogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trade log directory %s: %w", config.TradeLogDir, err)
		}
	}

	l := &Logger{Logger: log, config: config}

	if config.LogToFile && config.LogFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.LogFilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFilePath, err)
		}
		l.file = f
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	return l, nil
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct {
	// NoColor disables ANSI level colors
	NoColor bool
}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	var levelColor, resetColor string
	if !f.NoColor {
		resetColor = "\033[0m"
		switch entry.Level {
		case logrus.DebugLevel, logrus.TraceLevel:
			levelColor = "\033[36m"
		case logrus.InfoLevel:
			levelColor = "\033[32m"
		case logrus.WarnLevel:
			levelColor = "\033[33m"
		default:
			levelColor = "\033[31m"
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s%s%s] %s", timestamp, levelColor, level, resetColor, entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, network, rpcURL string, fields logrus.Fields) {
	f := logrus.Fields{
		"event":   "startup",
		"version": version,
		"network": network,
		"rpc_url": rpcURL,
	}
	for k, v := range fields {
		f[k] = v
	}
	l.WithFields(f).Info("🚀 Bot starting up")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(reason string) {
	l.WithFields(logrus.Fields{
		"event":  "shutdown",
		"reason": reason,
	}).Info("🛑 Bot shutting down")
}
