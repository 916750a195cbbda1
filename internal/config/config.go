package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Network settings
	Network   string `mapstructure:"network" yaml:"network"`
	RPCUrl    string `mapstructure:"rpc_url" yaml:"rpc_url"`
	WSUrl     string `mapstructure:"ws_url" yaml:"ws_url"`
	RPCAPIKey string `mapstructure:"rpc_api_key" yaml:"rpc_api_key"`

	Wallet   WalletConfig   `mapstructure:"wallet" yaml:"wallet"`
	Platform PlatformConfig `mapstructure:"platform" yaml:"platform"`
	Trading  TradingConfig  `mapstructure:"trading" yaml:"trading"`
	Exit     ExitConfig     `mapstructure:"exit" yaml:"exit"`
	Fee      FeeConfig      `mapstructure:"fee" yaml:"fee"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Listener ListenerConfig `mapstructure:"listener" yaml:"listener"`
	JITO     JitoConfig     `mapstructure:"jito" yaml:"jito"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// WalletConfig holds the signing key. Exactly one of PrivateKey and Mnemonic is used;
// PrivateKey wins when both are set.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key" yaml:"private_key"`
	Mnemonic   string `mapstructure:"mnemonic" yaml:"mnemonic"`
	Passphrase string `mapstructure:"passphrase" yaml:"passphrase"`
}

// PlatformConfig selects the launch platforms the bot watches
type PlatformConfig struct {
	Default string   `mapstructure:"default" yaml:"default"`
	Enabled []string `mapstructure:"enabled" yaml:"enabled"`
}

// TradingConfig contains trading-related settings
type TradingConfig struct {
	BuyAmountSOL     float64 `mapstructure:"buy_amount_sol" yaml:"buy_amount_sol"`
	SlippageBP       int     `mapstructure:"slippage_bp" yaml:"slippage_bp"`
	DryRun           bool    `mapstructure:"dry_run" yaml:"dry_run"`
	MaxTokenAgeMs    int64   `mapstructure:"max_token_age_ms" yaml:"max_token_age_ms"`
	MaxBuysPerMinute int     `mapstructure:"max_buys_per_minute" yaml:"max_buys_per_minute"`
}

// ExitConfig drives the position exit watcher
type ExitConfig struct {
	Enabled           bool    `mapstructure:"enabled" yaml:"enabled"`
	TakeProfitPercent float64 `mapstructure:"take_profit_percent" yaml:"take_profit_percent"`
	StopLossPercent   float64 `mapstructure:"stop_loss_percent" yaml:"stop_loss_percent"`
	MaxHoldSeconds    int     `mapstructure:"max_hold_seconds" yaml:"max_hold_seconds"`
	PollIntervalMs    int     `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	SlippageBP        int     `mapstructure:"slippage_bp" yaml:"slippage_bp"`
}

// FeeConfig configures priority fees and the compute budget
type FeeConfig struct {
	Mode               string  `mapstructure:"mode" yaml:"mode"` // "fixed" or "dynamic"
	FixedMicroLamports uint64  `mapstructure:"fixed_micro_lamports" yaml:"fixed_micro_lamports"`
	Percentile         float64 `mapstructure:"percentile" yaml:"percentile"`
	Window             int     `mapstructure:"window" yaml:"window"`
	Multiplier         float64 `mapstructure:"multiplier" yaml:"multiplier"`
	Cap                uint64  `mapstructure:"cap" yaml:"cap"`
	Extra              uint64  `mapstructure:"extra" yaml:"extra"`
	ComputeUnitLimit   uint32  `mapstructure:"compute_unit_limit" yaml:"compute_unit_limit"`
}

// RetryConfig bounds submission attempts and network waits
type RetryConfig struct {
	MaxAttempts         int    `mapstructure:"max_attempts" yaml:"max_attempts"`
	Backoff             string `mapstructure:"backoff" yaml:"backoff"` // "fixed" or "linear"
	DelayMs             int    `mapstructure:"delay_ms" yaml:"delay_ms"`
	RPCTimeoutMs        int    `mapstructure:"rpc_timeout_ms" yaml:"rpc_timeout_ms"`
	ConfirmTimeoutSec   int    `mapstructure:"confirm_timeout_sec" yaml:"confirm_timeout_sec"`
	ConfirmPollInterval int    `mapstructure:"confirm_poll_interval_ms" yaml:"confirm_poll_interval_ms"`
	SkipPreflight       bool   `mapstructure:"skip_preflight" yaml:"skip_preflight"`
}

// ListenerConfig selects detection transports and their connection policy
type ListenerConfig struct {
	Transports          []string     `mapstructure:"transports" yaml:"transports"`
	InitialBackoffMs    int          `mapstructure:"initial_backoff_ms" yaml:"initial_backoff_ms"`
	MaxBackoffMs        int          `mapstructure:"max_backoff_ms" yaml:"max_backoff_ms"`
	HandshakeTimeoutSec int          `mapstructure:"handshake_timeout_sec" yaml:"handshake_timeout_sec"`
	PingIntervalSec     int          `mapstructure:"ping_interval_sec" yaml:"ping_interval_sec"`
	GeyserEndpoint      string       `mapstructure:"geyser_endpoint" yaml:"geyser_endpoint"`
	GeyserToken         string       `mapstructure:"geyser_token" yaml:"geyser_token"`
	PortalURL           string       `mapstructure:"portal_url" yaml:"portal_url"`
	Filters             FilterConfig `mapstructure:"filters" yaml:"filters"`
}

// FilterConfig narrows which detected tokens reach the trader
type FilterConfig struct {
	AllowCreators []string `mapstructure:"allow_creators" yaml:"allow_creators"`
	DenyCreators  []string `mapstructure:"deny_creators" yaml:"deny_creators"`
	Platforms     []string `mapstructure:"platforms" yaml:"platforms"`
	MatchString   string   `mapstructure:"match_string" yaml:"match_string"`
}

// JitoConfig contains JITO-related settings
type JitoConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	TipLamports uint64 `mapstructure:"tip_lamports" yaml:"tip_lamports"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	LogToFile   bool   `mapstructure:"log_to_file" yaml:"log_to_file"`
	LogFilePath string `mapstructure:"log_file_path" yaml:"log_file_path"`
	TradeLogDir string `mapstructure:"trade_log_dir" yaml:"trade_log_dir"`
	TokenLogDir string `mapstructure:"token_log_dir" yaml:"token_log_dir"`
}

// LoadConfig loads configuration from file and environment variables.
// Environment variables use the SNIPER_ prefix, e.g. SNIPER_TRADING_BUY_AMOUNT_SOL.
func LoadConfig(configPath string, envPath string) (*Config, error) {
	if err := loadEnvFile(envPath); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.launch-sniper")
	}

	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVariables(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.WSUrl == "" {
		config.WSUrl = wsFromRPC(config.RPCUrl)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// loadEnvFile loads .env into the process environment. A missing default
// file is fine; a missing explicit path is not.
func loadEnvFile(envPath string) error {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}
	return nil
}

// bindEnvVariables accepts the bare variable names commonly found in .env files
func bindEnvVariables(v *viper.Viper) error {
	binds := map[string][]string{
		"rpc_url":                  {"SNIPER_RPC_URL", "RPC_URL", "SOLANA_NODE_RPC_ENDPOINT"},
		"ws_url":                   {"SNIPER_WS_URL", "WS_URL", "SOLANA_NODE_WSS_ENDPOINT"},
		"rpc_api_key":              {"SNIPER_RPC_API_KEY", "RPC_API_KEY"},
		"wallet.private_key":       {"SNIPER_WALLET_PRIVATE_KEY", "SOLANA_PRIVATE_KEY", "PRIVATE_KEY"},
		"wallet.mnemonic":          {"SNIPER_WALLET_MNEMONIC", "MNEMONIC"},
		"listener.geyser_endpoint": {"SNIPER_LISTENER_GEYSER_ENDPOINT", "GEYSER_ENDPOINT"},
		"listener.geyser_token":    {"SNIPER_LISTENER_GEYSER_TOKEN", "GEYSER_API_TOKEN"},
		"jito.api_key":             {"SNIPER_JITO_API_KEY", "JITO_API_KEY"},
	}
	for key, envs := range binds {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("network", "mainnet")
	v.SetDefault("rpc_url", SolanaMainnetRPC)
	v.SetDefault("ws_url", "")
	v.SetDefault("rpc_api_key", "")

	v.SetDefault("wallet.private_key", "")
	v.SetDefault("wallet.mnemonic", "")
	v.SetDefault("wallet.passphrase", "")

	v.SetDefault("platform.default", "pump_fun")
	v.SetDefault("platform.enabled", []string{"pump_fun", "lets_bonk"})

	v.SetDefault("trading.buy_amount_sol", 0.01)
	v.SetDefault("trading.slippage_bp", 2500)
	v.SetDefault("trading.dry_run", false)
	v.SetDefault("trading.max_token_age_ms", 5000)
	v.SetDefault("trading.max_buys_per_minute", 10)

	v.SetDefault("exit.enabled", false)
	v.SetDefault("exit.take_profit_percent", 50.0)
	v.SetDefault("exit.stop_loss_percent", 20.0)
	v.SetDefault("exit.max_hold_seconds", 300)
	v.SetDefault("exit.poll_interval_ms", 2000)
	v.SetDefault("exit.slippage_bp", 2500)

	v.SetDefault("fee.mode", FeeModeFixed)
	v.SetDefault("fee.fixed_micro_lamports", 200_000)
	v.SetDefault("fee.percentile", 50.0)
	v.SetDefault("fee.window", 150)
	v.SetDefault("fee.multiplier", 1.0)
	v.SetDefault("fee.cap", 2_000_000)
	v.SetDefault("fee.extra", 0)
	v.SetDefault("fee.compute_unit_limit", 100_000)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.backoff", BackoffFixed)
	v.SetDefault("retry.delay_ms", 500)
	v.SetDefault("retry.rpc_timeout_ms", 10_000)
	v.SetDefault("retry.confirm_timeout_sec", 30)
	v.SetDefault("retry.confirm_poll_interval_ms", 1000)
	v.SetDefault("retry.skip_preflight", true)

	v.SetDefault("listener.transports", []string{TransportLogs})
	v.SetDefault("listener.initial_backoff_ms", 500)
	v.SetDefault("listener.max_backoff_ms", 30_000)
	v.SetDefault("listener.handshake_timeout_sec", 10)
	v.SetDefault("listener.ping_interval_sec", 20)
	v.SetDefault("listener.geyser_endpoint", "")
	v.SetDefault("listener.geyser_token", "")
	v.SetDefault("listener.portal_url", PumpPortalWS)
	v.SetDefault("listener.filters.allow_creators", []string{})
	v.SetDefault("listener.filters.deny_creators", []string{})
	v.SetDefault("listener.filters.platforms", []string{})
	v.SetDefault("listener.filters.match_string", "")

	v.SetDefault("jito.enabled", false)
	v.SetDefault("jito.endpoint", JitoMainnetRPC)
	v.SetDefault("jito.api_key", "")
	v.SetDefault("jito.tip_lamports", 10_000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.log_to_file", false)
	v.SetDefault("logging.log_file_path", "logs/bot.log")
	v.SetDefault("logging.trade_log_dir", "trades")
	v.SetDefault("logging.token_log_dir", "tokens")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if config.RPCUrl == "" {
		return fmt.Errorf("rpc_url is required")
	}
	if config.WSUrl == "" {
		return fmt.Errorf("ws_url is required")
	}
	if config.Wallet.PrivateKey == "" && config.Wallet.Mnemonic == "" && !config.Trading.DryRun {
		return fmt.Errorf("wallet.private_key or wallet.mnemonic is required unless trading.dry_run is set")
	}

	if config.Trading.BuyAmountSOL <= 0 {
		return fmt.Errorf("trading.buy_amount_sol must be positive")
	}
	if config.Trading.SlippageBP < 0 || config.Trading.SlippageBP > 10_000 {
		return fmt.Errorf("trading.slippage_bp must be between 0 and 10000")
	}
	if config.Exit.SlippageBP < 0 || config.Exit.SlippageBP > 10_000 {
		return fmt.Errorf("exit.slippage_bp must be between 0 and 10000")
	}
	if config.Exit.Enabled && config.Exit.TakeProfitPercent <= 0 && config.Exit.StopLossPercent <= 0 && config.Exit.MaxHoldSeconds <= 0 {
		return fmt.Errorf("exit is enabled but no take profit, stop loss or max hold is set")
	}

	switch config.Fee.Mode {
	case FeeModeFixed, FeeModeDynamic:
	default:
		return fmt.Errorf("fee.mode must be %q or %q, got %q", FeeModeFixed, FeeModeDynamic, config.Fee.Mode)
	}
	if config.Fee.Percentile < 0 || config.Fee.Percentile > 100 {
		return fmt.Errorf("fee.percentile must be between 0 and 100")
	}
	if config.Fee.Multiplier < 0 {
		return fmt.Errorf("fee.multiplier must not be negative")
	}

	if config.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	switch config.Retry.Backoff {
	case BackoffFixed, BackoffLinear:
	default:
		return fmt.Errorf("retry.backoff must be %q or %q, got %q", BackoffFixed, BackoffLinear, config.Retry.Backoff)
	}

	if len(config.Platform.Enabled) == 0 {
		return fmt.Errorf("platform.enabled must list at least one platform")
	}
	if len(config.Listener.Transports) == 0 {
		return fmt.Errorf("listener.transports must list at least one transport")
	}
	for _, t := range config.Listener.Transports {
		switch t {
		case TransportLogs, TransportBlocks, TransportPortal:
		case TransportGeyser:
			if config.Listener.GeyserEndpoint == "" {
				return fmt.Errorf("listener.geyser_endpoint is required for the geyser transport")
			}
		default:
			return fmt.Errorf("unknown listener transport %q", t)
		}
	}
	if config.Listener.MaxBackoffMs < config.Listener.InitialBackoffMs {
		return fmt.Errorf("listener.max_backoff_ms must not be below initial_backoff_ms")
	}

	return nil
}

func wsFromRPC(rpcURL string) string {
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://")
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://")
	}
	return ""
}

// GetMaxTokenAge returns the maximum age of a token worth buying
func (c *Config) GetMaxTokenAge() time.Duration {
	return time.Duration(c.Trading.MaxTokenAgeMs) * time.Millisecond
}

// GetSlippage returns the buy slippage as a fraction
func (c *Config) GetSlippage() decimal.Decimal {
	return decimal.New(int64(c.Trading.SlippageBP), -4)
}

// GetExitSlippage returns the exit sell slippage as a fraction
func (c *Config) GetExitSlippage() decimal.Decimal {
	return decimal.New(int64(c.Exit.SlippageBP), -4)
}

// GetRPCTimeout returns the per-call RPC timeout
func (c *Config) GetRPCTimeout() time.Duration {
	return time.Duration(c.Retry.RPCTimeoutMs) * time.Millisecond
}

// GetConfirmTimeout returns the confirmation budget of one attempt
func (c *Config) GetConfirmTimeout() time.Duration {
	return time.Duration(c.Retry.ConfirmTimeoutSec) * time.Second
}

// GetConfirmPollInterval returns the signature status polling cadence
func (c *Config) GetConfirmPollInterval() time.Duration {
	return time.Duration(c.Retry.ConfirmPollInterval) * time.Millisecond
}

// GetRetryDelay returns the base delay between attempts
func (c *Config) GetRetryDelay() time.Duration {
	return time.Duration(c.Retry.DelayMs) * time.Millisecond
}

// GetInitialBackoff returns the first listener reconnect delay
func (c *Config) GetInitialBackoff() time.Duration {
	return time.Duration(c.Listener.InitialBackoffMs) * time.Millisecond
}

// GetMaxBackoff returns the listener reconnect delay cap
func (c *Config) GetMaxBackoff() time.Duration {
	return time.Duration(c.Listener.MaxBackoffMs) * time.Millisecond
}

// GetHandshakeTimeout returns the websocket handshake timeout
func (c *Config) GetHandshakeTimeout() time.Duration {
	return time.Duration(c.Listener.HandshakeTimeoutSec) * time.Second
}

// GetPingInterval returns the websocket keepalive interval
func (c *Config) GetPingInterval() time.Duration {
	return time.Duration(c.Listener.PingIntervalSec) * time.Second
}

// GetMaxHold returns how long a position may be held before it is sold
func (c *Config) GetMaxHold() time.Duration {
	return time.Duration(c.Exit.MaxHoldSeconds) * time.Second
}

// GetExitPollInterval returns the exit watcher polling cadence
func (c *Config) GetExitPollInterval() time.Duration {
	return time.Duration(c.Exit.PollIntervalMs) * time.Millisecond
}
