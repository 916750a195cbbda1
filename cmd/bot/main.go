package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"launch-sniper-go/internal/app"
	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/config"
	"launch-sniper-go/internal/listener"
	"launch-sniper-go/internal/logger"
	"launch-sniper-go/internal/platform"
	"launch-sniper-go/internal/trader"
	"launch-sniper-go/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const Version = "2.0.0"

// CLI flags
var (
	configFile = flag.String("config", "", "Path to config file (default: bot.yaml in ., ./configs or ~/.launch-sniper)")
	envFile    = flag.String("env", "", "Path to .env file")
	network    = flag.String("network", "", "Network to use (mainnet/devnet)")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")
	dryRun     = flag.Bool("dry-run", false, "Dry run mode (no actual trades)")
	matchName  = flag.String("match", "", "Only trade tokens whose name or symbol contains this string")
	enableJito = flag.Bool("jito", false, "Submit through the Jito block engine")
	enableExit = flag.Bool("auto-sell", false, "Enable take profit / stop loss exits")
)

// App holds the wired components
type App struct {
	config   *config.Config
	logger   *logger.Logger
	registry *platform.Registry
	hub      *listener.Hub
	trader   *trader.Trader
}

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyCliOverrides(cfg)

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
		TradeLogDir: cfg.Logging.TradeLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	bot, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if err := bot.Run(); err != nil {
		log.WithError(err).Fatal("Application stopped with error")
	}
}

func applyCliOverrides(cfg *config.Config) {
	if *network != "" {
		cfg.Network = *network
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dryRun {
		cfg.Trading.DryRun = true
	}
	if *matchName != "" {
		cfg.Listener.Filters.MatchString = *matchName
	}
	if *enableJito {
		cfg.JITO.Enabled = true
	}
	if *enableExit {
		cfg.Exit.Enabled = true
	}
}

// NewApp wires every component from the configuration
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	stack, err := app.NewStack(cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	hub, err := newHub(cfg, stack.Registry, log)
	if err != nil {
		return nil, err
	}

	tradeLogger, err := logger.NewTradeLogger(cfg.Logging.TradeLogDir, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create trade logger: %w", err)
	}

	tr := trader.NewTrader(trader.Config{
		BuyAmount:        utils.SOLToLamports(decimal.NewFromFloat(cfg.Trading.BuyAmountSOL)),
		Slippage:         cfg.GetSlippage(),
		DryRun:           cfg.Trading.DryRun,
		MaxTokenAge:      cfg.GetMaxTokenAge(),
		MaxBuysPerMinute: cfg.Trading.MaxBuysPerMinute,
		Exit: trader.ExitConfig{
			Enabled:      cfg.Exit.Enabled,
			TakeProfit:   decimal.NewFromFloat(cfg.Exit.TakeProfitPercent),
			StopLoss:     decimal.NewFromFloat(cfg.Exit.StopLossPercent),
			MaxHold:      cfg.GetMaxHold(),
			PollInterval: cfg.GetExitPollInterval(),
			Slippage:     cfg.GetExitSlippage(),
		},
	}, stack.Engine, tradeLogger, log.Logger)

	return &App{
		config:   cfg,
		logger:   log,
		registry: stack.Registry,
		hub:      hub,
		trader:   tr,
	}, nil
}

func newHub(cfg *config.Config, registry *platform.Registry, log *logger.Logger) (*listener.Hub, error) {
	stream := func(url string) client.StreamConfig {
		return client.StreamConfig{
			URL:              url,
			HandshakeTimeout: cfg.GetHandshakeTimeout(),
			PingInterval:     cfg.GetPingInterval(),
		}
	}

	var transports []listener.Transport
	for _, name := range cfg.Listener.Transports {
		switch name {
		case config.TransportLogs:
			transports = append(transports, listener.NewLogsTransport(stream(cfg.WSUrl), registry, log.Logger))
		case config.TransportBlocks:
			transports = append(transports, listener.NewBlocksTransport(stream(cfg.WSUrl), registry, log.Logger))
		case config.TransportGeyser:
			transports = append(transports, listener.NewGeyserTransport(stream(cfg.Listener.GeyserEndpoint), cfg.Listener.GeyserToken, registry, log.Logger))
		case config.TransportPortal:
			url := cfg.Listener.PortalURL
			if url == "" {
				url = config.PumpPortalWS
			}
			transports = append(transports, listener.NewPortalTransport(stream(url), registry, log.Logger))
		default:
			return nil, fmt.Errorf("unknown listener transport %q", name)
		}
	}

	filters := cfg.Listener.Filters
	filter, err := listener.NewFilter(filters.AllowCreators, filters.DenyCreators, filters.Platforms, filters.MatchString)
	if err != nil {
		return nil, fmt.Errorf("invalid listener filters: %w", err)
	}

	tokenLogger, err := logger.NewTokenLogger(cfg.Logging.TokenLogDir, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token logger: %w", err)
	}

	return listener.NewHub(listener.Config{
		InitialBackoff: cfg.GetInitialBackoff(),
		MaxBackoff:     cfg.GetMaxBackoff(),
		Filter:         filter,
		Journal:        tokenLogger,
	}, log.Logger, transports...), nil
}

// Run starts the listener hub and blocks until a signal arrives or the
// hub fails
func (a *App) Run() error {
	a.logger.LogStartup(Version, a.config.Network, a.config.RPCUrl, logrus.Fields{
		"platforms":  a.registry.Platforms(),
		"transports": a.config.Listener.Transports,
		"buy_sol":    a.config.Trading.BuyAmountSOL,
		"slippage":   a.config.GetSlippage().String(),
		"dry_run":    a.config.Trading.DryRun,
		"fee_mode":   a.config.Fee.Mode,
		"jito":       a.config.JITO.Enabled,
		"auto_sell":  a.config.Exit.Enabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.hub.Run(gctx, a.trader.HandleToken)
	})
	g.Go(func() error {
		a.reportLatency(gctx)
		return nil
	})

	err := g.Wait()
	a.trader.Wait()
	a.logSummary()

	reason := "signal received"
	if err != nil {
		reason = err.Error()
	}
	a.logger.LogShutdown(reason)
	return err
}

// reportLatency periodically logs transport states and per-source latency
func (a *App) reportLatency(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.logSummary()
		}
	}
}

func (a *App) logSummary() {
	for src, state := range a.hub.States() {
		a.logger.WithFields(logrus.Fields{
			"source": src,
			"state":  state,
		}).Debug("📡 Transport state")
	}
	for src, l := range a.hub.LatencyReport() {
		a.logger.WithFields(logrus.Fields{
			"source":    src,
			"wins":      l.Wins,
			"seen":      l.Seen,
			"avg_delay": l.AvgDelay,
			"max_delay": l.MaxDelay,
		}).Info("📊 Transport latency")
	}
}
