package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"cycle_go/internal/domain"
	"cycle_go/internal/engine"
	"cycle_go/internal/execution"
	"cycle_go/internal/infra"
	"cycle_go/internal/infra/binance"
	"cycle_go/internal/infra/storage"
	"cycle_go/internal/strategy"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Cycle   domain.CycleConfig
	Storage *storage.Storage // nil when the journal is disabled
	Metrics *infra.Metrics

	Market  domain.MarketDataReader
	Account domain.AccountClient

	stream    *binance.DepthStream
	logCloser io.Closer
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{Metrics: infra.GlobalMetrics}
}

// Initialize loads config, sets up logging and storage, and selects the exchange collaborators.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config (.env first so secrets can stay out of the YAML)
	if err := infra.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	cycle, err := cfg.CycleConfig()
	if err != nil {
		return err
	}
	b.Cycle = cycle

	// 2. Setup Logger
	logger, closer := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	b.logCloser = closer

	slog.Info("Bootstrapping cycle bot",
		slog.String("version", cfg.App.Version),
		slog.String("symbol", cycle.Symbol),
		slog.Bool("dry_run", cfg.Exchange.DryRun),
		slog.String("market_data", cfg.MarketData.Source))

	// 3. Initialize Storage (DB)
	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("Journal initialized")
	}

	// 4. Exchange collaborators
	client := binance.NewClient(cfg)
	b.Market = client
	if cfg.MarketData.Source == infra.MarketDataWebSocket {
		b.stream = binance.NewDepthStream(cfg, cycle.Symbol, client)
		b.Market = b.stream
	}

	if cfg.Exchange.DryRun {
		b.Account = execution.NewPaperAccount()
		slog.Warn("DRY RUN: orders are simulated, market data is live")
	} else {
		b.Account = client
	}

	return nil
}

// Start connects background market data feeds, if any.
func (b *Bootstrap) Start(ctx context.Context) error {
	if b.stream == nil {
		return nil
	}
	return b.stream.Connect(ctx)
}

// NewScheduler wires the lifecycle controller and scheduler for one run.
func (b *Bootstrap) NewScheduler() *engine.Scheduler {
	var journal domain.Journal
	if b.Storage != nil {
		journal = b.Storage
	}

	quoter := strategy.NewDepthQuoter(b.Cycle)
	ctrl := engine.NewController(b.Cycle, b.Market, b.Account, quoter, journal, b.Metrics)
	return engine.NewScheduler(b.Cycle, ctrl, b.Account, journal, b.Metrics, engine.SchedulerOptions{
		PurgeTimeout:  b.Config.PurgeTimeout(),
		StateDumpPath: b.Config.Engine.StateDumpPath,
	})
}

// Close releases the stream, the journal and the log file, in that order.
func (b *Bootstrap) Close() error {
	var errs []error
	if b.stream != nil {
		b.stream.Disconnect()
	}
	if b.Storage != nil {
		errs = append(errs, b.Storage.Close())
	}
	if b.logCloser != nil {
		errs = append(errs, b.logCloser.Close())
	}
	return errors.Join(errs...)
}
