package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cycle_go/internal/app"
	"cycle_go/internal/infra"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		bootstrap.Close()
		return 1
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config

	// 2. Metrics + Pprof Server
	if cfg.Metrics.Addr != "" {
		http.Handle("/metrics", infra.NewMetricsHandler(bootstrap.Metrics))
		srv := &http.Server{Addr: cfg.Metrics.Addr}
		go func() {
			slog.Info("Metrics server started", slog.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", slog.Any("error", err))
			}
		}()
		defer srv.Close()
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Start(ctx); err != nil {
		slog.Error("Failed to start market data", slog.Any("error", err))
		return 1
	}

	// 4. Run the cycle to completion
	report := bootstrap.NewScheduler().Run(ctx)

	if report.Failed() {
		slog.Error("Run aborted",
			slog.String("run_id", report.RunID),
			slog.Any("error", report.Err))
		return 1
	}

	slog.Info("Run complete",
		slog.String("run_id", report.RunID),
		slog.String("outcome", report.Outcome.String()),
		slog.Bool("interrupted", report.Interrupted),
		slog.Int("opened", report.Counters.Opened),
		slog.Int("cancelled", report.Counters.Cancelled))
	return 0
}
