package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cycle_go/internal/domain"
	"cycle_go/internal/infra"

	"github.com/google/uuid"
)

const defaultPurgeTimeout = 15 * time.Second

// Report summarizes a finished run.
type Report struct {
	RunID       string
	Counters    domain.CycleCounters
	Outcome     Outcome
	Err         error
	Interrupted bool // ctx was cancelled before the run reached Done or Fatal
}

// Failed reports whether the process should exit non-zero.
func (r Report) Failed() bool {
	return r.Outcome == OutcomeFatal
}

// SchedulerOptions tunes the run envelope.
type SchedulerOptions struct {
	PurgeTimeout  time.Duration // Bound on each cancel-all call
	StateDumpPath string        // Empty disables the post-mortem dump
}

// Scheduler drives the controller on a fixed interval and owns the
// pre-run and post-run purges. Run must be called from a single goroutine.
type Scheduler struct {
	cfg     domain.CycleConfig
	ctrl    *Controller
	account domain.AccountClient
	journal domain.Journal // Optional
	metrics *infra.Metrics
	opts    SchedulerOptions

	lastErr error

	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// NewScheduler creates a scheduler around ctrl. account is used only for purges.
func NewScheduler(cfg domain.CycleConfig, ctrl *Controller, account domain.AccountClient, journal domain.Journal, metrics *infra.Metrics, opts SchedulerOptions) *Scheduler {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	if opts.PurgeTimeout <= 0 {
		opts.PurgeTimeout = defaultPurgeTimeout
	}
	return &Scheduler{
		cfg:      cfg,
		ctrl:     ctrl,
		account:  account,
		journal:  journal,
		metrics:  metrics,
		opts:     opts,
		logger:   slog.Default().With("module", "scheduler", "symbol", cfg.Symbol),
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
}

// Run executes one complete cycle: purge, tick until Done or Fatal, purge.
// Cancelling ctx stops ticking; the closing purge still runs on its own deadline.
func (s *Scheduler) Run(ctx context.Context) Report {
	runID := s.newRunID()
	s.ctrl.SetRunID(runID)
	s.logger = s.logger.With("run_id", runID)

	run := &domain.RunRecord{
		RunID:     runID,
		Symbol:    s.cfg.Symbol,
		MaxOrders: s.cfg.MaxOrderCount,
		Outcome:   domain.RunOutcomeRunning,
		StartedAt: s.now(),
	}
	s.beginRun(run)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.lastErr = fmt.Errorf("panic: %v", r)
			s.DumpState(s.opts.StateDumpPath)
			s.purge(context.Background(), "post")
			s.endRun(run, Report{RunID: runID, Counters: s.ctrl.Counters(), Outcome: OutcomeFatal, Err: s.lastErr})
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	s.logger.Info("Cycle started",
		slog.Duration("interval", s.cfg.Interval),
		slog.Int("max_order_count", s.cfg.MaxOrderCount),
		slog.String("order_size", s.cfg.OrderSizeQuote.String()),
		slog.String("markup", s.cfg.Markup.String()))

	s.purge(ctx, "pre")

	report := s.loop(ctx)
	report.RunID = runID
	report.Counters = s.ctrl.Counters()

	if report.Outcome == OutcomeFatal {
		s.DumpState(s.opts.StateDumpPath)
	}

	// Fresh context: the closing purge must run even after ctx is cancelled
	s.purge(context.Background(), "post")

	s.endRun(run, report)

	s.logger.Info("Cycle finished",
		slog.String("outcome", report.Outcome.String()),
		slog.Bool("interrupted", report.Interrupted),
		slog.Int("opened", report.Counters.Opened),
		slog.Int("cancelled", report.Counters.Cancelled))
	return report
}

// loop ticks immediately, then on every interval. Ticks never overlap.
func (s *Scheduler) loop(ctx context.Context) Report {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	outcome := OutcomeContinue
	for {
		if err := ctx.Err(); err != nil {
			return Report{Outcome: outcome, Err: err, Interrupted: true}
		}

		var err error
		outcome, err = s.ctrl.Tick(ctx)
		if err != nil {
			s.lastErr = err
		}

		switch outcome {
		case OutcomeDone:
			return Report{Outcome: OutcomeDone}
		case OutcomeFatal:
			// A shutdown signal aborts in-flight calls; the closing purge covers the open order
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.logger.Warn("Tick aborted by shutdown", slog.Any("error", err))
				return Report{Outcome: OutcomeRetry, Err: ctxErr, Interrupted: true}
			}
			return Report{Outcome: OutcomeFatal, Err: err}
		}

		select {
		case <-ctx.Done():
			return Report{Outcome: outcome, Err: ctx.Err(), Interrupted: true}
		case <-ticker.C:
		}
	}
}

// purge cancels every open order on the symbol. Failures are logged, never returned.
func (s *Scheduler) purge(parent context.Context, stage string) {
	ctx, cancel := context.WithTimeout(parent, s.opts.PurgeTimeout)
	defer cancel()

	err := s.account.CancelAllOpenOrders(ctx, s.cfg.Symbol)
	s.metrics.RecordPurge(err)
	if err != nil {
		s.logger.Warn("Purge failed", slog.String("stage", stage), slog.Any("error", err))
		return
	}
	s.logger.Info("Open orders purged", slog.String("stage", stage))
}

func (s *Scheduler) beginRun(run *domain.RunRecord) {
	if s.journal == nil {
		return
	}
	if err := s.journal.BeginRun(run); err != nil {
		s.logger.Warn("Journal write failed", slog.Any("error", err))
	}
}

func (s *Scheduler) endRun(run *domain.RunRecord, report Report) {
	if s.journal == nil {
		return
	}

	run.Opened = report.Counters.Opened
	run.Cancelled = report.Counters.Cancelled
	run.FinishedAt = s.now()
	switch {
	case report.Outcome == OutcomeFatal:
		run.Outcome = domain.RunOutcomeFatal
	case report.Interrupted:
		run.Outcome = domain.RunOutcomeInterrupted
	default:
		run.Outcome = domain.RunOutcomeDone
	}
	if report.Err != nil {
		run.LastError = report.Err.Error()
	}

	if err := s.journal.EndRun(run); err != nil {
		s.logger.Warn("Journal write failed", slog.Any("error", err))
	}
}

// DumpState writes the controller state to a file (for post-mortem).
func (s *Scheduler) DumpState(filename string) {
	if filename == "" {
		return
	}
	s.logger.Info("Dumping internal state...", slog.String("file", filename))

	handle := s.ctrl.Handle()
	data := struct {
		RunID     string               `json:"run_id"`
		Symbol    string               `json:"symbol"`
		Counters  domain.CycleCounters `json:"counters"`
		OpenOrder *string              `json:"open_order_id"`
		Status    string               `json:"open_order_status,omitempty"`
		LastError string               `json:"last_error,omitempty"`
		DumpedAt  time.Time            `json:"dumped_at"`
	}{
		RunID:    s.ctrl.runID,
		Symbol:   s.cfg.Symbol,
		Counters: s.ctrl.Counters(),
		DumpedAt: s.now(),
	}
	if !handle.IsEmpty() {
		data.OpenOrder = &handle.OrderID
		data.Status = handle.Status
	}
	if s.lastErr != nil {
		data.LastError = s.lastErr.Error()
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		s.logger.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		s.logger.Error("Failed to write state dump", slog.Any("error", err))
	}
}
