package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cycle_go/internal/domain"
	"cycle_go/internal/infra"
	"cycle_go/internal/strategy"
)

// Outcome is the tagged result of one controller tick.
type Outcome int

const (
	// OutcomeContinue means the tick made progress (placed or cancelled).
	OutcomeContinue Outcome = iota
	// OutcomeRetry means the tick was skipped; state is unchanged.
	OutcomeRetry
	// OutcomeFatal means a known open order could not be cancelled.
	OutcomeFatal
	// OutcomeDone means the order budget is exhausted and nothing is open.
	OutcomeDone
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeRetry:
		return "retry"
	case OutcomeFatal:
		return "fatal"
	case OutcomeDone:
		return "done"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Controller is the order lifecycle state machine: Idle or OrderOpen(handle).
// It is owned by a single goroutine and carries no locks.
type Controller struct {
	cfg     domain.CycleConfig
	market  domain.MarketDataReader
	account domain.AccountClient
	quoter  strategy.Quoter
	journal domain.Journal // Optional
	metrics *infra.Metrics

	runID    string
	counters domain.CycleCounters
	handle   domain.OrderHandle

	logger *slog.Logger
	now    func() time.Time
}

// NewController wires the state machine. journal may be nil; nil metrics falls back to infra.GlobalMetrics.
func NewController(cfg domain.CycleConfig, market domain.MarketDataReader, account domain.AccountClient, quoter strategy.Quoter, journal domain.Journal, metrics *infra.Metrics) *Controller {
	if metrics == nil {
		metrics = infra.GlobalMetrics
	}
	return &Controller{
		cfg:     cfg,
		market:  market,
		account: account,
		quoter:  quoter,
		journal: journal,
		metrics: metrics,
		logger:  slog.Default().With("module", "controller", "symbol", cfg.Symbol),
		now:     time.Now,
	}
}

// SetRunID tags journal records written by this controller.
func (c *Controller) SetRunID(runID string) {
	c.runID = runID
	c.logger = c.logger.With("run_id", runID)
}

// Counters returns a copy of the run counters.
func (c *Controller) Counters() domain.CycleCounters {
	return c.counters
}

// Handle returns the open order handle, empty when Idle.
func (c *Controller) Handle() domain.OrderHandle {
	return c.handle
}

// Tick advances the state machine by one step.
// The error is set for OutcomeRetry and OutcomeFatal.
func (c *Controller) Tick(ctx context.Context) (Outcome, error) {
	start := c.now()
	defer func() {
		c.metrics.RecordTick(c.now().Sub(start))
	}()

	if c.isTerminal() {
		return OutcomeDone, nil
	}

	if !c.handle.IsEmpty() {
		return c.cancelOpen(ctx)
	}
	return c.placeNext(ctx)
}

// isTerminal: every budgeted order was cancelled, or the budget is spent and nothing is open.
func (c *Controller) isTerminal() bool {
	limit := c.cfg.MaxOrderCount
	return c.counters.Cancelled >= limit || (c.counters.Opened >= limit && c.handle.IsEmpty())
}

func (c *Controller) cancelOpen(ctx context.Context) (Outcome, error) {
	orderID := c.handle.OrderID

	if err := c.account.CancelOrder(ctx, c.cfg.Symbol, orderID); err != nil {
		c.metrics.RecordCancelFailure()
		c.logger.Error("Cancel failed, aborting run",
			slog.String("order_id", orderID),
			slog.Bool("not_found", errors.Is(err, domain.ErrOrderNotFound)),
			slog.Any("error", err))
		return OutcomeFatal, fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	c.handle = domain.OrderHandle{}
	c.counters.Cancelled++
	c.metrics.RecordCancelled()

	if c.journal != nil {
		if err := c.journal.MarkCancelled(c.runID, orderID, c.now()); err != nil {
			c.logger.Warn("Journal update failed", slog.String("order_id", orderID), slog.Any("error", err))
		}
	}

	c.logger.Info("Order cancelled",
		slog.String("order_id", orderID),
		slog.Int("cancelled", c.counters.Cancelled),
		slog.Int("max", c.cfg.MaxOrderCount))
	return OutcomeContinue, nil
}

func (c *Controller) placeNext(ctx context.Context) (Outcome, error) {
	depth, err := c.market.GetDepth(ctx, c.cfg.Symbol)
	if err != nil {
		c.metrics.RecordDepthFailure()
		c.logger.Warn("Depth fetch failed, skipping tick",
			slog.Bool("retriable", domain.IsRetriable(err)),
			slog.Any("error", err))
		return OutcomeRetry, fmt.Errorf("get depth: %w", err)
	}

	quote, err := c.quoter.Quote(depth)
	if err != nil {
		c.metrics.RecordQuoteFailure()
		c.logger.Warn("Quote rejected, skipping tick",
			slog.Int("asks", len(depth.Asks)),
			slog.Int("bids", len(depth.Bids)),
			slog.Any("error", err))
		return OutcomeRetry, fmt.Errorf("quote: %w", err)
	}
	intent := quote.Intent

	handle, err := c.account.PlaceOrder(ctx, intent)
	if err != nil {
		c.metrics.RecordPlaceFailure()
		c.logger.Warn("Placement failed, skipping tick",
			slog.String("price", intent.Price.String()),
			slog.String("qty", intent.Qty.String()),
			slog.Any("error", err))
		return OutcomeRetry, fmt.Errorf("place order: %w", err)
	}

	c.counters.Opened++
	stillOpen := !handle.IsTerminal()
	if stillOpen {
		c.handle = handle
	}
	c.metrics.RecordPlaced(stillOpen)
	c.recordPlacement(intent, handle)

	c.logger.Info("Order placed",
		slog.String("order_id", handle.OrderID),
		slog.String("client_order_id", handle.ClientOrderID),
		slog.String("side", string(intent.Side)),
		slog.String("ask_avg", quote.Estimate.AskAvg.String()),
		slog.String("bid_avg", quote.Estimate.BidAvg.String()),
		slog.String("price", intent.Price.String()),
		slog.String("qty", intent.Qty.String()),
		slog.String("status", handle.Status),
		slog.Int("opened", c.counters.Opened),
		slog.Int("max", c.cfg.MaxOrderCount))

	if !stillOpen {
		c.logger.Info("Order closed on placement, nothing to cancel",
			slog.String("order_id", handle.OrderID),
			slog.String("status", handle.Status))
	}
	return OutcomeContinue, nil
}

func (c *Controller) recordPlacement(intent domain.OrderIntent, handle domain.OrderHandle) {
	if c.journal == nil {
		return
	}
	rec := &domain.OrderRecord{
		OrderID:       handle.OrderID,
		RunID:         c.runID,
		ClientOrderID: handle.ClientOrderID,
		Symbol:        intent.Symbol,
		Side:          string(intent.Side),
		Price:         intent.Price.String(),
		Qty:           intent.Qty.String(),
		Status:        handle.Status,
		PlacedAt:      c.now(),
	}
	if err := c.journal.SaveOrder(rec); err != nil {
		c.logger.Warn("Journal write failed", slog.String("order_id", handle.OrderID), slog.Any("error", err))
	}
}
