package execution

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"cycle_go/internal/domain"

	"github.com/google/uuid"
)

// PaperOrder is an order resting on the simulated book.
type PaperOrder struct {
	OrderID  string
	Intent   domain.OrderIntent
	Status   string
	PlacedAt time.Time
}

// PaperAccount simulates the exchange account for dry runs.
// Limit orders rest until cancelled; the simulated book has no liquidity,
// so IOC and FOK orders expire on placement. It implements domain.AccountClient.
type PaperAccount struct {
	mu        sync.Mutex
	orders    map[string]*PaperOrder
	nextID    int64
	placed    int
	cancelled int
	logger    *slog.Logger
	now       func() time.Time
}

// NewPaperAccount creates an empty simulated account.
func NewPaperAccount() *PaperAccount {
	return &PaperAccount{
		orders: make(map[string]*PaperOrder),
		logger: slog.Default().With("module", "paper_account"),
		now:    time.Now,
	}
}

// PlaceOrder accepts a valid intent and assigns it an exchange id.
func (p *PaperAccount) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrderHandle{}, err
	}
	if err := intent.Validate(); err != nil {
		return domain.OrderHandle{}, &domain.ExchangeError{Op: "place_order", Code: -1013, Msg: err.Error(), Err: domain.ErrOrderRejected}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	orderID := strconv.FormatInt(p.nextID, 10)
	if intent.ClientOrderID == "" {
		intent.ClientOrderID = uuid.New().String()
	}

	status := domain.OrderStatusNew
	if intent.TimeInForce == domain.TimeInForceIOC || intent.TimeInForce == domain.TimeInForceFOK {
		status = domain.OrderStatusExpired
	}

	p.orders[orderID] = &PaperOrder{
		OrderID:  orderID,
		Intent:   intent,
		Status:   status,
		PlacedAt: p.now(),
	}
	p.placed++

	p.logger.Info("PAPER EXECUTION: Order Placed",
		slog.String("id", orderID),
		slog.String("symbol", intent.Symbol),
		slog.String("side", string(intent.Side)),
		slog.String("price", intent.Price.String()),
		slog.String("qty", intent.Qty.String()),
		slog.String("status", status))

	return domain.OrderHandle{
		OrderID:       orderID,
		ClientOrderID: intent.ClientOrderID,
		Status:        status,
	}, nil
}

// CancelOrder cancels an open order. Unknown or already closed orders
// fail the same way the exchange does, with domain.ErrOrderNotFound.
func (p *PaperAccount) CancelOrder(ctx context.Context, symbol, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	order, ok := p.orders[orderID]
	if !ok || order.Intent.Symbol != symbol || order.Status != domain.OrderStatusNew {
		return &domain.ExchangeError{
			Op:   "cancel_order",
			Code: -2011,
			Msg:  fmt.Sprintf("unknown order sent: %s", orderID),
			Err:  domain.ErrOrderNotFound,
		}
	}

	order.Status = domain.OrderStatusCanceled
	p.cancelled++

	p.logger.Info("PAPER EXECUTION: Order Cancelled", slog.String("id", orderID))
	return nil
}

// CancelAllOpenOrders cancels every open order on symbol. It never fails on an empty book.
func (p *PaperAccount) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, order := range p.orders {
		if order.Intent.Symbol == symbol && order.Status == domain.OrderStatusNew {
			order.Status = domain.OrderStatusCanceled
			p.cancelled++
			n++
		}
	}

	p.logger.Info("PAPER EXECUTION: Open Orders Purged", slog.String("symbol", symbol), slog.Int("count", n))
	return nil
}

// OpenOrders returns the resting orders on symbol, oldest first.
func (p *PaperAccount) OpenOrders(symbol string) []PaperOrder {
	p.mu.Lock()
	defer p.mu.Unlock()

	open := make([]PaperOrder, 0)
	for _, order := range p.orders {
		if order.Intent.Symbol == symbol && order.Status == domain.OrderStatusNew {
			open = append(open, *order)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		a, _ := strconv.ParseInt(open[i].OrderID, 10, 64)
		b, _ := strconv.ParseInt(open[j].OrderID, 10, 64)
		return a < b
	})
	return open
}

// Stats returns how many orders were placed and cancelled.
func (p *PaperAccount) Stats() (placed, cancelled int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.placed, p.cancelled
}
