package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cycle_go/internal/domain"

	"github.com/shopspring/decimal"
)

// book builds n ask levels from askStart upward and n bid levels from bidStart upward.
// Bids are returned best (highest) first.
func book(askStart, bidStart int64, n int) domain.DepthSnapshot {
	d := domain.DepthSnapshot{Symbol: "BTCUSDT", LastUpdateID: 1, ReceivedAt: time.Now()}
	for i := 0; i < n; i++ {
		d.Asks = append(d.Asks, domain.Level{Price: decimal.NewFromInt(askStart + int64(i)), Qty: decimal.NewFromInt(1)})
	}
	for i := n - 1; i >= 0; i-- {
		d.Bids = append(d.Bids, domain.Level{Price: decimal.NewFromInt(bidStart + int64(i)), Qty: decimal.NewFromInt(1)})
	}
	return d
}

func scenarioConfig(maxOrders int) domain.CycleConfig {
	return domain.CycleConfig{
		Symbol:         "BTCUSDT",
		Interval:       time.Millisecond,
		MaxOrderCount:  maxOrders,
		OrderSizeQuote: decimal.NewFromInt(1000),
		Markup:         decimal.RequireFromString("1.2"),
		PricePrecision: 3,
		SizePrecision:  0,
		SampleDepth:    domain.DefaultSampleDepth,
		Side:           domain.SideSell,
		TimeInForce:    domain.TimeInForceGTC,
	}
}

// fakeMarket returns queued errors first, then the fixed book.
type fakeMarket struct {
	mu      sync.Mutex
	book    domain.DepthSnapshot
	errs    []error
	calls   int
	panicOn string // Panics with this value when set
}

func (m *fakeMarket) GetDepth(ctx context.Context, symbol string) (domain.DepthSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.panicOn != "" {
		panic(m.panicOn)
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return domain.DepthSnapshot{}, err
		}
	}
	return m.book, nil
}

// fakeAccount is an exchange that tracks resting orders and the call sequence.
type fakeAccount struct {
	mu sync.Mutex

	placeErrs   []error
	placeStatus string // Status returned on placement, default NEW
	cancelErr   error
	onCancel    func() // Runs inside CancelOrder before it returns
	purgeErr    error

	nextID     int
	open       map[string]bool
	maxOpen    int
	placed     []domain.OrderIntent
	cancelled  []string
	purges     int
	purgeCtxOK []bool // Whether each purge ctx was still live
	calls      []string
}

func newFakeAccount() *fakeAccount {
	return &fakeAccount{open: make(map[string]bool)}
}

func (a *fakeAccount) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "place")

	if len(a.placeErrs) > 0 {
		err := a.placeErrs[0]
		a.placeErrs = a.placeErrs[1:]
		if err != nil {
			return domain.OrderHandle{}, err
		}
	}

	a.nextID++
	id := strconv.Itoa(a.nextID)
	status := a.placeStatus
	if status == "" {
		status = domain.OrderStatusNew
	}
	if status == domain.OrderStatusNew {
		a.open[id] = true
	}
	if len(a.open) > a.maxOpen {
		a.maxOpen = len(a.open)
	}
	a.placed = append(a.placed, intent)
	return domain.OrderHandle{OrderID: id, ClientOrderID: intent.ClientOrderID, Status: status}, nil
}

func (a *fakeAccount) CancelOrder(ctx context.Context, symbol, orderID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "cancel")
	if a.onCancel != nil {
		a.onCancel()
	}

	if a.cancelErr != nil {
		return a.cancelErr
	}
	if !a.open[orderID] {
		return fmt.Errorf("cancel %s: %w", orderID, domain.ErrOrderNotFound)
	}
	delete(a.open, orderID)
	a.cancelled = append(a.cancelled, orderID)
	return nil
}

func (a *fakeAccount) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, "purge")
	a.purges++
	a.purgeCtxOK = append(a.purgeCtxOK, ctx.Err() == nil)

	if a.purgeErr != nil {
		return a.purgeErr
	}
	for id := range a.open {
		delete(a.open, id)
	}
	return nil
}

func (a *fakeAccount) openCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.open)
}

// fakeJournal keeps records in memory.
type fakeJournal struct {
	mu        sync.Mutex
	runs      map[string]domain.RunRecord
	orders    map[string]domain.OrderRecord
	saveErr   error
	cancelled []string
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{
		runs:   make(map[string]domain.RunRecord),
		orders: make(map[string]domain.OrderRecord),
	}
}

func (j *fakeJournal) BeginRun(run *domain.RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs[run.RunID] = *run
	return nil
}

func (j *fakeJournal) EndRun(run *domain.RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs[run.RunID] = *run
	return nil
}

func (j *fakeJournal) SaveOrder(order *domain.OrderRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.saveErr != nil {
		return j.saveErr
	}
	j.orders[order.OrderID] = *order
	return nil
}

func (j *fakeJournal) MarkCancelled(runID, orderID string, at time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = append(j.cancelled, orderID)
	if o, ok := j.orders[orderID]; ok && o.RunID == runID {
		o.Status = domain.OrderStatusCanceled
		o.CancelledAt = at
		j.orders[orderID] = o
	}
	return nil
}
