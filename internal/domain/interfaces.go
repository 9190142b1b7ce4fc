package domain

import (
	"context"
	"time"
)

// MarketDataReader provides order book depth for a symbol.
type MarketDataReader interface {
	GetDepth(ctx context.Context, symbol string) (DepthSnapshot, error)
}

// AccountClient places and cancels orders on behalf of the account.
type AccountClient interface {
	PlaceOrder(ctx context.Context, intent OrderIntent) (OrderHandle, error)
	// CancelOrder fails with ErrOrderNotFound when the exchange no longer knows the order.
	CancelOrder(ctx context.Context, symbol, orderID string) error
	// CancelAllOpenOrders succeeds as a no-op when nothing is open.
	CancelAllOpenOrders(ctx context.Context, symbol string) error
}

// Journal persists the lifecycle of runs and orders. Failures never stop trading.
type Journal interface {
	BeginRun(run *RunRecord) error
	EndRun(run *RunRecord) error
	SaveOrder(order *OrderRecord) error
	MarkCancelled(runID, orderID string, at time.Time) error
}
