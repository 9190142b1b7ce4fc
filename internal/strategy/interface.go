package strategy

import (
	"cycle_go/internal/domain"
)

// Quote is a priced order together with the book estimate it came from.
type Quote struct {
	Intent   domain.OrderIntent
	Estimate Estimate
}

// Quoter turns a depth snapshot into an order intent.
// It is called synchronously by the lifecycle controller on idle ticks.
type Quoter interface {
	Quote(depth domain.DepthSnapshot) (Quote, error)
}
