package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level is a single price level of the order book.
type Level struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

// DepthSnapshot is a top-of-book view for one symbol.
// Asks and Bids are ordered best price first and may hold fewer levels than requested.
type DepthSnapshot struct {
	Symbol       string    `json:"symbol"`
	LastUpdateID int64     `json:"last_update_id"`
	Asks         []Level   `json:"asks"`
	Bids         []Level   `json:"bids"`
	ReceivedAt   time.Time `json:"received_at"`
}

// BestAsk returns the lowest ask, if any.
func (d DepthSnapshot) BestAsk() (Level, bool) {
	if len(d.Asks) == 0 {
		return Level{}, false
	}
	return d.Asks[0], true
}

// BestBid returns the highest bid, if any.
func (d DepthSnapshot) BestBid() (Level, bool) {
	if len(d.Bids) == 0 {
		return Level{}, false
	}
	return d.Bids[0], true
}

// Age returns how long ago the snapshot was received.
func (d DepthSnapshot) Age(now time.Time) time.Duration {
	if d.ReceivedAt.IsZero() {
		return 0
	}
	return now.Sub(d.ReceivedAt)
}
