package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultSampleDepth is the number of book levels averaged per side.
const DefaultSampleDepth = 10

// CycleConfig is the immutable trading envelope of one run.
// It is built once at startup (see infra.Config.CycleConfig) and passed by value.
type CycleConfig struct {
	Symbol         string
	Interval       time.Duration
	MaxOrderCount  int
	OrderSizeQuote decimal.Decimal // Notional per order in quote currency
	Markup         decimal.Decimal // Multiplier on the reference price, e.g. 1.2
	PricePrecision int32
	SizePrecision  int32
	SampleDepth    int
	Side           Side
	TimeInForce    TimeInForce
}

// Validate checks the invariants the engine relies on.
func (c CycleConfig) Validate() error {
	switch {
	case c.Symbol == "":
		return &ConfigError{Field: "cycle.symbol", Err: ErrInvalidSymbol}
	case c.Interval <= 0:
		return &ConfigError{Field: "cycle.interval_sec", Err: errors.New("must be positive")}
	case c.MaxOrderCount <= 0:
		return &ConfigError{Field: "cycle.max_order_count", Err: errors.New("must be positive")}
	case !c.OrderSizeQuote.IsPositive():
		return &ConfigError{Field: "cycle.order_size_usd", Err: errors.New("must be positive")}
	case !c.Markup.IsPositive():
		return &ConfigError{Field: "cycle.markup", Err: errors.New("must be positive")}
	case c.PricePrecision < 0 || c.SizePrecision < 0:
		return &ConfigError{Field: "cycle.precision", Err: errors.New("must not be negative")}
	case c.Side != SideBuy && c.Side != SideSell:
		return &ConfigError{Field: "cycle.side", Err: errors.New("must be BUY or SELL")}
	}
	return nil
}

// CycleCounters track placements and cancellations of a run. Never reset within a run.
type CycleCounters struct {
	Opened    int `json:"opened"`
	Cancelled int `json:"cancelled"`
}
