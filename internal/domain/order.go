package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

// OrderType is the exchange order kind.
type OrderType string

// TimeInForce is the exchange time-in-force policy.
type TimeInForce string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"

	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeMarket OrderType = "MARKET"

	TimeInForceGTC TimeInForce = "GTC" // Good till cancelled
	TimeInForceIOC TimeInForce = "IOC" // Immediate or cancel
	TimeInForceFOK TimeInForce = "FOK" // Fill or kill

	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"
	OrderStatusExpired         = "EXPIRED"
	OrderStatusRejected        = "REJECTED"
)

// ParseSide normalizes a side string ("buy", "SELL").
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// ParseTimeInForce normalizes a time-in-force string.
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch TimeInForce(strings.ToUpper(strings.TrimSpace(s))) {
	case TimeInForceGTC:
		return TimeInForceGTC, nil
	case TimeInForceIOC:
		return TimeInForceIOC, nil
	case TimeInForceFOK:
		return TimeInForceFOK, nil
	}
	return "", fmt.Errorf("unknown time in force %q", s)
}

// OrderIntent is a fully priced order, built fresh each tick and discarded after submission.
type OrderIntent struct {
	Symbol        string
	Side          Side
	Type          OrderType
	TimeInForce   TimeInForce
	Price         decimal.Decimal // Rounded to the instrument's price precision
	Qty           decimal.Decimal // Rounded to the instrument's size precision
	ClientOrderID string
}

// Validate rejects intents that must never reach the exchange.
func (o OrderIntent) Validate() error {
	if o.Symbol == "" {
		return ErrInvalidSymbol
	}
	if !o.Price.IsPositive() {
		return fmt.Errorf("%w: price %s", ErrInvalidQuantity, o.Price)
	}
	if !o.Qty.IsPositive() {
		return fmt.Errorf("%w: qty %s", ErrInvalidQuantity, o.Qty)
	}
	return nil
}

// Notional returns price * qty in quote currency.
func (o OrderIntent) Notional() decimal.Decimal {
	return o.Price.Mul(o.Qty)
}

// OrderHandle identifies an order accepted by the exchange.
type OrderHandle struct {
	OrderID       string
	ClientOrderID string
	Status        string
}

// IsEmpty reports whether the handle refers to no order.
func (h OrderHandle) IsEmpty() bool {
	return h.OrderID == ""
}

// IsOpen checks if the order is still active.
func (h OrderHandle) IsOpen() bool {
	return h.Status == OrderStatusNew || h.Status == OrderStatusPartiallyFilled
}

// IsTerminal reports whether the exchange already closed the order on placement
// (filled, expired by FOK/IOC, cancelled, rejected). An empty status is treated as open.
func (h OrderHandle) IsTerminal() bool {
	switch h.Status {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusExpired, OrderStatusRejected:
		return true
	}
	return false
}
