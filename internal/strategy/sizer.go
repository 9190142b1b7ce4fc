package strategy

import (
	"fmt"

	"cycle_go/internal/domain"

	"github.com/shopspring/decimal"
)

// OrderSizer converts a quote notional and a reference price into an
// exchange-ready limit price and base quantity.
type OrderSizer struct {
	Markup         decimal.Decimal
	PricePrecision int32
	SizePrecision  int32
}

// Sizing is the rounded output of OrderSizer.
type Sizing struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// Size computes
//
//	price = round(ref * markup, pricePrecision)
//	qty   = round(notional / (ref * markup), sizePrecision)
//
// Rounding is half away from zero (half-up for the positive values used here).
// The quantity is derived from the unrounded marked-up price. The divisor is the
// submitted price, not ref, so the order's notional stays near the configured amount:
// 1000 at ref 104.5 and markup 1.2 sizes to 8 (1000 / 125.4 = 7.97), not 10.
func (s OrderSizer) Size(ref, notional decimal.Decimal) (Sizing, error) {
	if !ref.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: reference price %s", domain.ErrInvalidQuantity, ref)
	}
	if !notional.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: notional %s", domain.ErrInvalidQuantity, notional)
	}

	raw := ref.Mul(s.Markup)
	if !raw.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: marked-up price %s", domain.ErrInvalidQuantity, raw)
	}

	price := raw.Round(s.PricePrecision)
	qty := notional.Div(raw).Round(s.SizePrecision)

	if !price.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: price %s rounds to zero at %d places", domain.ErrInvalidQuantity, raw, s.PricePrecision)
	}
	if !qty.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: qty %s rounds to zero at %d places", domain.ErrInvalidQuantity, notional.Div(raw), s.SizePrecision)
	}

	return Sizing{Price: price, Qty: qty}, nil
}
