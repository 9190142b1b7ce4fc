package strategy

import (
	"errors"
	"testing"

	"cycle_go/internal/domain"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOrderSizer_Scenario(t *testing.T) {
	sizer := OrderSizer{Markup: d("1.2"), PricePrecision: 3, SizePrecision: 0}

	got, err := sizer.Size(d("104.5"), d("1000"))
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}

	// 104.5 * 1.2 = 125.4; 1000 / 125.4 = 7.97... -> 8
	if !got.Price.Equal(d("125.4")) {
		t.Errorf("Price = %s, want 125.4", got.Price)
	}
	if !got.Qty.Equal(d("8")) {
		t.Errorf("Qty = %s, want 8", got.Qty)
	}
}

func TestOrderSizer_Rounding(t *testing.T) {
	tests := []struct {
		name      string
		sizer     OrderSizer
		ref       string
		notional  string
		wantPrice string
		wantQty   string
	}{
		{"qty half rounds up", OrderSizer{Markup: d("1"), PricePrecision: 2, SizePrecision: 0}, "2", "5", "2", "3"},
		{"price half rounds up", OrderSizer{Markup: d("1"), PricePrecision: 3, SizePrecision: 4}, "1.0005", "10", "1.001", "9.9950"},
		{"fractional size precision", OrderSizer{Markup: d("1.2"), PricePrecision: 2, SizePrecision: 5}, "30000", "100", "36000", "0.00278"},
		{"markup below one", OrderSizer{Markup: d("0.8"), PricePrecision: 1, SizePrecision: 1}, "50", "100", "40", "2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sizer.Size(d(tt.ref), d(tt.notional))
			if err != nil {
				t.Fatalf("Size failed: %v", err)
			}
			if !got.Price.Equal(d(tt.wantPrice)) {
				t.Errorf("Price = %s, want %s", got.Price, tt.wantPrice)
			}
			if !got.Qty.Equal(d(tt.wantQty)) {
				t.Errorf("Qty = %s, want %s", got.Qty, tt.wantQty)
			}
		})
	}
}

func TestOrderSizer_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		sizer    OrderSizer
		ref      string
		notional string
	}{
		{"zero price", OrderSizer{Markup: d("1.2")}, "0", "1000"},
		{"negative price", OrderSizer{Markup: d("1.2")}, "-5", "1000"},
		{"zero notional", OrderSizer{Markup: d("1.2")}, "100", "0"},
		{"zero markup", OrderSizer{Markup: decimal.Zero, PricePrecision: 3}, "100", "1000"},
		{"qty rounds to zero", OrderSizer{Markup: d("1"), PricePrecision: 2, SizePrecision: 0}, "1000000", "1"},
		{"price rounds to zero", OrderSizer{Markup: d("1"), PricePrecision: 2, SizePrecision: 8}, "0.0001", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sizer.Size(d(tt.ref), d(tt.notional))
			if !errors.Is(err, domain.ErrInvalidQuantity) {
				t.Errorf("err = %v, want ErrInvalidQuantity", err)
			}
		})
	}
}

// FuzzOrderSizer checks the sizing bounds for arbitrary positive inputs.
func FuzzOrderSizer(f *testing.F) {
	f.Add(int64(10450), int64(1000), uint8(3), uint8(0))
	f.Add(int64(1), int64(1), uint8(0), uint8(0))
	f.Add(int64(3000000), int64(25), uint8(2), uint8(6))
	f.Add(int64(999999), int64(123456), uint8(8), uint8(8))

	f.Fuzz(func(t *testing.T, refCents, notional int64, pricePrec, sizePrec uint8) {
		if refCents <= 0 || notional <= 0 {
			return
		}
		sizer := OrderSizer{
			Markup:         d("1.2"),
			PricePrecision: int32(pricePrec % 9),
			SizePrecision:  int32(sizePrec % 9),
		}
		ref := decimal.New(refCents, -2)

		got, err := sizer.Size(ref, decimal.NewFromInt(notional))
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidQuantity) {
				t.Fatalf("unexpected error: %v", err)
			}
			return
		}

		if !got.Qty.IsPositive() || !got.Price.IsPositive() {
			t.Fatalf("non-positive output: %+v", got)
		}
		if !got.Qty.Equal(got.Qty.Round(sizer.SizePrecision)) {
			t.Fatalf("qty %s exceeds %d places", got.Qty, sizer.SizePrecision)
		}
		if !got.Price.Equal(got.Price.Round(sizer.PricePrecision)) {
			t.Fatalf("price %s exceeds %d places", got.Price, sizer.PricePrecision)
		}

		// Rounded qty is within half a size unit of the exact notional / price.
		exact := decimal.NewFromInt(notional).Div(ref.Mul(sizer.Markup))
		halfUnit := decimal.New(5, -(sizer.SizePrecision + 1))
		if got.Qty.Sub(exact).Abs().GreaterThan(halfUnit.Add(decimal.New(1, -12))) {
			t.Fatalf("qty %s too far from exact %s", got.Qty, exact)
		}
	})
}
