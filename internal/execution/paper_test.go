package execution

import (
	"context"
	"errors"
	"testing"

	"cycle_go/internal/domain"

	"github.com/shopspring/decimal"
)

func sellIntent(symbol string) domain.OrderIntent {
	return domain.OrderIntent{
		Symbol:      symbol,
		Side:        domain.SideSell,
		Type:        domain.OrderTypeLimit,
		TimeInForce: domain.TimeInForceGTC,
		Price:       decimal.RequireFromString("125.4"),
		Qty:         decimal.NewFromInt(8),
	}
}

func TestPaperAccount_PlaceAndCancel(t *testing.T) {
	paper := NewPaperAccount()
	ctx := context.Background()

	handle, err := paper.PlaceOrder(ctx, sellIntent("BTCUSDT"))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if handle.OrderID == "" || handle.ClientOrderID == "" {
		t.Fatalf("expected ids, got %+v", handle)
	}
	if !handle.IsOpen() {
		t.Errorf("GTC order should rest, status %s", handle.Status)
	}

	// Verify open orders
	if open := paper.OpenOrders("BTCUSDT"); len(open) != 1 {
		t.Fatalf("Expected 1 open order, got %d", len(open))
	}

	if err := paper.CancelOrder(ctx, "BTCUSDT", handle.OrderID); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if open := paper.OpenOrders("BTCUSDT"); len(open) != 0 {
		t.Errorf("Expected no open orders, got %d", len(open))
	}

	placed, cancelled := paper.Stats()
	if placed != 1 || cancelled != 1 {
		t.Errorf("Stats = %d/%d, want 1/1", placed, cancelled)
	}
}

func TestPaperAccount_CancelUnknown(t *testing.T) {
	paper := NewPaperAccount()
	ctx := context.Background()

	err := paper.CancelOrder(ctx, "BTCUSDT", "42")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}

	// Cancelling twice fails the second time
	handle, _ := paper.PlaceOrder(ctx, sellIntent("BTCUSDT"))
	if err := paper.CancelOrder(ctx, "BTCUSDT", handle.OrderID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if err := paper.CancelOrder(ctx, "BTCUSDT", handle.OrderID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("second cancel err = %v, want ErrOrderNotFound", err)
	}

	// Wrong symbol is also unknown
	other, _ := paper.PlaceOrder(ctx, sellIntent("ETHUSDT"))
	if err := paper.CancelOrder(ctx, "BTCUSDT", other.OrderID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("cross-symbol cancel err = %v, want ErrOrderNotFound", err)
	}
}

func TestPaperAccount_CancelAll(t *testing.T) {
	paper := NewPaperAccount()
	ctx := context.Background()

	// Empty book is a no-op
	if err := paper.CancelAllOpenOrders(ctx, "BTCUSDT"); err != nil {
		t.Fatalf("CancelAllOpenOrders on empty book failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := paper.PlaceOrder(ctx, sellIntent("BTCUSDT")); err != nil {
			t.Fatalf("PlaceOrder failed: %v", err)
		}
	}
	paper.PlaceOrder(ctx, sellIntent("ETHUSDT"))

	if err := paper.CancelAllOpenOrders(ctx, "BTCUSDT"); err != nil {
		t.Fatalf("CancelAllOpenOrders failed: %v", err)
	}
	if open := paper.OpenOrders("BTCUSDT"); len(open) != 0 {
		t.Errorf("Expected no BTCUSDT orders, got %d", len(open))
	}
	if open := paper.OpenOrders("ETHUSDT"); len(open) != 1 {
		t.Errorf("Other symbols must be untouched, got %d", len(open))
	}

	// Idempotent
	if err := paper.CancelAllOpenOrders(ctx, "BTCUSDT"); err != nil {
		t.Errorf("second purge failed: %v", err)
	}
}

func TestPaperAccount_ImmediateOrdersExpire(t *testing.T) {
	paper := NewPaperAccount()
	intent := sellIntent("BTCUSDT")
	intent.TimeInForce = domain.TimeInForceFOK
	intent.ClientOrderID = "cid-fok"

	handle, err := paper.PlaceOrder(context.Background(), intent)
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if !handle.IsTerminal() || handle.ClientOrderID != "cid-fok" {
		t.Errorf("unexpected handle: %+v", handle)
	}
	if open := paper.OpenOrders("BTCUSDT"); len(open) != 0 {
		t.Errorf("FOK order must not rest, got %d open", len(open))
	}
}

func TestPaperAccount_RejectsInvalidIntent(t *testing.T) {
	paper := NewPaperAccount()
	intent := sellIntent("BTCUSDT")
	intent.Qty = decimal.Zero

	_, err := paper.PlaceOrder(context.Background(), intent)
	if !errors.Is(err, domain.ErrOrderRejected) {
		t.Fatalf("err = %v, want ErrOrderRejected", err)
	}
	if placed, _ := paper.Stats(); placed != 0 {
		t.Errorf("rejected order counted as placed")
	}
}

func TestPaperAccount_CancelledContext(t *testing.T) {
	paper := NewPaperAccount()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := paper.PlaceOrder(ctx, sellIntent("BTCUSDT")); !errors.Is(err, context.Canceled) {
		t.Errorf("PlaceOrder err = %v, want context.Canceled", err)
	}
	if err := paper.CancelAllOpenOrders(ctx, "BTCUSDT"); !errors.Is(err, context.Canceled) {
		t.Errorf("CancelAllOpenOrders err = %v, want context.Canceled", err)
	}
}
