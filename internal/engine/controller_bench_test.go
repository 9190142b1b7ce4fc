package engine

import (
	"context"
	"testing"

	"cycle_go/internal/infra"
	"cycle_go/internal/strategy"
)

// BenchmarkController_PlaceCancel measures one place tick plus one cancel tick.
// Collaborators are in-memory, so this is the controller's own overhead.
func BenchmarkController_PlaceCancel(b *testing.B) {
	cfg := scenarioConfig(b.N + 1)
	account := newFakeAccount()
	ctrl := NewController(cfg, &fakeMarket{book: book(100, 90, 10)}, account, strategy.NewDepthQuoter(cfg), nil, &infra.Metrics{})
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		ctrl.Tick(ctx) // place
		ctrl.Tick(ctx) // cancel
	}
}
