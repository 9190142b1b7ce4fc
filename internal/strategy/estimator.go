package strategy

import (
	"fmt"

	"cycle_go/internal/domain"

	"github.com/shopspring/decimal"
)

// Estimate holds the per-side mean prices of the sampled book levels.
type Estimate struct {
	AskAvg    decimal.Decimal
	BidAvg    decimal.Decimal
	AskLevels int // Levels actually sampled, at most the requested depth
	BidLevels int
}

// Reference returns the side-appropriate reference price:
// sells are priced off the asks, buys off the bids.
func (e Estimate) Reference(side domain.Side) decimal.Decimal {
	if side == domain.SideBuy {
		return e.BidAvg
	}
	return e.AskAvg
}

// EstimatePrice averages the first min(n, len) levels of each side.
// An empty side yields ErrInsufficientDepth and no numeric value.
func EstimatePrice(depth domain.DepthSnapshot, n int) (Estimate, error) {
	if n <= 0 {
		n = domain.DefaultSampleDepth
	}

	askAvg, askN, err := meanPrice(depth.Asks, n)
	if err != nil {
		return Estimate{}, fmt.Errorf("asks: %w", err)
	}
	bidAvg, bidN, err := meanPrice(depth.Bids, n)
	if err != nil {
		return Estimate{}, fmt.Errorf("bids: %w", err)
	}

	return Estimate{
		AskAvg:    askAvg,
		BidAvg:    bidAvg,
		AskLevels: askN,
		BidLevels: bidN,
	}, nil
}

// meanPrice is the unweighted arithmetic mean of the first n level prices.
func meanPrice(levels []domain.Level, n int) (decimal.Decimal, int, error) {
	if len(levels) < n {
		n = len(levels)
	}
	if n == 0 {
		return decimal.Zero, 0, domain.ErrInsufficientDepth
	}

	sum := decimal.Zero
	for _, lvl := range levels[:n] {
		sum = sum.Add(lvl.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(n))), n, nil
}
