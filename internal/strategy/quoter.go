package strategy

import (
	"cycle_go/internal/domain"

	"github.com/google/uuid"
)

// DepthQuoter prices a single limit order off the averaged book depth.
type DepthQuoter struct {
	cfg   domain.CycleConfig
	sizer OrderSizer
	newID func() string
}

// NewDepthQuoter creates a quoter for the given cycle envelope.
func NewDepthQuoter(cfg domain.CycleConfig) *DepthQuoter {
	return &DepthQuoter{
		cfg: cfg,
		sizer: OrderSizer{
			Markup:         cfg.Markup,
			PricePrecision: cfg.PricePrecision,
			SizePrecision:  cfg.SizePrecision,
		},
		newID: func() string { return uuid.New().String() },
	}
}

// Quote estimates the reference price, sizes the order and validates the intent.
func (q *DepthQuoter) Quote(depth domain.DepthSnapshot) (Quote, error) {
	est, err := EstimatePrice(depth, q.cfg.SampleDepth)
	if err != nil {
		return Quote{}, err
	}

	sz, err := q.sizer.Size(est.Reference(q.cfg.Side), q.cfg.OrderSizeQuote)
	if err != nil {
		return Quote{Estimate: est}, err
	}

	intent := domain.OrderIntent{
		Symbol:        q.cfg.Symbol,
		Side:          q.cfg.Side,
		Type:          domain.OrderTypeLimit,
		TimeInForce:   q.cfg.TimeInForce,
		Price:         sz.Price,
		Qty:           sz.Qty,
		ClientOrderID: q.newID(),
	}
	if err := intent.Validate(); err != nil {
		return Quote{Estimate: est}, err
	}

	return Quote{Intent: intent, Estimate: est}, nil
}
