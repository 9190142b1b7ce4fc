package binance

import (
	"fmt"
	"time"

	"cycle_go/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	BaseURLMainnet   = "https://api.binance.com"
	BaseURLTestnet   = "https://testnet.binance.vision"
	StreamURLMainnet = "wss://stream.binance.com:9443/ws"

	maxRetries  = 10
	readTimeout = 60 * time.Second
)

// Exchange error codes the engine cares about.
const (
	codeUnknownOrder     = -2011 // Cancel of an order the exchange does not know
	codeNewOrderRejected = -2010
	codeFilterFailure    = -1013 // Price/lot size filter violations
	codeInvalidSymbol    = -1121
)

// depthResponse is shared by GET /api/v3/depth and the partial book depth stream.
// Levels arrive as ["price","qty"] string pairs.
type depthResponse struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

type orderResponse struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	OrigQty       string `json:"origQty"`
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// toSnapshot converts the wire book into the domain snapshot.
func (r depthResponse) toSnapshot(symbol string, receivedAt time.Time) (domain.DepthSnapshot, error) {
	asks, err := parseLevels(r.Asks)
	if err != nil {
		return domain.DepthSnapshot{}, fmt.Errorf("asks: %w", err)
	}
	bids, err := parseLevels(r.Bids)
	if err != nil {
		return domain.DepthSnapshot{}, fmt.Errorf("bids: %w", err)
	}
	return domain.DepthSnapshot{
		Symbol:       symbol,
		LastUpdateID: r.LastUpdateID,
		Asks:         asks,
		Bids:         bids,
		ReceivedAt:   receivedAt,
	}, nil
}

func parseLevels(raw [][]string) ([]domain.Level, error) {
	levels := make([]domain.Level, 0, len(raw))
	for i, pair := range raw {
		if len(pair) < 2 {
			return nil, fmt.Errorf("level %d: expected [price, qty], got %v", i, pair)
		}
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("level %d price: %w", i, err)
		}
		qty, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("level %d qty: %w", i, err)
		}
		levels = append(levels, domain.Level{Price: price, Qty: qty})
	}
	return levels, nil
}

// depthLimit rounds n up to a limit value the depth endpoint accepts.
func depthLimit(n int) int {
	for _, allowed := range []int{5, 10, 20, 50, 100, 500, 1000, 5000} {
		if n <= allowed {
			return allowed
		}
	}
	return 5000
}

// streamLevels rounds n up to a level count the partial depth stream offers.
func streamLevels(n int) int {
	switch {
	case n <= 5:
		return 5
	case n <= 10:
		return 10
	default:
		return 20
	}
}
