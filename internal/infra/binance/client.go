package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cycle_go/internal/domain"
	"cycle_go/internal/infra"
)

// Client is the Binance Spot REST API client (Boundary Layer).
// It implements domain.MarketDataReader and domain.AccountClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	recvWindow int64
	depthLimit int
	logger     *slog.Logger
}

// NewClient creates a new Binance API client.
func NewClient(cfg *infra.Config) *Client {
	baseURL := strings.TrimRight(cfg.Exchange.RestURL, "/")
	if baseURL == "" {
		baseURL = BaseURLMainnet
	}

	timeout := time.Duration(cfg.Exchange.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		signer:     NewSigner(cfg.Exchange.APIKey, cfg.Exchange.SecretKey),
		recvWindow: cfg.Exchange.RecvWindowMS,
		depthLimit: depthLimit(cfg.Cycle.SampleDepth),
		logger:     slog.Default().With("module", "binance_client"),
	}
}

// GetDepth fetches the top of the order book.
func (c *Client) GetDepth(ctx context.Context, symbol string) (domain.DepthSnapshot, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(c.depthLimit))

	body, err := c.doRequest(ctx, "depth", http.MethodGet, "/api/v3/depth", params, false)
	if err != nil {
		return domain.DepthSnapshot{}, err
	}

	var resp depthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.DepthSnapshot{}, fmt.Errorf("failed to parse depth response: %w", err)
	}

	snap, err := resp.toSnapshot(symbol, time.Now())
	if err != nil {
		return domain.DepthSnapshot{}, fmt.Errorf("failed to parse depth levels: %w", err)
	}
	return snap, nil
}

// PlaceOrder submits a limit order and returns its exchange handle.
func (c *Client) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderHandle, error) {
	params := url.Values{}
	params.Set("symbol", intent.Symbol)
	params.Set("side", string(intent.Side))
	params.Set("type", string(intent.Type))
	params.Set("quantity", intent.Qty.String())
	params.Set("newOrderRespType", "RESULT")
	if intent.Type == domain.OrderTypeLimit {
		params.Set("timeInForce", string(intent.TimeInForce))
		params.Set("price", intent.Price.String())
	}
	if intent.ClientOrderID != "" {
		params.Set("newClientOrderId", intent.ClientOrderID)
	}

	body, err := c.doRequest(ctx, "place_order", http.MethodPost, "/api/v3/order", params, true)
	if err != nil {
		return domain.OrderHandle{}, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.OrderHandle{}, fmt.Errorf("failed to parse order response: %w", err)
	}
	if resp.OrderID == 0 {
		return domain.OrderHandle{}, fmt.Errorf("order response without orderId: %s", string(body))
	}

	c.logger.Info("Order Placed Successfully",
		slog.Int64("order_id", resp.OrderID),
		slog.String("symbol", resp.Symbol),
		slog.String("status", resp.Status),
	)

	return domain.OrderHandle{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: resp.ClientOrderID,
		Status:        resp.Status,
	}, nil
}

// CancelOrder cancels one order. An unknown order yields domain.ErrOrderNotFound.
func (c *Client) CancelOrder(ctx context.Context, symbol, orderID string) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", orderID)

	_, err := c.doRequest(ctx, "cancel_order", http.MethodDelete, "/api/v3/order", params, true)
	return err
}

// CancelAllOpenOrders cancels every open order on the symbol.
// The exchange answers "unknown order" when nothing is open; that is treated as success.
func (c *Client) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	params := url.Values{}
	params.Set("symbol", symbol)

	_, err := c.doRequest(ctx, "cancel_all", http.MethodDelete, "/api/v3/openOrders", params, true)
	if errors.Is(err, domain.ErrOrderNotFound) {
		c.logger.Debug("No open orders to cancel", slog.String("symbol", symbol))
		return nil
	}
	return err
}

// doRequest handles auth, transport and error classification.
func (c *Client) doRequest(ctx context.Context, op, method, path string, params url.Values, signed bool) ([]byte, error) {
	var query string
	if signed {
		query = c.signer.Sign(params, c.recvWindow)
	} else if params != nil {
		query = params.Encode()
	}

	reqURL := c.baseURL + path
	if query != "" {
		reqURL += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	if signed {
		req.Header.Set("X-MBX-APIKEY", c.signer.APIKey())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusTeapot || resp.StatusCode >= 500:
		return nil, domain.NewNetworkError(op, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body)))
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == 0 {
		return nil, &domain.ExchangeError{Op: op, Code: resp.StatusCode, Msg: string(body)}
	}
	return nil, classify(op, apiErr)
}

// classify maps exchange error codes onto domain sentinels.
func classify(op string, apiErr apiError) error {
	var sentinel error
	switch apiErr.Code {
	case codeUnknownOrder:
		sentinel = domain.ErrOrderNotFound
	case codeNewOrderRejected, codeFilterFailure:
		sentinel = domain.ErrOrderRejected
	case codeInvalidSymbol:
		sentinel = domain.ErrInvalidSymbol
	}
	return &domain.ExchangeError{Op: op, Code: apiErr.Code, Msg: apiErr.Msg, Err: sentinel}
}
