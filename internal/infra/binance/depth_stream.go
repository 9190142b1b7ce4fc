package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cycle_go/internal/domain"
	"cycle_go/internal/infra"

	"github.com/gorilla/websocket"
)

// DepthStream keeps the latest partial book for one symbol from the
// <symbol>@depth<levels>@100ms stream. It implements domain.MarketDataReader.
type DepthStream struct {
	url      string
	symbol   string
	maxAge   time.Duration
	fallback domain.MarketDataReader

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	latest    domain.DepthSnapshot
	hasLatest bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewDepthStream builds a stream reader for symbol. fallback is consulted when
// the streamed book is missing or older than the configured staleness bound; it may be nil.
func NewDepthStream(cfg *infra.Config, symbol string, fallback domain.MarketDataReader) *DepthStream {
	base := strings.TrimRight(cfg.Exchange.WSURL, "/")
	if base == "" {
		base = StreamURLMainnet
	}
	symbol = strings.ToUpper(symbol)
	stream := strings.ToLower(symbol) + "@depth" + strconv.Itoa(streamLevels(cfg.Cycle.SampleDepth)) + "@100ms"

	return &DepthStream{
		url:      base + "/" + stream,
		symbol:   symbol,
		maxAge:   cfg.MaxStaleness(),
		fallback: fallback,
		logger:   slog.Default().With("module", "depth_stream", "symbol", symbol),
		now:      time.Now,
	}
}

// Connect starts the background connection loop. It returns immediately.
func (s *DepthStream) Connect(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.connectionLoop(ctx)
	return nil
}

// IsConnected reports whether a socket is currently open.
func (s *DepthStream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// GetDepth returns the latest streamed book, or the fallback's book when the stream is stale.
func (s *DepthStream) GetDepth(ctx context.Context, symbol string) (domain.DepthSnapshot, error) {
	if !strings.EqualFold(symbol, s.symbol) {
		return domain.DepthSnapshot{}, fmt.Errorf("%w: stream serves %s, asked for %s", domain.ErrInvalidSymbol, s.symbol, symbol)
	}

	s.mu.RLock()
	snap, ok := s.latest, s.hasLatest
	s.mu.RUnlock()

	if ok && (s.maxAge <= 0 || snap.Age(s.now()) <= s.maxAge) {
		return snap, nil
	}

	if s.fallback != nil {
		s.logger.Debug("Stream book stale, using fallback", slog.Bool("has_book", ok))
		return s.fallback.GetDepth(ctx, symbol)
	}
	return domain.DepthSnapshot{}, domain.NewNetworkError("depth_stream", domain.ErrStaleDepth)
}

func (s *DepthStream) connectionLoop(ctx context.Context) {
	defer s.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connect(ctx); err != nil {
			s.logger.Warn("Depth stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(infra.CalculateBackoff(retryCount)):
			}
		} else {
			retryCount = 0
			s.readLoop(ctx)
		}
	}
}

func (s *DepthStream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	header.Set("User-Agent", infra.DefaultUserAgent)

	conn, _, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.logger.Info("Depth stream connected")
	return nil
}

// readLoop consumes book frames until the socket fails or ctx ends.
// The server pings every few minutes; gorilla's default ping handler answers.
func (s *DepthStream) readLoop(ctx context.Context) {
	// Unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, s.closeConnection)
	defer stop()

	for {
		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("Depth stream read failed", slog.Any("error", err))
			}
			s.closeConnection()
			return
		}
		s.handleMessage(msg)
	}
}

func (s *DepthStream) handleMessage(msg []byte) {
	var resp depthResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		s.logger.Debug("Ignoring non-book frame", slog.Any("error", err))
		return
	}
	if resp.LastUpdateID == 0 {
		return
	}

	snap, err := resp.toSnapshot(s.symbol, s.now())
	if err != nil {
		s.logger.Warn("Malformed book frame", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	if !s.hasLatest || snap.LastUpdateID >= s.latest.LastUpdateID {
		s.latest = snap
		s.hasLatest = true
	}
	s.mu.Unlock()
}

func (s *DepthStream) closeConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connected = false
}

// Disconnect stops the connection loop and waits for it to exit.
func (s *DepthStream) Disconnect() {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeConnection()
	s.wg.Wait()
}
