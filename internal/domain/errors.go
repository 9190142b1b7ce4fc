package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a network-related error that may be retriable
type NetworkError struct {
	Op        string // Operation that failed (e.g., "depth", "place_order", "cancel_order")
	Err       error  // Underlying error
	Retriable bool   // Whether this error is retriable
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return e.Retriable
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new retriable network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: true}
}

// NewFatalNetworkError creates a non-retriable network error
func NewFatalNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err, Retriable: false}
}

// ExchangeError is a business-level rejection reported by the exchange.
// Err carries the matching sentinel (ErrOrderNotFound, ErrOrderRejected) when
// the exchange code maps to one, so callers can use errors.Is.
type ExchangeError struct {
	Op   string
	Code int
	Msg  string
	Err  error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: exchange error code=%d msg=%s", e.Op, e.Code, e.Msg)
}

// IsRetriable reports false: the same request would be rejected again.
func (e *ExchangeError) IsRetriable() bool {
	return false
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrInsufficientDepth is returned when a side of the book has no levels to average.
	ErrInsufficientDepth = errors.New("insufficient depth")

	// ErrInvalidQuantity is returned when price or quantity is non-positive after rounding.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrOrderNotFound is returned when the exchange does not know the order (already gone).
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderRejected is returned when the exchange refuses a new order.
	ErrOrderRejected = errors.New("order rejected")

	// ErrInvalidSymbol is returned when a symbol is not supported or malformed. Not retriable.
	ErrInvalidSymbol = errors.New("invalid symbol")

	// ErrStaleDepth is returned when the streamed book is older than the allowed age.
	ErrStaleDepth = errors.New("stale depth")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
