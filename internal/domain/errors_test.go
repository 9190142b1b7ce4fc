package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("depth", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "depth: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "depth: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("fatal error", func(t *testing.T) {
		err := NewFatalNetworkError("auth", baseErr)

		if err.IsRetriable() {
			t.Error("Expected error to not be retriable")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := NewNetworkError("dial", baseErr)
		fatal := NewFatalNetworkError("auth", baseErr)
		plain := errors.New("plain error")

		if !IsRetriable(retriable) {
			t.Error("IsRetriable should return true for retriable error")
		}

		if IsRetriable(fatal) {
			t.Error("IsRetriable should return false for fatal error")
		}

		if IsRetriable(plain) {
			t.Error("IsRetriable should return false for plain error")
		}

		wrapped := fmt.Errorf("tick: %w", retriable)
		if !IsRetriable(wrapped) {
			t.Error("IsRetriable should see through wrapping")
		}
	})
}

func TestExchangeError(t *testing.T) {
	err := &ExchangeError{Op: "cancel_order", Code: -2011, Msg: "Unknown order sent.", Err: ErrOrderNotFound}

	if !errors.Is(err, ErrOrderNotFound) {
		t.Error("Expected ExchangeError to match ErrOrderNotFound")
	}
	if errors.Is(err, ErrOrderRejected) {
		t.Error("ExchangeError should not match ErrOrderRejected")
	}
	if IsRetriable(err) {
		t.Error("ExchangeError should never be retriable")
	}

	expected := "cancel_order: exchange error code=-2011 msg=Unknown order sent."
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	var exErr *ExchangeError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &exErr) || exErr.Code != -2011 {
		t.Error("errors.As should recover the exchange code")
	}
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "api_key", Err: baseErr}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [api_key]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
}
