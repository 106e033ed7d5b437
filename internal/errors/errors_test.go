package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"
)

func TestWrap(t *testing.T) {
	base := fmt.Errorf("connection refused")
	wrapped := Wrap(base, "failed to reach feed at %s", "example.test")

	if wrapped == nil {
		t.Fatal("expected wrapped error")
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("expected wrapped error to unwrap to the base error")
	}
	want := "failed to reach feed at example.test: connection refused"
	if wrapped.Error() != want {
		t.Errorf("expected %q, got %q", want, wrapped.Error())
	}

	if Wrap(nil, "context") != nil {
		t.Error("expected wrapping nil to stay nil")
	}
}

func TestComponentError(t *testing.T) {
	base := fmt.Errorf("port in use")
	err := NewComponentError("BridgeServer", "listen", base)

	var compErr *ComponentError
	if !stderrors.As(err, &compErr) {
		t.Fatal("expected a ComponentError")
	}
	if compErr.Component != "BridgeServer" {
		t.Errorf("expected component 'BridgeServer', got %q", compErr.Component)
	}
	if !stderrors.Is(err, base) {
		t.Error("expected component error to unwrap to the base error")
	}
}

func TestRetryWithBackoffSucceedsEventually(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond * 10,
		BackoffFactor: 2.0,
	}

	attempts := 0
	err := RetryWithBackoff("flaky operation", cfg, func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient failure")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond * 10,
		BackoffFactor: 2.0,
	}

	base := fmt.Errorf("permanent failure")
	attempts := 0
	err := RetryWithBackoff("doomed operation", cfg, func() error {
		attempts++
		return base
	})
	if err == nil {
		t.Fatal("expected retry to fail")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if !stderrors.Is(err, base) {
		t.Error("expected final error to wrap the last failure")
	}
}
