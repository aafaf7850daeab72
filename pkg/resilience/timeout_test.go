package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithTimeoutCompletesInTime(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: time.Second}, func() error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func() error {
		time.Sleep(time.Second)
		return nil
	})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestWithTimeoutZeroDurationRunsInline(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := WithTimeout(context.Background(), TimeoutConfig{}, func() error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestWithTimeoutResult(t *testing.T) {
	value, err := WithTimeoutResult(context.Background(), TimeoutConfig{Duration: time.Second}, func() (int, error) {
		return 42, nil
	})
	if err != nil || value != 42 {
		t.Fatalf("expected 42, got %d (%v)", value, err)
	}

	_, err = WithTimeoutResult(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func() (int, error) {
		time.Sleep(time.Second)
		return 0, nil
	})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
