package retry

import (
	"context"
	"testing"
	"time"

	errs "wallscraper/pkg/errors"
)

func quickConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return nil
	}, quickConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		if calls < 3 {
			return errs.New(errs.ErrorTypeNetwork, "connection reset", 0)
		}
		return nil
	}, quickConfig(5))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := []errs.ErrorType{
		errs.ErrorTypeNotFound,
		errs.ErrorTypeAuth,
		errs.ErrorTypeDecode,
		errs.ErrorTypeContentType,
	}

	for _, et := range permanent {
		calls := 0
		err := Do(func() error {
			calls++
			return errs.New(et, "nope", 404)
		}, quickConfig(5))

		if err == nil {
			t.Fatalf("%s: expected error", et)
		}
		if calls != 1 {
			t.Errorf("%s: expected 1 call, got %d", et, calls)
		}
	}
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Do(func() error {
		calls++
		return errs.New(errs.ErrorTypeServerError, "boom", 500)
	}, quickConfig(3))

	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Minute},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
	}

	done := make(chan error, 1)
	go func() {
		done <- Do(func() error {
			return errs.New(errs.ErrorTypeNetwork, "slow", 0)
		}, cfg)
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	result, err := DoWithResult(func() (string, error) {
		calls++
		if calls < 2 {
			return "", errs.New(errs.ErrorTypeNetwork, "flaky", 0)
		}
		return "payload", nil
	}, quickConfig(3))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "payload" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestExponentialBackoffGrowsAndCaps(t *testing.T) {
	eb := &ExponentialBackoff{
		BaseDelay:  time.Second,
		MaxDelay:   4 * time.Second,
		Multiplier: 2.0,
	}

	if d := eb.NextDelay(1); d != time.Second {
		t.Errorf("attempt 1: expected 1s, got %v", d)
	}
	if d := eb.NextDelay(2); d != 2*time.Second {
		t.Errorf("attempt 2: expected 2s, got %v", d)
	}
	if d := eb.NextDelay(10); d != 4*time.Second {
		t.Errorf("attempt 10: expected cap 4s, got %v", d)
	}
	if d := eb.NextDelay(0); d != 0 {
		t.Errorf("attempt 0: expected 0, got %v", d)
	}
}

func TestLinearBackoff(t *testing.T) {
	lb := &LinearBackoff{
		BaseDelay: time.Second,
		MaxDelay:  3 * time.Second,
		Increment: time.Second,
	}

	if d := lb.NextDelay(2); d != 2*time.Second {
		t.Errorf("attempt 2: expected 2s, got %v", d)
	}
	if d := lb.NextDelay(9); d != 3*time.Second {
		t.Errorf("attempt 9: expected cap 3s, got %v", d)
	}
}
