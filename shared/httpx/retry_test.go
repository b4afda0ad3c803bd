package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"
)

// recordingSleep collects requested delays instead of sleeping.
func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	calls := 0

	result, err := WithRetry(context.Background(), RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		sleep:       recordingSleep(&delays),
	}, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &StatusError{StatusCode: 503}
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result %q, got %q", "ok", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %s, got %s", i, want[i], delays[i])
		}
	}
}

func TestWithRetryFailsImmediatelyOnNonRetryable(t *testing.T) {
	var delays []time.Duration
	calls := 0

	_, err := WithRetry(context.Background(), RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		sleep:       recordingSleep(&delays),
	}, func(context.Context) (string, error) {
		calls++
		return "", &StatusError{StatusCode: 404}
	})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 404 {
		t.Fatalf("expected 404 StatusError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
	if len(delays) != 0 {
		t.Errorf("expected no delays, got %v", delays)
	}
}

func TestWithRetryReturnsLastErrorOnExhaustion(t *testing.T) {
	var delays []time.Duration
	calls := 0
	lastErr := fmt.Errorf("attempt marker")

	_, err := WithRetry(context.Background(), RetryOptions{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		sleep:       recordingSleep(&delays),
	}, func(context.Context) (int, error) {
		calls++
		if calls == 3 {
			return 0, fmt.Errorf("%w: %v", syscall.ECONNREFUSED, lastErr)
		}
		return 0, &StatusError{StatusCode: 502}
	})

	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("expected the final attempt's error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(delays) != 2 {
		t.Errorf("expected 2 delays, got %v", delays)
	}
}

func TestWithRetryDefaults(t *testing.T) {
	var delays []time.Duration
	calls := 0

	_, err := WithRetry(context.Background(), RetryOptions{
		sleep: recordingSleep(&delays),
	}, func(context.Context) (int, error) {
		calls++
		return 0, &StatusError{StatusCode: 503}
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 3 {
		t.Errorf("expected default of 3 attempts, got %d", calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %s, got %s", i, want[i], delays[i])
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bad gateway", &StatusError{StatusCode: 502}, true},
		{"service unavailable", &StatusError{StatusCode: 503}, true},
		{"gateway timeout", &StatusError{StatusCode: 504}, true},
		{"not found", &StatusError{StatusCode: 404}, false},
		{"server error", &StatusError{StatusCode: 500}, false},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"wrapped connection refused", fmt.Errorf("post failed: %w", syscall.ECONNREFUSED), true},
		{"connection timed out", syscall.ETIMEDOUT, true},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "content", IsNotFound: true}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"context cancelled", context.Canceled, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
