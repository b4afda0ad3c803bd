// Package httpx holds the shared helpers for calling other services over
// HTTP: an upstream status error type and a bounded exponential retry.
package httpx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"syscall"
	"time"
)

// StatusError reports a non-2xx response from an upstream service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
}

// RetryOptions bounds WithRetry. The zero value gets the defaults of three
// attempts and a one second base delay.
type RetryOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// sleep is swapped out by tests; nil means a context-aware time.Sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry runs op up to MaxAttempts times. Only transient failures are
// retried (see Retryable); everything else returns on first occurrence. The
// delay before attempt k+1 is BaseDelay * 2^(k-1) — pure exponential, no
// jitter, no cap. When the budget is exhausted the last error is returned
// as-is, never wrapped.
func WithRetry[T any](ctx context.Context, opts RetryOptions, op func(context.Context) (T, error)) (T, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	sleep := opts.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var zero T
	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !Retryable(err) || attempt == opts.MaxAttempts {
			return zero, err
		}

		delay := opts.BaseDelay << (attempt - 1)
		log.Printf("httpx: retrying after error (attempt %d/%d, next in %s): %v",
			attempt, opts.MaxAttempts, delay, err)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return zero, err
		}
	}
}

// Retryable reports whether err is worth another attempt: connection
// refused, timeouts, DNS failures, or an upstream 502/503/504. A cancelled
// context is not retryable — the caller is gone.
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 502, 503, 504:
			return true
		}
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
