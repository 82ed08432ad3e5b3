package providers

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

// RetryConfig bounds the retry policy applied to the connection phase of a
// provider call. Once a stream has started, the adapter never retries —
// only the phase before the first byte is replayed (spec §4.2, §7).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig is exponential backoff with jitter, capped at 5
// attempts and 30 seconds between tries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// RetryDo retries fn according to cfg, stopping early on a non-retryable
// error (judged by Retryable) or context cancellation.
func RetryDo[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(cfg, attempt)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	d := time.Duration(float64(cfg.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}

// Retryable reports whether err's classification warrants a retry
// (RateLimit, Server).
func Retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		cat := ClassifyHTTPStatus(httpErr.Status)
		return cat == ErrRateLimit || cat == ErrServer
	}
	var idErr *id.Error
	if errors.As(err, &idErr) {
		return idErr.Retryable()
	}
	return false
}

// ParseRetryAfter parses a Retry-After header value (seconds, or an HTTP
// date) into a duration; 0 if absent or unparseable.
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, header); err == nil {
		d := time.Until(t)
		if d > 0 {
			return d
		}
	}
	return 0
}
