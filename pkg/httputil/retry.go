package httputil

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// smallDelayThreshold separates the two jitter regimes: short base delays
// get a discrete +-1 unit nudge, longer ones a proportional +-25%.
const smallDelayThreshold = 4

// RetryPolicy controls attempt count and backoff pacing.
type RetryPolicy struct {
	// Attempts is the maximum number of tries, including the first.
	// Values below 1 are treated as 1.
	Attempts int

	// Unit is the base delay unit; the delay before attempt n+1 is
	// Unit * n plus jitter. Zero means time.Second.
	Unit time.Duration

	// OnRetry, if set, is called before each re-attempt (never for the
	// first attempt, to avoid noise on expected transient blips).
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy matches the fetch client defaults: three attempts with
// a one second delay unit.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Unit: time.Second}
}

// Retry executes fn up to p.Attempts times. It only retries errors wrapped
// with [RetryableError]; other errors are returned immediately. The delay
// grows linearly with the attempt number and is perturbed by bounded random
// jitter. Returns the last error if all attempts fail, or ctx.Err() if
// cancelled while waiting.
func Retry(ctx context.Context, p RetryPolicy, fn func() error) error {
	attempts := max(p.Attempts, 1)
	unit := p.Unit
	if unit <= 0 {
		unit = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if attempt == attempts {
			break
		}

		delay := Backoff(attempt, unit)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// Backoff returns the jittered delay before attempt n+1. The base delay is
// unit * n, so it is non-decreasing in the attempt number before jitter.
// Jitter is +-1 unit for small bases and +-25% for larger ones; the result
// never drops below one unit.
func Backoff(attempt int, unit time.Duration) time.Duration {
	base := BackoffBase(attempt, unit)
	d := base + jitter(attempt, base, unit)
	if d < unit {
		d = unit
	}
	return d
}

// BackoffBase returns the delay before attempt n+1 without jitter applied.
func BackoffBase(attempt int, unit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return unit * time.Duration(attempt)
}

func jitter(attempt int, base, unit time.Duration) time.Duration {
	if attempt <= smallDelayThreshold {
		// -1, 0, or +1 whole unit.
		return time.Duration(rand.IntN(3)-1) * unit
	}
	// +-25% of the base. Computed on the duration in nanoseconds so the
	// sign survives integer division.
	quarter := int64(base) / 4
	if quarter <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(2*quarter+1) - quarter)
}
