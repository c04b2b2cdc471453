package journal

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls how a Recorder retries failed appends.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialBackoff is the pause before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the pause between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the pause after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64
}

// DefaultRetry absorbs short lock contention on the database file.
var DefaultRetry = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     200 * time.Millisecond,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry makes a single attempt.
var NoRetry = RetryPolicy{
	MaxAttempts: 1,
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrStoreClosed):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

// appendWithRetry appends entry, retrying transient failures. It returns the
// stored entry, the number of attempts made and the last error.
func appendWithRetry(ctx context.Context, store Store, entry Entry, policy RetryPolicy) (Entry, int, error) {
	attempts := max(policy.MaxAttempts, 1)
	backoff := policy.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Entry{}, attempt, err
		}

		stored, err := store.Append(ctx, entry)
		if err == nil {
			return stored, attempt + 1, nil
		}
		lastErr = err

		if !retryable(err) {
			return Entry{}, attempt + 1, err
		}

		// Don't sleep after the last attempt
		if attempt < attempts-1 {
			select {
			case <-ctx.Done():
				return Entry{}, attempt + 1, ctx.Err()
			case <-time.After(jittered(backoff, policy.Jitter)):
			}

			backoff = time.Duration(float64(backoff) * policy.BackoffFactor)
			if policy.MaxBackoff > 0 && backoff > policy.MaxBackoff {
				backoff = policy.MaxBackoff
			}
		}
	}

	return Entry{}, attempts, lastErr
}

// jittered returns base +/- (base * jitter * random).
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	return time.Duration(float64(base) + float64(base)*jitter*(rand.Float64()*2-1))
}
