package remote

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	retryMultiplier       = 2
)

// RetryPolicy re-issues calls that failed with a TRANSIENT classification.
// Attempts counts every invocation, the first one included. Delays double
// from BaseDelay (1s, 2s, 4s, ...).
type RetryPolicy struct {
	Attempts  uint
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// OnRetry is called before each wait, with the error that caused it
	OnRetry func(err error, wait time.Duration)
}

// DefaultRetryPolicy is 3 attempts starting at one second
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  defaultRetryAttempts,
		BaseDelay: defaultRetryBaseDelay,
		MaxDelay:  defaultRetryMaxDelay,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay < base {
		maxDelay = defaultRetryMaxDelay
	}
	return &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          retryMultiplier,
		MaxInterval:         maxDelay,
	}
}

// Retry runs fn under the policy. Non-TRANSIENT failures are returned after a
// single attempt; exhausting the bound returns the last error.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func() (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(attempts),
		backoff.WithMaxElapsedTime(0),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(p.OnRetry))
	}

	result, err := backoff.Retry(ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !Classify(err).Retryable {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, opts...)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return result, err
}
