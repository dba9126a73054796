// Package retry provides the one bounded-exponential-backoff helper used
// across the control plane for transient infrastructure failures (spec §7):
// base 0.5s, cap 10s, at most 5 attempts total.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	baseInterval = 500 * time.Millisecond
	maxInterval  = 10 * time.Second
	maxAttempts  = 5
)

// Do runs op, retrying on error with bounded exponential backoff. It returns
// the last error once attempts are exhausted, or nil on the first success.
// op should return a non-nil error only for failures worth retrying;
// validation/resource-unavailable errors (spec §7) are not transient — wrap
// them in Permanent so Do stops immediately instead of burning attempts.
func Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseInterval
	b.MaxInterval = maxInterval
	bounded := backoff.WithMaxRetries(b, maxAttempts-1)
	withCtx := backoff.WithContext(bounded, ctx)
	if err := backoff.Retry(op, withCtx); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Unwrap()
		}
		return err
	}
	return nil
}

// Permanent marks err as non-retryable: Do stops on the first attempt and
// returns the wrapped error directly.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
