package turso

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const streamRetries = 2

// isStreamError reports a Turso "stream not found" error, raised when the
// server has already closed the Hrana stream behind a pooled connection.
func isStreamError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "stream not found")
}

// withRetry runs fn again on stream errors. Any other error is returned
// immediately.
func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(10*time.Millisecond), streamRetries),
		ctx,
	)
	return backoff.RetryWithData(func() (T, error) {
		v, err := fn()
		if err != nil && !isStreamError(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, bo)
}
