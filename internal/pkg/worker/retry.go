package worker

import (
	"context"
	"time"

	"github.com/airenas/scribe/internal/pkg/utils"
	"github.com/cenkalti/backoff/v4"
)

const maxWaitUnits = 10

// cappedBackOff waits unit*2^attempt, at most maxWaitUnits units
type cappedBackOff struct {
	unit    time.Duration
	attempt int
}

func (b *cappedBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.attempt >= 4 {
		return b.unit * maxWaitUnits
	}
	res := b.unit * time.Duration(1<<b.attempt)
	if res > b.unit*maxWaitUnits {
		return b.unit * maxWaitUnits
	}
	return res
}

func (b *cappedBackOff) Reset() {
	b.attempt = 0
}

// withRetry calls f at most maxAttempts times, only transient errors are retried
func withRetry[T any](ctx context.Context, maxAttempts int, unit time.Duration, f func() (T, error),
	notify func(error, time.Duration)) (T, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&cappedBackOff{unit: unit}, uint64(maxAttempts-1)), ctx)
	return backoff.RetryNotifyWithData(func() (T, error) {
		res, err := f()
		if err != nil && !utils.IsTransient(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, b, notify)
}
