package query

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"event-management/client/internal/gateway"
)

// RetryPolicy retries transport failures and 5xx responses with a fixed delay.
// Every other error is returned after the first attempt.
type RetryPolicy struct {
	Retries int
	Delay   time.Duration
}

// DefaultRetryPolicy is three retries one second apart.
var DefaultRetryPolicy = RetryPolicy{Retries: 3, Delay: time.Second}

// NoRetry runs the fetch once.
var NoRetry = RetryPolicy{}

// Run calls fn until it succeeds, fails permanently, or the retries are used up.
func Run[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	retries := p.Retries
	if retries < 0 {
		retries = 0
	}
	op := func() (T, error) {
		v, err := fn(ctx)
		if err != nil && !gateway.IsRetryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Delay)),
		backoff.WithMaxTries(uint(retries+1)),
	)
}
