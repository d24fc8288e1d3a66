package store

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryKV retries each failed operation once before giving up.
type RetryKV struct {
	next  KV
	delay time.Duration
}

// DefaultRetryDelay is the pause before the single retry.
const DefaultRetryDelay = 100 * time.Millisecond

func NewRetryKV(next KV, delay time.Duration) *RetryKV {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &RetryKV{next: next, delay: delay}
}

func (r *RetryKV) backoff() retry.Backoff {
	return retry.WithMaxRetries(1, retry.NewConstant(r.delay))
}

func (r *RetryKV) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		v, err := r.next.Get(ctx, key)
		if err != nil {
			return retry.RetryableError(err)
		}
		out = v
		return nil
	})
	return out, err
}

func (r *RetryKV) Set(ctx context.Context, key string, value []byte) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		return retry.RetryableError(r.next.Set(ctx, key, value))
	})
}

func (r *RetryKV) Delete(ctx context.Context, key string) error {
	return retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		return retry.RetryableError(r.next.Delete(ctx, key))
	})
}
