package tmdb

import (
	"context"
	"sync"
	"time"
)

// rateLimiter pauses for a fixed interval before every outbound request.
// Requests are serialized so the interval holds across goroutines.
type rateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval, sleep: sleepContext}
}

// wait blocks for the configured interval or until ctx is done.
func (r *rateLimiter) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.interval <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sleep(ctx, r.interval)
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
