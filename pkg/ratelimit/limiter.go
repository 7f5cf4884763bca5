// Package ratelimit serializes outbound calls to the rate provider. The
// provider enforces a fixed requests-per-minute ceiling shared across every
// lookup in the process, so throttling lives in one shared limiter instead
// of being duplicated in each caller.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter allows one acquisition per fixed interval, globally. Callers
// queue on the internal mutex, so acquisitions resolve in call order.
type Limiter struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter that spaces acquisitions at least delay apart.
func New(delay time.Duration) *Limiter {
	return &Limiter{delay: delay, sleep: sleepCtx}
}

// Acquire blocks until at least the configured delay has elapsed since the
// previous acquisition resolved. It never fails except when ctx is
// cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		if wait := l.delay - time.Since(l.last); wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	l.last = time.Now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
