package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter caps throughput at burst requests per window. The full
// allowance comes back at each window boundary rather than dripping in
// continuously, which mirrors how most data APIs meter their quotas.
type RateLimiter struct {
	mu     sync.Mutex
	burst  int
	window time.Duration
	left   int
	reset  time.Time
}

// NewRateLimiter allows burst requests per window. Non-positive
// arguments are clamped to 1 request per second.
func NewRateLimiter(burst int, window time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		burst:  burst,
		window: window,
		left:   burst,
		reset:  time.Now().Add(window),
	}
}

// take consumes a slot if one is free; otherwise it reports how long
// until the current window rolls over.
func (rl *RateLimiter) take() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if !now.Before(rl.reset) {
		rl.left = rl.burst
		rl.reset = now.Add(rl.window)
	}
	if rl.left > 0 {
		rl.left--
		return true, 0
	}
	return false, rl.reset.Sub(now)
}

// Allow reports whether a request may proceed right now, consuming a
// slot when it may.
func (rl *RateLimiter) Allow() bool {
	ok, _ := rl.take()
	return ok
}

// Wait blocks until a slot frees up or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		ok, wait := rl.take()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
