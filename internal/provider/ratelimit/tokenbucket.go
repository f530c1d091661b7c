package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a token bucket limiter.
// Tokens refill continuously at rate per second up to capacity (burst).
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
	now    func() time.Time
}

func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 { tokensPerSecond = 0.0000001 }
	if burst <= 0 { burst = 1 }
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst), // start full to allow an initial burst
		last:     time.Now(),
		now:      time.Now,
	}
}

// take refills the bucket and consumes one token if available. Otherwise it
// reports how long until one will be.
func (tb *TokenBucket) take() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	now := tb.now()
	if elapsed := now.Sub(tb.last).Seconds(); elapsed > 0 {
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
	if wait <= 0 { wait = time.Millisecond }
	return false, wait
}

// Allow consumes a token without blocking.
func (tb *TokenBucket) Allow() bool {
	ok, _ := tb.take()
	return ok
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		ok, wait := tb.take()
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
