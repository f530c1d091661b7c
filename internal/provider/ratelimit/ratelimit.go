// Package ratelimit guards quota-limited upstream sources.
package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"goldquote/internal/provider"
	"goldquote/internal/quote"
)

// ErrQuota is returned when a non-blocking limiter has no budget left.
var ErrQuota = errors.New("local request quota exhausted")

// Limited gates a provider with a token bucket. With Block unset, calls over
// budget fail fast with an upstream error so a cache in front can serve its
// last payload instead of holding the HTTP request open.
type Limited struct {
	P     provider.Provider
	TB    *TokenBucket
	Block bool
}

func (l *Limited) Name() string { return l.P.Name() }

func (l *Limited) Fetch(ctx context.Context) (quote.Payload, error) {
	if l.TB != nil {
		if l.Block {
			if err := l.TB.Wait(ctx); err != nil {
				return quote.Payload{}, err
			}
		} else if !l.TB.Allow() {
			return quote.Payload{}, &provider.UpstreamError{Source: l.P.Name(), Status: http.StatusTooManyRequests, Err: ErrQuota}
		}
	}
	return l.P.Fetch(ctx)
}

// MinInterval enforces a minimum spacing between upstream calls.
// Callers wait for the remaining time, or return early if ctx is canceled.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration

	mu   sync.Mutex
	next time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Fetch(ctx context.Context) (quote.Payload, error) {
	if m.Interval > 0 {
		// reserve a slot so concurrent callers queue behind each other
		m.mu.Lock()
		now := time.Now()
		slot := m.next
		if slot.Before(now) { slot = now }
		m.next = slot.Add(m.Interval)
		m.mu.Unlock()

		if wait := time.Until(slot); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return quote.Payload{}, ctx.Err()
			case <-t.C:
			}
		}
	}
	return m.P.Fetch(ctx)
}

// Options selects which limiter Wrap applies.
type Options struct {
	RequestsPerMinute int
	Burst             int
	MinInterval       time.Duration
	Block             bool
}

// Wrap applies a token bucket when RequestsPerMinute is set, otherwise a
// minimum interval when that is set, otherwise returns p unchanged.
func Wrap(p provider.Provider, o Options) provider.Provider {
	switch {
	case o.RequestsPerMinute > 0:
		return &Limited{P: p, TB: NewTokenBucket(float64(o.RequestsPerMinute)/60.0, o.Burst), Block: o.Block}
	case o.MinInterval > 0:
		return &MinInterval{P: p, Interval: o.MinInterval}
	default:
		return p
	}
}
