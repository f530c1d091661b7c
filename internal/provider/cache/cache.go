package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"goldquote/internal/logger"
	"goldquote/internal/provider"
	"goldquote/internal/quote"
)

// DefaultRefreshTimeout bounds a shared refresh when RefreshTimeout is unset.
const DefaultRefreshTimeout = 30 * time.Second

// Provider caches the last payload of the wrapped provider for TTL.
// When a refresh fails, the previous payload keeps being served for up to
// Stale past its expiry. Concurrent refreshes share one upstream call, which
// is detached from any single caller's cancellation.
type Provider struct {
	P              provider.Provider
	TTL            time.Duration
	Stale          time.Duration
	RefreshTimeout time.Duration

	mu        sync.RWMutex
	payload   quote.Payload
	fetchedAt time.Time
	ok        bool

	sf  singleflight.Group
	now func() time.Time
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *Provider) refreshTimeout() time.Duration {
	if c.RefreshTimeout > 0 {
		return c.RefreshTimeout
	}
	return DefaultRefreshTimeout
}

// Fetch returns the cached payload while fresh, otherwise refreshes it.
func (c *Provider) Fetch(ctx context.Context) (quote.Payload, error) {
	if c.TTL <= 0 {
		return c.P.Fetch(ctx)
	}

	c.mu.RLock()
	p, at, ok := c.payload, c.fetchedAt, c.ok
	c.mu.RUnlock()
	if ok && c.clock().Sub(at) < c.TTL {
		return p, nil
	}

	ch := c.sf.DoChan("payload", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()
		fresh, err := c.P.Fetch(rctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.payload, c.fetchedAt, c.ok = fresh, c.clock(), true
		c.mu.Unlock()
		return fresh, nil
	})

	var (
		v   any
		err error
	)
	select {
	case <-ctx.Done():
		return quote.Payload{}, ctx.Err()
	case res := <-ch:
		v, err = res.Val, res.Err
	}
	if err != nil {
		// Serve the previous payload rather than failing while it is within the stale window.
		if ok && c.clock().Sub(at) < c.TTL+c.Stale {
			logger.Warn("serving stale quote", "provider", c.P.Name(), "age", c.clock().Sub(at).String(), "error", err)
			return p, nil
		}
		return quote.Payload{}, err
	}
	return v.(quote.Payload), nil
}

// Age reports how old the cached payload is; ok is false when nothing is cached.
func (c *Provider) Age() (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		return 0, false
	}
	return c.clock().Sub(c.fetchedAt), true
}
