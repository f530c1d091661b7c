package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goldquote/internal/quote"
)

type countingProvider struct {
	calls atomic.Int32
	err   atomic.Value // error
	delay time.Duration
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Fetch(ctx context.Context) (quote.Payload, error) {
	n := p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if err, _ := p.err.Load().(error); err != nil {
		return quote.Payload{}, err
	}
	v := string(rune('0' + n))
	return quote.Payload{Source: "counting", Values: map[string]*string{quote.KeyGold18: &v}}, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time { c.mu.Lock(); defer c.mu.Unlock(); return c.t }
func (c *fakeClock) Add(d time.Duration) { c.mu.Lock(); c.t = c.t.Add(d); c.mu.Unlock() }

func gold(t *testing.T, p quote.Payload) string {
	t.Helper()
	v, ok := p.Value(quote.KeyGold18)
	require.True(t, ok)
	return v
}

func TestFetch_FreshWithinTTL(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	up := &countingProvider{}
	c := &Provider{P: up, TTL: 10 * time.Second, Stale: 20 * time.Second, now: clk.Now}

	p, err := c.Fetch(t.Context())
	require.NoError(t, err)
	require.Equal(t, "1", gold(t, p))

	clk.Add(5 * time.Second)
	p, err = c.Fetch(t.Context())
	require.NoError(t, err)
	require.Equal(t, "1", gold(t, p))
	require.EqualValues(t, 1, up.calls.Load())

	age, ok := c.Age()
	require.True(t, ok)
	require.Equal(t, 5*time.Second, age)

	clk.Add(6 * time.Second)
	p, err = c.Fetch(t.Context())
	require.NoError(t, err)
	require.Equal(t, "2", gold(t, p))
}

func TestFetch_StaleOnError(t *testing.T) {
	t.Parallel()

	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	up := &countingProvider{}
	c := &Provider{P: up, TTL: 10 * time.Second, Stale: 20 * time.Second, now: clk.Now}

	_, err := c.Fetch(t.Context())
	require.NoError(t, err)

	up.err.Store(errors.New("boom"))
	clk.Add(15 * time.Second)
	p, err := c.Fetch(t.Context())
	require.NoError(t, err)
	require.Equal(t, "1", gold(t, p))

	clk.Add(20 * time.Second)
	_, err = c.Fetch(t.Context())
	require.EqualError(t, err, "boom")
}

func TestFetch_NoCacheYetPropagatesError(t *testing.T) {
	t.Parallel()

	up := &countingProvider{}
	up.err.Store(errors.New("down"))
	c := &Provider{P: up, TTL: time.Second}

	_, err := c.Fetch(t.Context())
	require.EqualError(t, err, "down")
	_, ok := c.Age()
	require.False(t, ok)
}

func TestFetch_DisabledPassesThrough(t *testing.T) {
	t.Parallel()

	up := &countingProvider{}
	c := &Provider{P: up}
	for i := 0; i < 3; i++ {
		_, err := c.Fetch(t.Context())
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, up.calls.Load())
	require.Equal(t, "counting", c.Name())
}

func TestFetch_CoalescesConcurrentRefresh(t *testing.T) {
	t.Parallel()

	up := &countingProvider{delay: 50 * time.Millisecond}
	c := &Provider{P: up, TTL: time.Minute}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Fetch(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, up.calls.Load())
}

// slowProvider blocks for delay unless its context ends first.
type slowProvider struct {
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (p *slowProvider) Name() string { return "slow" }

func (p *slowProvider) Fetch(ctx context.Context) (quote.Payload, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-ctx.Done():
		return quote.Payload{}, ctx.Err()
	case <-time.After(p.delay):
	}
	v := "1"
	return quote.Payload{Source: "slow", Values: map[string]*string{quote.KeyGold18: &v}}, nil
}

func TestFetch_CancelledCallerDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	up := &slowProvider{delay: 100 * time.Millisecond, started: make(chan struct{})}
	c := &Provider{P: up, TTL: time.Minute}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(firstCtx)
		firstErr <- err
	}()
	<-up.started

	type result struct {
		p   quote.Payload
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := c.Fetch(context.Background())
		second <- result{p, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelFirst()

	require.ErrorIs(t, <-firstErr, context.Canceled)

	res := <-second
	require.NoError(t, res.err)
	require.Equal(t, "1", gold(t, res.p))

	_, ok := c.Age()
	require.True(t, ok, "the shared refresh still fills the cache")
}

func TestFetch_RefreshTimeout(t *testing.T) {
	t.Parallel()

	up := &slowProvider{delay: time.Second, started: make(chan struct{})}
	c := &Provider{P: up, TTL: time.Minute, RefreshTimeout: 20 * time.Millisecond}

	_, err := c.Fetch(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
