package cache_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlytics/wallet-insights/internal/cache"
	"github.com/zlytics/wallet-insights/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// stubClock is a manually advanced clock
type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *stubClock) Since(t time.Time) time.Duration        { return c.Now().Sub(t) }
func (c *stubClock) Sleep(time.Duration)                    {}
func (c *stubClock) After(time.Duration) <-chan time.Time   { return make(chan time.Time) }
func (c *stubClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("caches within the TTL", func(t *testing.T) {
		clock := newStubClock()
		c := cache.NewQueryCache(clock)

		calls := 0
		producer := func(context.Context) (interface{}, error) {
			calls++
			return calls, nil
		}

		v, err := c.Do(ctx, "dashboard:p1", time.Minute, producer)
		require.NoError(t, err)
		assert.Equal(t, 1, v)

		clock.Advance(30 * time.Second)
		v, err = c.Do(ctx, "dashboard:p1", time.Minute, producer)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		assert.Equal(t, 1, calls)
	})

	t.Run("recomputes after expiry", func(t *testing.T) {
		clock := newStubClock()
		c := cache.NewQueryCache(clock)

		calls := 0
		producer := func(context.Context) (interface{}, error) {
			calls++
			return calls, nil
		}

		_, err := c.Do(ctx, "k", time.Minute, producer)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		v, err := c.Do(ctx, "k", time.Minute, producer)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		clock := newStubClock()
		c := cache.NewQueryCache(clock)

		calls := 0
		boom := errors.New("db down")
		_, err := c.Do(ctx, "k", time.Minute, func(context.Context) (interface{}, error) {
			calls++
			return nil, boom
		})
		assert.ErrorIs(t, err, boom)

		v, err := c.Do(ctx, "k", time.Minute, func(context.Context) (interface{}, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 2, calls)
	})

	t.Run("keys are independent", func(t *testing.T) {
		clock := newStubClock()
		c := cache.NewQueryCache(clock)

		for _, key := range []string{"a", "b"} {
			key := key
			v, err := c.Do(ctx, key, time.Minute, func(context.Context) (interface{}, error) {
				return key + "-value", nil
			})
			require.NoError(t, err)
			assert.Equal(t, key+"-value", v)
		}
		assert.Equal(t, 2, c.Len())
	})
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	clock := newStubClock()
	c := cache.NewQueryCache(clock)

	seed := func(key string) {
		_, err := c.Do(ctx, key, time.Minute, func(context.Context) (interface{}, error) {
			return key, nil
		})
		require.NoError(t, err)
	}
	seed("dashboard:p1")
	seed("dashboard:p2")
	seed("benchmark:retention")

	assert.Equal(t, 2, c.Invalidate("dashboard:"))
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 1, c.Invalidate(""))
	assert.Zero(t, c.Len())
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	clock := newStubClock()
	c := cache.NewQueryCache(clock)

	_, err := c.Do(ctx, "short", time.Minute, func(context.Context) (interface{}, error) { return 1, nil })
	require.NoError(t, err)
	_, err = c.Do(ctx, "long", time.Hour, func(context.Context) (interface{}, error) { return 2, nil })
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, c.SweepExpired())
	assert.Equal(t, 1, c.Len())

	// the surviving entry is still served from cache
	v, err := c.Do(ctx, "long", time.Hour, func(context.Context) (interface{}, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	clock := newStubClock()
	c := cache.NewQueryCache(clock)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Do(ctx, "shared", time.Minute, func(context.Context) (interface{}, error) {
				return "v", nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
