package carrier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCache_Get(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("expiry keeps a safety margin", func(t *testing.T) {
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			return "abc", time.Hour, nil
		})
		cache.now = func() time.Time { return now }

		token, err := cache.Get(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "abc", token.AccessToken)
		assert.Equal(t, now.Add(55*time.Minute), token.ExpiresAt)
	})

	t.Run("valid token is served without fetching", func(t *testing.T) {
		var fetches atomic.Int32
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			fetches.Add(1)
			return "abc", time.Hour, nil
		})
		cache.now = func() time.Time { return now }

		_, err := cache.Get(context.Background())
		require.NoError(t, err)
		_, err = cache.Get(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(1), fetches.Load())
	})

	t.Run("token inside the margin is refreshed", func(t *testing.T) {
		clock := now
		var fetches atomic.Int32
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			return []string{"first", "second"}[fetches.Add(1)-1], 10 * time.Minute, nil
		})
		cache.now = func() time.Time { return clock }

		first, err := cache.Get(context.Background())
		require.NoError(t, err)

		clock = now.Add(6 * time.Minute)
		second, err := cache.Get(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "first", first.AccessToken)
		assert.Equal(t, "second", second.AccessToken)
	})

	t.Run("concurrent callers share one fetch", func(t *testing.T) {
		release := make(chan struct{})
		var fetches atomic.Int32
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			fetches.Add(1)
			<-release
			return "shared", time.Hour, nil
		})

		const callers = 20
		tokens := make([]string, callers)
		var wg sync.WaitGroup
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				token, err := cache.Get(context.Background())
				assert.NoError(t, err)
				tokens[i] = token.AccessToken
			}()
		}

		require.Eventually(t, func() bool { return fetches.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), fetches.Load())
		for _, token := range tokens {
			assert.Equal(t, "shared", token)
		}
	})

	t.Run("short lifetime is cached for half its length", func(t *testing.T) {
		var fetches atomic.Int32
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			fetches.Add(1)
			return "short", 4 * time.Minute, nil
		})
		cache.now = func() time.Time { return now }

		token, err := cache.Get(context.Background())
		require.NoError(t, err)
		_, err = cache.Get(context.Background())
		require.NoError(t, err)

		assert.Equal(t, now.Add(2*time.Minute), token.ExpiresAt)
		assert.Equal(t, int32(1), fetches.Load())
	})

	t.Run("cancelled caller does not fail the shared fetch", func(t *testing.T) {
		release := make(chan struct{})
		var fetchErr atomic.Value
		cache := NewTokenCache(func(ctx context.Context) (string, time.Duration, error) {
			<-release
			if err := ctx.Err(); err != nil {
				fetchErr.Store(err)
				return "", 0, err
			}
			return "shared", time.Hour, nil
		})

		firstCtx, cancel := context.WithCancel(context.Background())
		firstDone := make(chan error, 1)
		go func() {
			_, err := cache.Get(firstCtx)
			firstDone <- err
		}()

		secondDone := make(chan string, 1)
		go func() {
			token, err := cache.Get(context.Background())
			assert.NoError(t, err)
			secondDone <- token.AccessToken
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()
		require.ErrorIs(t, <-firstDone, context.Canceled)

		close(release)
		assert.Equal(t, "shared", <-secondDone)
		assert.Nil(t, fetchErr.Load())

		token, ok := cache.cached()
		assert.True(t, ok)
		assert.Equal(t, "shared", token.AccessToken)
	})

	t.Run("fetch error is returned and nothing is cached", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			calls++
			return "", 0, boom
		})

		_, err := cache.Get(context.Background())
		require.ErrorIs(t, err, boom)
		_, err = cache.Get(context.Background())
		require.ErrorIs(t, err, boom)

		assert.Equal(t, 2, calls)
	})

	t.Run("invalidate forces a new fetch", func(t *testing.T) {
		var fetches atomic.Int32
		cache := NewTokenCache(func(context.Context) (string, time.Duration, error) {
			fetches.Add(1)
			return "abc", time.Hour, nil
		})

		_, err := cache.Get(context.Background())
		require.NoError(t, err)
		cache.Invalidate()
		_, err = cache.Get(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(2), fetches.Load())
	})
}
