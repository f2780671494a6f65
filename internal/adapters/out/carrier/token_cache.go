// Package carrier holds what the carrier adapters share: the OAuth token
// cache, a rate-limited JSON client, fallback pricing from stored rate tables
// and the registry the application resolves carrier codes through.
package carrier

import (
	"context"
	"sync"
	"time"

	"shipping/internal/core/ports"

	"golang.org/x/sync/singleflight"
)

// TokenSafetyMargin is subtracted from the provider's expiry. Lifetimes too
// short to absorb it are cached for half their length instead.
const TokenSafetyMargin = 5 * time.Minute

// TokenFetchTimeout bounds a shared fetch, which outlives the caller that started it.
const TokenFetchTimeout = 30 * time.Second

// TokenFetcher performs the client-credentials exchange. expiresIn is the provider's lifetime.
type TokenFetcher func(ctx context.Context) (accessToken string, expiresIn time.Duration, err error)

// TokenCache holds one carrier's bearer token. Concurrent refreshes collapse
// into a single fetch and every waiter receives the token it produced.
type TokenCache struct {
	fetch TokenFetcher
	now   func() time.Time

	mu    sync.RWMutex
	token ports.Token
	group singleflight.Group
}

func NewTokenCache(fetch TokenFetcher) *TokenCache {
	return &TokenCache{fetch: fetch, now: time.Now}
}

// Get returns the cached token while it is valid, otherwise fetches a new one.
// A caller whose ctx ends stops waiting; the fetch carries on for the others.
func (c *TokenCache) Get(ctx context.Context) (ports.Token, error) {
	if token, ok := c.cached(); ok {
		return token, nil
	}

	ch := c.group.DoChan("token", func() (any, error) {
		if token, ok := c.cached(); ok {
			return token, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), TokenFetchTimeout)
		defer cancel()

		accessToken, expiresIn, err := c.fetch(fetchCtx)
		if err != nil {
			return ports.Token{}, err
		}

		token := ports.Token{
			AccessToken: accessToken,
			ExpiresAt:   c.now().Add(tokenLifetime(expiresIn)),
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		return token, nil
	})

	select {
	case <-ctx.Done():
		return ports.Token{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ports.Token{}, res.Err
		}
		return res.Val.(ports.Token), nil
	}
}

func tokenLifetime(expiresIn time.Duration) time.Duration {
	lifetime := expiresIn - TokenSafetyMargin
	if half := expiresIn / 2; lifetime < half {
		lifetime = half
	}
	return lifetime
}

// Invalidate drops the cached token, e.g. after the carrier answers 401.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = ports.Token{}
	c.mu.Unlock()
}

func (c *TokenCache) cached() (ports.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.token.Valid(c.now())
}
