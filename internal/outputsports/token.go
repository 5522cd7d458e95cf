package outputsports

import (
	"sync"
	"time"
)

// TokenCache keeps the OAuth access token together with its expiry.
// Safe for concurrent use by all handlers sharing one client.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

// Get returns the cached token, or false if missing or expired at `now`.
func (tc *TokenCache) Get(now time.Time) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.token == "" || !now.Before(tc.expiresAt) {
		return "", false
	}
	return tc.token, true
}

func (tc *TokenCache) Set(token string, expiresIn time.Duration, now time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.token = token
	tc.expiresAt = now.Add(expiresIn)
}
