package redis

import "strings"

// Every key the services write lives under one namespace so a shared Redis
// can be scanned or flushed per application.
const keyNamespace = "fleet"

type keyKind string

const (
	kindIdempotency keyKind = "idempotency"
	kindRateLimit   keyKind = "rate_limit"
	kindCache       keyKind = "cache"
	kindLock        keyKind = "lock"
)

func key(kind keyKind, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(string(kind))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// IdempotencyKey scopes a client-supplied Idempotency-Key.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key(kindIdempotency, scope, id)
}

// RateLimitKey names the counter for one rate limit window.
func (c *Client) RateLimitKey(scope string) string {
	return key(kindRateLimit, scope)
}

// CacheKey names a read-through cache entry.
func (c *Client) CacheKey(kind, id string) string {
	return key(kindCache, kind, id)
}

// LockKey names a distributed lock.
func (c *Client) LockKey(name string) string {
	return key(kindLock, name)
}
