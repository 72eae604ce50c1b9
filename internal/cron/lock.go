package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Kwakusharp7/fleet-managment/pkg/instance"
)

const defaultLockTTL = 25 * time.Hour

// Lock coordinates exclusive maintenance runs across cron-worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// holderReporter is implemented by locks that can name the current holder.
type holderReporter interface {
	Holder(ctx context.Context) (string, error)
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	DelIfEqual(ctx context.Context, key, expected string) (bool, error)
}

// RedisLock implements Lock with SETNX and a TTL so a crashed holder cannot
// block the next cycle forever.
type RedisLock struct {
	client   redisStore
	key      string
	ttl      time.Duration
	instance string
	owner    string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl, instance: instance.GetID()}, nil
}

// Acquire tries to own the lock for the configured TTL. The stored value is
// "<instance>/<token>" so a skipped replica can report who holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := l.instance + "/" + uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if this instance still owns it. An expired
// lock that another replica has since taken is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	if _, err := l.client.DelIfEqual(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	l.owner = ""
	return nil
}

// Holder returns the instance id of the current lock holder, or "" when the
// lock is free.
func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("read lock owner: %w", err)
	}
	holder, _, _ := strings.Cut(value, "/")
	return holder, nil
}
