package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

// Nil is returned by reads of missing keys.
var Nil = redis.Nil

var errNotConnected = errors.New("redis: client not connected")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	ExpireNX(context.Context, string, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Eval(context.Context, string, []string, ...any) *redis.Cmd
}

// Client is the slice of Redis the fleet services use: cache entries,
// idempotency records, rate-limit counters and the cron lock.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore is what the idempotency middleware needs.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// New connects and pings before returning.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"redis_addr": opts.Addr, "redis_db": opts.DB}), "redis connected")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers FLEET_REDIS_URL. Pool and timeout settings fill
// whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	default:
		return nil, errors.New("redis url or address is required")
	}
	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func fillDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 {
		*dst = v
	}
}

func (c *Client) conn() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, errNotConnected
	}
	return c.store, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s, err := c.conn()
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value, ttl).Err()
}

// Get returns Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	s, err := c.conn()
	if err != nil {
		return "", err
	}
	return s.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s, err := c.conn()
	if err != nil {
		return false, err
	}
	return s.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	s, err := c.conn()
	if err != nil {
		return err
	}
	return s.Del(ctx, keys...).Err()
}

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
const compareAndDelete = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) end return 0`

// DelIfEqual deletes key when its value is still expected, in one round trip.
func (c *Client) DelIfEqual(ctx context.Context, key, expected string) (bool, error) {
	s, err := c.conn()
	if err != nil {
		return false, err
	}
	n, err := s.Eval(ctx, compareAndDelete, []string{key}, expected).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrWithTTL bumps the counter at key. EXPIRE NX runs on every call, so a
// counter whose first expire was lost still ends up with a TTL.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s, err := c.conn()
	if err != nil {
		return 0, err
	}
	count, err := s.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl > 0 {
		if err := s.ExpireNX(ctx, key, ttl).Err(); err != nil {
			return count, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return count, nil
}

// FixedWindowAllow counts one hit against scope and reports whether the
// window is still within limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := c.IncrWithTTL(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func (c *Client) Ping(ctx context.Context) error {
	s, err := c.conn()
	if err != nil {
		return err
	}
	return s.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
