package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i, want := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "test-scope", 2, time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, allowed, "hit %d", i+1)
		assert.EqualValues(t, i+1, count)
	}
	assert.Len(t, mock.expireCalls, 1, "the window TTL is set once")
}

func TestFixedWindowRestoresMissingTTL(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	k := client.RateLimitKey("writes:u1")
	mock.incr[k] = 5

	_, _, err := client.FixedWindowAllow(context.Background(), "writes:u1", 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mock.ttl[k])
}

func TestSetGetDelLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	k := client.CacheKey("project", "P100")

	require.NoError(t, client.Set(ctx, k, `{"code":"P100"}`, 10*time.Minute))
	got, err := client.Get(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, `{"code":"P100"}`, got)

	require.NoError(t, client.Del(ctx, k))
	_, err = client.Get(ctx, k)
	assert.ErrorIs(t, err, Nil)
}

func TestDelIfEqualKeepsForeignValue(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "lock", "owner-a", time.Minute))

	deleted, err := client.DelIfEqual(ctx, "lock", "owner-b")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, "owner-a", mock.data["lock"])

	deleted, err = client.DelIfEqual(ctx, "lock", "owner-a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NotContains(t, mock.data, "lock")
}

func TestUnconnectedClient(t *testing.T) {
	var nilClient *Client
	for _, c := range []*Client{{}, nilClient} {
		assert.ErrorIs(t, c.Ping(context.Background()), errNotConnected)
		_, err := c.SetNX(context.Background(), "k", "v", time.Second)
		assert.ErrorIs(t, err, errNotConnected)
		assert.NoError(t, c.Close())
	}
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	ttl         map[string]time.Duration
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) ExpireNX(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if _, ok := m.ttl[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttl[key] = expiration
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval understands only the compare-and-delete script.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if m.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}
