package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis はキーごとの値と TTL だけを持つ最小限の実装です。
type fakeRedis struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	err    error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) TTL(_ context.Context, key string) *redis.DurationCmd {
	if f.err != nil {
		return redis.NewDurationResult(0, f.err)
	}
	ttl, ok := f.ttls[key]
	if !ok {
		return redis.NewDurationResult(-2, nil)
	}
	return redis.NewDurationResult(ttl, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, _ any, expiration time.Duration) *redis.StatusCmd {
	f.counts[key] = 1
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.counts[key]; ok {
			n++
		}
		delete(f.counts, key)
		delete(f.ttls, key)
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisLimiterLocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	l := NewRedisLimiter(rdb, Policy{MaxAttempts: 2, Window: time.Minute, LockDuration: 5 * time.Minute})

	left, err := l.Fail(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 1, left)
	assert.Equal(t, time.Minute, rdb.ttls[attemptKeyPrefix+"ip"])

	retryAfter, err := l.Check(ctx, "ip")
	require.NoError(t, err)
	assert.Zero(t, retryAfter)

	left, err = l.Fail(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	retryAfter, err = l.Check(ctx, "ip")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, retryAfter)

	require.NoError(t, l.Reset(ctx, "ip"))
	retryAfter, err = l.Check(ctx, "ip")
	require.NoError(t, err)
	assert.Zero(t, retryAfter)
}

func TestRedisLimiterPropagatesErrors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.err = errors.New("connection refused")
	l := NewRedisLimiter(rdb, DefaultPolicy())

	_, err := l.Check(ctx, "ip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = l.Fail(ctx, "ip")
	require.Error(t, err)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient("not a url")
	require.Error(t, err)

	client, err := NewRedisClient("redis://127.0.0.1:6379/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())
}
