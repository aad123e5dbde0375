package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	attemptKeyPrefix = "login_attempts:"
	lockKeyPrefix    = "login_lock:"
)

// redisCmdable は RedisLimiter が使うコマンドだけを切り出したものです。*redis.Client が満たします。
type redisCmdable interface {
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLimiter は複数インスタンスで失敗回数を共有する Limiter です。
// 失敗回数は Window、ロックは LockDuration の TTL 付きキーで表現します。
type RedisLimiter struct {
	rdb    redisCmdable
	policy Policy
}

// NewRedisLimiter は RedisLimiter を作成します。
func NewRedisLimiter(rdb redisCmdable, policy Policy) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, policy: policy}
}

// NewRedisClient は REDIS_URL から go-redis のクライアントを作成します。
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.Code("RATELIMIT_REDIS_URL_INVALID").Wrap(err)
	}
	return redis.NewClient(opt), nil
}

// Check はロックキーの TTL を返します。
func (l *RedisLimiter) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.TTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, oops.Code("RATELIMIT_CHECK_FAILED").With("key", key).Wrap(err)
	}
	// キーが無い場合は -2、TTL が無い場合は -1 が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

// Fail は失敗回数を加算し、上限に達したらロックキーを作成します。
func (l *RedisLimiter) Fail(ctx context.Context, key string) (int, error) {
	attemptKey := attemptKeyPrefix + key
	count, err := l.rdb.Incr(ctx, attemptKey).Result()
	if err != nil {
		return 0, oops.Code("RATELIMIT_FAIL_FAILED").With("key", key).Wrap(err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, attemptKey, l.policy.Window).Err(); err != nil {
			return 0, oops.Code("RATELIMIT_FAIL_FAILED").With("key", key).Wrap(err)
		}
	}

	if int(count) >= l.policy.MaxAttempts {
		if err := l.rdb.Set(ctx, lockKeyPrefix+key, 1, l.policy.LockDuration).Err(); err != nil {
			return 0, oops.Code("RATELIMIT_LOCK_FAILED").With("key", key).Wrap(err)
		}
		if err := l.rdb.Del(ctx, attemptKey).Err(); err != nil {
			return 0, oops.Code("RATELIMIT_LOCK_FAILED").With("key", key).Wrap(err)
		}
		return 0, nil
	}

	return remaining(l.policy.MaxAttempts, int(count)), nil
}

// Reset は失敗回数とロックを消去します。
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, attemptKeyPrefix+key, lockKeyPrefix+key).Err(); err != nil {
		return oops.Code("RATELIMIT_RESET_FAILED").With("key", key).Wrap(err)
	}
	return nil
}
