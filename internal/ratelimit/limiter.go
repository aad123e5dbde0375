// Package ratelimit はログイン失敗回数に応じたロックを提供します。
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter はキー（通常はクライアント IP）ごとの失敗回数を数えます。
type Limiter interface {
	// Check はロック中なら残り時間を返します。ロックされていなければ 0 です。
	Check(ctx context.Context, key string) (time.Duration, error)

	// Fail は失敗を 1 回記録し、ロックまでの残り回数を返します。
	Fail(ctx context.Context, key string) (int, error)

	// Reset は記録を消去します。
	Reset(ctx context.Context, key string) error
}

// Policy はロック条件です。Window 内に MaxAttempts 回失敗すると LockDuration だけロックします。
type Policy struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultPolicy は 15 分間に 5 回失敗で 10 分ロックです。
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		Window:       15 * time.Minute,
		LockDuration: 10 * time.Minute,
	}
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// MemoryLimiter はプロセス内で失敗回数を保持する Limiter です。
type MemoryLimiter struct {
	policy   Policy
	now      func() time.Time
	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewMemoryLimiter は MemoryLimiter を作成します。
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   policy,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

// Check はロック中であれば残り時間を返します。
func (l *MemoryLimiter) Check(_ context.Context, key string) (time.Duration, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	state, ok := l.attempts[key]
	if !ok {
		return 0, nil
	}
	now := l.now()
	if now.After(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

// Fail は失敗を記録します。
func (l *MemoryLimiter) Fail(_ context.Context, key string) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	state, ok := l.attempts[key]
	if !ok || now.Sub(state.firstAttempt) > l.policy.Window {
		state = &attemptState{firstAttempt: now}
		l.attempts[key] = state
	}

	state.count++
	if state.count >= l.policy.MaxAttempts {
		state.lockedUntil = now.Add(l.policy.LockDuration)
		state.count = l.policy.MaxAttempts
	}

	return remaining(l.policy.MaxAttempts, state.count), nil
}

// Reset は記録を消去します。
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, key)
	return nil
}

func remaining(maxAttempts, count int) int {
	left := maxAttempts - count
	if left < 0 {
		return 0
	}
	return left
}
