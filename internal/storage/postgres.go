// Package storage は PostgreSQL 接続とスキーマ管理を提供します。
package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// ConnectOptions は起動時の接続リトライ設定です。
type ConnectOptions struct {
	MaxRetries  uint64
	BaseBackoff time.Duration
	Logger      *slog.Logger
}

// DefaultConnectOptions は 0.5 秒から倍々で最大 5 回リトライします。
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxRetries:  5,
		BaseBackoff: 500 * time.Millisecond,
	}
}

// pinger は接続確認だけを行うインターフェースです。
type pinger interface {
	Ping(ctx context.Context) error
}

// Open は接続プールを作成し、DB が応答するまで待ちます。
func Open(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := waitReady(ctx, pool, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// waitReady は Ping が成功するまで指数バックオフで再試行します。
func waitReady(ctx context.Context, p pinger, opts ConnectOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := opts.BaseBackoff
	if base <= 0 {
		base = DefaultConnectOptions().BaseBackoff
	}

	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(base))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			logger.WarnContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}
