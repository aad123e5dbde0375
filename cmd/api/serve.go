package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/yourusername/postboard/internal/auth"
	authpg "github.com/yourusername/postboard/internal/auth/postgres"
	"github.com/yourusername/postboard/internal/config"
	"github.com/yourusername/postboard/internal/logging"
	"github.com/yourusername/postboard/internal/posts"
	"github.com/yourusername/postboard/internal/ratelimit"
	"github.com/yourusername/postboard/internal/server"
	"github.com/yourusername/postboard/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// serveConfig は serve コマンドのフラグです。
type serveConfig struct {
	autoMigrate bool
}

// NewServeCmd は serve サブコマンドを作成します。
func NewServeCmd() *cobra.Command {
	cfg := &serveConfig{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "HTTP サーバーを起動します",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.autoMigrate, "migrate", false, "起動前にマイグレーションを適用する")

	return cmd
}

func runServe(ctx context.Context, flags *serveConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "load config").Wrap(err)
	}

	logger := logging.Setup(server.ServiceName, cfg.Version, cfg.LogFormat, cfg.LogLevel, nil)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	deps, cleanup, err := buildDeps(ctx, cfg, flags, logger)
	if err != nil {
		logging.LogError(logger, "failed to initialize dependencies", err)
		return err
	}
	defer cleanup()

	router, err := server.New(cfg, deps)
	if err != nil {
		logging.LogError(logger, "failed to build router", err)
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting API server", "addr", srv.Addr, "mode", cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return oops.Code("SERVER_FAILED").With("addr", srv.Addr).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SERVER_SHUTDOWN_FAILED").Wrap(err)
	}
	return nil
}

// buildDeps は設定に応じて Postgres / Redis かインメモリ実装を選びます。
func buildDeps(ctx context.Context, cfg *config.Config, flags *serveConfig, logger *slog.Logger) (server.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps := server.Deps{Logger: logger, Registry: reg}

	if cfg.DatabaseURL != "" {
		if flags.autoMigrate {
			if err := migrateUp(cfg.DatabaseURL, logger); err != nil {
				return deps, cleanup, err
			}
		}

		opts := storage.DefaultConnectOptions()
		opts.Logger = logger
		pool, err := storage.Open(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return deps, cleanup, err
		}
		closers = append(closers, pool.Close)
		usePostgres(&deps, pool)
		logger.Info("using postgres stores")
	} else {
		deps.Users = auth.NewMemoryUserStore()
		deps.Posts = posts.NewMemoryStore()
		logger.Warn("DATABASE_URL is not set, using in-memory stores")
	}

	policy := ratelimit.Policy{
		MaxAttempts:  cfg.MaxLoginAttempts,
		Window:       cfg.LoginWindow(),
		LockDuration: cfg.LoginLockDuration(),
	}
	if cfg.RedisURL != "" {
		rdb, err := ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return deps, cleanup, err
		}
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return deps, cleanup, oops.Code("REDIS_CONNECT_FAILED").Wrap(err)
		}
		deps.Limiter = ratelimit.NewRedisLimiter(rdb, policy)
	} else {
		deps.Limiter = ratelimit.NewMemoryLimiter(policy)
	}

	return deps, cleanup, nil
}

func usePostgres(deps *server.Deps, pool *pgxpool.Pool) {
	deps.Users = authpg.NewUserStore(pool)
	deps.Posts = posts.NewPostgresStore(pool)
}
