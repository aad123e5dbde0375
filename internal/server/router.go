// Package server は gin ルーターとミドルウェアの配線を行います。
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/yourusername/postboard/internal/auth"
	"github.com/yourusername/postboard/internal/config"
	"github.com/yourusername/postboard/internal/logging"
	"github.com/yourusername/postboard/internal/metrics"
	"github.com/yourusername/postboard/internal/posts"
	"github.com/yourusername/postboard/internal/ratelimit"
)

// ServiceName は /health とログに出すサービス名です。
const ServiceName = "postboard-api"

// Deps はルーターが使うストアやリミッターです。
type Deps struct {
	Users    auth.UserStore
	Posts    posts.Store
	Limiter  ratelimit.Limiter
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// New はミドルウェアとルートを登録した gin.Engine を返します。
//
// ミドルウェアの順序: Recovery → リクエストログ → セッション → CORS → 認可ゲート。
func New(cfg *config.Config, deps Deps) (*gin.Engine, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	m := metrics.New(deps.Registry)

	service, err := auth.NewService(deps.Users, auth.NewHasher(nil), deps.Logger, m)
	if err != nil {
		return nil, oops.Code("SERVER_INIT_FAILED").With("component", "auth service").Wrap(err)
	}

	gate, err := auth.NewGate(auth.DefaultRoutes(), cfg.PublicPathPatterns())
	if err != nil {
		return nil, oops.Code("SERVER_INIT_FAILED").With("component", "gate").Wrap(err)
	}

	binder := auth.NewSessionBinder(cfg.SessionIdleTimeout())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(deps.Logger))
	router.Use(sessions.Sessions(auth.SessionCookieName, newSessionStore(cfg)))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(gate.Middleware(binder, deps.Logger, m))

	router.GET("/health", healthHandler(cfg.Version))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	auth.NewHandler(service, binder, deps.Limiter, gate.Routes(), deps.Logger, m).RegisterRoutes(router)
	posts.NewHandler(deps.Posts, binder, gate.Routes(), deps.Logger).RegisterRoutes(router)

	return router, nil
}

// newSessionStore はクッキーの有効期限を無操作タイムアウトに合わせたセッションストアを返します。
func newSessionStore(cfg *config.Config) sessions.Store {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionIdleTimeout().Seconds()),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	}

	var store sessions.Store
	if cfg.SessionStore == config.SessionStoreMemory {
		store = memstore.NewStore([]byte(cfg.SessionSecret))
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}
	store.Options(options)
	return store
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = cfg.AllowedOrigins()
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
		logging.RequestIDHeader,
	}
	corsCfg.ExposeHeaders = []string{logging.RequestIDHeader, "Retry-After"}
	return corsCfg
}

// healthHandler はヘルスチェックエンドポイントのハンドラーです。
func healthHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": ServiceName,
			"version": version,
		})
	}
}
