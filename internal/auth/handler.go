package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/logging"
	"github.com/yourusername/postboard/internal/metrics"
	"github.com/yourusername/postboard/internal/ratelimit"
)

// LogoutPath はログアウトのエンドポイントです。
const LogoutPath = "/Account/Logout"

// Handler は /Account/* のハンドラーです。
type Handler struct {
	service *Service
	binder  *SessionBinder
	limiter ratelimit.Limiter
	routes  Routes
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler は Handler を作成します。
func NewHandler(service *Service, binder *SessionBinder, limiter ratelimit.Limiter, routes Routes, logger *slog.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		binder:  binder,
		limiter: limiter,
		routes:  routes,
		logger:  logger,
		metrics: m,
	}
}

// RegisterRoutes はアカウント関連のルートを登録します。
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(h.routes.Login, h.LoginPage)
	r.POST(h.routes.Login, h.Login)
	r.GET(h.routes.Signup, h.SignupPage)
	r.POST(h.routes.Signup, h.Signup)
	r.POST(LogoutPath, h.Logout)
}

type credentialsRequest struct {
	Username string `form:"username" json:"username" binding:"required,max=50"`
	Password string `form:"password" json:"password" binding:"required"`
}

// LoginPage はログインフォームの情報を返します（描画はフロントエンド側）。
func (h *Handler) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":   "login",
		"action": h.routes.Login,
		"fields": []string{"username", "password"},
	})
}

// SignupPage はサインアップフォームの情報を返します。
func (h *Handler) SignupPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"page":   "signup",
		"action": h.routes.Signup,
		"fields": []string{"username", "password"},
	})
}

// Login は POST /Account/Login のハンドラーです。
func (h *Handler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": MsgInvalidInput,
		})
		return
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()
	retryAfter, err := h.limiter.Check(ctx, ip)
	if err != nil {
		h.internalError(c, "login limiter check failed", err)
		return
	}
	if retryAfter > 0 {
		h.metrics.Login(metrics.ResultLocked)
		// Retry-After は秒数で返す
		c.Header("Retry-After", strconv.FormatInt(int64(retryAfter.Seconds()), 10))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    "TOO_MANY_ATTEMPTS",
			"message": "一定時間後に再度お試しください",
		})
		return
	}

	session := h.binder.Bind(c)
	if _, err := h.service.Login(ctx, session, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			remaining, failErr := h.limiter.Fail(ctx, ip)
			if failErr != nil {
				h.internalError(c, "login limiter update failed", failErr)
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":              "INVALID_CREDENTIALS",
				"message":           MsgInvalidCredentials,
				"remainingAttempts": remaining,
			})
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": MsgInvalidInput,
			})
		default:
			h.internalError(c, "login failed", err)
		}
		return
	}

	if err := h.limiter.Reset(ctx, ip); err != nil {
		// ログイン自体は成功しているため、失敗回数のリセットはベストエフォート
		logging.LogError(h.logger, "login limiter reset failed", err, "client_ip", ip)
	}

	c.Redirect(http.StatusSeeOther, h.routes.Home)
}

// Signup は POST /Account/Signup のハンドラーです。
func (h *Handler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "INVALID_INPUT",
			"message": MsgInvalidInput,
		})
		return
	}

	session := h.binder.Bind(c)
	if _, err := h.service.Signup(c.Request.Context(), session, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrUsernameConflict):
			c.JSON(http.StatusConflict, gin.H{
				"code":    "USERNAME_CONFLICT",
				"message": UserMessage(err),
			})
		case errors.Is(err, ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    "INVALID_INPUT",
				"message": UserMessage(err),
			})
		default:
			h.internalError(c, "signup failed", err)
		}
		return
	}

	c.Redirect(http.StatusSeeOther, h.routes.Home)
}

// Logout は POST /Account/Logout のハンドラーです。
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.Logout(h.binder.Bind(c)); err != nil {
		h.internalError(c, "logout failed", err)
		return
	}
	c.Redirect(http.StatusSeeOther, h.routes.Home)
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	logging.LogError(h.logger, msg, err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": MsgInternal,
	})
}
