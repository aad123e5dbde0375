package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/logging"
	"github.com/yourusername/postboard/internal/metrics"
)

// Middleware はすべてのリクエストの前段で Gate を評価するミドルウェアを返します。
// リダイレクトした場合は後続のハンドラーを呼びません。
func (g *Gate) Middleware(binder *SessionBinder, logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := binder.Bind(c)
		if err := session.Refresh(); err != nil {
			logging.LogError(logger, "session refresh failed", err, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    "SESSION_SAVE_FAILED",
				"message": MsgInternal,
			})
			return
		}

		decision := g.Decide(session.IsLoggedIn(), c.Request.URL.Path)
		if !decision.Allowed() {
			m.Gate(metrics.DecisionRedirect)
			c.Redirect(http.StatusFound, decision.RedirectTo)
			c.Abort()
			return
		}

		m.Gate(metrics.DecisionPass)
		c.Next()
	}
}
