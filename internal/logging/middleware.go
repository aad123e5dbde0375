package logging

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader はリクエスト ID を受け渡すヘッダーです。
const RequestIDHeader = "X-Request-Id"

// ContextRequestIDKey は gin.Context にリクエスト ID を保存するキーです。
const ContextRequestIDKey = "request_id"

// Middleware はリクエストごとに ID を振り、処理結果を 1 行で記録します。
// 受け取ったヘッダーが有効な UUID であればそれを引き継ぎます。
func Middleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= 500:
			logger.Error("request failed", attrs...)
		case status >= 400:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}
