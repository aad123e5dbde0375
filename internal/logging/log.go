// Package logging は slog による構造化ログと gin 用のリクエストログを提供します。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
)

// Setup は service/version 属性付きの slog.Logger を作成します。
// format は "json" または "text"（空の場合は text）。w が nil の場合は標準エラーに書き込みます。
func Setup(service, version, format, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("version", version),
	)
}

// Discard はテスト用に何も出力しない Logger を返します。
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogError は oops エラーであればコードとコンテキストも含めて記録します。
func LogError(logger *slog.Logger, msg string, err error, args ...any) {
	if logger == nil {
		return
	}
	attrs := append([]any{}, args...)
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs = append(attrs, "error", oopsErr.Error())
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
	} else {
		attrs = append(attrs, "error", err)
	}
	logger.Error(msg, attrs...)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
