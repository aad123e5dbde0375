// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devSessionSecret は debug/test モードで SESSION_SECRET 未設定時に使う署名鍵です。
const devSessionSecret = "postboard-development-session-secret"

// セッションストアの種類
const (
	SessionStoreCookie = "cookie"
	SessionStoreMemory = "memory"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)
	Version string // /health で返すバージョン

	// セッション設定
	SessionSecret      string // セッション署名用の秘密鍵
	SessionStore       string // cookie または memory
	SessionIdleMinutes int    // 無操作タイムアウト（分）

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// 永続化設定
	DatabaseURL string // 空の場合はインメモリストアを使用
	RedisURL    string // 空の場合はプロセス内のログイン試行リミッターを使用

	// ログ設定
	LogFormat string // text または json
	LogLevel  string // debug, info, warn, error

	// ログイン試行制限
	MaxLoginAttempts   int
	LoginWindowMinutes int
	LoginLockMinutes   int

	// 認可ゲートで常に公開するパス（glob, カンマ区切り）
	PublicPaths string
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	// .env.local ファイルを読み込む（存在しない場合はスキップ）
	loadEnvFile()

	config := &Config{
		// サーバー設定
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),
		Version: getEnv("APP_VERSION", "0.1.0"),

		// セッション設定
		SessionSecret:      getEnv("SESSION_SECRET", ""),
		SessionStore:       getEnv("SESSION_STORE", SessionStoreCookie),
		SessionIdleMinutes: getEnvAsInt("SESSION_IDLE_MINUTES", 30),

		// CORS設定
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		// 永続化設定
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// ログ設定
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		// ログイン試行制限
		MaxLoginAttempts:   getEnvAsInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", 15),
		LoginLockMinutes:   getEnvAsInt("LOGIN_LOCK_MINUTES", 10),

		PublicPaths: getEnv("PUBLIC_PATHS", "/health,/metrics,/static/**"),
	}

	if config.SessionSecret == "" && config.GinMode != "release" {
		config.SessionSecret = devSessionSecret
	}

	// 必須設定のバリデーション
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if c.SessionStore != SessionStoreCookie && c.SessionStore != SessionStoreMemory {
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreCookie, SessionStoreMemory, c.SessionStore)
	}
	if c.SessionIdleMinutes <= 0 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must be positive")
	}
	if c.MaxLoginAttempts <= 0 {
		return fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive")
	}
	if len(c.AllowedOrigins()) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS must contain at least one origin")
	}

	// 本番環境では厳格にチェックする
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("SESSION_SECRET must be at least 32 bytes in release mode")
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in release mode")
		}
	}

	return nil
}

// SessionIdleTimeout はセッションの無操作タイムアウトを返します。
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// LoginWindow はログイン失敗を数える期間を返します。
func (c *Config) LoginWindow() time.Duration {
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}

// LoginLockDuration はロック期間を返します。
func (c *Config) LoginLockDuration() time.Duration {
	return time.Duration(c.LoginLockMinutes) * time.Minute
}

// PublicPathPatterns は PUBLIC_PATHS を分割して返します。
func (c *Config) PublicPathPatterns() []string {
	return splitList(c.PublicPaths)
}

// AllowedOrigins は CORS_ALLOWED_ORIGINS を分割して返します。
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
