package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SESSION_IDLE_MINUTES", "")
	t.Setenv("PUBLIC_PATHS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, SessionStoreCookie, cfg.SessionStore)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout())
	assert.Equal(t, devSessionSecret, cfg.SessionSecret)
	assert.Equal(t, []string{"/health", "/metrics", "/static/**"}, cfg.PublicPathPatterns())
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SESSION_IDLE_MINUTES", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.SessionIdleMinutes)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			GinMode:            "release",
			SessionSecret:      "0123456789abcdef0123456789abcdef",
			SessionStore:       SessionStoreCookie,
			SessionIdleMinutes: 30,
			MaxLoginAttempts:   5,
			DatabaseURL:        "postgres://localhost/postboard",
			CORSAllowedOrigins: "http://localhost:5173",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid release config", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.SessionSecret = "" }, wantErr: "SESSION_SECRET is required"},
		{name: "short secret", mutate: func(c *Config) { c.SessionSecret = "short" }, wantErr: "at least 32 bytes"},
		{name: "missing database", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL"},
		{name: "unknown store", mutate: func(c *Config) { c.SessionStore = "redis" }, wantErr: "SESSION_STORE"},
		{name: "no cors origin", mutate: func(c *Config) { c.CORSAllowedOrigins = " , " }, wantErr: "CORS_ALLOWED_ORIGINS"},
		{name: "zero idle", mutate: func(c *Config) { c.SessionIdleMinutes = 0 }, wantErr: "SESSION_IDLE_MINUTES"},
		{name: "debug mode skips release checks", mutate: func(c *Config) {
			c.GinMode = "debug"
			c.DatabaseURL = ""
			c.SessionSecret = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
