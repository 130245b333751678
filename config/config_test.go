package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("APP_ENV", "")
	t.Setenv("HISTORY_DEFAULT_LIMIT", "")

	cfg := Load()

	req.Equal("development", cfg.Env)
	req.Equal(20, cfg.HistoryDefaultLimit)
	req.Equal(100, cfg.HistoryMaxLimit)
	req.Equal(5*time.Minute, cfg.IdentityCacheTTL)
	req.False(cfg.NotifyEnabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	req := require.New(t)
	t.Setenv("PRESENCE_BUFFER", "lots")
	t.Setenv("NOTIFY_ENABLED", "maybe")
	t.Setenv("JWT_ACCESS_TTL", "forever")

	cfg := Load()

	req.Equal(64, cfg.PresenceBuffer)
	req.False(cfg.NotifyEnabled)
	req.Equal(time.Hour, cfg.AccessTTL)
}

func TestLoad_MaxLimitRaisedToDefault(t *testing.T) {
	req := require.New(t)
	t.Setenv("HISTORY_DEFAULT_LIMIT", "50")
	t.Setenv("HISTORY_MAX_LIMIT", "10")

	cfg := Load()

	req.Equal(50, cfg.HistoryMaxLimit)
}

func TestDSNAndOrigins(t *testing.T) {
	req := require.New(t)
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "gig", DBSSLMode: "disable",
		CORSAllowedOrigins: " http://a.test, ,http://b.test ",
	}

	req.Equal("postgres://u:p@db:5432/gig?sslmode=disable", cfg.PostgresDSN())
	req.Equal([]string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}
