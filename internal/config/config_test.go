package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 5, cfg.Tickets.MaxPhotosPerTicket)
	assert.Equal(t, 25*time.Millisecond, cfg.Tickets.UpdateRetryInterval())
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout())
	assert.Equal(t, "/uploads/tickets", cfg.Uploads.PublicPrefix)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")
	t.Setenv("TICKET_UPDATE_RETRY_MILLIS", "5")
	t.Setenv("MAIL_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 5*time.Millisecond, cfg.Tickets.UpdateRetryInterval())
	assert.Equal(t, 10, cfg.Mail.TimeoutSeconds, "unparsable values fall back")
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	assert.Error(t, err)
}
