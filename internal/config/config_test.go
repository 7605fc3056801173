package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8010", cfg.Port)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.False(t, cfg.S3.Enabled)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, 30*time.Minute, cfg.Storage.MaxAge)
	assert.Equal(t, "0 2 * * *", cfg.Scheduler.LateSweepSpec)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("S3_ENABLED", "true")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("DASHBOARD_CACHE_TTL", "90s")
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.True(t, cfg.S3.Enabled)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, 90*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLocation_Unknown(t *testing.T) {
	cfg := AppConfig{Timezone: "Nowhere/Atlantis"}
	assert.Equal(t, time.UTC, cfg.Location())
}
