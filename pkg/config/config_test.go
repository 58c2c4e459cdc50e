package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaultsWithoutEnvFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 4, cfg.Substitute.DailyCap)
	assert.Equal(t, 5.0, cfg.Substitute.LevelMatchBonus)
	assert.Equal(t, 50.0, cfg.Substitute.LastResortPenalty)
	assert.Equal(t, 10*time.Minute, cfg.Substitute.CacheTTL)
	assert.Equal(t, 72*time.Hour, cfg.Reports.RetentionTTL)
	assert.Equal(t, 3, cfg.Jobs.WorkerRetries)
	assert.Nil(t, cfg.Substitute.LastResortTeachers)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SUBSTITUTE_DAILY_CAP", "6")
	t.Setenv("SUBSTITUTE_WEIGHT_HISTORY", "1.5")
	t.Setenv("SUBSTITUTE_LAST_RESORT_TEACHERS", " DIR01 , VP02,")
	t.Setenv("SUBSTITUTE_CACHE_TTL", "not-a-duration")
	t.Setenv("JOBS_RETRY_DELAY", "500ms")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Substitute.DailyCap)
	assert.Equal(t, 1.5, cfg.Substitute.HistoryWeight)
	assert.Equal(t, []string{"DIR01", "VP02"}, cfg.Substitute.LastResortTeachers)
	assert.Equal(t, 10*time.Minute, cfg.Substitute.CacheTTL, "invalid durations fall back")
	assert.Equal(t, 500*time.Millisecond, cfg.Jobs.RetryDelay)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
