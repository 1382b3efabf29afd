package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Augur/pkg/models"
)

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultSports, cfg.Sports)
	assert.Equal(t, []string{"eu"}, cfg.OddsRegions)
	assert.Equal(t, 30*time.Second, cfg.OddsTimeout)
	assert.Equal(t, 2*time.Hour, cfg.ScheduleInterval)
	assert.Equal(t, "UTC", cfg.ScheduleTZ)
	assert.True(t, cfg.RunOnStart)
	assert.True(t, cfg.NotifyRejected)
	assert.False(t, cfg.NotifyEmptyCycle)
	assert.Equal(t, []string{"data"}, cfg.HistoryDirs)
	assert.Equal(t, "memory", cfg.DedupBackend)
	assert.Equal(t, 168*time.Hour, cfg.DedupTTL)
	assert.Equal(t, "09:00", cfg.CSVSyncTimes)
	assert.Equal(t, []string{"2425", "2526"}, cfg.CSVSeasons)
	assert.True(t, cfg.CSVIncludeDrive)
	assert.Zero(t, cfg.MaxAlerts)
	assert.Nil(t, cfg.Overrides.MinPrice)
}

func TestLoad_FromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("SPORTS", "soccer_epl, basketball_nba ,")
	t.Setenv("ODDS_REGIONS", "eu,uk")
	t.Setenv("MIN_PRICE", "1.5")
	t.Setenv("BLEND_WEIGHT", "0.4")
	t.Setenv("HORIZON", "24h")
	t.Setenv("SCHEDULE_TIMES", "09:00,21:00")
	t.Setenv("SCHEDULE_TZ", "UTC")
	t.Setenv("RUN_ON_START", "false")
	t.Setenv("NOTIFY_EMPTY_CYCLE", "yes")
	t.Setenv("HISTORY_DIRS", "data,/srv/csv")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("MAX_ALERTS_PER_CYCLE", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"soccer_epl", "basketball_nba"}, cfg.Sports)
	assert.Equal(t, []string{"eu", "uk"}, cfg.OddsRegions)
	assert.Equal(t, "09:00,21:00", cfg.ScheduleTimes)
	assert.False(t, cfg.RunOnStart)
	assert.True(t, cfg.NotifyEmptyCycle)
	assert.Equal(t, []string{"data", "/srv/csv"}, cfg.HistoryDirs)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 3, cfg.MaxAlerts)

	base := models.Thresholds{MinProbability: 70, MinPrice: 1.70, ImpliedWeight: 0.5, Horizon: 48 * time.Hour}
	got := cfg.Overrides.Apply(base)
	assert.Equal(t, 1.5, got.MinPrice)
	assert.Equal(t, 70.0, got.MinProbability)
	assert.Equal(t, 0.4, got.ImpliedWeight)
	assert.Equal(t, 24*time.Hour, got.Horizon)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, writeFile(dir+"/.env", "TELEGRAM_CHAT_ID=@augur_alerts\nSTATUS_ADDR=:8090\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@augur_alerts", cfg.TelegramChatID)
	assert.Equal(t, ":8090", cfg.StatusAddr)
}

func TestValidate(t *testing.T) {
	bad := 1.5
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"no sports", func(c *Config) { c.Sports = nil }, "SPORTS"},
		{"redis without url", func(c *Config) { c.DedupBackend = "redis" }, "REDIS_URL"},
		{"unknown backend", func(c *Config) { c.DedupBackend = "etcd" }, "DEDUP_BACKEND"},
		{"blend weight", func(c *Config) { c.Overrides.BlendWeight = &bad }, "BLEND_WEIGHT"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"time zone", func(c *Config) { c.ScheduleTZ = "Mars/Olympus" }, "SCHEDULE_TZ"},
		{"interval", func(c *Config) { c.ScheduleInterval = 0 }, "SCHEDULE_INTERVAL"},
		{"alert cap", func(c *Config) { c.MaxAlerts = -1 }, "MAX_ALERTS_PER_CYCLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func TestSetupLogger(t *testing.T) {
	defer SetupLogger("info", "console")

	var buf bytes.Buffer
	SetupLoggerTo(&buf, "warn", "json")

	log.Info().Msg("hidden")
	log.Warn().Str("component", "test").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, `"component":"test"`), out)
}

func TestSetupLoggerFromEnv_AppliesBeforeLoad(t *testing.T) {
	isolate(t)
	defer SetupLogger("info", "console")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("ODDS_TIMEOUT", "soon")

	var buf bytes.Buffer
	setupLoggerFromEnvTo(&buf)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.OddsTimeout)

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out, "invalid value warning should be logged")
	assert.True(t, strings.HasPrefix(out, "{"), "expected JSON output, got %s", out)
	assert.Contains(t, out, `"key":"ODDS_TIMEOUT"`)
	assert.NotContains(t, out, ".env file not found")
}

func validConfig() *Config {
	return &Config{
		Sports:           DefaultSports,
		ScheduleInterval: time.Hour,
		ScheduleTZ:       "UTC",
		DedupBackend:     "memory",
		LogFormat:        "console",
	}
}
