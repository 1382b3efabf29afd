// Package config loads settings from the environment and an optional .env
// file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/XavierBriggs/Augur/pkg/models"
)

// DefaultSports are evaluated when SPORTS is unset
var DefaultSports = []string{
	"soccer_italy_serie_a",
	"soccer_epl",
	"basketball_nba",
	"americanfootball_nfl",
}

// Config holds all application configuration
type Config struct {
	OddsAPIKey  string
	OddsBaseURL string
	OddsRegions []string
	OddsTimeout time.Duration

	TelegramToken  string
	TelegramChatID string
	TelegramRate   float64

	Sports    []string
	Overrides ThresholdOverrides

	ScheduleInterval time.Duration
	ScheduleTimes    string
	ScheduleTZ       string
	RunOnStart       bool

	NotifyRejected   bool
	NotifyEmptyCycle bool
	MaxAlerts        int

	HistoryDirs []string

	DedupBackend  string
	DedupTTL      time.Duration
	RedisURL      string
	RedisPassword string
	DatabaseURL   string
	StatusAddr    string
	StatusOrigins []string

	LogLevel  string
	LogFormat string

	DataDir         string
	CSVSyncTimes    string
	CSVSeasons      []string
	CSVIncludeDrive bool
}

// ThresholdOverrides replace per-sport defaults when set
type ThresholdOverrides struct {
	MinPrice       *float64
	MinProbability *float64
	BlendWeight    *float64
	Horizon        *time.Duration
}

// Apply returns t with every set override applied
func (o ThresholdOverrides) Apply(t models.Thresholds) models.Thresholds {
	if o.MinPrice != nil {
		t.MinPrice = *o.MinPrice
	}
	if o.MinProbability != nil {
		t.MinProbability = *o.MinProbability
	}
	if o.BlendWeight != nil {
		t.ImpliedWeight = *o.BlendWeight
	}
	if o.Horizon != nil {
		t.Horizon = *o.Horizon
	}
	return t
}

// LoadDotEnv copies .env (if present) into the environment without
// overriding variables that are already set
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, relying on actual environment variables")
	}
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	LoadDotEnv()

	var cfg Config

	cfg.OddsAPIKey = os.Getenv("ODDS_API_KEY")
	cfg.OddsBaseURL = getEnvWithDefault("ODDS_API_BASE_URL", "https://api.the-odds-api.com")
	cfg.OddsRegions = getEnvListWithDefault("ODDS_REGIONS", []string{"eu"})
	cfg.OddsTimeout = getEnvDurationWithDefault("ODDS_TIMEOUT", 30*time.Second)

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.TelegramRate = getEnvFloatWithDefault("TELEGRAM_RATE", 1)

	cfg.Sports = getEnvListWithDefault("SPORTS", DefaultSports)
	cfg.Overrides = ThresholdOverrides{
		MinPrice:       getEnvFloatPtr("MIN_PRICE"),
		MinProbability: getEnvFloatPtr("MIN_PROBABILITY"),
		BlendWeight:    getEnvFloatPtr("BLEND_WEIGHT"),
		Horizon:        getEnvDurationPtr("HORIZON"),
	}

	cfg.ScheduleInterval = getEnvDurationWithDefault("SCHEDULE_INTERVAL", 2*time.Hour)
	cfg.ScheduleTimes = os.Getenv("SCHEDULE_TIMES")
	cfg.ScheduleTZ = getEnvWithDefault("SCHEDULE_TZ", "UTC")
	cfg.RunOnStart = getEnvBoolWithDefault("RUN_ON_START", true)

	cfg.NotifyRejected = getEnvBoolWithDefault("NOTIFY_REJECTED", true)
	cfg.NotifyEmptyCycle = getEnvBoolWithDefault("NOTIFY_EMPTY_CYCLE", false)
	cfg.MaxAlerts = getEnvIntWithDefault("MAX_ALERTS_PER_CYCLE", 0)

	cfg.HistoryDirs = getEnvListWithDefault("HISTORY_DIRS", []string{"data"})

	cfg.DedupBackend = strings.ToLower(getEnvWithDefault("DEDUP_BACKEND", "memory"))
	cfg.DedupTTL = getEnvDurationWithDefault("DEDUP_TTL", 168*time.Hour)
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.StatusAddr = os.Getenv("STATUS_ADDR")
	cfg.StatusOrigins = getEnvListWithDefault("STATUS_CORS_ORIGINS", nil)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = strings.ToLower(getEnvWithDefault("LOG_FORMAT", "console"))

	cfg.DataDir = getEnvWithDefault("DATA_DIR", "data")
	cfg.CSVSyncTimes = getEnvWithDefault("CSVSYNC_TIMES", "09:00")
	cfg.CSVSeasons = getEnvListWithDefault("CSVSYNC_SEASONS", []string{"2425", "2526"})
	cfg.CSVIncludeDrive = getEnvBoolWithDefault("CSVSYNC_DRIVE", true)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that cannot work at all. Missing credentials
// are not errors; the affected side effect is disabled instead.
func (c *Config) Validate() error {
	if len(c.Sports) == 0 {
		return errors.New("SPORTS must list at least one sport")
	}
	if c.MaxAlerts < 0 {
		return errors.Newf("MAX_ALERTS_PER_CYCLE must not be negative, got %d", c.MaxAlerts)
	}
	if c.ScheduleTimes == "" && c.ScheduleInterval <= 0 {
		return errors.New("SCHEDULE_INTERVAL must be positive")
	}
	if w := c.Overrides.BlendWeight; w != nil && (*w < 0 || *w > 1) {
		return errors.Newf("BLEND_WEIGHT must be within [0,1], got %v", *w)
	}
	if h := c.Overrides.Horizon; h != nil && *h <= 0 {
		return errors.New("HORIZON must be positive")
	}
	switch c.DedupBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("DEDUP_BACKEND=redis requires REDIS_URL")
		}
	default:
		return errors.Newf("unknown DEDUP_BACKEND %q", c.DedupBackend)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return errors.Newf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if _, err := time.LoadLocation(c.ScheduleTZ); err != nil {
		return errors.Wrapf(err, "SCHEDULE_TZ %q", c.ScheduleTZ)
	}
	return nil
}

// Location returns the schedule time zone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTZ)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid number, using default")
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid boolean, using default")
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvFloatPtr(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid number, ignoring override")
		return nil
	}
	return &f
}

func getEnvDurationPtr(key string) *time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, ignoring override")
		return nil
	}
	return &d
}
