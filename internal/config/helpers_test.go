package config

import (
	"os"
	"testing"
)

var envKeys = []string{
	"ODDS_API_KEY", "ODDS_API_BASE_URL", "ODDS_REGIONS", "ODDS_TIMEOUT",
	"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID", "TELEGRAM_RATE", "SPORTS",
	"MIN_PRICE", "MIN_PROBABILITY", "BLEND_WEIGHT", "HORIZON",
	"SCHEDULE_INTERVAL", "SCHEDULE_TIMES", "SCHEDULE_TZ", "RUN_ON_START",
	"NOTIFY_REJECTED", "NOTIFY_EMPTY_CYCLE", "MAX_ALERTS_PER_CYCLE", "HISTORY_DIRS", "DEDUP_BACKEND",
	"DEDUP_TTL", "REDIS_URL", "REDIS_PASSWORD", "DATABASE_URL", "STATUS_ADDR", "STATUS_CORS_ORIGINS",
	"LOG_LEVEL", "LOG_FORMAT", "DATA_DIR", "CSVSYNC_TIMES", "CSVSYNC_SEASONS", "CSVSYNC_DRIVE",
}

// isolate unsets every variable Load reads and runs the test from an empty
// directory so no .env is picked up
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
