package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger. Unknown levels fall back
// to info.
func SetupLogger(level, format string) {
	SetupLoggerTo(os.Stderr, level, format)
}

// SetupLoggerFromEnv applies LOG_LEVEL and LOG_FORMAT before the rest of the
// configuration is parsed, so warnings raised while loading use them too
func SetupLoggerFromEnv() {
	setupLoggerFromEnvTo(os.Stderr)
}

func setupLoggerFromEnvTo(w io.Writer) {
	SetupLoggerTo(w, getEnvWithDefault("LOG_LEVEL", "info"), strings.ToLower(getEnvWithDefault("LOG_FORMAT", "console")))
}

// SetupLoggerTo is SetupLogger with an explicit writer
func SetupLoggerTo(w io.Writer, level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}

	log.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
