package config

import (
	"log/slog"
	"os"
	"strings"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "POSTBUILDER_LOG_LEVEL"

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLogLevel maps a level name to a slog level. Unknown names yield info.
func ParseLogLevel(raw string) slog.Level {
	if lvl, ok := logLevels[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// LogLevel resolves the effective level: verbose forces debug, otherwise
// POSTBUILDER_LOG_LEVEL is consulted.
func LogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return ParseLogLevel(os.Getenv(LogLevelEnv))
}
