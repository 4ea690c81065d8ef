package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below slog.LevelDebug and is used by Observer.Trace.
const LevelTrace = slog.LevelDebug - 4

// GetLogLevelFromEnv reads SDTT_LOG_LEVEL, then LOG_LEVEL. Default INFO.
func GetLogLevelFromEnv() slog.Level {
	level := os.Getenv("SDTT_LOG_LEVEL")
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		return slog.LevelInfo
	}
	l, _ := ParseLogLevel(level)
	return l
}

// ParseLogLevel parses TRACE, DEBUG, INFO, WARN/WARNING or ERROR, case
// insensitively. Unknown values yield INFO and ok=false.
func ParseLogLevel(level string) (l slog.Level, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// levelString names level, mapping anything below DEBUG to TRACE.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}
