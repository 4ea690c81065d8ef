package slogobs

import (
	"os"
	"strings"
)

// Format is the log line layout.
type Format string

const (
	// FormatCompact is one line per record with JSON attributes:
	//  2026-10-18 10:40:35  INFO run finished -> {"sdtt.run.passed":true}
	FormatCompact Format = "compact"

	// FormatPretty puts every attribute on its own indented line.
	FormatPretty Format = "pretty"

	// FormatJSON is one JSON object per record, for log shippers.
	FormatJSON Format = "json"
)

// ParseFormat maps s to a Format. Unknown values yield FormatCompact.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv reads SDTT_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	if v := os.Getenv("SDTT_LOG_FORMAT"); v != "" {
		return ParseFormat(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		return ParseFormat(v)
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
