// Package slogobs implements observability.Provider with log/slog.
//
// Spans, counters and histograms become DEBUG log lines; counters also keep
// an in-memory total. The custom [Handler] writes compact, pretty or JSON
// lines. [New] reads SDTT_LOG_FORMAT and SDTT_LOG_LEVEL (falling back to
// LOG_FORMAT and LOG_LEVEL) unless [WithFormat] or [WithLevel] are given.
package slogobs
