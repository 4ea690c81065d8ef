package slogobs

import (
	"io"
	"log/slog"
	"os"
)

// Option configures an Observer.
type Option func(*config)

type config struct {
	format Format
	level  slog.Level
	output io.Writer
	colors ColorMode
	logger *slog.Logger // bypasses the custom handler when set
}

func WithFormat(format Format) Option {
	return func(c *config) {
		c.format = format
	}
}

func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithOutput sets the log destination. The default is stderr so that
// reports written to stdout stay machine readable.
func WithOutput(output io.Writer) Option {
	return func(c *config) {
		c.output = output
	}
}

// WithColors forces ANSI colours on or off for compact and pretty output.
// Without it colours follow whether the output is a terminal.
func WithColors(enabled bool) Option {
	return func(c *config) {
		c.colors = ColorNever
		if enabled {
			c.colors = ColorAlways
		}
	}
}

// WithLogger routes everything through an existing logger. It takes
// precedence over the other options.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func defaultConfig() *config {
	return &config{
		format: GetFormatFromEnv(),
		level:  GetLogLevelFromEnv(),
		output: os.Stderr,
	}
}

func applyOptions(opts ...Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
