package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// ColorMode controls ANSI colouring of compact and pretty output.
type ColorMode int

const (
	ColorAuto ColorMode = iota // colour when the output is a terminal
	ColorAlways
	ColorNever
)

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	// Output defaults to os.Stderr.
	Output io.Writer
	Colors ColorMode
}

// Handler is a slog.Handler writing compact, pretty or JSON lines.
// Attributes keep the order in which they were added.
type Handler struct {
	format Format
	level  slog.Leveler
	colors bool

	mu  *sync.Mutex
	out io.Writer

	attrs  []slog.Attr
	prefix string // dotted group path, with trailing dot
}

// NewHandler creates a Handler. A nil opts uses compact output at INFO to
// stderr.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}
	var level slog.Leveler = slog.LevelInfo
	if opts.Level != nil {
		level = opts.Level
	}

	colors := false
	switch opts.Colors {
	case ColorAlways:
		colors = true
	case ColorAuto:
		if f, ok := out.(*os.File); ok {
			colors = isTerminal(f)
		}
	}
	if format == FormatJSON {
		colors = false
	}

	return &Handler{
		format: format,
		level:  level,
		colors: colors,
		mu:     &sync.Mutex{},
		out:    out,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		attrs = append(attrs, a)
		return true
	})

	var buf []byte
	switch h.format {
	case FormatPretty:
		buf = h.appendPretty(nil, r, attrs)
	case FormatJSON:
		buf = h.appendJSON(nil, r, attrs)
	default:
		buf = h.appendCompact(nil, r, attrs)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

const timeLayout = "2006-01-02 15:04:05"

func (h *Handler) appendLevel(buf []byte, level slog.Level, width int) []byte {
	name := levelString(level)
	if h.colors {
		buf = append(buf, colorForLevel(level)...)
	}
	buf = fmt.Appendf(buf, "%*s", width, name)
	if h.colors {
		buf = append(buf, colorReset...)
	}
	return buf
}

// appendCompact writes "time LEVEL msg -> {attrs}".
func (h *Handler) appendCompact(buf []byte, r slog.Record, attrs []slog.Attr) []byte {
	buf = append(buf, r.Time.Format(timeLayout)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, 5)
	buf = append(buf, ' ')
	buf = append(buf, r.Message...)
	if len(attrs) > 0 {
		buf = append(buf, " -> "...)
		buf = appendObject(buf, attrs)
	}
	return append(buf, '\n')
}

// appendPretty writes the header line followed by one attribute per line.
func (h *Handler) appendPretty(buf []byte, r slog.Record, attrs []slog.Attr) []byte {
	buf = append(buf, r.Time.Format(timeLayout)...)
	buf = append(buf, ' ')
	buf = h.appendLevel(buf, r.Level, -5)
	buf = append(buf, "  "...)
	buf = append(buf, r.Message...)
	buf = append(buf, '\n')

	indent := strings.Repeat(" ", len(timeLayout)+1)
	for i, a := range attrs {
		branch := "|- "
		if i == len(attrs)-1 {
			branch = "`- "
		}
		buf = append(buf, indent...)
		buf = append(buf, branch...)
		buf = append(buf, a.Key...)
		buf = append(buf, ": "...)
		buf = fmt.Appendf(buf, "%v", a.Value.Resolve().Any())
		buf = append(buf, '\n')
	}
	return buf
}

// appendJSON writes one object with time, level and msg first.
func (h *Handler) appendJSON(buf []byte, r slog.Record, attrs []slog.Attr) []byte {
	head := []slog.Attr{
		slog.String("time", r.Time.Format(time.RFC3339)),
		slog.String("level", levelString(r.Level)),
		slog.String("msg", r.Message),
	}
	buf = appendObject(buf, append(head, attrs...))
	return append(buf, '\n')
}

// appendObject encodes attrs as a JSON object, keeping their order.
func appendObject(buf []byte, attrs []slog.Attr) []byte {
	buf = append(buf, '{')
	for i, a := range attrs {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, _ := json.Marshal(a.Key)
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = appendValue(buf, a.Value.Resolve())
	}
	return append(buf, '}')
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindGroup:
		return appendObject(buf, v.Group())
	case slog.KindDuration:
		return fmt.Appendf(buf, "%q", v.Duration().String())
	case slog.KindTime:
		return fmt.Appendf(buf, "%q", v.Time().Format(time.RFC3339))
	}

	val := v.Any()
	if err, ok := val.(error); ok {
		val = err.Error()
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Appendf(buf, "%q", fmt.Sprint(val))
	}
	return append(buf, data...)
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func colorForLevel(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return colorGray
	case level < slog.LevelInfo:
		return colorBlue
	case level < slog.LevelWarn:
		return colorGreen
	case level < slog.LevelError:
		return colorYellow
	default:
		return colorRed
	}
}

// isTerminal reports whether f is a character device.
func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
