package slogobs

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(format Format, level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := NewHandler(&HandlerOptions{Format: format, Level: level, Output: &buf, Colors: ColorNever})
	return slog.New(h), &buf
}

func TestHandler_Compact(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelDebug)
	logger.Info("run finished", "sdtt.run.passed", false, "sdtt.schemas.count", 2)

	out := buf.String()
	if !strings.Contains(out, " INFO run finished -> ") {
		t.Errorf("Expected level, message and separator, got: %s", out)
	}
	if !strings.Contains(out, `{"sdtt.run.passed":false,"sdtt.schemas.count":2}`) {
		t.Errorf("Expected ordered JSON attributes, got: %s", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("Expected no colours, got: %q", out)
	}
}

func TestHandler_CompactNoAttributes(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelDebug)
	logger.Info("ready")

	if out := buf.String(); strings.Contains(out, "->") || strings.Contains(out, "{}") {
		t.Errorf("Expected bare line without attributes, got: %s", out)
	}
}

func TestHandler_Pretty(t *testing.T) {
	logger, buf := newTestLogger(FormatPretty, slog.LevelDebug)
	logger.Warn("schema failed", "schema", "jsonld:Article", "missing", []string{"image"})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and two attribute lines, got %d: %s", len(lines), out)
	}
	if !strings.Contains(lines[0], "WARN") || !strings.Contains(lines[0], "schema failed") {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "|- schema: jsonld:Article") {
		t.Errorf("Unexpected first attribute line %q", lines[1])
	}
	if !strings.Contains(lines[2], "`- missing: [image]") {
		t.Errorf("Unexpected last attribute line %q", lines[2])
	}
}

func TestHandler_JSON(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, slog.LevelDebug)
	logger.Info("fetched", "http.status_code", 200, "duration", 1500*time.Millisecond)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Expected valid JSON, got %v: %s", err, buf.String())
	}
	if got["level"] != "INFO" || got["msg"] != "fetched" {
		t.Errorf("Unexpected standard fields: %v", got)
	}
	if got["http.status_code"] != float64(200) {
		t.Errorf("Expected status code 200, got %v", got["http.status_code"])
	}
	if got["duration"] != "1.5s" {
		t.Errorf("Expected duration 1.5s, got %v", got["duration"])
	}
	if !strings.HasPrefix(buf.String(), `{"time":`) {
		t.Errorf("Expected time first, got %s", buf.String())
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelDebug)
	logger = logger.With("sdtt.run.id", "abc").WithGroup("http")
	logger.Info("request", "method", "POST")

	out := buf.String()
	if !strings.Contains(out, `{"sdtt.run.id":"abc","http.method":"POST"}`) {
		t.Errorf("Expected handler attrs then grouped record attrs, got: %s", out)
	}
}

func TestHandler_Levels(t *testing.T) {
	logger, buf := newTestLogger(FormatCompact, slog.LevelWarn)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Expected DEBUG and INFO filtered, got: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("Expected WARN line, got: %s", out)
	}

	h := NewHandler(&HandlerOptions{Level: LevelTrace, Output: &bytes.Buffer{}})
	if !h.Enabled(context.Background(), LevelTrace) {
		t.Error("Expected TRACE enabled")
	}
	if got := levelString(LevelTrace); got != "TRACE" {
		t.Errorf("Expected TRACE, got %s", got)
	}
}

func TestHandler_ColorAlways(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&HandlerOptions{Output: &buf, Colors: ColorAlways}))
	logger.Error("boom")

	if !strings.Contains(buf.String(), colorRed+"ERROR"+colorReset) {
		t.Errorf("Expected red ERROR, got %q", buf.String())
	}

	buf.Reset()
	logger = slog.New(NewHandler(&HandlerOptions{Output: &buf, Format: FormatJSON, Colors: ColorAlways}))
	logger.Error("boom")
	if strings.Contains(buf.String(), "\033[") {
		t.Errorf("Expected no colours in JSON, got %q", buf.String())
	}
}
