package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	_ = Init(Options{})
}

func initBuffer(t *testing.T, opts Options) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	opts.Output = buf
	if err := Init(opts); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(resetLogger)
	return buf
}

// --- Init Tests ---

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := initBuffer(t, Options{})

	Info("page scraped")
	if !strings.Contains(buf.String(), "page scraped") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()
	Debug("static fetch visiting URL")
	if buf.Len() != 0 {
		t.Errorf("Debug message should not be logged at default level, got %q", buf.String())
	}
}

func TestInit_DebugLevel(t *testing.T) {
	buf := initBuffer(t, Options{Debug: true})

	Debug("row skipped")
	if !strings.Contains(buf.String(), "row skipped") {
		t.Error("Debug message should be logged when Debug=true")
	}
}

func TestInit_QuietOverridesDebugAndLevel(t *testing.T) {
	buf := initBuffer(t, Options{Quiet: true, Debug: true, Level: "debug"})

	Info("hidden info")
	Warn("hidden warn")
	Error("visible error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("only errors should be logged when Quiet=true, got %q", out)
	}
	if !strings.Contains(out, "visible error") {
		t.Error("Error message should be logged when Quiet=true")
	}
}

func TestInit_LevelName(t *testing.T) {
	buf := initBuffer(t, Options{Level: "warn"})

	Info("hidden")
	Warn("rate limited, backing off")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "rate limited") {
		t.Error("Warn should be logged at warn level")
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	t.Cleanup(resetLogger)
	if err := Init(Options{Level: "verbose"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := initBuffer(t, Options{JSON: true})

	Info("scrape finished", "records", 42, "stop", "end_of_data")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSON output is not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "scrape finished" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["records"] != float64(42) || entry["stop"] != "end_of_data" {
		t.Errorf("structured args missing: %v", entry)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	t.Cleanup(resetLogger)

	if err := Init(Options{Logger: custom, Quiet: true}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Info("from custom")
	if !strings.Contains(buf.String(), "from custom") {
		t.Error("custom logger should receive messages and ignore Quiet")
	}
}

// --- ParseLevel Tests ---

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
}

// --- Attribute Tests ---

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := initBuffer(t, Options{})

	With("page", 7).Info("fetched")
	if !strings.Contains(buf.String(), "page=7") {
		t.Errorf("expected page=7 in output, got %q", buf.String())
	}
}

func TestComponent(t *testing.T) {
	buf := initBuffer(t, Options{})

	Component("store").Info("migrated")
	if !strings.Contains(buf.String(), "component=store") {
		t.Errorf("expected component=store in output, got %q", buf.String())
	}
}

func TestContextVariants(t *testing.T) {
	buf := initBuffer(t, Options{Debug: true})
	ctx := context.Background()

	DebugContext(ctx, "debug ctx")
	InfoContext(ctx, "info ctx")
	WarnContext(ctx, "warn ctx")
	ErrorContext(ctx, "error ctx")

	for _, msg := range []string{"debug ctx", "info ctx", "warn ctx", "error ctx"} {
		if !strings.Contains(buf.String(), msg) {
			t.Errorf("expected %q in output", msg)
		}
	}
}
