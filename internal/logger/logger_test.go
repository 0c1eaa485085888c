package logger

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/oggyb/shuttle-league/internal/config"
)

// captureOutput redirects stdout to a buffer during f()
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	_ = r.Close()

	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Component: "test", Output: &buf})
	Info("match submitted", "request_id", 7)

	out := buf.String()
	if !strings.Contains(out, "match submitted") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "request_id=7") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "info", Format: FormatJSON, Component: "json_test", Output: &buf})
	Info("json log", "foo", "bar")

	out := buf.String()
	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"foo":"bar"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "error", Format: FormatText, Output: &buf})
	Info("should not appear")
	Error("should appear")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WarnPassesDebugDropped(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "warn", Format: FormatText, Output: &buf})
	Debug("token issued")
	Warn("events disabled")

	out := buf.String()
	if strings.Contains(out, "token issued") {
		t.Errorf("debug log should not appear at warn level, got: %s", out)
	}
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "events disabled") {
		t.Errorf("expected warn log, got: %s", out)
	}
}

func TestLogger_WithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Output: &buf})
	log := With("req_id", "123")
	log.Info("processing request")

	if !strings.Contains(buf.String(), "req_id=123") {
		t.Errorf("expected req_id field, got: %s", buf.String())
	}
}

func TestLogger_ContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: "debug", Format: FormatText, Output: &buf})

	ctx := IntoContext(context.Background(), With("req_id", "abc"))
	FromContext(ctx, nil).Info("scoped")
	if !strings.Contains(buf.String(), "req_id=abc") {
		t.Errorf("expected scoped logger from context, got: %s", buf.String())
	}

	fallback := Discard()
	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Errorf("expected fallback logger when context carries none")
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	out := captureOutput(t, func() {
		cfg := &config.Config{}
		cfg.Log.Level = "debug"
		cfg.Log.Format = "json"
		cfg.Log.Component = "cfg_test"
		cfg.Log.Source = true
		InitFromConfig(cfg)
		Debug("cfg-based log")
	})

	if !strings.Contains(out, `"msg":"cfg-based log"`) {
		t.Errorf("expected config-based JSON log, got: %s", out)
	}
	if !strings.Contains(out, `"component":"cfg_test"`) {
		t.Errorf("expected component from config, got: %s", out)
	}
}
