package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":      slog.LevelWarn,
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"ERROR": slog.LevelError,
		"bogus": slog.LevelWarn,
	}
	for env, want := range tests {
		t.Setenv("LOG_LEVEL", env)
		if got := LogLevel(); got != want {
			t.Errorf("LOG_LEVEL=%q: got %v, want %v", env, got, want)
		}
	}
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, "json").Info("hello", "k", "v")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, slog.LevelInfo, "").Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected text output, got %q", buf.String())
	}

	// Ниже уровня — ничего не пишется.
	buf.Reset()
	NewLogger(&buf, slog.LevelWarn, "").Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below level, got %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "")

	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("Controller", "GET", 200, 10*time.Millisecond)
	m.ObserveRequest("Controller", "GET", 200, 20*time.Millisecond)
	m.ObserveRequest("Gateway", "GET", 0, time.Second)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("Controller", "GET", "200")); got != 2 {
		t.Errorf("expected 2 controller requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("Gateway", "GET", "error")); got != 1 {
		t.Errorf("expected 1 failed gateway request, got %v", got)
	}
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("Gateway", "GET", 200, time.Millisecond)
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveRequest("Gateway", "POST", 201, 5*time.Millisecond)

	path := filepath.Join(t.TempDir(), "aap.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `aap_client_requests_total{api="Gateway",code="201",method="POST"} 1`) {
		t.Errorf("unexpected textfile contents:\n%s", data)
	}
}

func TestSetupLogger_Debug(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger := SetupLogger(&buf, true)
	logger.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected debug output with --debug, got %q", buf.String())
	}
	if slog.Default() != logger {
		t.Error("expected SetupLogger to replace the default logger")
	}
}
