package logger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q)=%v want %v", tt.in, got, tt.out)
		}
	}
}

func TestInitAndWithContext(t *testing.T) {
	Init("debug", "text")
	if defaultLogger == nil {
		t.Fatalf("defaultLogger not initialized")
	}

	ctx := ContextWithRequestID(context.Background(), "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Errorf("Expected req-123, got %s", got)
	}
	if l := WithContext(ctx); l == nil {
		t.Fatalf("WithContext returned nil")
	}
	if l := WithContext(context.Background()); l != defaultLogger {
		t.Errorf("Expected default logger for context without request id")
	}

	Info("info message", "k", "v")
	Warn("warn message")
	Error("error message")
	Debug("debug message")
}

func TestInitWithFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	InitWithOptions("info", "json", Options{File: path})
	Info("written to file", "alert_id", 7)
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	defer Init("info", "text")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"alert_id":7`) {
		t.Errorf("Expected log line in file, got %q", string(data))
	}
	if err := Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
