package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{" INFO ", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"ERROR", slog.LevelError, true},
		{"", slog.LevelWarn, false},
		{"verbose", slog.LevelWarn, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "debug")
	if got := LevelFromEnv(); got != slog.LevelDebug {
		t.Errorf("LevelFromEnv() = %v, want DEBUG", got)
	}
	t.Setenv(EnvLevel, "")
	if got := LevelFromEnv(); got != slog.LevelWarn {
		t.Errorf("LevelFromEnv() with empty env = %v, want WARN", got)
	}
}

func TestLoggerRunIDAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug).Component("storage")

	ctx := WithRunID(context.Background(), "abc123")
	log.Error(ctx, "save failed", errors.New("disk full"), "path", "/tmp/x")

	out := buf.String()
	for _, want := range []string{"component=storage", "run_id=abc123", `error="disk full"`, "path=/tmp/x", "level=ERROR"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn)
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden too")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below WARN, got %q", buf.String())
	}
	log.Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("warning not written")
	}
}
