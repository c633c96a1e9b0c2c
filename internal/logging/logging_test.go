package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/liftlog/internal/config"
)

// TestParseLevel verifies level names map to slog levels, defaulting to info.
func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"trace":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestNewWritesToFile verifies that a configured log file receives JSON
// records at or above the configured level.
func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftlog.log")
	log, closer := New(config.LogConfig{Level: "warn", Format: "json", File: path})

	log.Info("dropped")
	log.Warn("kept", "set_number", 3)
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Errorf("info record written at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) || !strings.Contains(out, `"set_number":3`) {
		t.Errorf("warn record missing: %s", out)
	}
}

// TestNewStdout verifies the stdout-only logger is usable and its closer is a no-op.
func TestNewStdout(t *testing.T) {
	log, closer := New(config.LogConfig{Level: "debug"})
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not enabled")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}
