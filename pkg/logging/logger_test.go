package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "warn", slog.LevelWarn},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, "json")
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Fatal("expected info level enabled by default")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Fatal("expected debug level disabled by default")
	}
}

func TestWithComponent(t *testing.T) {
	logger := Default().WithComponent("billing")
	if logger == nil || logger.Logger == nil {
		t.Fatal("expected annotated logger")
	}
	logger.Info("component message")
}
