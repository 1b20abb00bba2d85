package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerHonorsLogLevel(t *testing.T) {
	logger := NewLogger(&Config{LogFormat: "json", LogLevel: "error"})

	ctx := context.Background()
	require.False(t, logger.Enabled(ctx, slog.LevelInfo))
	require.False(t, logger.Enabled(ctx, slog.LevelWarn))
	require.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	ctx := context.Background()

	for _, cfg := range []*Config{nil, {LogLevel: "verbose"}, {}} {
		logger := NewLogger(cfg)
		require.False(t, logger.Enabled(ctx, slog.LevelDebug))
		require.True(t, logger.Enabled(ctx, slog.LevelInfo))
	}
}

func TestNewLoggerDebugLevel(t *testing.T) {
	logger := NewLogger(&Config{LogLevel: "debug"})
	require.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
