package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext_FallsBackToGlobal ensures an empty context yields the global logger
// and a stored logger is returned as-is.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	scoped := New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), scoped)
	require.Same(t, scoped, FromContext(ctx))

	named := WithName(ctx, "capture")
	require.NotSame(t, scoped, FromContext(named))
}

// TestWithLevelOverride verifies that the level override drops entries below the threshold.
func TestWithLevelOverride(t *testing.T) {
	t.Parallel()

	ctx := ToContext(context.Background(), New(zapcore.DebugLevel))
	ctx = WithLevelOverride(ctx, zapcore.WarnLevel)

	core := FromContext(ctx).Desugar().Core()
	require.False(t, core.Enabled(zapcore.InfoLevel))
	require.True(t, core.Enabled(zapcore.ErrorLevel))
}

// TestParseComponentLevels maps component names to levels and rejects unknown level names.
func TestParseComponentLevels(t *testing.T) {
	t.Parallel()

	levels, err := ParseComponentLevels(map[string]string{"pipeline": "debug", "http": "WARN"})
	require.NoError(t, err)
	require.Equal(t, ComponentLevels{"pipeline": zapcore.DebugLevel, "http": zapcore.WarnLevel}, levels)

	_, err = ParseComponentLevels(map[string]string{"notify": "verbose"})
	require.ErrorIs(t, err, ErrUnknownLevel)
	require.Contains(t, err.Error(), "notify")
}

// TestComponentLevelsApply lowers one component below the global level and leaves others untouched.
func TestComponentLevelsApply(t *testing.T) {
	t.Parallel()

	base := ToContext(context.Background(), New(zapcore.InfoLevel))
	levels := ComponentLevels{"pipeline": zapcore.DebugLevel}

	pipelineCore := FromContext(levels.Apply(base, "pipeline")).Desugar().Core()
	require.True(t, pipelineCore.Enabled(zapcore.DebugLevel))

	untouched := levels.Apply(base, "grpc")
	require.Same(t, FromContext(base), FromContext(untouched))
	require.False(t, FromContext(untouched).Desugar().Core().Enabled(zapcore.DebugLevel))
}

// TestNewWithFile writes through the rotating file sink.
func TestNewWithFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "thermal.log")

	l, err := NewWithFile(zapcore.InfoLevel, FileOptions{Path: path})
	require.NoError(t, err)

	l.Infow("frame captured", "size", 768)
	_ = l.Sync()

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "frame captured")
}
