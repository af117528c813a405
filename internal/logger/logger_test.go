package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"WARNING": zapcore.WarnLevel,
		"":        zapcore.InfoLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextHelpers verifies the logger round-trips through a context and falls back to the global one.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))

	l := New(zapcore.DebugLevel)
	ctx := ToContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx))

	named := WithName(ctx, "monitor")
	require.NotSame(t, l, FromContext(named))

	withKV := WithKV(named, "alert_id", "abc")
	require.NotNil(t, FromContext(withKV))
}

// TestWithLevel verifies the override beats the shared level in both directions.
func TestWithLevel(t *testing.T) {
	t.Parallel()

	l := New(zapcore.ErrorLevel)
	require.False(t, l.Desugar().Core().Enabled(zapcore.WarnLevel))
	require.True(t, Always(l).Desugar().Core().Enabled(zapcore.WarnLevel))
	require.False(t, Always(l).Desugar().Core().Enabled(zapcore.InfoLevel))

	quiet := l.WithOptions(WithLevel(zapcore.DebugLevel))
	require.True(t, quiet.Desugar().Core().Enabled(zapcore.DebugLevel))
}
