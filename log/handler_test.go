package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge-dev/hostbridge/looper"
)

func TestContextHandlerAnnotatesLooperRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil)))

	l := looper.New("script", nil)
	defer l.Close(context.Background())

	err := l.RunSync(context.Background(), func(ctx context.Context) error {
		logger.InfoContext(ctx, "inside")
		return nil
	})
	require.NoError(t, err)
	logger.InfoContext(context.Background(), "outside")

	out := buf.String()
	assert.Contains(t, out, "exec_context=script")
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.NotContains(t, string(lines[1]), "exec_context")
}

func TestContextHandlerPreservesAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil)))
	logger := base.With("app", "demo").WithGroup("bridge")

	logger.Info("hello", "calls", 3)
	out := buf.String()
	assert.Contains(t, out, "app=demo")
	assert.Contains(t, out, "bridge.calls=3")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}
