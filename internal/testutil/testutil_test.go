package testutil

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgkim70/openpilot/internal/monitoring"
)

func TestCaptureLogs(t *testing.T) {
	var sink *LogSink
	t.Run("inner", func(t *testing.T) {
		sink = CaptureLogs(t)
		monitoring.Logf("hello %d", 1)
	})
	assert.Equal(t, []string{"hello 1"}, sink.Lines())

	// the capture is gone once the subtest finished
	monitoring.SetLogger(nil)
	monitoring.Logf("after")
	assert.Len(t, sink.Lines(), 1)
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "x.json", `{"a":1}`)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(b))
}

func TestCaptureLogger(t *testing.T) {
	prev := monitoring.Logger
	t.Run("inner", func(t *testing.T) {
		buf := CaptureLogger(t)
		monitoring.Logger.Info().Str("k", "v").Msg("hi")
		assert.JSONEq(t, `{"level":"info","k":"v","message":"hi"}`, buf.String())
	})
	assert.Equal(t, prev, monitoring.Logger)
}
