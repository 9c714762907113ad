// Package testutil holds helpers shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kgkim70/openpilot/internal/monitoring"
)

// MuteLogs silences monitoring.Logf until the test ends.
func MuteLogs(t testing.TB) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

// LogSink collects formatted log lines.
type LogSink struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the collected lines.
func (s *LogSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// CaptureLogs redirects monitoring.Logf into a sink until the test ends.
func CaptureLogs(t testing.TB) *LogSink {
	t.Helper()
	sink := &LogSink{}
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		sink.lines = append(sink.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(prev) })
	return sink
}

// CaptureLogger points monitoring.Logger at a buffer of JSON lines until
// the test ends. The buffer is not safe for concurrent loggers.
func CaptureLogger(t testing.TB) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := monitoring.Logger
	monitoring.Logger = zerolog.New(buf)
	t.Cleanup(func() { monitoring.Logger = prev })
	return buf
}

// WriteFile writes body to name inside a fresh temp dir and returns the
// full path.
func WriteFile(t testing.TB, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
