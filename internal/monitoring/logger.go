// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger. Setup replaces it; packages that need
// fields rather than a formatted line log through it directly.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Logf is the package-level diagnostic logger. It writes through Logger
// at info level by default but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf = defaultLogf

func defaultLogf(format string, v ...interface{}) {
	Logger.Info().Msg(fmt.Sprintf(format, v...))
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// ParseLevel converts a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup points Logger at w with the given level and restores Logf to
// write through it. A console writer is used when console is true.
func Setup(w io.Writer, level string, console bool) {
	out := w
	if console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
	Logf = defaultLogf
}
