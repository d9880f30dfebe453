package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger bundles the application loggers handed out at startup.
type Logger struct {
	App  zerolog.Logger
	HTTP zerolog.Logger
}

// New builds the root loggers at the given level (DEBUG, INFO, WARN, ERROR).
func New(level string) *Logger {
	app := newRoot(os.Stderr, level)
	return &Logger{
		App:  app,
		HTTP: Sub(app, "http"),
	}
}

// Sub derives a child logger tagged with a component name.
func Sub(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// WithRequestID derives an HTTP logger carrying the request id.
func (l *Logger) WithRequestID(id string) zerolog.Logger {
	return l.HTTP.With().Str("request_id", id).Logger()
}

// InitForTests returns loggers that stay quiet during test runs.
func InitForTests() *Logger {
	app := newRoot(io.Discard, "DEBUG")
	return &Logger{App: app, HTTP: app}
}

func newRoot(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
