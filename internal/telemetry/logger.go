package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// Logger writes JSON lines to a file, or nowhere when no path is set. The
// TUI owns the terminal, so logs never go to stderr while it runs.
type Logger struct {
	*clog.Logger
	closer io.Closer
}

func New(path, level string) (*Logger, error) {
	if path == "" {
		return &Logger{Logger: newJSON(io.Discard, level)}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: newJSON(f, level), closer: f}, nil
}

// NewWriter logs JSON lines to w. Nothing in the workspace writes to
// stderr; this is used where a caller owns the writer, such as tests.
func NewWriter(w io.Writer, level string) *Logger {
	return &Logger{Logger: newJSON(w, level)}
}

func newJSON(w io.Writer, level string) *clog.Logger {
	return clog.NewWithOptions(w, clog.Options{
		Formatter:       clog.JSONFormatter,
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
	})
}

func ParseLevel(level string) clog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	case "error":
		return clog.ErrorLevel
	default:
		return clog.InfoLevel
	}
}

func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
