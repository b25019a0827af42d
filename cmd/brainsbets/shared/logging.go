package shared

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger configures a logger writing to stderr. Format "json" switches
// to structured output; anything else is the pretty console format.
func SetupLogger(level log.Level, format string) *log.Logger {
	return NewLogger(os.Stderr, level, format)
}

// NewLogger is SetupLogger with an explicit writer
func NewLogger(w io.Writer, level log.Level, format string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if format == "json" {
		logger.SetFormatter(log.JSONFormatter)
		logger.SetTimeFormat(time.RFC3339Nano)
	}
	return logger
}

// ParseLevel resolves the effective level from a configured name and the
// --debug flag
func ParseLevel(name string, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
