package logger

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

const serviceName = "currency-rates"

// Logger is the structured logger shared by every layer of the service.
// Calls take a message followed by alternating key/value pairs.
type Logger struct {
	hclog.Logger
}

func NewLogger(level string) *Logger {
	return newLogger(level, false)
}

// NewJSONLogger is NewLogger with JSON-formatted output, for log shippers.
func NewJSONLogger(level string) *Logger {
	return newLogger(level, true)
}

// NewNullLogger discards everything. Used by tests.
func NewNullLogger() *Logger {
	return &Logger{Logger: hclog.NewNullLogger()}
}

func newLogger(level string, json bool) *Logger {
	return &Logger{
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:       serviceName,
			Level:      parseLevel(level),
			Output:     os.Stderr,
			JSONFormat: json,
		}),
	}
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

func parseLevel(level string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return hclog.Trace
	case "debug":
		return hclog.Debug
	case "warn", "warning":
		return hclog.Warn
	case "error":
		return hclog.Error
	default:
		return hclog.Info
	}
}
