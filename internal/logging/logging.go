// Package logging builds the process logger from configuration.
package logging

import (
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nhle/collab-todo/internal/model"
)

// ParseLevel maps a config level name to a log.Level. Unknown names map
// to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter maps a config format name to a log.Formatter. Unknown
// names map to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// New returns a root logger writing to w.
func New(w io.Writer, cfg model.LogConfig) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(cfg.Level),
		Formatter:       ParseFormatter(cfg.Format),
		ReportTimestamp: true,
		Prefix:          "collabtodo",
	})
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
