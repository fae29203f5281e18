// Package logging provides a shared, structured logger for markless.
//
// It wraps charmbracelet/log and provides a single initialization point so
// all components share the same output handler and log level. The log level
// can be controlled at startup via the MARKLESS_LOG_LEVEL environment
// variable (debug, info, warn, error). If unset, the default level is WARN
// so the terminal UI stays quiet unless something goes wrong.
//
// Usage:
//
//	log := logging.New("images")       // logger tagged with component=images
//	log.Warn("decode failed", "src", src, "error", err)
//
// All log output is written to stderr so it does not interfere with the
// terminal UI rendered on stdout. SetOutput can redirect everything to a
// file (the --render-debug-log flag).
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	initLogger sync.Once
	baseLogger *log.Logger
)

// New returns a structured logger scoped to the given component name.
//
// The component name is added as a "component" attribute to every entry
// produced by the returned logger, making it easy to filter logs by
// subsystem (e.g. "app", "document", "images"). If component is empty, the
// base logger is returned. The base logger is lazily initialized on the
// first call and reused afterwards.
func New(component string) *log.Logger {
	initLogger.Do(initBase)
	if component == "" {
		return baseLogger
	}
	return baseLogger.With("component", component)
}

// SetLevel overrides the log level for the base logger and every logger
// derived from it after this call.
func SetLevel(level string) {
	initLogger.Do(initBase)
	baseLogger.SetLevel(parseLevel(level))
}

// SetOutput redirects all log output, e.g. to the --render-debug-log file.
func SetOutput(w io.Writer) {
	initLogger.Do(initBase)
	baseLogger.SetOutput(w)
}

func initBase() {
	baseLogger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		ReportCaller:    false,
		Level:           parseLevel(os.Getenv("MARKLESS_LOG_LEVEL")),
	})
}

// parseLevel converts a human-readable log level string to a log.Level.
// Unrecognized values fall back to WARN.
func parseLevel(value string) log.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}
