// Package logger wraps charmbracelet/log with the level handling used across riverbridge
package logger

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

func init() {
	Logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})

	// Set log level from environment variable
	if !SetLevel(os.Getenv("LOG_LEVEL")) {
		Logger.SetLevel(log.InfoLevel)
	}
}

// SetLevel parses a level name and applies it. It reports false and leaves
// the current level untouched when the name is empty or unknown.
func SetLevel(name string) bool {
	level, ok := parseLevel(name)
	if !ok {
		return false
	}
	Logger.SetLevel(level)
	return true
}

func parseLevel(name string) (log.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return log.DebugLevel, true
	case "INFO":
		return log.InfoLevel, true
	case "WARN", "WARNING":
		return log.WarnLevel, true
	case "ERROR":
		return log.ErrorLevel, true
	case "FATAL":
		return log.FatalLevel, true
	default:
		return log.InfoLevel, false
	}
}

// WithPrefix returns a child logger tagged with a component name
func WithPrefix(prefix string) *log.Logger {
	return Logger.WithPrefix(prefix)
}

// Convenience functions for common operations
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

func Infof(format string, args ...interface{}) {
	Logger.Infof(format, args...)
}

func Debugf(format string, args ...interface{}) {
	Logger.Debugf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	Logger.Errorf(format, args...)
}
