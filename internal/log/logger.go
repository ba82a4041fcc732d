// SPDX-License-Identifier: MIT
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

// Constants for log levels.
const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string (case-insensitive) to a LogLevel.
// Returns LevelInfo and false if the string is not recognized.
func ParseLevel(levelStr string) (LogLevel, bool) {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN", "WARNING":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "FATAL":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// --- Global Logger State ---

// currentLevel holds the current global log level atomically.
var currentLevel atomic.Uint32

// output is the standard logger every component writes through.
var output = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)

func init() {
	SetLevel(LevelInfo)
}

// SetLevel sets the global logging level atomically.
func SetLevel(level LogLevel) {
	currentLevel.Store(uint32(level))
}

// GetLevel gets the current global logging level atomically.
func GetLevel() LogLevel {
	return LogLevel(currentLevel.Load())
}

// SetOutput redirects all log output, e.g. away from the terminal while the TUI owns it.
func SetOutput(w io.Writer) {
	output.SetOutput(w)
}

func shouldLog(level LogLevel) bool {
	return level >= GetLevel()
}

// --- Component Loggers ---

// Logger prefixes every message with the name of the component that wrote it.
// The zero value logs without a prefix.
type Logger struct {
	prefix string
}

// New returns a Logger for the named component.
func New(component string) Logger {
	return Logger{prefix: component + ": "}
}

func (l Logger) logf(level LogLevel, format string, v ...any) {
	if !shouldLog(level) {
		return
	}
	output.Printf("[%-5s] %s%s", level, l.prefix, fmt.Sprintf(format, v...))
}

// Debugf logs a formatted debug message if the level is appropriate.
func (l Logger) Debugf(format string, v ...any) { l.logf(LevelDebug, format, v...) }

// Infof logs a formatted info message if the level is appropriate.
func (l Logger) Infof(format string, v ...any) { l.logf(LevelInfo, format, v...) }

// Warnf logs a formatted warning message if the level is appropriate.
func (l Logger) Warnf(format string, v ...any) { l.logf(LevelWarn, format, v...) }

// Errorf logs a formatted error message if the level is appropriate.
func (l Logger) Errorf(format string, v ...any) { l.logf(LevelError, format, v...) }

// Fatalf logs a formatted fatal message and exits the application.
// Fatal messages are always logged regardless of the current level.
func (l Logger) Fatalf(format string, v ...any) {
	output.Fatalf("[%-5s] %s%s", LevelFatal, l.prefix, fmt.Sprintf(format, v...))
}

// --- Package Level Functions ---

var std Logger

// Debugf logs a formatted debug message without a component prefix.
func Debugf(format string, v ...any) { std.Debugf(format, v...) }

// Infof logs a formatted info message without a component prefix.
func Infof(format string, v ...any) { std.Infof(format, v...) }

// Warnf logs a formatted warning message without a component prefix.
func Warnf(format string, v ...any) { std.Warnf(format, v...) }

// Errorf logs a formatted error message without a component prefix.
func Errorf(format string, v ...any) { std.Errorf(format, v...) }

// Fatalf logs a formatted fatal message and exits the application.
func Fatalf(format string, v ...any) { std.Fatalf(format, v...) }
