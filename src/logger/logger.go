package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"netsim-results/src/models"
)

// Level is the minimum severity a Logger prints.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarning,
	"warning": LevelWarning,
	"error":   LevelError,
}

// ParseLevel maps a config string to a Level. Unknown strings map to INFO.
func ParseLevel(s string) Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return LevelInfo
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	level  Level
	logger *log.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance writing to stdout. cfg may be nil.
func NewLogger(cfg *models.MConfig, name string) *Logger {
	level := LevelInfo
	if cfg != nil {
		level = ParseLevel(cfg.LogLevel)
	}
	return NewLoggerWithWriter(os.Stdout, level, name)
}

// NewLoggerWithWriter creates a Logger writing to w.
func NewLoggerWithWriter(w io.Writer, level Level, name string) *Logger {
	return &Logger{
		name:   name,
		level:  level,
		logger: log.New(w, "", log.LstdFlags),
	}
}

// -----------------------------------------------------------------------------

// Named returns a logger sharing the output and level under another name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, level: l.level, logger: l.logger}
}

// -----------------------------------------------------------------------------

func (l *Logger) logf(level Level, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.logger.Printf("[%s] %s: %s", l.name, tag, formatMessage(format, args))
}

// formatMessage leaves format untouched when there are no args, so a
// literal '%' in a plain message survives.
func formatMessage(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.logf(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logf(LevelError, "CRITICAL", format, args...)
	os.Exit(1)
}
