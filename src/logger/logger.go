package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// -----------------------------------------------------------------------------

// Log levels, lowest to highest.
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
)

// -----------------------------------------------------------------------------

// Logger provides named, leveled logging for one component.
type Logger struct {
	name   string
	level  int
	logger *log.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a Logger. levelName is one of DEBUG/INFO/WARNING/ERROR;
// anything else defaults to INFO.
func NewLogger(levelName, name string) *Logger {
	return &Logger{
		name:   name,
		level:  parseLevel(levelName),
		logger: log.New(os.Stdout, "", log.LstdFlags),
	}
}

// -----------------------------------------------------------------------------

func parseLevel(levelName string) int {
	switch strings.ToUpper(levelName) {
	case "DEBUG":
		return LevelDebug
	case "WARNING", "WARN":
		return LevelWarning
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// -----------------------------------------------------------------------------

func (l *Logger) printf(level int, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}

// -----------------------------------------------------------------------------

// Debug logs developer-level detail.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.printf(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages.
func (l *Logger) Info(format string, args ...interface{}) {
	l.printf(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems.
func (l *Logger) Warning(format string, args ...interface{}) {
	l.printf(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs failures.
func (l *Logger) Error(format string, args ...interface{}) {
	l.printf(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs a fatal error and exits the application.
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}
