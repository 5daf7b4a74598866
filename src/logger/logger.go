package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"holiday-pipeline/src/models"
)

// Log levels, lowest first
const (
	LevelDebug = iota
	LevelInfo
	LevelWarning
	LevelError
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger *log.Logger
	level  int
	iso    bool
	now    func() time.Time
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance writing to stdout.
// config may be *models.MConfig (its log_level is honoured) or nil.
func NewLogger(config interface{}, name string) *Logger {
	l := &Logger{
		name:   name,
		logger: log.New(os.Stdout, "", log.LstdFlags),
		level:  LevelInfo,
		now:    time.Now,
	}
	if cfg, ok := config.(*models.MConfig); ok && cfg != nil {
		l.level = ParseLevel(cfg.LogLevel)
	}
	return l
}

// -----------------------------------------------------------------------------

// NewISOLogger writes "[<RFC3339 UTC>] message" lines to w and nothing else.
// Used for run logs that must be greppable by timestamp.
func NewISOLogger(name string, w io.Writer) *Logger {
	return &Logger{
		name:   name,
		logger: log.New(w, "", 0),
		level:  LevelDebug,
		iso:    true,
		now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

// ParseLevel maps a config string to a level; unknown values mean INFO.
func ParseLevel(s string) int {
	switch strings.ToUpper(strings.TrimSpace(s)) {
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

// SetLevel changes the minimum level written.
func (l *Logger) SetLevel(level int) {
	l.level = level
}

// Name returns the logger's component name
func (l *Logger) Name() string {
	return l.name
}

// -----------------------------------------------------------------------------

func (l *Logger) output(level int, tag, format string, args ...interface{}) {
	if l == nil || level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.iso {
		ts := l.now().UTC().Format(time.RFC3339Nano)
		if level == LevelInfo {
			l.logger.Printf("[%s] %s", ts, msg)
		} else {
			l.logger.Printf("[%s] %s: %s", ts, tag, msg)
		}
		return
	}
	l.logger.Printf("[%s] %s: %s", l.name, tag, msg)
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.output(LevelDebug, "DEBUG", format, args...)
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.output(LevelWarning, "WARNING", format, args...)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.output(LevelInfo, "INFO", format, args...)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.output(LevelError, "ERROR", format, args...)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}
