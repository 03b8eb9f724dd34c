package logger

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// ParseLevel maps a LOG_LEVEL value to a Level, defaulting to info
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "silent", "off", "none":
		return LevelSilent
	default:
		return LevelInfo
	}
}

type Logger struct {
	serviceName string
}

var (
	// INFO_EMOJI Emoji constants
	INFO_EMOJI    = "ℹ️ "
	SUCCESS_EMOJI = "✅ "
	WARN_EMOJI    = "⚠️ "
	ERROR_EMOJI   = "❌ "
	DEBUG_EMOJI   = "🔍 "
)

var (
	mu     sync.RWMutex
	output io.Writer = color.Error
	level            = LevelInfo
)

// SetOutput redirects every logger. The console points this away from stdout
// so log lines do not interleave with rendered tables.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

func New(serviceName string) *Logger {
	return &Logger{
		serviceName: serviceName,
	}
}

func (l *Logger) formatMessage(level, emoji, msg string) string {
	_, file, line, _ := runtime.Caller(3)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fileName := filepath.Base(file)

	return fmt.Sprintf("%s | %s | %s | %s:%d | %s | %s",
		emoji,
		timestamp,
		level,
		fileName,
		line,
		l.serviceName,
		msg,
	)
}

func (l *Logger) write(lvl Level, name, emoji string, attr color.Attribute, msg string) {
	mu.RLock()
	w, min := output, level
	mu.RUnlock()
	if lvl < min {
		return
	}
	formatted := l.formatMessage(name, emoji, msg)
	_, _ = color.New(attr).Fprintln(w, formatted)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.write(LevelInfo, "INFO", INFO_EMOJI, color.FgCyan, fmt.Sprintf(msg, args...))
}

func (l *Logger) Success(msg string, args ...interface{}) {
	l.write(LevelInfo, "SUCCESS", SUCCESS_EMOJI, color.FgGreen, fmt.Sprintf(msg, args...))
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write(LevelWarn, "WARN", WARN_EMOJI, color.FgYellow, fmt.Sprintf(msg, args...))
}

// Error logs and returns msg wrapped around err so callers can `return log.Error(...)`
func (l *Logger) Error(msg string, err error, args ...interface{}) error {
	text := msg
	if len(args) > 0 {
		text = fmt.Sprintf(msg, args...)
	}
	l.write(LevelError, "ERROR", ERROR_EMOJI, color.FgRed, fmt.Sprintf("%s: %v", text, err))
	return fmt.Errorf("%s: %w", text, err)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", DEBUG_EMOJI, color.FgMagenta, fmt.Sprintf(msg, args...))
}
