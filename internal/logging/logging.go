// Package logging provides a small leveled logger with key/value fields.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a log level name. Unknown names map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// sink is shared by a logger and every child created with With.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	now    func() time.Time
}

// Logger writes "15:04:05.000 [LEVEL] message key=value ..." lines.
type Logger struct {
	s      *sink
	fields string
}

// New creates a logger writing to stderr.
func New(level Level) *Logger {
	return &Logger{s: &sink{level: level, output: os.Stderr, now: time.Now}}
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return &Logger{s: &sink{level: LevelError + 1, output: io.Discard, now: time.Now}}
}

// SetOutput sets the destination for this logger and its children.
func (l *Logger) SetOutput(w io.Writer) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.output = w
}

// SetLevel sets the minimum level for this logger and its children.
func (l *Logger) SetLevel(level Level) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.level = level
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return level >= l.s.level
}

// With returns a child logger that appends the given key/value pairs to
// every line. A trailing key without a value is logged as key=MISSING.
func (l *Logger) With(kv ...any) *Logger {
	var b strings.Builder
	b.WriteString(l.fields)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		val := "MISSING"
		if i+1 < len(kv) {
			val = formatValue(kv[i+1])
		}
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(val)
	}
	return &Logger{s: l.s, fields: b.String()}
}

func formatValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return strconv.Quote(s)
	}
	return s
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if level < l.s.level {
		return
	}

	timestamp := l.s.now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s%s\n", timestamp, level.String(), msg, l.fields)

	_, _ = l.s.output.Write([]byte(line))
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// StdLogger adapts l for APIs that take a *log.Logger, such as
// http.Server.ErrorLog. Lines are written at level.
func (l *Logger) StdLogger(level Level) *log.Logger {
	return log.New(writerFunc(func(p []byte) (int, error) {
		l.log(level, "%s", strings.TrimRight(string(p), "\n"))
		return len(p), nil
	}), "", 0)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
