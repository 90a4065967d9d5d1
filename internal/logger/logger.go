package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger interface for structured logging.
// Fields are alternating key/value pairs.
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, err error, fields ...interface{})
	With(fields ...interface{}) Logger
}

// SlogLogger implements Logger on top of log/slog
type SlogLogger struct {
	logger *slog.Logger
}

// New creates a logger for the given environment: text output at debug level in
// development, JSON at info level everywhere else.
func New(env string) Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(env string, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &SlogLogger{logger: slog.New(handler)}
}

// Nop returns a logger that discards everything
func Nop() Logger {
	return &SlogLogger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Info logs an info message
func (l *SlogLogger) Info(msg string, fields ...interface{}) {
	l.logger.Info(msg, fields...)
}

// Error logs an error message
func (l *SlogLogger) Error(msg string, err error, fields ...interface{}) {
	if err != nil {
		fields = append([]interface{}{"error", err.Error()}, fields...)
	}
	l.logger.Error(msg, fields...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(msg string, fields ...interface{}) {
	l.logger.Warn(msg, fields...)
}

// Debug logs a debug message
func (l *SlogLogger) Debug(msg string, fields ...interface{}) {
	l.logger.Debug(msg, fields...)
}

// Fatal logs an error and exits
func (l *SlogLogger) Fatal(msg string, err error, fields ...interface{}) {
	l.Error(msg, err, fields...)
	os.Exit(1)
}

// With returns a logger that adds the given fields to every entry
func (l *SlogLogger) With(fields ...interface{}) Logger {
	return &SlogLogger{logger: l.logger.With(fields...)}
}
