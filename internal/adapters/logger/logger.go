// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"go.trai.ch/modman/internal/core/ports"
)

// Mode selects the slog handler the Logger writes through.
type Mode uint8

const (
	// ModePretty renders colored, human readable lines.
	ModePretty Mode = iota
	// ModeVerbose renders timestamped lines including debug records.
	ModeVerbose
	// ModeJSON renders one JSON object per record.
	ModeJSON
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	mu     sync.RWMutex
	mode   Mode
	output io.Writer
}

// New creates a new Logger instance writing pretty output to stderr.
func New() ports.Logger {
	l := &Logger{output: os.Stderr}
	l.rebuild()
	return l
}

// SetOutput updates the logger's output destination.
// If w is nil, os.Stderr is used as the default.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w == nil {
		w = os.Stderr
	}
	l.output = w
	l.rebuild()
}

// SetJSON switches between JSON and pretty logging.
func (l *Logger) SetJSON(enable bool) {
	if enable {
		l.SetMode(ModeJSON)
		return
	}
	l.SetMode(ModePretty)
}

// SetVerbose switches to the verbose handler, which also emits debug records.
func (l *Logger) SetVerbose(enable bool) {
	if enable {
		l.SetMode(ModeVerbose)
		return
	}
	l.SetMode(ModePretty)
}

// SetMode selects the handler. The output destination is preserved.
func (l *Logger) SetMode(m Mode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.mode = m
	l.rebuild()
}

// rebuild must be called with mu held.
func (l *Logger) rebuild() {
	w := l.output
	if w == nil {
		w = os.Stderr
	}

	var handler slog.Handler
	switch l.mode {
	case ModeJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	case ModeVerbose:
		handler = charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportTimestamp: true,
			Prefix:          "modman",
		})
	default:
		handler = NewConsoleHandler(w, slog.LevelInfo)
	}
	l.logger = slog.New(handler)
}

// Debug logs a debug message. Only the verbose mode prints it.
func (l *Logger) Debug(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg, args...)
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg, args...)
}

// Error logs an error, rendering zerr chains and their metadata.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err == nil {
		return
	}

	if l.mode == ModeJSON {
		l.logger.Error("operation failed", "error", err.Error())
		return
	}

	l.logger.Error(formatErrorEntries(collectErrorEntries(err)))
}
