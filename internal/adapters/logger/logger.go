// Package logger implements a logging adapter using log/slog with a
// charmbracelet/log handler.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Logger = (*Logger)(nil)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	mu      sync.RWMutex
	out     io.Writer
	level   domain.LogLevel
	handler *log.Logger
	logger  *slog.Logger
}

// New creates a Logger writing human-readable output to stderr at info level.
func New() *Logger {
	l := &Logger{out: os.Stderr, level: domain.LogLevelInfo}
	l.rebuild()
	return l
}

func (l *Logger) rebuild() {
	l.handler = log.NewWithOptions(l.out, log.Options{
		Level:  log.Level(l.level),
		Prefix: "weld",
	})
	l.logger = slog.New(l.handler)
}

// SetOutput updates the logger's output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.rebuild()
}

// SetLevel sets the minimum level that is written.
func (l *Logger) SetLevel(level domain.LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.handler.SetLevel(log.Level(level))
}

// Debug logs a debug message.
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

// Error logs an error together with the metadata attached along its chain.
func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	zerr.Log(context.Background(), l.logger, err)
}
