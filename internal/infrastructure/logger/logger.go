// Package logger wraps slog with a process-wide default configured once
// at startup. Pipeline stages carry an op-scoped child logger in the
// context so one apply run's lines can be grepped apart from another.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	AddSource bool
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Init configures the process logger once; later calls are ignored.
func Init(cfg *Config) {
	once.Do(func() {
		if cfg == nil {
			cfg = &Config{}
		}
		defaultLogger = &Logger{slog.New(newHandler(cfg))}
	})
}

func newHandler(cfg *Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}
	if cfg.Format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// L returns the process logger, initializing a text logger at info level
// on first use when Init was never called.
func L() *Logger {
	if defaultLogger == nil {
		Init(nil)
	}
	return defaultLogger
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }
