// Package log wraps log/slog with component-scoped loggers and the canonical
// field names used across the application.
package log

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with a fixed component attribute.
type Logger struct {
	*slog.Logger
	component string
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
	}
}

// New creates a logger with the given configuration.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	logger := slog.New(handler).With(FieldComponent, config.Component)
	return &Logger{Logger: logger, component: config.Component}
}

// ForComponent derives a logger scoped to another component.
func (l *Logger) ForComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// Component returns the component this logger is scoped to.
func (l *Logger) Component() string {
	return l.component
}

// Setup installs a text handler at the given level as the process default.
// Binaries call this once at startup so slog.InfoContext etc. carry the
// same formatting everywhere.
func Setup(level slog.Level) *Logger {
	logger := New(Config{Level: level, Component: ComponentApp})
	slog.SetDefault(logger.Logger)
	return logger
}

// ErrorCtx logs err with the standard error field if err is non-nil.
func (l *Logger) ErrorCtx(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, FieldError, err)
	}
	l.ErrorContext(ctx, msg, args...)
}
