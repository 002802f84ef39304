package log

import (
	"sync"
	"time"
)

var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// Default returns the package logger, creating a console logger named
// "default" on first use.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger != nil && !defaultLogger.state.ShutdownCalled.Load() {
		return defaultLogger
	}

	cfg := DefaultConfig()
	cfg.Name = DefaultLoggerName
	l, err := NewLogger(cfg)
	if err != nil {
		// Name taken by a user logger, reuse it
		if existing, ok := Lookup(DefaultLoggerName); ok {
			defaultLogger = existing
			return existing
		}
		cfg.Name = ""
		l, _ = NewLogger(cfg)
	}
	defaultLogger = l
	return l
}

// SetDefault replaces the package logger and returns the previous one.
// The previous logger is not shut down.
func SetDefault(l *Logger) *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultLogger
	defaultLogger = l
	return prev
}

// ShutdownDefault shuts down the package logger if one was created
func ShutdownDefault(timeout ...time.Duration) error {
	defaultMu.Lock()
	l := defaultLogger
	defaultLogger = nil
	defaultMu.Unlock()

	if l == nil {
		return nil
	}
	return l.Shutdown(timeout...)
}

// Debug logs a message at debug level
func Debug(args ...any) {
	Default().Debug(args...)
}

// Info logs a message at info level
func Info(args ...any) {
	Default().Info(args...)
}

// Warn logs a message at warning level
func Warn(args ...any) {
	Default().Warn(args...)
}

// Error logs a message at error level
func Error(args ...any) {
	Default().Error(args...)
}

// Debugf logs a formatted message at debug level
func Debugf(format string, args ...any) {
	Default().Debugf(format, args...)
}

// Infof logs a formatted message at info level
func Infof(format string, args ...any) {
	Default().Infof(format, args...)
}

// Warnf logs a formatted message at warning level
func Warnf(format string, args ...any) {
	Default().Warnf(format, args...)
}

// Errorf logs a formatted message at error level
func Errorf(format string, args ...any) {
	Default().Errorf(format, args...)
}
