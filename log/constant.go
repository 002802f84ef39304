package log

// Log level constants
const (
	LevelDebug int64 = -4
	LevelInfo  int64 = 0
	LevelWarn  int64 = 4
	LevelError int64 = 8
)

// Heartbeat log level, always above the configured filter
const (
	LevelProc int64 = 12
)

// Default tags attached by the level helpers
const (
	TagDebug = "debug"
	TagInfo  = "info"
	TagWarn  = "warn"
	TagError = "error"
	TagProc  = "proc"
)

// Console targets
const (
	ConsoleStdout = "stdout"
	ConsoleStderr = "stderr"
)

// Console color modes
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// DefaultLoggerName is the registry name of the lazily created default logger
const DefaultLoggerName = "default"

// Queue slots reclaimed once the consumed prefix grows past this
const queueCompactThreshold = 256
