package log

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"
)

const errPrefix = "log: "

// fmtErrorf is fmt.Errorf with the package prefix
func fmtErrorf(format string, args ...any) error {
	return fmt.Errorf(withPrefix(format), args...)
}

func withPrefix(format string) string {
	if strings.HasPrefix(format, errPrefix) {
		return format
	}
	return errPrefix + format
}

func combineErrors(errs ...error) error {
	return multierr.Combine(errs...)
}

// parseKeyValue splits "key=value", trimming both sides
func parseKeyValue(arg string) (string, string, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(arg), "=")
	key = strings.TrimSpace(key)
	switch {
	case !ok:
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	case key == "":
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, strings.TrimSpace(value), nil
}

// ParseLevel converts a level name to its numeric value
func ParseLevel(name string) (int64, error) {
	if level, ok := levelNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return level, nil
	}
	return 0, fmtErrorf("invalid level string: '%s' (use debug, info, warn, error, proc)", name)
}

var levelNames = map[string]int64{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"proc":    LevelProc,
}

// internalLog reports logger failures on stderr when internal_errors_to_stderr is set
func (l *Logger) internalLog(format string, args ...any) {
	if l.cfg.InternalErrorsToStderr {
		fmt.Fprintf(os.Stderr, withPrefix(format), args...)
	}
}
