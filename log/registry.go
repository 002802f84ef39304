package log

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// registry maps names to live loggers
var registry = struct {
	sync.RWMutex
	loggers map[string]*Logger
}{loggers: make(map[string]*Logger)}

// register adds a logger, failing when the name is taken
func register(l *Logger) error {
	registry.Lock()
	defer registry.Unlock()

	if _, exists := registry.loggers[l.name]; exists {
		return fmtErrorf("logger name '%s' already registered", l.name)
	}
	registry.loggers[l.name] = l
	return nil
}

// unregister removes l if it still owns its name
func unregister(l *Logger) {
	registry.Lock()
	defer registry.Unlock()

	if registry.loggers[l.name] == l {
		delete(registry.loggers, l.name)
	}
}

// Registry returns a snapshot of the live loggers sorted by name
func Registry() []*Logger {
	registry.RLock()
	out := make([]*Logger, 0, len(registry.loggers))
	for _, l := range registry.loggers {
		out = append(out, l)
	}
	registry.RUnlock()

	slices.SortFunc(out, func(a, b *Logger) int {
		return strings.Compare(a.name, b.name)
	})
	return out
}

// Lookup returns the live logger registered under name
func Lookup(name string) (*Logger, bool) {
	registry.RLock()
	defer registry.RUnlock()
	l, ok := registry.loggers[name]
	return l, ok
}

// ShutdownAll shuts down every registered logger, including the default one.
// Errors from individual loggers are combined.
func ShutdownAll(timeout ...time.Duration) error {
	var err error
	for _, l := range Registry() {
		err = combineErrors(err, l.Shutdown(timeout...))
	}

	defaultMu.Lock()
	defaultLogger = nil
	defaultMu.Unlock()

	return err
}
