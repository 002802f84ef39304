package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State encapsulates the runtime state of the logger
type State struct {
	ShutdownCalled atomic.Bool
	DrainExited    atomic.Bool // Set once the drain goroutine has returned

	LoggerStartTime    atomic.Value  // Stores time.Time for uptime calculation
	TotalLogsProcessed atomic.Uint64 // Records written to all sinks
	SinkErrors         atomic.Uint64 // Failed sink writes
	DroppedLogs        atomic.Uint64 // Records rejected after shutdown was requested
	HeartbeatSequence  atomic.Uint64 // Counter for heartbeat sequence numbers
}

// Stats is a point-in-time snapshot of logger counters
type Stats struct {
	Processed  uint64
	SinkErrors uint64
	Dropped    uint64
	QueueDepth int
	Uptime     time.Duration
}

// Logger is an asynchronous leveled logger.
// Producers format and enqueue records; one drain goroutine owned by the
// logger writes them to every sink in enqueue order.
type Logger struct {
	name  string
	cfg   *Config
	level atomic.Int64
	state State

	sinks  atomic.Pointer[[]Sink]
	sinkMu sync.Mutex // Serializes copy-on-write updates of sinks
	owned  []io.Closer

	queue         *logQueue
	done          chan struct{}
	heartbeatStop chan struct{}
}

// NewLogger creates, registers and starts a logger.
// Console and file sinks are created from cfg; extra sinks are appended after
// them in the given order. A nil cfg uses DefaultConfig.
func NewLogger(cfg *Config, sinks ...Sink) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("log: invalid configuration: %w", err)
	}
	cfg = cfg.Clone()

	l := &Logger{
		name:  cfg.Name,
		cfg:   cfg,
		queue: newLogQueue(),
		done:  make(chan struct{}),
	}
	if l.name == "" {
		l.name = "logger-" + uuid.NewString()[:8]
	}
	l.level.Store(cfg.Level)
	l.state.LoggerStartTime.Store(time.Now())

	var initial []Sink
	var warnings []string

	if cfg.EnableConsole {
		initial = append(initial, NewConsoleSink(cfg.ConsoleTarget, cfg.Color))
	}

	if cfg.EnableFile {
		fs, err := NewFileSink(cfg.FilePath(), FileSinkOptions{
			MaxSizeMB:  int(cfg.MaxSizeMB),
			MaxBackups: int(cfg.MaxBackups),
			MaxAgeDays: int(cfg.MaxAgeDays),
			Compress:   cfg.Compress,
		})
		switch {
		case errors.Is(err, ErrDuplicateFileSink):
			// Keep running, the hazard is interleaving not a crash
			warnings = append(warnings, err.Error())
		case err != nil:
			return nil, err
		}
		initial = append(initial, fs)
		l.owned = append(l.owned, fs)
	}

	initial = append(initial, sinks...)
	l.sinks.Store(&initial)

	if err := register(l); err != nil {
		l.closeOwned()
		return nil, err
	}

	go l.drain()

	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "log: warning - %s\n", w)
		l.Warn(w)
	}

	if cfg.HeartbeatIntervalS > 0 {
		l.heartbeatStop = make(chan struct{})
		go l.heartbeat(time.Duration(cfg.HeartbeatIntervalS) * time.Second)
	}

	return l, nil
}

// Name returns the registry name of the logger
func (l *Logger) Name() string {
	return l.name
}

// Level returns the minimum level forwarded to sinks
func (l *Logger) Level() int64 {
	return l.level.Load()
}

// SetLevel changes the minimum level forwarded to sinks
func (l *Logger) SetLevel(level int64) {
	l.level.Store(level)
}

// Enabled reports whether a record at level would be forwarded
func (l *Logger) Enabled(level int64) bool {
	return level >= l.level.Load()
}

// AddSink appends a sink. Records already queued may or may not reach it.
func (l *Logger) AddSink(s Sink) {
	if s == nil {
		return
	}
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()

	current := *l.sinks.Load()
	next := make([]Sink, len(current), len(current)+1)
	copy(next, current)
	next = append(next, s)
	l.sinks.Store(&next)
}

// Sinks returns the current sinks in write order
func (l *Logger) Sinks() []Sink {
	current := *l.sinks.Load()
	out := make([]Sink, len(current))
	copy(out, current)
	return out
}

// Log formats args and enqueues a record with the given level and tag.
// Levels below the configured minimum return before any formatting.
func (l *Logger) Log(level int64, tag string, args ...any) {
	if level < l.level.Load() {
		return
	}
	l.enqueue(level, tag, formatArgs(args))
}

// Logf is Log with printf-style formatting
func (l *Logger) Logf(level int64, tag string, format string, args ...any) {
	if level < l.level.Load() {
		return
	}
	l.enqueue(level, tag, fmt.Sprintf(format, args...))
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	l.Log(LevelDebug, TagDebug, args...)
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	l.Log(LevelInfo, TagInfo, args...)
}

// Warn logs a message at warning level
func (l *Logger) Warn(args ...any) {
	l.Log(LevelWarn, TagWarn, args...)
}

// Error logs a message at error level
func (l *Logger) Error(args ...any) {
	l.Log(LevelError, TagError, args...)
}

// Debugf logs a formatted message at debug level
func (l *Logger) Debugf(format string, args ...any) {
	l.Logf(LevelDebug, TagDebug, format, args...)
}

// Infof logs a formatted message at info level
func (l *Logger) Infof(format string, args ...any) {
	l.Logf(LevelInfo, TagInfo, format, args...)
}

// Warnf logs a formatted message at warning level
func (l *Logger) Warnf(format string, args ...any) {
	l.Logf(LevelWarn, TagWarn, format, args...)
}

// Errorf logs a formatted message at error level
func (l *Logger) Errorf(format string, args ...any) {
	l.Logf(LevelError, TagError, format, args...)
}

// enqueue builds the record and hands it to the drain goroutine
func (l *Logger) enqueue(level int64, tag, msg string) {
	record := Record{
		Time:    time.Now(),
		Logger:  l.name,
		Level:   level,
		Tag:     tag,
		Message: msg,
	}
	if !l.queue.push(record) {
		l.state.DroppedLogs.Add(1)
	}
}

// Stats returns a snapshot of the logger counters
func (l *Logger) Stats() Stats {
	var uptime time.Duration
	if start, ok := l.state.LoggerStartTime.Load().(time.Time); ok {
		uptime = time.Since(start)
	}
	return Stats{
		Processed:  l.state.TotalLogsProcessed.Load(),
		SinkErrors: l.state.SinkErrors.Load(),
		Dropped:    l.state.DroppedLogs.Load(),
		QueueDepth: l.queue.len(),
		Uptime:     uptime,
	}
}

// Flush waits until every record enqueued so far has been written to the sinks
func (l *Logger) Flush(timeout time.Duration) error {
	if l.state.ShutdownCalled.Load() {
		return fmtErrorf("logger '%s' already shut down", l.name)
	}

	if !l.queue.waitIdle(timeout) {
		return fmtErrorf("timeout waiting for flush (%v), %d records pending", timeout, l.queue.len())
	}
	return nil
}

// Shutdown stops accepting records, waits for the drain goroutine to write
// everything already queued, unregisters the logger and closes file sinks it
// created. If no timeout is provided, shutdown_timeout_ms is used.
// Safe to call more than once.
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	if l.heartbeatStop != nil {
		close(l.heartbeatStop)
	}

	l.queue.stop()

	effectiveTimeout := time.Duration(l.cfg.ShutdownTimeoutMs) * time.Millisecond
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	}

	timer := time.NewTimer(effectiveTimeout)
	defer timer.Stop()

	var finalErr error
	select {
	case <-l.done:
		finalErr = l.closeOwned()
	case <-timer.C:
		// Drain still owns the sinks, leave them open
		finalErr = fmtErrorf("logger '%s' drain did not exit within timeout (%v)", l.name, effectiveTimeout)
	}

	unregister(l)
	return finalErr
}

// closeOwned closes the file sinks created from config
func (l *Logger) closeOwned() error {
	var err error
	for _, c := range l.owned {
		err = combineErrors(err, c.Close())
	}
	l.owned = nil
	return err
}
