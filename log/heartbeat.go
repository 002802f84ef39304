package log

import (
	"fmt"
	"runtime"
	"time"
)

// heartbeat emits a proc record every interval until shutdown
func (l *Logger) heartbeat(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.logProcHeartbeat()
		case <-l.heartbeatStop:
			return
		}
	}
}

// logProcHeartbeat logs logger statistics at LevelProc.
// Heartbeats bypass the level filter.
func (l *Logger) logProcHeartbeat() {
	if l.state.ShutdownCalled.Load() {
		return
	}

	stats := l.Stats()
	sequence := l.state.HeartbeatSequence.Add(1)

	procArgs := []any{
		"type", "proc",
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", stats.Uptime.Hours()),
		"processed_logs", stats.Processed,
		"sink_errors", stats.SinkErrors,
		"dropped_logs", stats.Dropped,
		"queue_depth", stats.QueueDepth,
		"num_goroutine", runtime.NumGoroutine(),
	}

	l.enqueue(LevelProc, TagProc, formatArgs(procArgs))
}
