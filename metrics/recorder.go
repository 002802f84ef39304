// Package metrics records server and logger activity.
//
// Recorder is the narrow interface the server writes to. Noop is used when
// metrics are disabled; Prometheus exposes the values over HTTP.
package metrics

import (
	"time"
)

// Connection rejection reasons
const (
	ReasonQueueFull   = "queue_full"
	ReasonQueueClosed = "queue_closed"
	ReasonEvicted     = "evicted"
)

// Recorder receives server events.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// ConnAccepted counts a connection taken off the listener
	ConnAccepted()
	// ConnRejected counts a connection closed without being served
	ConnRejected(reason string)
	// QueueDepth reports the connection queue length after a change
	QueueDepth(n int)
	// WorkerBusy adjusts the number of workers serving a connection by delta
	WorkerBusy(delta int)
	// RequestServed observes one request/response exchange
	RequestServed(status int, d time.Duration)
	// AcceptError counts a failed accept call
	AcceptError()
}

// Noop discards every event
type Noop struct{}

// NewNoop returns a recorder that does nothing
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) ConnAccepted() {}
func (Noop) ConnRejected(string) {}
func (Noop) QueueDepth(int) {}
func (Noop) WorkerBusy(int) {}
func (Noop) RequestServed(int, time.Duration) {}
func (Noop) AcceptError() {}
