package server

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Conn is an accepted connection travelling from the acceptor to one worker.
// The dequeuing worker owns it exclusively and closes it.
type Conn struct {
	net.Conn
	ID       string
	Peer     string
	Accepted time.Time

	idle atomic.Bool // waiting for the next request
}

func newConn(nc net.Conn) *Conn {
	return &Conn{
		Conn:     nc,
		ID:       uuid.NewString(),
		Peer:     nc.RemoteAddr().String(),
		Accepted: time.Now(),
	}
}

// Idle reports whether the connection is between requests
func (c *Conn) Idle() bool {
	return c.idle.Load()
}
