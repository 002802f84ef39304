// Package server accepts TCP connections and dispatches them to a fixed pool
// of workers through a shared ConnQueue.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/ccerve/log"
	"github.com/lixenwraith/ccerve/metrics"
)

// Accept retry backoff bounds
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Server owns the listener, the connection queue and the worker pool
type Server struct {
	cfg     *Config
	handler RequestHandler
	logger  *log.Logger
	metrics metrics.Recorder
	queue   *ConnQueue

	mu     sync.Mutex
	ln     net.Listener
	active map[*Conn]struct{}

	serving atomic.Bool
	closing atomic.Bool
	closeCh chan struct{} // closed when shutdown starts
	done    chan struct{} // closed when Serve returns
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger for errors and access lines
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Server) {
		if r != nil {
			s.metrics = r
		}
	}
}

// New validates cfg and creates a server. Nothing is bound until Listen.
func New(cfg *Config, h RequestHandler, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmtErrorf("request handler is required")
	}

	policy, _ := ParseOverflowPolicy(cfg.OverflowPolicy)
	s := &Server{
		cfg:     cfg.Clone(),
		handler: h,
		metrics: metrics.NewNoop(),
		queue:   NewConnQueue(int(cfg.QueueCapacity), policy),
		active:  make(map[*Conn]struct{}),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}

	s.queue.SetEvictHandler(func(c *Conn) {
		s.logger.Warnf("queue full, dropped oldest connection %s from %s", c.ID, c.Peer)
		s.metrics.ConnRejected(metrics.ReasonEvicted)
		_ = c.Close()
	})
	return s, nil
}

// Listen creates the TCP listener for the configured address.
// Address resolution and socket creation failures match ErrListenerCreate,
// bind and listen failures match ErrListenerBind.
func (s *Server) Listen() (net.Listener, error) {
	addr := s.cfg.Addr()
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrListenerCreate, addr, err)
	}

	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		var se *os.SyscallError
		if errors.As(err, &se) && se.Syscall == "socket" {
			return nil, fmt.Errorf("%w: %s: %w", ErrListenerCreate, addr, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrListenerBind, addr, err)
	}
	return ln, nil
}

// ListenAndServe binds the configured address and serves until Shutdown
func (s *Server) ListenAndServe() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve runs one acceptor and the worker pool on ln and blocks until both
// have stopped. It returns nil after a Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.closing.Load() {
		_ = ln.Close()
		return ErrServerClosed
	}
	if !s.serving.CompareAndSwap(false, true) {
		return fmtErrorf("already serving")
	}
	defer close(s.done)

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	// Shutdown may have run before the listener was recorded
	if s.closing.Load() {
		_ = ln.Close()
	}

	s.logger.Infof("listening on %s with %d workers", ln.Addr(), s.cfg.Workers)

	var g errgroup.Group
	g.Go(func() error {
		// Workers exit once the queue is closed and empty
		defer s.queue.Close()
		return s.acceptLoop(ln)
	})
	for i := 0; i < int(s.cfg.Workers); i++ {
		g.Go(func() error {
			s.worker()
			return nil
		})
	}
	return g.Wait()
}

// Addr returns the bound address, or nil before Serve
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Queue exposes the connection queue for inspection
func (s *Server) Queue() *ConnQueue {
	return s.queue
}

// acceptLoop moves accepted connections into the queue.
// Accept failures are logged and retried with backoff; only a closed listener
// ends the loop.
func (s *Server) acceptLoop(ln net.Listener) error {
	var delay time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmtErrorf("listener closed unexpectedly: %w", err)
			}

			s.metrics.AcceptError()
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.logger.Errorf("accept failed, retrying in %v: %v", delay, err)

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-s.closeCh:
				timer.Stop()
			}
			continue
		}
		delay = 0

		c := newConn(nc)
		s.metrics.ConnAccepted()
		s.logger.Debugf("accepted connection %s from %s", c.ID, c.Peer)

		if err := s.queue.Enqueue(c); err != nil {
			reason := metrics.ReasonQueueFull
			if errors.Is(err, ErrQueueClosed) {
				reason = metrics.ReasonQueueClosed
			}
			s.logger.Warnf("connection %s from %s rejected: %v", c.ID, c.Peer, err)
			s.metrics.ConnRejected(reason)
			_ = c.Close()
			continue
		}
		s.metrics.QueueDepth(s.queue.Len())
	}
}

// Shutdown stops accepting, closes queued connections and waits for workers.
// Idle keep-alive connections are interrupted at once; exchanges in flight
// get shutdown_grace_ms before their deadlines are cut. When ctx expires
// first, remaining connections are closed and ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs error

	if s.closing.CompareAndSwap(false, true) {
		close(s.closeCh)

		s.mu.Lock()
		ln := s.ln
		s.mu.Unlock()
		if ln != nil {
			if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				errs = multierr.Append(errs, fmtErrorf("failed to close listener: %w", err))
			}
		}

		s.queue.Close()
		for _, c := range s.queue.Drain() {
			s.metrics.ConnRejected(metrics.ReasonQueueClosed)
			errs = multierr.Append(errs, ignoreClosed(c.Close()))
		}

		s.interrupt(func(c *Conn) bool { return c.Idle() })
	}

	if !s.serving.Load() {
		return errs
	}

	grace := time.NewTimer(s.cfg.shutdownGrace())
	defer grace.Stop()

	select {
	case <-s.done:
		return errs
	case <-grace.C:
		if n := s.interrupt(func(*Conn) bool { return true }); n > 0 {
			s.logger.Warnf("shutdown grace elapsed, interrupted %d active connections", n)
		}
	case <-ctx.Done():
		s.closeActive()
		return multierr.Append(errs, ctx.Err())
	}

	select {
	case <-s.done:
		return errs
	case <-ctx.Done():
		s.closeActive()
		return multierr.Append(errs, ctx.Err())
	}
}

// interrupt sets an immediate deadline on matching active connections
func (s *Server) interrupt(match func(*Conn) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	now := time.Now()
	for c := range s.active {
		if match(c) {
			_ = c.SetDeadline(now)
			n++
		}
	}
	return n
}

// closeActive force-closes every connection still owned by a worker
func (s *Server) closeActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.active {
		_ = c.Close()
	}
}

func (s *Server) track(c *Conn, add bool) {
	s.mu.Lock()
	if add {
		s.active[c] = struct{}{}
	} else {
		delete(s.active, c)
	}
	s.mu.Unlock()
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
