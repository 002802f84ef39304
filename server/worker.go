package server

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/ccerve/log"
)

// TagAccess is the log tag of per-exchange access lines
const TagAccess = "access"

// Canned response for requests larger than max_request_bytes
var tooLargeResponse = []byte("HTTP/1.1 431 Request Header Fields Too Large\r\n" +
	"Content-Length: 0\r\nConnection: close\r\n\r\n")

// worker serves dequeued connections until the queue is closed and empty
func (s *Server) worker() {
	for {
		c, ok := s.queue.Dequeue()
		if !ok {
			return
		}
		s.metrics.QueueDepth(s.queue.Len())

		s.metrics.WorkerBusy(1)
		s.serveConn(c)
		s.metrics.WorkerBusy(-1)
	}
}

// serveConn runs the keep-alive exchange loop for one connection and closes it
func (s *Server) serveConn(c *Conn) {
	s.track(c, true)
	defer s.track(c, false)
	defer c.Close()

	if s.closing.Load() {
		return
	}

	r := bufio.NewReader(c)
	timeout := s.cfg.readTimeout()
	for {
		// Deadline before the idle mark, so an interrupt from Shutdown is never overwritten
		_ = c.SetReadDeadline(time.Now().Add(timeout))
		c.idle.Store(true)
		if s.closing.Load() {
			return
		}
		_, err := r.Peek(1)
		c.idle.Store(false)
		if err != nil {
			s.logReadEnd(c, err)
			return
		}

		raw, err := readRequest(r, int(s.cfg.MaxRequestBytes))
		if errors.Is(err, ErrRequestTooLarge) {
			s.logger.Warnf("request from %s exceeds %d bytes, closing", c.Peer, s.cfg.MaxRequestBytes)
			_ = c.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout()))
			_, _ = c.Write(tooLargeResponse)
			s.metrics.RequestServed(431, 0)
			return
		}
		if err != nil {
			s.logReadEnd(c, err)
			return
		}

		if !s.exchange(c, raw) {
			return
		}
		timeout = s.cfg.idleTimeout()
	}
}

// exchange hands one request to the handler and writes the response.
// Returns whether the connection should stay open.
func (s *Server) exchange(c *Conn, raw []byte) bool {
	start := time.Now()
	resp, meta, herr := s.handler.Handle(raw)
	if herr != nil {
		s.logger.Errorf("handler failed for %s: %v", c.Peer, herr)
		if len(resp) == 0 {
			return false
		}
	}

	_ = c.SetWriteDeadline(time.Now().Add(s.cfg.writeTimeout()))
	if _, err := c.Write(resp); err != nil {
		if !s.closing.Load() {
			s.logger.Errorf("write to %s failed: %v", c.Peer, err)
		}
		return false
	}

	s.logger.Logf(log.LevelInfo, TagAccess, "%s -- %s %s %s -- %d",
		c.Peer, meta.Method, meta.Path, meta.Version, meta.Status)
	s.metrics.RequestServed(meta.Status, time.Since(start))

	return herr == nil && keepAlive(meta) && !s.closing.Load()
}

// logReadEnd classifies why reading stopped
func (s *Server) logReadEnd(c *Conn, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		// Peer closed between requests
	case s.closing.Load():
	case errors.As(err, &ne) && ne.Timeout():
		s.logger.Debugf("connection %s from %s timed out waiting for a request", c.ID, c.Peer)
	default:
		s.logger.Errorf("read from %s failed: %v", c.Peer, err)
	}
}

// keepAlive reports whether the connection may carry another request.
// HTTP/1.0 closes unless keep-alive was requested; later versions stay open
// unless the peer asked to close.
func keepAlive(meta Meta) bool {
	switch {
	case strings.EqualFold(meta.Connection, "close"):
		return false
	case meta.Version == "HTTP/1.0":
		return strings.EqualFold(meta.Connection, "keep-alive")
	case meta.Version == "":
		return false
	default:
		return true
	}
}

// readRequest reads one request: the header block up to the blank line and
// Content-Length body bytes. The total is capped at max.
func readRequest(r *bufio.Reader, max int) ([]byte, error) {
	var buf []byte
	contentLength := 0

	for {
		lineStart := len(buf)
		for {
			frag, err := r.ReadSlice('\n')
			if len(buf)+len(frag) > max {
				return nil, ErrRequestTooLarge
			}
			buf = append(buf, frag...)
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			if err != nil {
				return nil, err
			}
			break
		}

		// Header lines end with CRLF, bare LF is tolerated
		line := bytes.TrimRight(buf[lineStart:], "\r\n")
		if len(line) == 0 {
			if lineStart == 0 {
				// Empty lines before the request line are ignored
				buf = buf[:0]
				continue
			}
			break
		}

		if name, value, ok := bytes.Cut(line, []byte(":")); ok &&
			strings.EqualFold(string(bytes.TrimSpace(name)), "Content-Length") {
			n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
			if err != nil || n < 0 {
				// Left for the handler to reject as malformed
				n = 0
			}
			contentLength = n
		}
	}

	if contentLength > 0 {
		if len(buf)+contentLength > max {
			return nil, ErrRequestTooLarge
		}
		body := make([]byte, contentLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		buf = append(buf, body...)
	}
	return buf, nil
}
