package server

import (
	"sync"
)

// OverflowPolicy selects what a bounded queue does when full
type OverflowPolicy string

const (
	PolicyReject     OverflowPolicy = "reject"      // close the new connection
	PolicyBlock      OverflowPolicy = "block"       // wait for space
	PolicyDropOldest OverflowPolicy = "drop_oldest" // evict the oldest queued connection
)

// ParseOverflowPolicy validates a policy name
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(s); p {
	case PolicyReject, PolicyBlock, PolicyDropOldest:
		return p, nil
	default:
		return "", fmtErrorf("invalid overflow_policy: '%s' (use reject, block or drop_oldest)", s)
	}
}

// ConnQueue is a FIFO of accepted connections shared by the acceptor and the
// workers. Every connection is delivered to at most one Dequeue call.
type ConnQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	items    []*Conn
	head     int
	capacity int // 0 is unbounded
	policy   OverflowPolicy
	closed   bool

	onEvict func(*Conn)
}

// NewConnQueue creates a queue. A capacity of 0 never blocks or rejects.
func NewConnQueue(capacity int, policy OverflowPolicy) *ConnQueue {
	if capacity < 0 {
		capacity = 0
	}
	if policy == "" {
		policy = PolicyReject
	}
	q := &ConnQueue{capacity: capacity, policy: policy}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// SetEvictHandler installs the callback receiving connections evicted by
// PolicyDropOldest. It is called without the queue lock held.
func (q *ConnQueue) SetEvictHandler(fn func(*Conn)) {
	q.mu.Lock()
	q.onEvict = fn
	q.mu.Unlock()
}

// Enqueue appends c and wakes one waiting worker.
// Returns ErrQueueClosed after Close and ErrQueueFull when a bounded queue with
// PolicyReject is full. The caller keeps ownership of c on error.
func (q *ConnQueue) Enqueue(c *Conn) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}

	var evicted *Conn
	if q.capacity > 0 && q.lenLocked() >= q.capacity {
		switch q.policy {
		case PolicyReject:
			q.mu.Unlock()
			return ErrQueueFull
		case PolicyBlock:
			for q.lenLocked() >= q.capacity && !q.closed {
				q.notFull.Wait()
			}
			if q.closed {
				q.mu.Unlock()
				return ErrQueueClosed
			}
		case PolicyDropOldest:
			evicted = q.popLocked()
		}
	}

	q.items = append(q.items, c)
	onEvict := q.onEvict
	q.mu.Unlock()

	q.notEmpty.Signal()

	if evicted != nil {
		if onEvict != nil {
			onEvict(evicted)
		} else {
			_ = evicted.Close()
		}
	}
	return nil
}

// Dequeue blocks until a connection is available or the queue is closed and
// empty, in which case it returns false.
func (q *ConnQueue) Dequeue() (*Conn, bool) {
	q.mu.Lock()
	for q.lenLocked() == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.lenLocked() == 0 {
		q.mu.Unlock()
		return nil, false
	}
	c := q.popLocked()
	q.mu.Unlock()

	q.notFull.Signal()
	return c, true
}

// Close rejects further enqueues and wakes every waiter.
// Queued connections remain available to Dequeue and Drain.
func (q *ConnQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Drain removes and returns every queued connection
func (q *ConnQueue) Drain() []*Conn {
	q.mu.Lock()
	out := make([]*Conn, 0, q.lenLocked())
	for q.lenLocked() > 0 {
		out = append(out, q.popLocked())
	}
	q.mu.Unlock()

	q.notFull.Broadcast()
	return out
}

// Len returns the number of queued connections
func (q *ConnQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

// Cap returns the configured capacity, 0 for unbounded
func (q *ConnQueue) Cap() int {
	return q.capacity
}

func (q *ConnQueue) lenLocked() int {
	return len(q.items) - q.head
}

func (q *ConnQueue) popLocked() *Conn {
	c := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head > len(q.items)/2 {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return c
}
