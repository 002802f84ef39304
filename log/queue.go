package log

import (
	"sync"
	"time"
)

// logQueue is an unbounded FIFO of records with a blocking pop.
// A single drain goroutine consumes it; any number of producers push.
type logQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	records []Record
	head    int
	busy    bool // a popped record is still being written
	stopped bool
}

func newLogQueue() *logQueue {
	q := &logQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends a record and wakes the consumer.
// Returns false once stop has been requested.
func (q *logQueue) push(r Record) bool {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false
	}
	q.records = append(q.records, r)
	q.mu.Unlock()

	q.cond.Broadcast()
	return true
}

// pop blocks until a record is available or the queue is stopped and empty.
// The caller must call release after handling the record.
func (q *logQueue) pop() (Record, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.records) && !q.stopped {
		q.cond.Wait()
	}
	if q.head == len(q.records) {
		return Record{}, false
	}

	r := q.records[q.head]
	q.records[q.head] = Record{}
	q.head++
	q.busy = true

	if q.head == len(q.records) {
		q.records = q.records[:0]
		q.head = 0
	} else if q.head > queueCompactThreshold && q.head > len(q.records)/2 {
		n := copy(q.records, q.records[q.head:])
		clear(q.records[n:])
		q.records = q.records[:n]
		q.head = 0
	}
	return r, true
}

// release marks the last popped record as fully written
func (q *logQueue) release() {
	q.mu.Lock()
	q.busy = false
	q.mu.Unlock()
	q.cond.Broadcast()
}

// stop rejects further pushes and lets the consumer exit once empty
func (q *logQueue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// len returns the number of queued records
func (q *logQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records) - q.head
}

// waitIdle blocks until every pushed record has been written or timeout
// elapses. Reports whether the queue became idle.
func (q *logQueue) waitIdle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	// Taking the lock before broadcasting keeps the wakeup from landing
	// between the deadline check and Wait
	timer := time.AfterFunc(timeout, func() {
		q.mu.Lock()
		q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer timer.Stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head != len(q.records) || q.busy {
		if !time.Now().Before(deadline) {
			return false
		}
		q.cond.Wait()
	}
	return true
}
