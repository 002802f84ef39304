package log

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogQueueFIFO verifies pop order and compaction across many records
func TestLogQueueFIFO(t *testing.T) {
	q := newLogQueue()
	const n = queueCompactThreshold * 4

	for i := 0; i < n; i++ {
		require.True(t, q.push(Record{Level: int64(i)}))
	}
	assert.Equal(t, n, q.len())

	for i := 0; i < n; i++ {
		r, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, int64(i), r.Level)
		q.release()
	}
	assert.True(t, q.waitIdle(0))
}

// TestLogQueueStop verifies stop rejects pushes but lets queued records drain
func TestLogQueueStop(t *testing.T) {
	q := newLogQueue()
	q.push(Record{Message: "a"})
	q.stop()

	assert.False(t, q.push(Record{Message: "b"}))

	r, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, "a", r.Message)
	q.release()

	_, ok = q.pop()
	assert.False(t, ok)
}

// TestLogQueueBlockingPop verifies pop waits for a producer
func TestLogQueueBlockingPop(t *testing.T) {
	q := newLogQueue()
	got := make(chan Record, 1)

	go func() {
		r, ok := q.pop()
		if ok {
			got <- r
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.push(Record{Message: "late"})

	select {
	case r := <-got:
		assert.Equal(t, "late", r.Message)
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up")
	}
	assert.False(t, q.waitIdle(20*time.Millisecond), "record not released yet")

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.release()
	}()
	assert.True(t, q.waitIdle(time.Second), "release wakes the waiter")
}

// TestLogQueueConcurrentProducers verifies nothing is lost or duplicated
func TestLogQueueConcurrentProducers(t *testing.T) {
	q := newLogQueue()
	const producers, per = 8, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				q.push(Record{Level: int64(p*per + i)})
			}
		}(p)
	}

	seen := make(map[int64]bool)
	lastPerProducer := make(map[int64]int64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			r, ok := q.pop()
			if !ok {
				return
			}
			assert.False(t, seen[r.Level], "duplicate %d", r.Level)
			seen[r.Level] = true
			producer := r.Level / per
			if last, ok := lastPerProducer[producer]; ok {
				assert.Greater(t, r.Level, last, "producer order broken")
			}
			lastPerProducer[producer] = r.Level
			q.release()
		}
	}()

	wg.Wait()
	q.stop()
	<-done
	assert.Len(t, seen, producers*per)
}
