package broker

import (
	"context"
	"sync"
)

// queue is an unbounded multi-producer multi-consumer FIFO. Producers never
// block; consumers wait on ready until an item or shutdown arrives.
type queue struct {
	mu     sync.Mutex
	items  []*Task
	closed bool
	ready  chan struct{}
	done   chan struct{}
}

func newQueue() *queue {
	return &queue{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// push appends t at the tail. It returns false once the queue is closed.
func (q *queue) push(t *Task) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, t)
	q.mu.Unlock()

	q.signal()
	return true
}

// pop removes the head, waiting for one if the queue is empty. It returns
// false when the queue is closed or ctx is done.
func (q *queue) pop(ctx context.Context) (*Task, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		if len(q.items) > 0 {
			t := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return t, true
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-q.done:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

// close rejects further pushes, wakes every consumer and returns the number
// of items that were still queued. Those items are dropped.
func (q *queue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.closed = true
	dropped := len(q.items)
	q.items = nil
	close(q.done)
	return dropped
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
