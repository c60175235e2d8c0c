// Package relay provides the reconnecting WebSocket clients that move
// frames into and session updates out of a pipeline.
package relay

import (
	"sync"
	"time"
)

// messageQueue is an unbounded FIFO safe for concurrent producers and
// a single consumer. The sender loop is the only popper; PushFront
// exists so a message in flight during a connection drop is retried
// before anything queued after it.
type messageQueue struct {
	mu     sync.Mutex
	items  [][]byte
	signal chan struct{}
}

func newMessageQueue() *messageQueue {
	return &messageQueue{signal: make(chan struct{}, 1)}
}

// PushBack appends a message. Never blocks.
func (q *messageQueue) PushBack(msg []byte) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()
	q.wake()
}

// PushFront re-enqueues a message at the head for retry.
func (q *messageQueue) PushFront(msg []byte) {
	q.mu.Lock()
	q.items = append([][]byte{msg}, q.items...)
	q.mu.Unlock()
	q.wake()
}

func (q *messageQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop removes and returns the head message, waiting up to timeout for
// one to arrive. The second return is false on timeout, which lets the
// consumer observe shutdown between polls.
func (q *messageQueue) Pop(timeout time.Duration) ([]byte, bool) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, true
		}
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-q.signal:
			timer.Stop()
		case <-timer.C:
			return nil, false
		}
	}
}

// Len returns the number of queued messages.
func (q *messageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
