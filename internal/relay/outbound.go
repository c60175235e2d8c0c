package relay

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Outbound maintains one persistent client connection to a downstream
// URL and an unbounded queue of pending messages. Send never blocks;
// delivery is best effort, at least once, with per-connection ordering
// (a message retried across a reconnect may land after messages queued
// while the retry was pending).
type Outbound struct {
	url       string
	queue     *messageQueue
	dialer    *websocket.Dialer
	baseDelay time.Duration
	keepalive time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	writeMu  sync.Mutex
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewOutbound creates an outbound client for the downstream URL.
func NewOutbound(url string) *Outbound {
	return &Outbound{
		url:       url,
		queue:     newMessageQueue(),
		dialer:    websocket.DefaultDialer,
		baseDelay: defaultReconnectDelay,
		keepalive: keepaliveInterval,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetReconnectDelay overrides the base backoff delay. Only valid
// before Start.
func (c *Outbound) SetReconnectDelay(d time.Duration) {
	if d > 0 {
		c.baseDelay = d
	}
}

// Send enqueues a raw message for delivery. Non-blocking; messages
// queued during an outage are flushed in order once reconnected.
func (c *Outbound) Send(msg []byte) {
	c.queue.PushBack(msg)
}

// SendJSON marshals v and enqueues it.
func (c *Outbound) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.Send(data)
	return nil
}

// Pending returns the number of undelivered messages.
func (c *Outbound) Pending() int {
	return c.queue.Len()
}

// Start launches the sender loop.
func (c *Outbound) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	go c.run()
}

func (c *Outbound) run() {
	defer close(c.done)

	delay := c.baseDelay
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		conn, _, err := c.dialer.Dial(c.url, nil)
		if err != nil {
			log.Printf("relay: connect to %s failed: %v (retrying in %s)", c.url, err, delay)
			if !c.sleep(delay) {
				return
			}
			delay = nextDelay(delay)
			continue
		}

		log.Printf("relay: connected to %s (%d pending)", c.url, c.queue.Len())
		delay = c.baseDelay

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		connDone := make(chan struct{})
		var closeOnce sync.Once
		teardown := func() {
			closeOnce.Do(func() {
				close(connDone)
				conn.Close()
			})
		}

		go c.keepaliveLoop(conn, connDone, teardown)
		c.sendLoop(conn, connDone, teardown)

		teardown()
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}
}

// sendLoop drains the queue onto the connection until the connection
// or the client dies. A message that fails to send is re-enqueued at
// the front before the connection is torn down.
func (c *Outbound) sendLoop(conn *websocket.Conn, connDone <-chan struct{}, teardown func()) {
	for {
		select {
		case <-c.stopCh:
			return
		case <-connDone:
			return
		default:
		}

		msg, ok := c.queue.Pop(queuePollTimeout)
		if !ok {
			continue
		}
		if err := c.write(conn, websocket.TextMessage, msg); err != nil {
			log.Printf("relay: send to %s failed: %v (re-queued)", c.url, err)
			c.queue.PushFront(msg)
			teardown()
			return
		}
	}
}

// keepaliveLoop pings the downstream periodically; a failed ping is
// treated exactly like a failed send.
func (c *Outbound) keepaliveLoop(conn *websocket.Conn, connDone <-chan struct{}, teardown func()) {
	ticker := time.NewTicker(c.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-connDone:
			return
		case <-ticker.C:
			if err := c.write(conn, websocket.PingMessage, nil); err != nil {
				log.Printf("relay: keepalive to %s failed: %v", c.url, err)
				teardown()
				return
			}
		}
	}
}

// write serializes all connection writes; gorilla connections support
// only one concurrent writer.
func (c *Outbound) write(conn *websocket.Conn, msgType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(msgType, data)
}

func (c *Outbound) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.stopCh:
		return false
	}
}

// Stop shuts the client down. Idempotent; cancels the sender and
// keepalive loops and closes the socket without leaking goroutines.
// Messages still queued are dropped.
func (c *Outbound) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		started := c.started
		c.mu.Unlock()
		if started {
			<-c.done
		}
	})
}
