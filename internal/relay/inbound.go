package relay

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// defaultReconnectDelay is the base backoff after a connection
	// failure; it doubles per consecutive failure up to maxReconnectDelay
	// and resets after any successful connection.
	defaultReconnectDelay = 5 * time.Second
	maxReconnectDelay     = 60 * time.Second

	// keepaliveInterval is how often the outbound client pings while
	// connected.
	keepaliveInterval = 30 * time.Second

	// queuePollTimeout is how long the sender loop waits for a queued
	// message before checking for shutdown.
	queuePollTimeout = 250 * time.Millisecond

	writeWait = 10 * time.Second
)

// nextDelay doubles the backoff up to the cap.
func nextDelay(current time.Duration) time.Duration {
	next := current * 2
	if next > maxReconnectDelay {
		return maxReconnectDelay
	}
	return next
}

// Handler receives one validated-JSON text message from the upstream
// connection. It runs on the receive goroutine, so all work done
// inside it is single-threaded with respect to the connection.
type Handler func(data []byte)

// Inbound maintains one persistent client connection to an upstream
// URL, delivering every received text message to the handler in order.
// Connection failures are never fatal; the client reconnects with
// exponential backoff forever until stopped.
type Inbound struct {
	url       string
	handler   Handler
	dialer    *websocket.Dialer
	baseDelay time.Duration

	mu       sync.Mutex
	conn     *websocket.Conn
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewInbound creates an inbound client for the upstream URL. The
// handler must not be nil.
func NewInbound(url string, handler Handler) *Inbound {
	return &Inbound{
		url:       url,
		handler:   handler,
		dialer:    websocket.DefaultDialer,
		baseDelay: defaultReconnectDelay,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// SetReconnectDelay overrides the base backoff delay. Only valid
// before Start.
func (c *Inbound) SetReconnectDelay(d time.Duration) {
	if d > 0 {
		c.baseDelay = d
	}
}

// Start launches the receive loop.
func (c *Inbound) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()
	go c.run()
}

func (c *Inbound) run() {
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

		log.Printf("relay: connected to %s", c.url)
		delay = c.baseDelay

		c.mu.Lock()
		c.conn = conn
		c.mu.Unlock()

		c.receive(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}
}

// receive reads until the connection drops or the client stops.
func (c *Inbound) receive(conn *websocket.Conn) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
			default:
				log.Printf("relay: read from %s failed: %v", c.url, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !json.Valid(data) {
			// Malformed payloads are dropped, never fatal.
			log.Printf("relay: dropping malformed message from %s", c.url)
			continue
		}
		c.handler(data)
	}
}

// sleep waits for d unless the client is stopped first; backoff waits
// must be cancellable, not awaited to completion.
func (c *Inbound) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-c.stopCh:
		return false
	}
}

// Stop shuts the client down. Idempotent; it closes the socket so a
// blocked read returns, and waits for the receive loop to exit.
func (c *Inbound) Stop() {
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
