package gateway

import (
	"encoding/json"
	"sync"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/notefold/notefold.go/pkg/logger"
)

// ProtocolVersion is sent in the handshake frame on every open.
const ProtocolVersion = 0

// Reconnect backoff bounds. The delay starts at the initial value, doubles
// on each consecutive unclean close and is capped at the maximum; any
// successful open resets it.
const (
	DefaultBackoffInitial = time.Second
	DefaultBackoffMax     = 5 * time.Minute
)

// DefaultDialer is the gorilla dialer used by Channel.
//
// It matches gorilla's default dialer with compression enabled.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

// Channel owns the single persistent gateway connection. Connect, Send and
// Close never block on network progress; transport failures are logged and
// recovered through the reconnect loop, never surfaced to callers.
type Channel struct {
	// BackoffInitial and BackoffMax bound the reconnect delay. They are
	// read when a reconnect is scheduled, so tests may lower them.
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	url        string
	dispatcher *Dispatcher
	logger     logger.Logger
	dialer     *gorilla.Dialer

	mu     sync.Mutex
	conn   *gorilla.Conn
	gen    int
	closed bool
	delay  time.Duration

	writeMu sync.Mutex
}

// NewChannel creates a Channel targeting the given gateway URL. Inbound
// frames are handed to the dispatcher on the read loop.
func NewChannel(url string, d *Dispatcher, log logger.Logger) *Channel {
	return &Channel{
		BackoffInitial: DefaultBackoffInitial,
		BackoffMax:     DefaultBackoffMax,
		url:            url,
		dispatcher:     d,
		logger:         log,
		dialer:         DefaultDialer,
	}
}

// Connect establishes or re-establishes the connection. It is idempotent:
// an open or in-flight connection is torn down first. Dialing happens on a
// separate goroutine; dial failures are logged and retried with backoff.
func (c *Channel) Connect() {
	c.mu.Lock()
	c.closed = false
	c.gen++
	gen := c.gen
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	go c.dial(gen)
}

// Send transmits msg if the connection is currently open. Messages sent
// while disconnected are silently dropped, not queued; callers must not
// assume delivery for them.
func (c *Channel) Send(msg Outbound) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	frame, err := json.Marshal(struct {
		ID   Kind `json:"id"`
		Data any  `json:"data"`
	}{msg.Kind(), msg})
	if err != nil {
		c.logger.Error("gateway: encoding message", "kind", msg.Kind(), "error", err)
		return
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(gorilla.TextMessage, frame)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Error("gateway: write failed", "kind", msg.Kind(), "error", err)
	}
}

// IsConnected reports whether a connection is currently open.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close shuts the connection down cleanly. A clean close never triggers a
// reconnect; any pending reconnect is cancelled.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.gen++
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	err := conn.WriteMessage(gorilla.CloseMessage,
		gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Error("gateway: writing close frame", "error", err)
	}

	return conn.Close()
}

func (c *Channel) dial(gen int) {
	conn, resp, err := c.dialer.Dial(c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.logger.Error("gateway: dial failed", "url", c.url, "error", err)
		c.scheduleReconnect(gen)
		return
	}

	c.mu.Lock()
	if c.closed || gen != c.gen {
		// A Connect or Close superseded this dial.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.delay = 0 // successful open resets the backoff
	c.mu.Unlock()

	c.logger.Info("gateway: connected", "url", c.url)
	c.Send(Handshake{Version: ProtocolVersion})

	go c.readLoop(conn, gen)
}

func (c *Channel) readLoop(conn *gorilla.Conn, gen int) {
	for {
		_, frame, err := conn.ReadMessage()
		if err == nil {
			c.dispatcher.Dispatch(frame)
			continue
		}

		conn.Close()

		c.mu.Lock()
		superseded := c.closed || gen != c.gen
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()

		if superseded || isCleanClose(err) {
			return
		}

		c.logger.Warn("gateway: connection lost", "error", err)
		c.scheduleReconnect(gen)
		return
	}
}

func (c *Channel) scheduleReconnect(gen int) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	delay := c.nextDelay()
	c.gen++
	next := c.gen
	c.mu.Unlock()

	c.logger.Info("gateway: reconnecting", "delay", delay)
	time.AfterFunc(delay, func() { c.dial(next) })
}

// nextDelay returns the current backoff delay and doubles it for the next
// consecutive failure. Caller holds c.mu.
func (c *Channel) nextDelay() time.Duration {
	if c.delay == 0 {
		c.delay = c.BackoffInitial
	}
	delay := c.delay
	c.delay *= 2
	if c.delay > c.BackoffMax {
		c.delay = c.BackoffMax
	}
	return delay
}

func isCleanClose(err error) bool {
	return gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway)
}
