package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/pkg/logger"
)

var upgrader = gorilla.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// gatewayServer is a minimal in-process gateway endpoint for channel tests.
type gatewayServer struct {
	srv   *httptest.Server
	conns chan *gorilla.Conn
}

func newGatewayServer(t *testing.T) *gatewayServer {
	t.Helper()
	gs := &gatewayServer{conns: make(chan *gorilla.Conn, 8)}
	gs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		gs.conns <- conn
	}))
	t.Cleanup(gs.srv.Close)
	return gs
}

func (gs *gatewayServer) url() string {
	return "ws://" + strings.TrimPrefix(gs.srv.URL, "http://")
}

func (gs *gatewayServer) accept(t *testing.T) *gorilla.Conn {
	t.Helper()
	select {
	case conn := <-gs.conns:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func newTestChannel(url string, d *Dispatcher) *Channel {
	c := NewChannel(url, d, logger.Nop())
	c.BackoffInitial = 10 * time.Millisecond
	c.BackoffMax = 40 * time.Millisecond
	return c
}

func readEnvelope(t *testing.T, conn *gorilla.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	return env
}

func TestConnectSendsHandshakeFirst(t *testing.T) {
	gs := newGatewayServer(t)
	c := newTestChannel(gs.url(), NewDispatcher(logger.Nop()))
	defer c.Close()

	c.Connect()
	conn := gs.accept(t)

	env := readEnvelope(t, conn)
	assert.Equal(t, KindHandshake, env.ID)

	var hs Handshake
	require.NoError(t, json.Unmarshal(env.Data, &hs))
	assert.Equal(t, ProtocolVersion, hs.Version)
}

func TestSendWhileDisconnectedIsDropped(t *testing.T) {
	c := newTestChannel("ws://127.0.0.1:0", NewDispatcher(logger.Nop()))
	assert.NotPanics(t, func() {
		c.Send(LeaveChannel{})
	})
}

func TestSendAfterHandshake(t *testing.T) {
	gs := newGatewayServer(t)
	c := newTestChannel(gs.url(), NewDispatcher(logger.Nop()))
	defer c.Close()

	c.Connect()
	conn := gs.accept(t)
	readEnvelope(t, conn) // handshake

	// Wait until the channel reports open before sending.
	require.Eventually(t, c.IsConnected, time.Second, 5*time.Millisecond)
	c.Send(RequestJoinChannel{PageID: 42})

	env := readEnvelope(t, conn)
	assert.Equal(t, KindRequestJoinChannel, env.ID)

	var join RequestJoinChannel
	require.NoError(t, json.Unmarshal(env.Data, &join))
	assert.Equal(t, 42, join.PageID)
}

func TestInboundFramesAreDispatched(t *testing.T) {
	gs := newGatewayServer(t)
	d := NewDispatcher(logger.Nop())

	got := make(chan Login, 1)
	On(d, KindLogin, func(msg Login) { got <- msg })

	c := newTestChannel(gs.url(), d)
	defer c.Close()
	c.Connect()

	conn := gs.accept(t)
	readEnvelope(t, conn) // handshake
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage,
		[]byte(`{"id":"login","data":{"success":true,"version":0,"username":"ana"}}`)))

	select {
	case msg := <-got:
		assert.True(t, msg.Success)
		assert.Equal(t, "ana", msg.Username)
	case <-time.After(5 * time.Second):
		t.Fatal("login message was not dispatched")
	}
}

func TestUncleanCloseReconnects(t *testing.T) {
	gs := newGatewayServer(t)
	c := newTestChannel(gs.url(), NewDispatcher(logger.Nop()))
	defer c.Close()

	c.Connect()
	first := gs.accept(t)
	readEnvelope(t, first) // handshake

	// Drop the connection without a close frame.
	first.UnderlyingConn().Close()

	second := gs.accept(t)
	env := readEnvelope(t, second)
	assert.Equal(t, KindHandshake, env.ID, "reconnect must handshake again")

	// A successful open resets the backoff.
	require.Eventually(t, c.IsConnected, time.Second, 5*time.Millisecond)
	c.mu.Lock()
	delay := c.delay
	c.mu.Unlock()
	assert.Equal(t, time.Duration(0), delay)
}

func TestCleanCloseDoesNotReconnect(t *testing.T) {
	gs := newGatewayServer(t)
	c := newTestChannel(gs.url(), NewDispatcher(logger.Nop()))

	c.Connect()
	conn := gs.accept(t)
	readEnvelope(t, conn) // handshake
	require.Eventually(t, c.IsConnected, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())

	select {
	case <-gs.conns:
		t.Fatal("clean close must not reconnect")
	case <-time.After(100 * time.Millisecond):
	}
	assert.False(t, c.IsConnected())
}

func TestConnectIsIdempotent(t *testing.T) {
	gs := newGatewayServer(t)
	c := newTestChannel(gs.url(), NewDispatcher(logger.Nop()))
	defer c.Close()

	c.Connect()
	first := gs.accept(t)
	readEnvelope(t, first) // handshake
	require.Eventually(t, c.IsConnected, time.Second, 5*time.Millisecond)

	// Reconnecting tears the previous connection down and dials anew.
	c.Connect()
	second := gs.accept(t)
	env := readEnvelope(t, second)
	assert.Equal(t, KindHandshake, env.ID)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	c := NewChannel("ws://unused", NewDispatcher(logger.Nop()), logger.Nop())
	c.BackoffInitial = time.Second
	c.BackoffMax = 8 * time.Second

	var delays []time.Duration
	for i := 0; i < 6; i++ {
		c.mu.Lock()
		delays = append(delays, c.nextDelay())
		c.mu.Unlock()
	}

	want := []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second,
		8 * time.Second, 8 * time.Second, 8 * time.Second,
	}
	assert.Equal(t, want, delays)

	// A successful open resets the progression.
	c.mu.Lock()
	c.delay = 0
	next := c.nextDelay()
	c.mu.Unlock()
	assert.Equal(t, time.Second, next)
}
