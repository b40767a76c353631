package gateway

import (
	"encoding/json"
	"sync"

	"github.com/notefold/notefold.go/pkg/logger"
)

// Dispatcher routes inbound gateway messages to registered handlers. It is
// independent of the transport; Channel feeds it raw frames.
type Dispatcher struct {
	logger logger.Logger

	mu       sync.Mutex
	handlers map[Kind][]func(json.RawMessage)
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   log,
		handlers: make(map[Kind][]func(json.RawMessage)),
	}
}

// On registers fn for inbound messages of the given kind. Multiple handlers
// may be registered for one kind; all are invoked in registration order.
// The payload is decoded into T before fn runs; frames whose payload does
// not decode are logged and skipped for that handler only.
func On[T any](d *Dispatcher, kind Kind, fn func(T)) {
	d.register(kind, func(raw json.RawMessage) {
		var payload T
		if err := json.Unmarshal(raw, &payload); err != nil {
			d.logger.Error("gateway: undecodable payload", "kind", kind, "error", err)
			return
		}
		fn(payload)
	})
}

func (d *Dispatcher) register(kind Kind, h func(json.RawMessage)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Dispatch decodes a raw frame and invokes every handler registered for its
// kind, synchronously and in registration order. Messages of unregistered
// kinds are dropped silently. A panicking handler does not prevent sibling
// handlers, or later messages, from being delivered.
func (d *Dispatcher) Dispatch(frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		d.logger.Error("gateway: malformed frame", "error", err)
		return
	}

	d.mu.Lock()
	handlers := make([]func(json.RawMessage), len(d.handlers[env.ID]))
	copy(handlers, d.handlers[env.ID])
	d.mu.Unlock()

	for _, h := range handlers {
		d.invoke(env.ID, h, env.Data)
	}
}

func (d *Dispatcher) invoke(kind Kind, h func(json.RawMessage), data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("gateway: handler panicked", "kind", kind, "panic", r)
		}
	}()
	h(data)
}
