package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold.go/pkg/api"
	"github.com/notefold/notefold.go/pkg/gateway"
	"github.com/notefold/notefold.go/pkg/logger"
)

func newStoreClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, logger.Nop())
}

// frame builds a wire envelope for feeding the dispatcher directly.
func frame(t *testing.T, kind gateway.Kind, data any) []byte {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	env, err := json.Marshal(gateway.Envelope{ID: kind, Data: payload})
	require.NoError(t, err)
	return env
}

type fakeNav struct {
	mu       sync.Mutex
	current  string
	pushed   []string
	replaced []string
}

func (n *fakeNav) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == "" {
		return "/"
	}
	return n.current
}

func (n *fakeNav) Push(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushed = append(n.pushed, path)
	n.current = path
}

func (n *fakeNav) Replace(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replaced = append(n.replaced, path)
	n.current = path
}

func (n *fakeNav) pushes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.pushed...)
}

func (n *fakeNav) replaces() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.replaced...)
}

type recorderPub struct {
	mu   sync.Mutex
	sent []gateway.Outbound
}

func (p *recorderPub) Send(msg gateway.Outbound) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
}

func (p *recorderPub) messages() []gateway.Outbound {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gateway.Outbound(nil), p.sent...)
}
