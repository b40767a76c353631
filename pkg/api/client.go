// Package api is the typed client for the HTTP resource boundary: page and
// block CRUD, authentication and user profiles.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/notefold/notefold.go/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// Client provides strongly-typed access to the server's REST API. It is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger

	mu    sync.Mutex
	token string
}

// NewClient creates a client for the API rooted at baseURL (protocol and
// host, no trailing slash).
func NewClient(baseURL string, log logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log,
	}
}

// SetToken sets the session token attached to subsequent requests. An empty
// token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token, or "" when unauthenticated.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Error is a request failure mapped to a human-readable message: the
// server-supplied detail when present, a generic message otherwise.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("api: building request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

// decodeResponse maps error statuses to *Error and decodes success bodies
// into target (which may be nil to discard the body).
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if raw, err := io.ReadAll(resp.Body); err == nil {
			if json.Unmarshal(raw, &detail) == nil {
				apiErr.Detail = detail.Detail
			}
		}
		return apiErr
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("api: decoding response: %w", err)
		}
	}
	return nil
}

// call issues a request and decodes the response in one step.
func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}
