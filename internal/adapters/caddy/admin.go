// Package caddy talks to the reverse proxy's admin API and defines the route
// documents labctl installs. Routing-table changes go through the control
// plane so the proxy keeps serving existing routes while one is added or
// removed — the proxy process is never restarted for a route change.
package caddy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/labctl/internal/ports/secondary"
)

// DefaultAdminAddr is the proxy's admin control-plane endpoint.
const DefaultAdminAddr = "http://localhost:2019"

// adminTimeout bounds every control-plane call. A hung proxy must not hang
// the orchestrator.
const adminTimeout = 5 * time.Second

// StatusError is a non-2xx control-plane response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("admin API returned %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 control-plane response.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.StatusCode == http.StatusNotFound
}

// AdminClient is an HTTP client for the admin API.
type AdminClient struct {
	baseURL string
	client  *http.Client
}

var _ secondary.ProxyAdmin = (*AdminClient)(nil)

// NewAdminClient creates a client for the admin API at baseURL.
func NewAdminClient(baseURL string) *AdminClient {
	return &AdminClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: adminTimeout},
	}
}

// Get reads a control-plane resource.
func (c *AdminClient) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post writes a control-plane resource.
func (c *AdminClient) Post(ctx context.Context, path string, body []byte) error {
	_, err := c.do(ctx, http.MethodPost, path, body)
	return err
}

// Delete removes a control-plane resource.
func (c *AdminClient) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *AdminClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build admin request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("admin API unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	return data, nil
}
