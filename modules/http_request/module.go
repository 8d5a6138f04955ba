// Package http_request provides the "http_request" task function, which
// performs one HTTP request and returns its status code and body.
package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/registry"
)

const defaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client defaults to an http.Client with a 30s timeout.
	Client *http.Client
}

// Register registers the function with the registry.
func (m *Module) Register(r *registry.Registry) {
	if m.Client == nil {
		m.Client = &http.Client{Timeout: defaultTimeout}
	}
	r.MustRegister("http_request", m.Request)
}

// Request takes a URL and an optional method (GET by default) and returns a
// map with "status_code" and "body". Non-2xx responses are not errors.
func (m *Module) Request(ctx context.Context, inputs ...any) (any, error) {
	if len(inputs) == 0 || len(inputs) > 2 {
		return nil, fmt.Errorf("http_request: want a url and an optional method, got %d inputs", len(inputs))
	}
	url, ok := inputs[0].(string)
	if !ok {
		return nil, fmt.Errorf("http_request: url must be a string, got %T", inputs[0])
	}
	method := http.MethodGet
	if len(inputs) == 2 {
		if method, ok = inputs[1].(string); !ok {
			return nil, fmt.Errorf("http_request: method must be a string, got %T", inputs[1])
		}
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Making HTTP request", "method", method, "url", url)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        string(body),
	}, nil
}
