// Package modules provides optional built-in capability modules: network
// fetch and timers. They are contributed through Pkg, which embedding
// applications append to the session manager's package list.
package modules

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

const (
	defaultFetchTimeout = 30 * time.Second

	// defaultMaxBodySize caps response bodies handed to script (1MB).
	// Prevents a single fetch from pinning the capability context on an
	// oversized payload.
	defaultMaxBodySize = 1 * 1024 * 1024
)

// NetModule exposes HTTP fetch to script. The request runs off the
// Capability context; the result is delivered through the call's callback,
// which posts onto the Script context.
type NetModule struct {
	client  *http.Client
	maxBody int64
	logger  *slog.Logger
}

// NetOption configures a NetModule.
type NetOption func(*NetModule)

// WithClient sets the HTTP client. Useful for injecting mocks in tests.
func WithClient(c *http.Client) NetOption {
	return func(m *NetModule) {
		if c != nil {
			m.client = c
		}
	}
}

// WithMaxBodySize caps the response body size handed to script.
func WithMaxBodySize(limit int64) NetOption {
	return func(m *NetModule) {
		if limit > 0 {
			m.maxBody = limit
		}
	}
}

// NewNetModule creates the network module.
func NewNetModule(logger *slog.Logger, opts ...NetOption) *NetModule {
	if logger == nil {
		logger = slog.Default()
	}
	m := &NetModule{
		client:  &http.Client{Timeout: defaultFetchTimeout},
		maxBody: defaultMaxBodySize,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *NetModule) Name() string { return "Net" }

// Fetch performs an HTTP GET and invokes cb with a result map:
// {"ok": bool, "status": int, "body": string, "truncated": bool} on
// success, {"ok": false, "error": string} on failure. The network round
// trip runs on its own goroutine so the Capability context stays free for
// other calls.
func (m *NetModule) Fetch(ctx context.Context, url string, cb ports.Callback) {
	go func() {
		result := m.fetch(url)
		if cb == nil {
			m.logger.Debug("discarding fetch result: no callback supplied", "url", url)
			return
		}
		cb(result)
	}()
}

func (m *NetModule) fetch(url string) map[string]any {
	resp, err := m.client.Get(url)
	if err != nil {
		return map[string]any{"ok": false, "error": err.Error()}
	}
	defer resp.Body.Close()

	body, truncated, err := readBounded(resp.Body, m.maxBody)
	if err != nil {
		return map[string]any{"ok": false, "error": err.Error()}
	}
	return map[string]any{
		"ok":        resp.StatusCode >= 200 && resp.StatusCode < 300,
		"status":    resp.StatusCode,
		"body":      string(body),
		"truncated": truncated,
	}
}

// readBounded reads at most limit bytes and reports whether the source had
// more.
func readBounded(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) < limit {
		return data, false, nil
	}
	// Probe one extra byte to distinguish exact-limit bodies.
	var probe [1]byte
	n, _ := r.Read(probe[:])
	return data, n > 0, nil
}
