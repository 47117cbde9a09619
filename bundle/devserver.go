package bundle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hostbridge-dev/hostbridge/domain/ports"
)

const defaultFetchTimeout = 30 * time.Second

// maxBundleSize caps the response body read from a development server to
// keep a misconfigured URL from exhausting memory.
const maxBundleSize = 64 * 1024 * 1024

// DevServerLoader fetches bundle source from a development packager over
// HTTP during InitializeAsync.
type DevServerLoader struct {
	url    string
	client *http.Client
	source []byte
}

// DevServerOption configures a DevServerLoader.
type DevServerOption func(*DevServerLoader)

// WithHTTPClient sets the HTTP client used for the fetch. Useful for
// injecting mocks during testing.
func WithHTTPClient(c *http.Client) DevServerOption {
	return func(l *DevServerLoader) {
		if c != nil {
			l.client = c
		}
	}
}

// NewDevServerLoader creates a loader that fetches the bundle from url.
func NewDevServerLoader(url string, opts ...DevServerOption) *DevServerLoader {
	l := &DevServerLoader{
		url:    url,
		client: &http.Client{Timeout: defaultFetchTimeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// InitializeAsync fetches the bundle from the development server. It must
// complete before script injection.
func (l *DevServerLoader) InitializeAsync(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build bundle request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch bundle from %q: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("development server returned %d for %q", resp.StatusCode, l.url)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleSize))
	if err != nil {
		return fmt.Errorf("failed to read bundle body: %w", err)
	}
	l.source = data
	return nil
}

// LoadScript injects the fetched source into the runtime.
func (l *DevServerLoader) LoadScript(_ context.Context, rt ports.ScriptRuntime) error {
	if l.source == nil {
		return fmt.Errorf("bundle %q was not initialized before load", l.url)
	}
	return rt.LoadBundle(l.source, l.url)
}

// SourceName identifies the bundle in diagnostics.
func (l *DevServerLoader) SourceName() string { return l.url }
