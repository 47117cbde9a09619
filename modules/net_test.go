package modules

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// awaitResult runs Fetch and waits for the callback delivery.
func awaitResult(t *testing.T, m *NetModule, url string) map[string]any {
	t.Helper()
	ch := make(chan map[string]any, 1)
	m.Fetch(context.Background(), url, func(args ...any) {
		require.Len(t, args, 1)
		ch <- args[0].(map[string]any)
	})
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("fetch callback never fired")
		return nil
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	m := NewNetModule(nil, WithClient(srv.Client()))
	res := awaitResult(t, m, srv.URL)

	assert.Equal(t, true, res["ok"])
	assert.Equal(t, http.StatusOK, res["status"])
	assert.Equal(t, "hello", res["body"])
	assert.Equal(t, false, res["truncated"])
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewNetModule(nil)
	res := awaitResult(t, m, srv.URL)

	assert.Equal(t, false, res["ok"])
	assert.Equal(t, http.StatusServiceUnavailable, res["status"])
}

func TestFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	m := NewNetModule(nil)
	res := awaitResult(t, m, srv.URL)

	assert.Equal(t, false, res["ok"])
	assert.NotEmpty(t, res["error"])
}

func TestFetchTruncatesOversizedBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	m := NewNetModule(nil, WithMaxBodySize(10))
	res := awaitResult(t, m, srv.URL)

	assert.Equal(t, true, res["ok"])
	assert.Equal(t, strings.Repeat("x", 10), res["body"])
	assert.Equal(t, true, res["truncated"])
}

func TestFetchExactLimitIsNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("1234567890"))
	}))
	defer srv.Close()

	m := NewNetModule(nil, WithMaxBodySize(10))
	res := awaitResult(t, m, srv.URL)

	assert.Equal(t, "1234567890", res["body"])
	assert.Equal(t, false, res["truncated"])
}
