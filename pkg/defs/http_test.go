package defs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/httputil"
)

func init() { httputil.RetryDelay = time.Millisecond }

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tree.json":
			w.Write([]byte(jsonDoc))
		case "/tree.toml":
			w.Write([]byte(tomlDoc))
		case "/bad.json":
			w.Write([]byte("{"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	for _, path := range []string{"/tree.json", "/tree.toml"} {
		s, err := NewHTTPSource(srv.URL+path, WithHTTPClient(srv.Client()))
		require.NoError(t, err)
		assert.Equal(t, srv.URL+path, s.Name())

		records, err := s.Load(ctx)
		require.NoError(t, err, path)
		require.Len(t, records, 2)
		assert.Equal(t, "Smithing", records[1].ID)
	}

	s, err := NewHTTPSource(srv.URL+"/missing.yaml", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	_, err = s.Load(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)

	s, err = NewHTTPSource(srv.URL+"/bad.json", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	_, err = s.Load(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
}

func TestNewHTTPSourceErrors(t *testing.T) {
	_, err := NewHTTPSource("ftp://example.org/tree.json")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath))

	_, err = NewHTTPSource("https://example.org/tree.csv")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestHTTPSourceFallback(t *testing.T) {
	var down atomic.Bool
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(jsonList))
	}))
	defer srv.Close()

	fallback, err := httputil.NewCache(t.TempDir(), 0)
	require.NoError(t, err)
	ctx := context.Background()

	withCache, err := NewHTTPSource(srv.URL+"/tree.json", WithHTTPClient(srv.Client()), WithFallback(fallback))
	require.NoError(t, err)
	records, err := withCache.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	down.Store(true)
	calls.Store(0)
	records, err = withCache.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(3), calls.Load())

	plain, err := NewHTTPSource(srv.URL+"/tree.json", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	_, err = plain.Load(ctx)
	assert.True(t, errors.Is(err, errors.ErrCodeSourceUnavailable), "got %v", err)
}
