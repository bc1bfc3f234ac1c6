package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/techtree/pkg/config"
	"github.com/matzehuels/techtree/pkg/defs"
	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/observability"
	"github.com/matzehuels/techtree/pkg/observability/prom"
	"github.com/matzehuels/techtree/pkg/research"
	"github.com/matzehuels/techtree/pkg/tree"
)

func records() []*research.Record {
	return []*research.Record{
		{ID: "Stonecutting", Finished: true},
		{ID: "Smithing", Prerequisites: []string{"Stonecutting"}},
		{ID: "Masonry", Prerequisites: []string{"Stonecutting"}, Finished: true},
		{ID: "Fortifications", Prerequisites: []string{"Smithing", "Masonry"}},
	}
}

type gatedSource struct {
	*defs.MemorySource
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedSource) Load(ctx context.Context) ([]*research.Record, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.MemorySource.Load(ctx)
}

func newServer(t *testing.T, src defs.Source, metrics http.Handler) (*Server, *tree.Tree) {
	t.Helper()
	tr, err := tree.New(src, config.Default(), nil, nil)
	require.NoError(t, err)
	s := New(tr, Config{Metrics: metrics})
	t.Cleanup(s.Close)
	return s, tr
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestNotReady(t *testing.T) {
	s, _ := newServer(t, defs.NewMemorySource(records()...), nil)

	w := do(t, s, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, s, http.MethodGet, "/layout")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, errors.ErrCodeNotReady, decodeError(t, w).Code)

	w = do(t, s, http.MethodGet, "/layout/nodes/Smithing")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLayoutRoutes(t *testing.T) {
	s, tr := newServer(t, defs.NewMemorySource(records()...), nil)
	started, err := tr.Build(context.Background())
	require.NoError(t, err)
	require.True(t, started)

	w := do(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/ready")
	require.Equal(t, http.StatusOK, w.Code)
	var ready readyBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.True(t, ready.Ready)
	assert.NotEmpty(t, ready.RunID)

	w = do(t, s, http.MethodGet, "/layout")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var layout struct {
		RunID string `json:"run_id"`
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &layout))
	assert.Equal(t, ready.RunID, layout.RunID)
	assert.Len(t, layout.Nodes, 4)

	w = do(t, s, http.MethodGet, "/layout/nodes/Fortifications")
	require.Equal(t, http.StatusOK, w.Code)
	var node struct {
		ID          string   `json:"id"`
		X           int      `json:"x"`
		Ancestors   []string `json:"ancestors"`
		Descendants []string `json:"descendants"`
		Missing     []string `json:"missing_prerequisites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &node))
	assert.Equal(t, "Fortifications", node.ID)
	assert.Equal(t, 3, node.X)
	assert.Equal(t, []string{"Masonry", "Smithing", "Stonecutting"}, node.Ancestors)
	assert.Equal(t, []string{}, node.Descendants)
	assert.Equal(t, []string{"Smithing"}, node.Missing)

	w = do(t, s, http.MethodGet, "/layout/nodes/Sailing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrCodeNodeNotFound, decodeError(t, w).Code)

	w = do(t, s, http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRender(t *testing.T) {
	s, tr := newServer(t, defs.NewMemorySource(records()...), nil)
	_, err := tr.Build(context.Background())
	require.NoError(t, err)

	w := do(t, s, http.MethodGet, "/layout/render?format=dot&highlight=Smithing")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/vnd.graphviz", w.Header().Get("Content-Type"))
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "digraph techtree {"))
	assert.Contains(t, w.Body.String(), "#f5b7b1")

	w = do(t, s, http.MethodGet, "/layout/render?format=png")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, errors.ErrCodeUnsupported, decodeError(t, w).Code)
}

func TestRebuild(t *testing.T) {
	src := &gatedSource{
		MemorySource: defs.NewMemorySource(records()...),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	s, tr := newServer(t, src, nil)

	w := do(t, s, http.MethodPost, "/layout/rebuild")
	require.Equal(t, http.StatusAccepted, w.Code)
	<-src.entered

	w = do(t, s, http.MethodPost, "/layout/rebuild")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, errors.ErrCodeBusy, decodeError(t, w).Code)

	w = do(t, s, http.MethodGet, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"building": true`)

	close(src.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := tr.Wait(ctx)
	require.NoError(t, err)

	w = do(t, s, http.MethodGet, "/layout")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom.New(reg).Install()
	defer observability.Reset()

	s, _ := newServer(t, defs.NewMemorySource(records()...), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	do(t, s, http.MethodGet, "/healthz")
	do(t, s, http.MethodGet, "/layout")

	w := do(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `techtree_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.Regexp(t, `techtree_http_requests_total\{method="GET",route="/layout/?",status="503"\} 1`, body)
}
