// Package server exposes a research tree over HTTP.
//
// Routes:
//
//	GET  /healthz             liveness
//	GET  /ready               200 once a layout is published, else 503
//	GET  /layout              the published layout as JSON
//	GET  /layout/render       the layout as svg or dot (?format=, ?detailed=, ?highlight=)
//	GET  /layout/nodes/{id}   one node with its ancestors and descendants
//	POST /layout/rebuild      start a build: 202, or 409 while one is running
//	GET  /metrics             Prometheus metrics, when configured
//
// Errors are returned as {"code": ..., "message": ...} with the status
// given by [errors.HTTPStatus].
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/tree"
)

// Config configures a Server.
type Config struct {
	Addr string

	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler

	Logger *log.Logger
}

// Server serves one research tree.
type Server struct {
	tree    *tree.Tree
	addr    string
	logger  *log.Logger
	router  chi.Router
	metrics http.Handler

	// baseCtx outlives requests so rebuilds started over HTTP run to
	// completion.
	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a server for t.
func New(t *tree.Tree, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		tree:    t,
		addr:    cfg.Addr,
		logger:  logger,
		metrics: cfg.Metrics,
		baseCtx: ctx,
		cancel:  cancel,
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP delegates to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.addr)

	select {
	case err := <-errc:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.cancel()
	if err == nil || stderrors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close cancels builds started over HTTP that are still loading definitions.
func (s *Server) Close() { s.cancel() }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Route("/layout", func(r chi.Router) {
		r.Get("/", s.handleLayout)
		r.Get("/render", s.handleRender)
		r.Get("/nodes/{id}", s.handleNode)
		r.Post("/rebuild", s.handleRebuild)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// writeError maps err to its status and error body. Uncoded errors are
// reported as INTERNAL_ERROR.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(code), errorBody{Code: code, Message: errors.UserMessage(err)})
}
