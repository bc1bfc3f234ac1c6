package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyBody struct {
	Ready     bool   `json:"ready"`
	Building  bool   `json:"building"`
	RunID     string `json:"run_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	body := readyBody{Building: s.tree.Building()}
	if err := s.tree.Err(); err != nil {
		body.LastError = err.Error()
	}
	l, err := s.tree.Snapshot()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body.Ready = true
	body.RunID = l.RunID
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.tree.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	l, err := s.tree.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = render.FormatSVG
	}
	detailed, _ := strconv.ParseBool(q.Get("detailed"))
	opts := render.Options{Detailed: detailed, Highlight: q["highlight"]}

	data, hit, err := s.tree.Runner().Render(r.Context(), l, format, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

func contentType(format string) string {
	switch format {
	case render.FormatSVG:
		return "image/svg+xml"
	case render.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}

// nodeView is a node with its dependency closure.
type nodeView struct {
	graph.Node
	Ancestors   []string `json:"ancestors"`
	Descendants []string `json:"descendants"`
	Missing     []string `json:"missing_prerequisites"`
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	l, err := s.tree.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	id := chi.URLParam(r, "id")
	n, ok := l.Node(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, nodeView{
		Node:        n,
		Ancestors:   nonNil(l.Ancestors(id)),
		Descendants: nonNil(l.Descendants(id)),
		Missing:     nonNil(l.MissingPrerequisites(id)),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if !s.tree.Start(s.baseCtx) {
		writeError(w, errors.New(errors.ErrCodeBusy, "a layout build is already running"))
		return
	}
	s.logger.Info("rebuild requested", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}
