package defs

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/httputil"
	"github.com/matzehuels/techtree/pkg/research"
)

// HTTPSource fetches a definition file over HTTP. Transient failures are
// retried; when a fallback cache is set, the last body that decoded is
// served if the remote stays unreachable.
type HTTPSource struct {
	url      string
	format   string
	client   *http.Client
	fallback *httputil.Cache
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = c }
}

// WithFallback keeps the last good body in c.
func WithFallback(c *httputil.Cache) HTTPOption {
	return func(s *HTTPSource) { s.fallback = c.Namespace("defs:") }
}

// NewHTTPSource creates a source for rawURL. The format follows the
// extension of the URL path.
func NewHTTPSource(rawURL string, opts ...HTTPOption) (*HTTPSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, errors.New(errors.ErrCodeInvalidPath, "invalid definition url %q", rawURL)
	}
	format, err := FormatFromPath(u.Path)
	if err != nil {
		return nil, err
	}
	s := &HTTPSource{url: rawURL, format: format, client: http.DefaultClient}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the URL.
func (s *HTTPSource) Name() string { return s.url }

// Load fetches and decodes the definitions.
func (s *HTTPSource) Load(ctx context.Context) ([]*research.Record, error) {
	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() (err error) {
		body, err = httputil.Fetch(ctx, s.client, s.url)
		return err
	})
	if err != nil {
		if stderrors.Is(err, httputil.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "definition file %s", s.url)
		}
		if cached, ok := s.cached(); ok {
			return Decode(cached, s.format)
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", s.url)
		}
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "fetch %s", s.url)
	}

	records, err := Decode(body, s.format)
	if err != nil {
		return nil, err
	}
	if s.fallback != nil {
		_ = s.fallback.Set(s.url, body)
	}
	return records, nil
}

func (s *HTTPSource) cached() ([]byte, bool) {
	if s.fallback == nil {
		return nil, false
	}
	var body []byte
	ok, err := s.fallback.Get(s.url, &body)
	if err != nil || !ok {
		return nil, false
	}
	return body, true
}
