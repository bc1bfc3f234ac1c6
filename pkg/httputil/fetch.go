package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrNotFound is returned by Fetch for a 404 response.
var ErrNotFound = errors.New("not found")

// MaxBodySize bounds the response body read by Fetch.
const MaxBodySize = 64 << 20

// Fetch performs a GET and returns the body of a 2xx response. Network
// errors, 5xx and 429 responses are returned as RetryableErrors.
func Fetch(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(fmt.Errorf("get %s: %w", url, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("get %s: %w", url, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, Retryable(fmt.Errorf("get %s: %s", url, resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("get %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, Retryable(fmt.Errorf("read %s: %w", url, err))
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("get %s: body exceeds %d bytes", url, MaxBodySize)
	}
	return body, nil
}
