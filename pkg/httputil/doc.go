// Package httputil provides the HTTP plumbing used to fetch remote
// definition files.
//
//   - [Fetch]: a GET that classifies failures as retryable or permanent
//   - [Retry]: retry with exponential backoff for [RetryableError]s
//   - [Cache]: a small file cache that keeps the last good response
//
// Transient failures are network errors, 5xx responses and 429. A 404 is
// permanent and reported as [ErrNotFound].
//
//	var body []byte
//	err := httputil.RetryWithBackoff(ctx, func() (err error) {
//	    body, err = httputil.Fetch(ctx, http.DefaultClient, url)
//	    return err
//	})
package httputil
