package cache

import "errors"

var (
	// ErrUnavailable is returned when a backend cannot be reached.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrCacheMiss is returned by helpers that treat a miss as an error.
	ErrCacheMiss = errors.New("cache miss")
)
