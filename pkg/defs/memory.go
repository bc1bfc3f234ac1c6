package defs

import (
	"context"
	"sync"

	"github.com/matzehuels/techtree/pkg/research"
)

// MemorySource serves records held in memory. It is safe for concurrent
// use; Set replaces the records seen by subsequent loads.
type MemorySource struct {
	mu      sync.RWMutex
	records []*research.Record
}

// NewMemorySource creates a source holding copies of records.
func NewMemorySource(records ...*research.Record) *MemorySource {
	return &MemorySource{records: cloneAll(records)}
}

// Name returns "memory".
func (s *MemorySource) Name() string { return "memory" }

// Load returns copies of the current records.
func (s *MemorySource) Load(ctx context.Context) ([]*research.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records), nil
}

// Set replaces the records.
func (s *MemorySource) Set(records []*research.Record) {
	records = cloneAll(records)
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}
