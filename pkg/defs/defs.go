// Package defs loads research definitions.
//
// A [Source] yields the complete, ordered list of records each time it is
// loaded. Record order matters: it is the input order of the layout and
// the final tie-breaker for otherwise equal nodes.
//
// Sources:
//   - [FileSource]: a JSON, TOML or YAML definition file
//   - [MemorySource]: records held in memory, replaceable at runtime
//   - [MongoSource]: a MongoDB collection
//   - [HTTPSource]: a definition file served over HTTP
package defs

import (
	"context"

	"github.com/matzehuels/techtree/pkg/research"
)

// Source provides research definitions.
type Source interface {
	// Load returns every record. Callers may modify the result.
	Load(ctx context.Context) ([]*research.Record, error)

	// Name describes the source for logs.
	Name() string
}

func cloneAll(records []*research.Record) []*research.Record {
	out := make([]*research.Record, len(records))
	for i, r := range records {
		if r != nil {
			r = r.Clone()
		}
		out[i] = r
	}
	return out
}
