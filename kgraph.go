package kgraph

import (
	"github.com/zero-day-ai/kgraph/graph"
	"github.com/zero-day-ai/kgraph/persist"
)

// Open builds a knowledge graph store from a configuration: it wires up
// the persistence backend (Redis when configured, file otherwise), the
// engagement scope, and the edge cap, then applies any extra store
// options. No I/O happens until the store's first operation.
//
// The returned store is the process-wide instance for its backing
// location; construct it once at startup and pass it to collaborators.
func Open(cfg Config, opts ...graph.StoreOption) (*graph.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var p graph.Persister
	if cfg.Redis.URL != "" {
		rs, err := persist.NewRedisStore(persist.RedisOptions{
			URL: cfg.Redis.URL,
			Key: cfg.Redis.Key,
		})
		if err != nil {
			return nil, err
		}
		p = rs
	} else {
		p = persist.NewFileStore(cfg.Path)
	}

	base := make([]graph.StoreOption, 0, len(opts)+2)
	if cfg.MaxEdges > 0 {
		base = append(base, graph.WithMaxEdges(cfg.MaxEdges))
	}
	if len(cfg.Scope) > 0 || cfg.StrictScope {
		scope, err := graph.NewScope(cfg.Scope...)
		if err != nil {
			return nil, err
		}
		scope.Strict = cfg.StrictScope
		base = append(base, graph.WithScope(scope))
	}
	base = append(base, opts...)

	return graph.NewStore(p, base...), nil
}
