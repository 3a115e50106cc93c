package graph

import (
	"context"
	"fmt"
)

// LoadStatus reports how a Persister obtained the graph it returned.
// Distinguishing a clean load from corruption recovery lets callers and
// tests tell "loaded" from "started fresh" without turning best-effort
// recovery into a hard failure.
type LoadStatus int

const (
	// StatusUnknown means the store has not hydrated yet.
	StatusUnknown LoadStatus = iota

	// StatusInitialized means no prior state existed and a fresh empty
	// graph was created.
	StatusInitialized

	// StatusLoaded means prior state was decoded successfully.
	StatusLoaded

	// StatusRecovered means prior state existed but could not be read or
	// decoded; the persister fell back to a fresh empty graph.
	StatusRecovered
)

// String returns the string representation of the LoadStatus.
func (s LoadStatus) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusInitialized:
		return "initialized"
	case StatusLoaded:
		return "loaded"
	case StatusRecovered:
		return "recovered"
	default:
		return fmt.Sprintf("LoadStatus(%d)", int(s))
	}
}

// Persister is the durable backend behind a Store. Load returns the
// previously persisted graph, or a fresh empty graph when none exists
// (StatusInitialized) or the stored form is unreadable (StatusRecovered).
// Save must be atomic with respect to concurrent readers of the backing
// medium: a reader observes either the previous complete state or the new
// complete state, never a partial write.
//
// A backing location is exclusively owned by one Store per process;
// cross-process sharing of the same location is not supported.
type Persister interface {
	Load(ctx context.Context) (*Graph, LoadStatus, error)
	Save(ctx context.Context, g *Graph) error
}
