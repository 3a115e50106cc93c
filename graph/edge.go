package graph

import "time"

// RelationHasPort links a host node to a service node it exposes.
const RelationHasPort = "HAS_PORT"

// Edge is a directed, timestamped, labeled relationship between two node
// identifiers. Edges are append-only and never deduplicated: observing the
// same relationship twice produces two records, preserving a timeline of
// observations. Endpoints are not required to exist in the graph at
// insertion time.
type Edge struct {
	// Source is the origin node identifier.
	Source string `json:"source"`

	// Target is the destination node identifier.
	Target string `json:"target"`

	// Relation labels the edge semantics, e.g. RelationHasPort or any
	// caller-defined relation such as "PIVOT" or "REUSES_CREDENTIALS".
	Relation string `json:"relation"`

	// Metadata is a free-form payload, opaque to the store.
	Metadata Attrs `json:"metadata"`

	// Timestamp is the creation time of the edge record.
	Timestamp time.Time `json:"timestamp"`
}

// NewEdge creates an edge from source to target with the given relation.
func NewEdge(source, relation, target string) *Edge {
	return &Edge{
		Source:   source,
		Target:   target,
		Relation: relation,
		Metadata: make(Attrs),
	}
}

// WithMetadata replaces the edge metadata and returns the edge for chaining.
func (e *Edge) WithMetadata(md Attrs) *Edge {
	e.Metadata = md
	return e
}

// WithMetadataValue sets a single metadata entry and returns the edge for
// chaining.
func (e *Edge) WithMetadataValue(key string, v Value) *Edge {
	if e.Metadata == nil {
		e.Metadata = make(Attrs)
	}
	e.Metadata[key] = v
	return e
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	cp := *e
	cp.Metadata = e.Metadata.Clone()
	return &cp
}
