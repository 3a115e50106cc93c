package graph

import (
	"context"
	"fmt"
	"strings"
)

// Defaults for path search limits.
const (
	DefaultMaxDepth = 4
	DefaultMaxPaths = 3
)

// NotFoundReason explains why a path query returned no paths.
type NotFoundReason string

const (
	// ReasonSourceMissing means the source host was never observed.
	ReasonSourceMissing NotFoundReason = "source_not_found"

	// ReasonTargetMissing means the destination host was never observed.
	ReasonTargetMissing NotFoundReason = "target_not_found"

	// ReasonNoRoute means both hosts exist but no path connects them
	// within the search limits.
	ReasonNoRoute NotFoundReason = "no_route"
)

// Hop is one step in a path: the relation traversed and the node reached.
// The first hop of every path is the source node with an empty Relation.
type Hop struct {
	Relation string `json:"relation,omitempty"`
	NodeID   string `json:"node_id"`
}

// Path is a simple path (no node revisited) through the graph.
type Path struct {
	Hops []Hop `json:"hops"`
}

// String renders the path as "host:A -> PIVOT:host:B -> HAS_PORT:service:...".
func (p Path) String() string {
	var sb strings.Builder
	for i, h := range p.Hops {
		if i > 0 {
			sb.WriteString(" -> ")
		}
		if h.Relation != "" {
			sb.WriteString(h.Relation)
			sb.WriteByte(':')
		}
		sb.WriteString(h.NodeID)
	}
	return sb.String()
}

// PathResult is the outcome of a path query. A missing endpoint or an
// unreachable target is reported here rather than as an error, so the
// query stays safe to call opportunistically from a reasoning loop.
type PathResult struct {
	// SourceID and TargetID are the resolved host node identifiers.
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`

	// Found reports whether at least one path was collected.
	Found bool `json:"found"`

	// Reason is set when Found is false.
	Reason NotFoundReason `json:"reason,omitempty"`

	// Paths holds up to max-paths results in discovery order.
	Paths []Path `json:"paths,omitempty"`
}

// Format renders the operator-facing text for the result.
func (r *PathResult) Format() string {
	if !r.Found {
		switch r.Reason {
		case ReasonSourceMissing:
			return fmt.Sprintf("source host not present in graph: %s", r.SourceID)
		case ReasonTargetMissing:
			return fmt.Sprintf("destination host not present in graph: %s", r.TargetID)
		default:
			return "no path found between hosts"
		}
	}
	lines := make([]string, 0, len(r.Paths)+1)
	lines = append(lines, "paths found:")
	for i, p := range r.Paths {
		lines = append(lines, fmt.Sprintf("path %d: %s", i+1, p.String()))
	}
	return strings.Join(lines, "\n")
}

// PathOption configures a path query.
type PathOption func(*pathConfig)

type pathConfig struct {
	maxDepth int
	maxPaths int
}

// WithMaxDepth caps the number of hops a path may take. Defaults to
// DefaultMaxDepth.
func WithMaxDepth(depth int) PathOption {
	return func(c *pathConfig) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithMaxPaths caps how many paths are collected before the search halts.
// Defaults to DefaultMaxPaths.
func WithMaxPaths(n int) PathOption {
	return func(c *pathConfig) {
		if n > 0 {
			c.maxPaths = n
		}
	}
}

// FindPaths answers "how can sourceIP reach targetIP" with a bounded
// breadth-first search over the current graph snapshot. Endpoints are host
// nodes; if either was never observed the result says which one, so "not
// present" is distinguishable from "no connectivity". Results are
// deterministic for a fixed graph: ties break by edge insertion order.
//
// The search holds the store lock only long enough to clone the graph;
// traversal runs on the snapshot.
func (s *Store) FindPaths(ctx context.Context, sourceIP, targetIP string, opts ...PathOption) (*PathResult, error) {
	cfg := pathConfig{maxDepth: DefaultMaxDepth, maxPaths: DefaultMaxPaths}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, span := s.tracer.Start(ctx, "kgraph.find_paths")
	defer span.End()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &PathResult{
		SourceID: HostID(sourceIP),
		TargetID: HostID(targetIP),
	}
	if snap.Node(result.SourceID) == nil {
		result.Reason = ReasonSourceMissing
		return result, nil
	}
	if snap.Node(result.TargetID) == nil {
		result.Reason = ReasonTargetMissing
		return result, nil
	}

	result.Paths = bfsPaths(snap.Adjacency(), result.SourceID, result.TargetID, cfg.maxDepth, cfg.maxPaths)
	if len(result.Paths) == 0 {
		result.Reason = ReasonNoRoute
		return result, nil
	}
	result.Found = true
	return result, nil
}

// bfsPaths collects up to maxPaths simple paths from source to target.
// Each frontier entry carries the full hop sequence so far; a neighbor
// already on the path is skipped, which bounds the search on cyclic graphs
// (mutual trust relationships are common in practice). A path stops
// growing once it spans more than maxDepth+1 nodes.
func bfsPaths(adj map[string][]Neighbor, source, target string, maxDepth, maxPaths int) []Path {
	var paths []Path
	queue := [][]Hop{{{NodeID: source}}}

	for len(queue) > 0 && len(paths) < maxPaths {
		hops := queue[0]
		queue = queue[1:]
		if len(hops) > maxDepth+1 {
			continue
		}
		current := hops[len(hops)-1].NodeID
		for _, nb := range adj[current] {
			if hopsContain(hops, nb.Target) {
				continue
			}
			next := make([]Hop, len(hops), len(hops)+1)
			copy(next, hops)
			next = append(next, Hop{Relation: nb.Relation, NodeID: nb.Target})
			if nb.Target == target {
				paths = append(paths, Path{Hops: next})
				if len(paths) >= maxPaths {
					break
				}
				continue
			}
			queue = append(queue, next)
		}
	}
	return paths
}

func hopsContain(hops []Hop, id string) bool {
	for _, h := range hops {
		if h.NodeID == id {
			return true
		}
	}
	return false
}
