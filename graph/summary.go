package graph

import (
	"context"
	"fmt"
	"strings"
)

// Defaults for summary bounds.
const (
	DefaultSummaryNodes = 15
	DefaultSummaryEdges = 25
)

// Summary renders a bounded, human/LLM-readable snapshot of the graph:
// total counts, the first limitNodes nodes in insertion order with label
// and attributes, and the most recent limitEdges edges. Non-positive
// limits use the defaults. Purely read-only; the store lock is held only
// while cloning the snapshot.
func (s *Store) Summary(ctx context.Context, limitNodes, limitEdges int) (string, error) {
	if limitNodes <= 0 {
		limitNodes = DefaultSummaryNodes
	}
	if limitEdges <= 0 {
		limitEdges = DefaultSummaryEdges
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return formatSummary(snap, limitNodes, limitEdges), nil
}

func formatSummary(g *Graph, limitNodes, limitEdges int) string {
	var sb strings.Builder
	sb.WriteString("Knowledge Graph Snapshot\n")
	fmt.Fprintf(&sb, "Total nodes: %d, total edges: %d\n", g.NodeCount(), g.EdgeCount())

	sb.WriteString("\n-- Nodes --\n")
	ids := g.NodeIDs()
	if len(ids) > limitNodes {
		ids = ids[:limitNodes]
	}
	for _, id := range ids {
		n := g.Node(id)
		fmt.Fprintf(&sb, "%s (%s): %s\n", n.ID, n.Label, n.Attributes.String())
	}

	sb.WriteString("\n-- Recent edges --\n")
	edges := g.Edges()
	if len(edges) > limitEdges {
		edges = edges[len(edges)-limitEdges:]
	}
	for _, e := range edges {
		fmt.Fprintf(&sb, "%s -[%s]-> %s | %s\n", e.Source, e.Relation, e.Target, e.Metadata.String())
	}
	return sb.String()
}
