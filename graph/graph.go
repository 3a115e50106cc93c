package graph

import "time"

const (
	// SchemaVersion marks the persisted format for forward compatibility.
	SchemaVersion = 1

	// DefaultMaxEdges caps the edge log. Once exceeded, the oldest edges
	// are evicted first, keeping the most recent window of relationship
	// history so the store stays usable across long-running sessions.
	DefaultMaxEdges = 2000
)

// Graph is the in-memory node/edge collection. It carries no locking of its
// own; the Store serializes access, and read paths work on deep clones.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []*Edge
	maxEdges int
	version  int
}

// NewGraph returns an empty graph with the default edge cap.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		maxEdges: DefaultMaxEdges,
		version:  SchemaVersion,
	}
}

// Version returns the schema version of the graph.
func (g *Graph) Version() int { return g.version }

// SetMaxEdges changes the edge cap and immediately evicts the oldest edges
// if the log already exceeds it. Non-positive values restore the default.
// Returns the number of edges evicted.
func (g *Graph) SetMaxEdges(n int) int {
	if n <= 0 {
		n = DefaultMaxEdges
	}
	g.maxEdges = n
	return g.evict()
}

// MaxEdges returns the current edge cap.
func (g *Graph) MaxEdges() int { return g.maxEdges }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges currently in the log.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Node returns the node with the given ID, or nil if absent.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// NodeIDs returns node identifiers in insertion order. Insertion order is
// irrelevant for correctness but keeps summaries deterministic.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// Edges returns the edge log, oldest first. The slice is a copy; the edge
// records are shared.
func (g *Graph) Edges() []*Edge {
	edges := make([]*Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Upsert creates the node if absent or merges the observation into the
// existing record. The returned node is the live record.
func (g *Graph) Upsert(id, label string, attrs Attrs, now time.Time) *Node {
	n, ok := g.nodes[id]
	if !ok {
		n = NewNode(id, label)
		g.nodes[id] = n
		g.order = append(g.order, id)
	}
	n.Merge(label, attrs, now)
	return n
}

// Restore inserts a node verbatim, preserving its timestamp. Used when
// rebuilding a graph from its persisted form. Duplicate IDs replace the
// earlier record without disturbing insertion order.
func (g *Graph) Restore(n *Node) {
	if n == nil || n.ID == "" {
		return
	}
	if _, ok := g.nodes[n.ID]; !ok {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

// Append adds an edge to the end of the log and evicts the oldest edges if
// the cap is exceeded. Returns the number of edges evicted.
func (g *Graph) Append(e *Edge) int {
	g.edges = append(g.edges, e)
	return g.evict()
}

func (g *Graph) evict() int {
	over := len(g.edges) - g.maxEdges
	if over <= 0 {
		return 0
	}
	kept := make([]*Edge, g.maxEdges)
	copy(kept, g.edges[over:])
	g.edges = kept
	return over
}

// Neighbor is one outgoing hop in the adjacency view.
type Neighbor struct {
	Target   string
	Relation string
	Metadata Attrs
}

// Adjacency builds a directed adjacency view from the current edge log.
// Each adjacency list preserves the order edges were recorded, which is
// what makes path-search tie-breaking deterministic.
func (g *Graph) Adjacency() map[string][]Neighbor {
	adj := make(map[string][]Neighbor)
	for _, e := range g.edges {
		adj[e.Source] = append(adj[e.Source], Neighbor{
			Target:   e.Target,
			Relation: e.Relation,
			Metadata: e.Metadata,
		})
	}
	return adj
}

// Clone returns a deep copy of the graph, safe to traverse and format
// without holding the store lock.
func (g *Graph) Clone() *Graph {
	cp := &Graph{
		nodes:    make(map[string]*Node, len(g.nodes)),
		order:    make([]string, len(g.order)),
		edges:    make([]*Edge, len(g.edges)),
		maxEdges: g.maxEdges,
		version:  g.version,
	}
	copy(cp.order, g.order)
	for id, n := range g.nodes {
		cp.nodes[id] = n.Clone()
	}
	for i, e := range g.edges {
		cp.edges[i] = e.Clone()
	}
	return cp
}
