package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/zero-day-ai/kgraph/graph"
)

// Wire format, version 1:
//
//	{
//	  "nodes": { "<id>": {"label", "attributes", "updated_at"}, ... },
//	  "edges": [ {"source", "target", "relation", "metadata", "timestamp"}, ... ],
//	  "version": 1
//	}
//
// Timestamps are float seconds since the Unix epoch. The nodes object is
// written and read in insertion order so summaries stay deterministic
// across restarts, which requires token-level decoding since a Go map
// would drop key order.

type nodeDoc struct {
	Label      string      `json:"label"`
	Attributes graph.Attrs `json:"attributes"`
	UpdatedAt  float64     `json:"updated_at"`
}

type edgeDoc struct {
	Source    string      `json:"source"`
	Target    string      `json:"target"`
	Relation  string      `json:"relation"`
	Metadata  graph.Attrs `json:"metadata"`
	Timestamp float64     `json:"timestamp"`
}

type graphDoc struct {
	Nodes   json.RawMessage `json:"nodes"`
	Edges   []edgeDoc       `json:"edges"`
	Version int             `json:"version"`
}

// unixSeconds keeps the whole seconds exact in the float: going through
// UnixNano would overflow the 53-bit mantissa and corrupt timestamps by a
// few hundred nanoseconds per round trip.
func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func fromUnixSeconds(f float64) time.Time {
	if f == 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second)))).UTC()
}

// orderedNodes marshals the node map as a JSON object in insertion order.
type orderedNodes struct {
	g *graph.Graph
}

func (o orderedNodes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range o.g.NodeIDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		n := o.g.Node(id)
		doc := nodeDoc{
			Label:      n.Label,
			Attributes: n.Attributes,
			UpdatedAt:  unixSeconds(n.UpdatedAt),
		}
		body, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode node %q: %w", id, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeGraph serializes a graph to its wire form, indented for operator
// inspection. The edge log is already capped by the graph, so the encoded
// edges array never exceeds the cap.
func encodeGraph(g *graph.Graph) ([]byte, error) {
	edges := g.Edges()
	docs := make([]edgeDoc, len(edges))
	for i, e := range edges {
		docs[i] = edgeDoc{
			Source:    e.Source,
			Target:    e.Target,
			Relation:  e.Relation,
			Metadata:  e.Metadata,
			Timestamp: unixSeconds(e.Timestamp),
		}
	}
	doc := struct {
		Nodes   orderedNodes `json:"nodes"`
		Edges   []edgeDoc    `json:"edges"`
		Version int          `json:"version"`
	}{
		Nodes:   orderedNodes{g: g},
		Edges:   docs,
		Version: g.Version(),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// decodeGraph rebuilds a graph from its wire form, preserving node order.
func decodeGraph(data []byte) (*graph.Graph, error) {
	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode graph document: %w", err)
	}

	g := graph.NewGraph()
	if len(doc.Nodes) > 0 {
		if err := decodeNodes(doc.Nodes, g); err != nil {
			return nil, err
		}
	}
	for _, d := range doc.Edges {
		e := graph.NewEdge(d.Source, d.Relation, d.Target)
		if d.Metadata != nil {
			e.Metadata = d.Metadata
		}
		e.Timestamp = fromUnixSeconds(d.Timestamp)
		g.Append(e)
	}
	return g, nil
}

// decodeNodes walks the nodes object token by token so the on-disk key
// order survives the round trip.
func decodeNodes(raw json.RawMessage, g *graph.Graph) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode nodes: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode nodes: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode nodes: %w", err)
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode nodes: expected key, got %v", tok)
		}
		var d nodeDoc
		if err := dec.Decode(&d); err != nil {
			return fmt.Errorf("decode node %q: %w", id, err)
		}
		n := graph.NewNode(id, d.Label)
		if d.Attributes != nil {
			n.Attributes = d.Attributes
		}
		n.UpdatedAt = fromUnixSeconds(d.UpdatedAt)
		g.Restore(n)
	}
	return nil
}
