package graph

import (
	"strconv"
	"time"
)

// Node labels for the two built-in observation types. Callers may use any
// label they like for nodes created through UpsertNode directly.
const (
	LabelHost    = "Host"
	LabelService = "Service"
)

// HostID returns the canonical node ID for a host, namespaced by kind.
func HostID(ip string) string {
	return "host:" + ip
}

// ServiceID returns the canonical node ID for a service exposed on a host
// port, e.g. "service:10.0.0.1:443/tcp".
func ServiceID(ip string, port int, protocol string) string {
	return "service:" + ip + ":" + strconv.Itoa(port) + "/" + protocol
}

// Node is an entity record in the knowledge graph: a host, a service, or a
// generic observation. Nodes are keyed by ID; re-observing an existing ID
// merges attributes in place rather than creating a duplicate.
type Node struct {
	// ID is the unique node identifier, namespaced by kind
	// (e.g. "host:10.0.0.1"). Immutable after creation.
	ID string `json:"id"`

	// Label is the coarse type tag, e.g. LabelHost or LabelService.
	Label string `json:"label"`

	// Attributes holds merged observation data for the node.
	Attributes Attrs `json:"attributes"`

	// UpdatedAt is the timestamp of the last mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewNode creates a node with the given ID and label and an empty
// attribute map.
func NewNode(id, label string) *Node {
	return &Node{
		ID:         id,
		Label:      label,
		Attributes: make(Attrs),
	}
}

// WithAttr sets a single attribute and returns the node for chaining.
func (n *Node) WithAttr(key string, v Value) *Node {
	if n.Attributes == nil {
		n.Attributes = make(Attrs)
	}
	n.Attributes[key] = v
	return n
}

// Merge applies an observation to the node. The rule is carried by each
// value's kind: KindStringList values append entries not already present,
// in call order; every other kind overwrites the previous value. Invalid
// (zero) values are skipped, so partial observations never erase data.
// The label is replaced only when the new one is non-empty.
func (n *Node) Merge(label string, attrs Attrs, now time.Time) {
	if n.Attributes == nil {
		n.Attributes = make(Attrs)
	}
	for key, v := range attrs {
		if !v.IsValid() {
			continue
		}
		if v.Kind() == KindStringList {
			n.Attributes[key] = appendDistinct(n.Attributes[key], v)
			continue
		}
		n.Attributes[key] = v
	}
	if label != "" {
		n.Label = label
	}
	n.UpdatedAt = now
}

// appendDistinct merges an incoming string list into an existing attribute
// value, preserving order of first appearance and dropping duplicates. A
// non-list existing value is replaced outright.
func appendDistinct(existing, incoming Value) Value {
	if existing.Kind() != KindStringList {
		return incoming
	}
	merged := existing.list
	for _, item := range incoming.list {
		seen := false
		for _, have := range merged {
			if have == item {
				seen = true
				break
			}
		}
		if !seen {
			merged = append(merged, item)
		}
	}
	return Value{kind: KindStringList, list: merged}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Attributes = n.Attributes.Clone()
	return &cp
}
