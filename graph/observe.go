package graph

import (
	"context"
	"strings"
)

// AttrSources is the list-valued node attribute accumulating the names of
// tools that observed a node.
const AttrSources = "sources"

// HostObservation is a single sighting of a host by a reconnaissance tool.
// Only IP is required; the remaining fields are merged when present, so a
// tool that learns one new fact can report just that fact.
type HostObservation struct {
	// IP is the host address and forms the node key. Required.
	IP string

	// Hostname is the DNS name, if resolved.
	Hostname string

	// Vendor is the hardware vendor, typically derived from the MAC OUI.
	Vendor string

	// MAC is the hardware address, if observed on the local segment.
	MAC string

	// Source names the tool that produced the observation (e.g. "nmap").
	// Appended to the node's "sources" attribute, deduplicated.
	Source string
}

// PortObservation is a single sighting of an open port on a host.
type PortObservation struct {
	// IP is the host address. Required.
	IP string

	// Port is the port number. Required; zero makes the call a no-op.
	Port int

	// Protocol is "tcp" or "udp"; defaults to "tcp" and is lowercased.
	Protocol string

	// Service is the detected service name; defaults to "unknown".
	Service string

	// Metadata is attached to the HAS_PORT edge (e.g. banner, scanner).
	Metadata Attrs
}

// RecordHostObservation upserts the host node for the observation, merging
// scalar attributes and appending the source to the node's sources list.
// An empty IP or an out-of-scope address is a no-op.
func (s *Store) RecordHostObservation(ctx context.Context, obs HostObservation) error {
	if obs.IP == "" {
		return nil
	}
	if !s.inScope(obs.IP) {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "kgraph.record_host")
	defer span.End()

	attrs := make(Attrs)
	if obs.Hostname != "" {
		attrs["hostname"] = StringValue(obs.Hostname)
	}
	if obs.Vendor != "" {
		attrs["vendor"] = StringValue(obs.Vendor)
	}
	if obs.MAC != "" {
		attrs["mac"] = StringValue(obs.MAC)
	}
	if obs.Source != "" {
		attrs[AttrSources] = ListValue(obs.Source)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return err
	}
	s.upsertNodeLocked(ctx, HostID(obs.IP), LabelHost, attrs)
	return s.saveLocked(ctx)
}

// RecordPortObservation upserts the host node and a service node keyed by
// (ip, port, protocol), then records a HAS_PORT edge from host to service
// carrying the observation metadata. The three mutations happen under one
// lock hold and one persistence write. An empty IP, a zero port, or an
// out-of-scope address is a no-op.
func (s *Store) RecordPortObservation(ctx context.Context, obs PortObservation) error {
	if obs.IP == "" || obs.Port == 0 {
		return nil
	}
	if !s.inScope(obs.IP) {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "kgraph.record_port")
	defer span.End()

	protocol := strings.ToLower(obs.Protocol)
	if protocol == "" {
		protocol = "tcp"
	}
	service := obs.Service
	if service == "" {
		service = "unknown"
	}
	hostID := HostID(obs.IP)
	serviceID := ServiceID(obs.IP, obs.Port, protocol)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return err
	}
	s.upsertNodeLocked(ctx, hostID, LabelHost, nil)
	s.upsertNodeLocked(ctx, serviceID, LabelService, Attrs{
		"port":     IntValue(obs.Port),
		"protocol": StringValue(protocol),
		"service":  StringValue(service),
	})
	s.addEdgeLocked(ctx, hostID, RelationHasPort, serviceID, obs.Metadata)
	return s.saveLocked(ctx)
}

// RecordRelationship records an arbitrary caller-defined relation between
// two node identifiers, e.g. a lateral-movement hypothesis or credential
// reuse. It is a direct pass-through to AddEdge and is not scope-gated,
// since the identifiers are opaque here.
func (s *Store) RecordRelationship(ctx context.Context, source, relation, target string, md Attrs) error {
	return s.AddEdge(ctx, source, relation, target, md)
}

func (s *Store) inScope(ip string) bool {
	if s.scope.Allows(ip) {
		return true
	}
	s.log.Warn("kgraph: observation outside engagement scope, dropped", "ip", ip)
	return false
}
