// Package graph implements the knowledge graph store that accumulates
// observations about a reconnaissance target during an operation: hosts,
// the services they expose, and arbitrary relationships between them.
//
// # Core Types
//
//   - Node: an entity record keyed by a namespaced identifier
//     ("host:10.0.0.1", "service:10.0.0.1:443/tcp"), merged in place on
//     repeated observation
//   - Edge: a directed, timestamped relationship; append-only, capped with
//     FIFO eviction so long sessions keep a bounded recent window
//   - Value / Attrs: a closed variant type for attributes and metadata,
//     keeping serialization total without losing flexibility
//   - Graph: the in-memory collection with an insertion-ordered node view
//     and an adjacency index for traversal
//   - Store: the concurrency-safe facade that hydrates lazily from a
//     Persister and flushes after every mutation
//
// # Recording Observations
//
// External producers (scanners, exploitation tools, intelligence feeds)
// write through three entry points and never construct nodes or edges by
// hand:
//
//	store.RecordHostObservation(ctx, graph.HostObservation{
//	    IP: "10.0.0.1", Hostname: "web01", Source: "nmap",
//	})
//	store.RecordPortObservation(ctx, graph.PortObservation{
//	    IP: "10.0.0.1", Port: 443, Service: "https",
//	})
//	store.RecordRelationship(ctx, "host:10.0.0.1", "PIVOT", "host:10.0.0.2", nil)
//
// Malformed input (empty IP, zero port) is silently ignored: producers may
// call speculatively with partial data, and the store favors resilience
// over strictness.
//
// # Querying
//
// FindPaths answers lateral-movement questions with a bounded
// breadth-first search:
//
//	res, err := store.FindPaths(ctx, "10.0.0.1", "10.0.0.9")
//	fmt.Println(res.Format())
//
// Summary renders a bounded snapshot suitable for an LLM prompt:
//
//	text, err := store.Summary(ctx, 15, 25)
//
// Both queries return descriptive results in degenerate cases (empty
// graph, absent endpoints) rather than failing, so they are safe to call
// from a best-effort reasoning loop.
//
// # Scope
//
// An optional Scope restricts host and port observations to the engagement
// perimeter; out-of-scope sightings are dropped with a warning log.
package graph
