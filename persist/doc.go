// Package persist provides the durable backends behind the knowledge
// graph store.
//
// Two implementations of graph.Persister are available:
//
//   - FileStore: a JSON document at a fixed path, replaced with an atomic
//     rename on every save so a crash mid-write never leaves a partially
//     written canonical file. The default for a single-operator process.
//   - RedisStore: the same document under a single Redis key, for
//     operators running agent fleets off shared infrastructure.
//
// Both backends treat missing state as "start fresh" (StatusInitialized)
// and unreadable state as "recovered" (StatusRecovered) rather than
// failing: the graph is best-effort intelligence, not a ledger, and
// availability wins over strict durability on the read side. Save
// failures, by contrast, are always returned to the caller.
//
// The wire format is versioned JSON; see codec.go. Node insertion order is
// preserved across the round trip so summaries remain deterministic after
// a restart.
package persist
