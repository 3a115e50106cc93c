// Package kgraph is an embedded knowledge graph store for autonomous
// reconnaissance agents. It accumulates observations about an engagement
// target (hosts, exposed services, caller-defined relationships), keeps
// them crash-safe on disk, and answers the multi-hop connectivity queries
// agents use to find lateral-movement paths between hosts.
//
// The root package wires configuration to a store; the heavy lifting lives
// in the subpackages:
//
//   - graph: data model, store, observation API, path search, summaries
//   - persist: file and Redis persistence backends
//
// # Usage
//
//	cfg := kgraph.DefaultConfig()
//	cfg.Scope = []string{"10.0.0.0/24"}
//
//	store, err := kgraph.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	store.RecordHostObservation(ctx, graph.HostObservation{IP: "10.0.0.1", Source: "nmap"})
//	store.RecordPortObservation(ctx, graph.PortObservation{IP: "10.0.0.1", Port: 22, Service: "ssh"})
//
//	res, _ := store.FindPaths(ctx, "10.0.0.1", "10.0.0.9")
//	fmt.Println(res.Format())
//
// kgraph is not a general-purpose graph database: there is no query
// language, no secondary indexing, and no cross-process coordination. One
// process owns one backing location.
package kgraph
