package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Store is the knowledge graph store. It owns the in-memory graph, guards
// every public operation with a single store-wide lock, and flushes to its
// Persister after every mutation so the on-disk state always reflects the
// last observation.
//
// The store hydrates lazily: the first operation loads persisted state,
// subsequent operations reuse the in-memory graph. Construct one Store per
// backing location and share it by reference; the lock makes it safe for
// concurrent use from scanner workers, intelligence ingestion, and query
// callers alike.
type Store struct {
	persister Persister
	log       *slog.Logger
	scope     *Scope
	maxEdges  int
	now       func() time.Time

	tracer        trace.Tracer
	nodesUpserted metric.Int64Counter
	edgesAppended metric.Int64Counter
	edgesEvicted  metric.Int64Counter
	persistTime   metric.Float64Histogram

	mu     sync.Mutex
	g      *Graph
	status LoadStatus
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithScope sets the engagement scope gating host and port observations.
// A nil scope (the default) admits everything.
func WithScope(scope *Scope) StoreOption {
	return func(s *Store) { s.scope = scope }
}

// WithMaxEdges overrides the edge-log cap. Non-positive values keep the
// default of DefaultMaxEdges.
func WithMaxEdges(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.maxEdges = n
		}
	}
}

// WithTracerProvider enables tracing of store operations. Defaults to a
// no-op provider.
func WithTracerProvider(tp trace.TracerProvider) StoreOption {
	return func(s *Store) {
		if tp != nil {
			s.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithMeterProvider enables metrics for store operations. Defaults to a
// no-op provider.
func WithMeterProvider(mp metric.MeterProvider) StoreOption {
	return func(s *Store) {
		if mp != nil {
			s.initInstruments(mp.Meter(instrumentationName))
		}
	}
}

// WithClock overrides the time source used for node and edge timestamps.
// Intended for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

const instrumentationName = "github.com/zero-day-ai/kgraph"

// NewStore creates a store backed by the given persister. No I/O happens
// until the first operation.
func NewStore(p Persister, opts ...StoreOption) *Store {
	s := &Store{
		persister: p,
		log:       slog.Default(),
		maxEdges:  DefaultMaxEdges,
		now:       time.Now,
		tracer:    tracenoop.NewTracerProvider().Tracer(instrumentationName),
	}
	s.initInstruments(metricnoop.NewMeterProvider().Meter(instrumentationName))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) initInstruments(meter metric.Meter) {
	var err error
	s.nodesUpserted, err = meter.Int64Counter("kgraph.nodes.upserted",
		metric.WithDescription("Node upserts applied to the graph"))
	if err != nil {
		s.log.Warn("kgraph: failed to create counter", "name", "kgraph.nodes.upserted", "error", err)
	}
	s.edgesAppended, err = meter.Int64Counter("kgraph.edges.appended",
		metric.WithDescription("Edges appended to the edge log"))
	if err != nil {
		s.log.Warn("kgraph: failed to create counter", "name", "kgraph.edges.appended", "error", err)
	}
	s.edgesEvicted, err = meter.Int64Counter("kgraph.edges.evicted",
		metric.WithDescription("Edges evicted by the FIFO cap"))
	if err != nil {
		s.log.Warn("kgraph: failed to create counter", "name", "kgraph.edges.evicted", "error", err)
	}
	s.persistTime, err = meter.Float64Histogram("kgraph.persist.duration",
		metric.WithDescription("Time spent persisting the graph"),
		metric.WithUnit("s"))
	if err != nil {
		s.log.Warn("kgraph: failed to create histogram", "name", "kgraph.persist.duration", "error", err)
	}
}

// hydrateLocked loads persisted state on first use. Callers must hold mu.
// A load error leaves the store unhydrated so the next call retries.
func (s *Store) hydrateLocked(ctx context.Context) error {
	if s.g != nil {
		return nil
	}
	g, status, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("hydrate graph: %w", err)
	}
	if status == StatusRecovered {
		s.log.Warn("kgraph: persisted graph unreadable, starting fresh")
	}
	evicted := g.SetMaxEdges(s.maxEdges)
	if evicted > 0 {
		s.edgesEvicted.Add(ctx, int64(evicted))
	}
	s.g = g
	s.status = status
	s.log.Debug("kgraph: hydrated",
		"status", status.String(),
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount())
	return nil
}

// saveLocked flushes the whole graph to the persister. Callers must hold
// mu. A save failure is the one persistence condition that propagates to
// the caller of the mutating operation; the in-memory mutation is kept.
func (s *Store) saveLocked(ctx context.Context) error {
	start := s.now()
	err := s.persister.Save(ctx, s.g)
	s.persistTime.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("persist graph: %w", err)
	}
	return nil
}

// upsertNodeLocked creates or merges a node. Callers must hold mu with the
// store hydrated.
func (s *Store) upsertNodeLocked(ctx context.Context, id, label string, attrs Attrs) {
	s.g.Upsert(id, label, attrs, s.now())
	s.nodesUpserted.Add(ctx, 1)
}

// addEdgeLocked appends an edge and applies the FIFO cap. Callers must
// hold mu with the store hydrated.
func (s *Store) addEdgeLocked(ctx context.Context, source, relation, target string, md Attrs) {
	e := NewEdge(source, relation, target)
	if md != nil {
		e.Metadata = md.Clone()
	}
	e.Timestamp = s.now()
	evicted := s.g.Append(e)
	s.edgesAppended.Add(ctx, 1)
	if evicted > 0 {
		s.edgesEvicted.Add(ctx, int64(evicted))
	}
}

// UpsertNode creates the node if absent or merges attributes into the
// existing record, stamps its update time, and persists the graph. An
// empty id is a no-op: producers may call speculatively with partial data.
// Repeated identical calls change nothing observable beyond the timestamp.
func (s *Store) UpsertNode(ctx context.Context, id, label string, attrs Attrs) error {
	if id == "" {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "kgraph.upsert_node")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return err
	}
	s.upsertNodeLocked(ctx, id, label, attrs)
	return s.saveLocked(ctx)
}

// AddEdge appends a relationship record to the edge log, evicts the oldest
// edges past the cap, and persists the graph. Empty source, relation, or
// target makes the call a no-op.
func (s *Store) AddEdge(ctx context.Context, source, relation, target string, md Attrs) error {
	if source == "" || relation == "" || target == "" {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "kgraph.add_edge")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return err
	}
	s.addEdgeLocked(ctx, source, relation, target, md)
	return s.saveLocked(ctx)
}

// Snapshot returns a deep copy of the current graph, hydrating first if
// needed. The copy is safe to traverse without holding the store lock.
func (s *Store) Snapshot(ctx context.Context) (*Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return nil, err
	}
	return s.g.Clone(), nil
}

// Status reports how the persisted state was obtained, hydrating first if
// needed.
func (s *Store) Status(ctx context.Context) (LoadStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return StatusUnknown, err
	}
	return s.status, nil
}

// Len returns the current node and edge counts.
func (s *Store) Len(ctx context.Context) (nodes, edges int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.hydrateLocked(ctx); err != nil {
		return 0, 0, err
	}
	return s.g.NodeCount(), s.g.EdgeCount(), nil
}
