package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPersister is an in-memory Persister for store tests. It records every
// save as a snapshot and can be primed with initial state or a save error.
type memPersister struct {
	mu            sync.Mutex
	initial       *Graph
	initialStatus LoadStatus
	saveErr       error
	loads         int
	saves         int
	last          *Graph
}

func newMemPersister() *memPersister {
	return &memPersister{initialStatus: StatusInitialized}
}

func (m *memPersister) Load(ctx context.Context) (*Graph, LoadStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.initial != nil {
		return m.initial.Clone(), m.initialStatus, nil
	}
	return NewGraph(), m.initialStatus, nil
}

func (m *memPersister) Save(ctx context.Context, g *Graph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.last = g.Clone()
	return nil
}

func (m *memPersister) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func newTestStore(t *testing.T, opts ...StoreOption) (*Store, *memPersister) {
	t.Helper()
	p := newMemPersister()
	return NewStore(p, opts...), p
}

func TestStoreLazyHydration(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	seed := NewGraph()
	seed.Upsert(HostID("10.0.0.1"), LabelHost, nil, time.Now())
	p.initial = seed
	p.initialStatus = StatusLoaded

	s := NewStore(p)
	require.Equal(t, 0, p.loads, "no I/O before first operation")

	nodes, _, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, nodes)

	_, err = s.Snapshot(ctx)
	require.NoError(t, err)
	_, _, err = s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.loads, "hydration must happen exactly once")

	status, err := s.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
}

func TestStoreConcurrentFirstAccess(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.UpsertNode(ctx, fmt.Sprintf("host:10.0.0.%d", i), LabelHost, nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, p.loads, "concurrent first access must load once")
	nodes, _, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 16, nodes)
}

func TestStoreUpsertNodeIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	attrs := Attrs{"hostname": StringValue("web01")}
	require.NoError(t, s.UpsertNode(ctx, "host:10.0.0.1", LabelHost, attrs))

	snap1, err := s.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, s.UpsertNode(ctx, "host:10.0.0.1", LabelHost, attrs))
	snap2, err := s.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, snap2.NodeCount(), "re-observing an id must not duplicate the node")
	n1 := snap1.Node("host:10.0.0.1")
	n2 := snap2.Node("host:10.0.0.1")
	assert.True(t, n1.Attributes.Equal(n2.Attributes),
		"identical repeated calls must not change attributes")
}

func TestStoreUpsertNodeEmptyIDIsNoop(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)

	require.NoError(t, s.UpsertNode(ctx, "", LabelHost, nil))
	assert.Equal(t, 0, p.saveCount(), "no-op must not persist")
	assert.Equal(t, 0, p.loads, "no-op must not hydrate")
}

func TestStoreAddEdgeAppendOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	md := Attrs{"via": StringValue("ssh")}
	require.NoError(t, s.AddEdge(ctx, "host:a", "PIVOT", "host:b", md))
	require.NoError(t, s.AddEdge(ctx, "host:a", "PIVOT", "host:b", md))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.EdgeCount(), "identical relationships must append, not dedupe")
}

func TestStoreAddEdgeMissingFieldIsNoop(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)

	require.NoError(t, s.AddEdge(ctx, "", "PIVOT", "host:b", nil))
	require.NoError(t, s.AddEdge(ctx, "host:a", "", "host:b", nil))
	require.NoError(t, s.AddEdge(ctx, "host:a", "PIVOT", "", nil))
	assert.Equal(t, 0, p.saveCount())
}

func TestStoreAddEdgeToleratesAbsentEndpoints(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.AddEdge(ctx, "host:ghost", "PIVOT", "host:phantom", nil))
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.EdgeCount())
	assert.Equal(t, 0, snap.NodeCount())
}

func TestStoreBoundedGrowth(t *testing.T) {
	ctx := context.Background()
	s, p := newTestStore(t)

	for i := 0; i < 2500; i++ {
		require.NoError(t, s.AddEdge(ctx, "host:a", fmt.Sprintf("R%d", i), "host:b", nil))
	}

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxEdges, snap.EdgeCount(),
		"edge log must hold exactly the cap after overflow")
	edges := snap.Edges()
	assert.Equal(t, "R500", edges[0].Relation, "oldest edges must be evicted first")
	assert.Equal(t, "R2499", edges[len(edges)-1].Relation)

	// The persisted copy honors the cap too.
	assert.Equal(t, DefaultMaxEdges, p.last.EdgeCount())
}

func TestStoreSaveErrorPropagates(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	p.saveErr = errors.New("disk full")
	s := NewStore(p)

	err := s.UpsertNode(ctx, "host:10.0.0.1", LabelHost, nil)
	require.Error(t, err, "losing the durability guarantee must be signaled")
	assert.ErrorContains(t, err, "disk full")

	// The in-memory state still reflects the mutation.
	nodes, _, lenErr := s.Len(ctx)
	require.NoError(t, lenErr)
	assert.Equal(t, 1, nodes)
}

func TestStoreLoadErrorRetries(t *testing.T) {
	ctx := context.Background()
	p := &failingLoadPersister{failures: 1}
	s := NewStore(p)

	_, _, err := s.Len(ctx)
	require.Error(t, err, "backend load failure must surface")

	// Next call retries the load instead of staying broken.
	_, _, err = s.Len(ctx)
	require.NoError(t, err)
}

type failingLoadPersister struct {
	failures int
}

func (p *failingLoadPersister) Load(ctx context.Context) (*Graph, LoadStatus, error) {
	if p.failures > 0 {
		p.failures--
		return nil, StatusUnknown, errors.New("backend unavailable")
	}
	return NewGraph(), StatusInitialized, nil
}

func (p *failingLoadPersister) Save(ctx context.Context, g *Graph) error { return nil }

func TestStoreWithMaxEdgesAppliesToHydratedState(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	seed := NewGraph()
	for i := 0; i < 10; i++ {
		seed.Append(NewEdge("a", fmt.Sprintf("R%d", i), "b"))
	}
	p.initial = seed
	p.initialStatus = StatusLoaded

	s := NewStore(p, WithMaxEdges(4))
	_, edges, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, edges, "a smaller cap must trim hydrated state")
}
