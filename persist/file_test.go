package persist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/kgraph/graph"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.NewGraph()
	now := time.Unix(1700000000, 500000000).UTC()
	g.Upsert("host:10.0.0.1", graph.LabelHost, graph.Attrs{
		"hostname": graph.StringValue("web01"),
		"sources":  graph.ListValue("nmap", "manual"),
	}, now)
	g.Upsert("service:10.0.0.1:443/tcp", graph.LabelService, graph.Attrs{
		"port":     graph.IntValue(443),
		"protocol": graph.StringValue("tcp"),
		"service":  graph.StringValue("https"),
	}, now.Add(time.Second))
	e := graph.NewEdge("host:10.0.0.1", graph.RelationHasPort, "service:10.0.0.1:443/tcp").
		WithMetadataValue("scanner", graph.StringValue("nmap"))
	e.Timestamp = now.Add(2 * time.Second)
	g.Append(e)
	return g
}

func TestFileStoreLoadAbsent(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "missing", "graph.json"))

	g, status, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, graph.StatusInitialized, status)
	assert.Equal(t, 0, g.NodeCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "graph.json")
	fs := NewFileStore(path)

	in := testGraph(t)
	require.NoError(t, fs.Save(ctx, in))

	out, status, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, graph.StatusLoaded, status)

	assert.Equal(t, in.NodeIDs(), out.NodeIDs(), "node insertion order must survive")
	for _, id := range in.NodeIDs() {
		want := in.Node(id)
		got := out.Node(id)
		require.NotNil(t, got, "node %s missing after reload", id)
		assert.Equal(t, want.Label, got.Label)
		assert.True(t, want.Attributes.Equal(got.Attributes),
			"attributes for %s: want %s, got %s", id, want.Attributes, got.Attributes)
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt),
			"timestamp for %s: want %v, got %v", id, want.UpdatedAt, got.UpdatedAt)
	}

	wantEdges := in.Edges()
	gotEdges := out.Edges()
	require.Len(t, gotEdges, len(wantEdges))
	for i := range wantEdges {
		assert.Equal(t, wantEdges[i].Source, gotEdges[i].Source)
		assert.Equal(t, wantEdges[i].Relation, gotEdges[i].Relation)
		assert.Equal(t, wantEdges[i].Target, gotEdges[i].Target)
		assert.True(t, wantEdges[i].Metadata.Equal(gotEdges[i].Metadata))
		assert.True(t, wantEdges[i].Timestamp.Equal(gotEdges[i].Timestamp))
	}
}

func TestFileStoreWireFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	fs := NewFileStore(path)
	require.NoError(t, fs.Save(ctx, testGraph(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Nodes   map[string]json.RawMessage `json:"nodes"`
		Edges   []map[string]any           `json:"edges"`
		Version int                        `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 1, doc.Version)
	assert.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Edges, 1)

	ts, ok := doc.Edges[0]["timestamp"].(float64)
	require.True(t, ok, "timestamps must encode as float seconds")
	assert.InDelta(t, 1700000002.5, ts, 1e-6)
}

func TestFileStoreRecoversFromCorruption(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	fs := NewFileStore(path)
	g, status, err := fs.Load(ctx)
	require.NoError(t, err, "corruption must not be a hard failure")
	assert.Equal(t, graph.StatusRecovered, status)
	assert.Equal(t, 0, g.NodeCount())
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := NewFileStore(filepath.Join(dir, "graph.json"))

	for i := 0; i < 5; i++ {
		require.NoError(t, fs.Save(ctx, testGraph(t)))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"),
			"temp file left behind: %s", e.Name())
	}
	require.Len(t, entries, 1)
}

func TestFileStoreSaveFailureKeepsCanonicalFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.json")
	fs := NewFileStore(path)
	require.NoError(t, fs.Save(ctx, testGraph(t)))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A blocking regular file where the directory should be makes the next
	// writer fail before it can touch any canonical state.
	blocked := NewFileStore(filepath.Join(path, "nested", "graph.json"))
	require.Error(t, blocked.Save(ctx, testGraph(t)))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed save must leave the canonical file intact")

	out, status, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, graph.StatusLoaded, status)
	assert.Equal(t, 2, out.NodeCount())
}

func TestFileStorePersistedEdgeCap(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "graph.json")
	fs := NewFileStore(path)

	g := graph.NewGraph()
	for i := 0; i < 2500; i++ {
		g.Append(graph.NewEdge("host:a", "R"+strconv.Itoa(i), "host:b"))
	}
	require.NoError(t, fs.Save(ctx, g))

	out, _, err := fs.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, graph.DefaultMaxEdges, out.EdgeCount(),
		"the persisted edge log must never exceed the cap")
	edges := out.Edges()
	assert.Equal(t, "R500", edges[0].Relation)
	assert.Equal(t, "R2499", edges[len(edges)-1].Relation)
}
