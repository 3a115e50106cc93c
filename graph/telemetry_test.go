package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStoreTracing(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	p := newMemPersister()
	s := NewStore(p, WithTracerProvider(tp))

	require.NoError(t, s.RecordHostObservation(ctx, HostObservation{IP: "10.0.0.1"}))
	require.NoError(t, s.RecordPortObservation(ctx, PortObservation{IP: "10.0.0.1", Port: 22}))
	_, err := s.FindPaths(ctx, "10.0.0.1", "10.0.0.2")
	require.NoError(t, err)

	names := map[string]int{}
	for _, span := range exporter.GetSpans() {
		names[span.Name]++
	}
	assert.Equal(t, 1, names["kgraph.record_host"])
	assert.Equal(t, 1, names["kgraph.record_port"])
	assert.Equal(t, 1, names["kgraph.find_paths"])
}
