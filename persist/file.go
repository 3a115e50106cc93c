package persist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/zero-day-ai/kgraph/graph"
)

// FileStore persists the graph as a JSON document at a fixed path.
//
// Save is crash-safe: the document is written to a uniquely named
// temporary file in the same directory, synced, and atomically renamed
// over the canonical path. A reader opening the file at any moment sees
// either the previous complete state or the new complete state, never a
// partial write. The path is exclusively owned by one store per process;
// no cross-process locking is provided.
type FileStore struct {
	path string
	log  *slog.Logger
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithFileLogger sets the structured logger. Defaults to slog.Default().
func WithFileLogger(log *slog.Logger) FileOption {
	return func(fs *FileStore) {
		if log != nil {
			fs.log = log
		}
	}
}

// NewFileStore creates a file-backed persister for the given path. The
// parent directory is created on first save if missing.
func NewFileStore(path string, opts ...FileOption) *FileStore {
	fs := &FileStore{
		path: path,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Path returns the canonical file path.
func (fs *FileStore) Path() string { return fs.path }

// Load reads and decodes the persisted graph. An absent file yields a
// fresh graph with StatusInitialized; an unreadable or undecodable file
// yields a fresh graph with StatusRecovered and a diagnostic, since losing
// best-effort intelligence is preferable to halting the operation.
func (fs *FileStore) Load(ctx context.Context) (*graph.Graph, graph.LoadStatus, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return graph.NewGraph(), graph.StatusInitialized, nil
		}
		fs.log.Warn("kgraph: failed to read graph file, starting fresh",
			"path", fs.path, "error", err)
		return graph.NewGraph(), graph.StatusRecovered, nil
	}
	g, err := decodeGraph(data)
	if err != nil {
		fs.log.Warn("kgraph: graph file corrupt, starting fresh",
			"path", fs.path, "error", err)
		return graph.NewGraph(), graph.StatusRecovered, nil
	}
	return g, graph.StatusLoaded, nil
}

// Save atomically replaces the canonical file with the serialized graph.
func (fs *FileStore) Save(ctx context.Context, g *graph.Graph) error {
	data, err := encodeGraph(g)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph directory: %w", err)
	}

	// Unique suffix so two savers never share a temp file.
	tmp := fs.path + "." + uuid.NewString() + ".tmp"
	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write graph temp file: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace graph file: %w", err)
	}
	fs.log.Debug("kgraph: graph persisted", "path", fs.path, "bytes", len(data))
	return nil
}

func writeAndSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
