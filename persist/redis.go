package persist

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zero-day-ai/kgraph/graph"
)

// DefaultRedisKey is the key the graph document is stored under when none
// is configured.
const DefaultRedisKey = "kgraph:knowledge_graph"

// RedisOptions configures the Redis connection for a RedisStore.
type RedisOptions struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string

	// Key is the key holding the graph document. Defaults to
	// DefaultRedisKey.
	Key string

	// TLS configuration for secure connections.
	TLS *tls.Config

	// ConnectTimeout is the maximum time to wait for connection
	// establishment. Defaults to 5s.
	ConnectTimeout time.Duration

	// ReadTimeout is the maximum time to wait for read operations.
	// Defaults to 30s.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait for write operations.
	// Defaults to 5s.
	WriteTimeout time.Duration
}

// RedisStore persists the graph as a single JSON document under one Redis
// key. SET replaces the value atomically on the server, so readers see
// either the previous or the new complete document. Intended for operators
// running agent fleets off shared infrastructure; the single-writer
// assumption of the store still applies.
type RedisStore struct {
	client *redis.Client
	key    string
	log    *slog.Logger
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = DefaultRedisKey
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		key:    opts.Key,
		log:    slog.Default(),
	}, nil
}

// WithRedisLogger sets the structured logger on an existing store and
// returns it for chaining.
func (rs *RedisStore) WithRedisLogger(log *slog.Logger) *RedisStore {
	if log != nil {
		rs.log = log
	}
	return rs
}

// Load fetches and decodes the graph document. A missing key yields a
// fresh graph with StatusInitialized; an undecodable document yields a
// fresh graph with StatusRecovered. Connectivity failures are returned as
// errors, since silently starting fresh over a reachable-but-flaky backend
// would clobber prior intelligence on the next save.
func (rs *RedisStore) Load(ctx context.Context) (*graph.Graph, graph.LoadStatus, error) {
	data, err := rs.client.Get(ctx, rs.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return graph.NewGraph(), graph.StatusInitialized, nil
		}
		return nil, graph.StatusUnknown, fmt.Errorf("fetch graph from redis: %w", err)
	}
	g, err := decodeGraph(data)
	if err != nil {
		rs.log.Warn("kgraph: graph document in redis corrupt, starting fresh",
			"key", rs.key, "error", err)
		return graph.NewGraph(), graph.StatusRecovered, nil
	}
	return g, graph.StatusLoaded, nil
}

// Save replaces the graph document under the configured key.
func (rs *RedisStore) Save(ctx context.Context, g *graph.Graph) error {
	data, err := encodeGraph(g)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if err := rs.client.Set(ctx, rs.key, data, 0).Err(); err != nil {
		return fmt.Errorf("store graph in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
