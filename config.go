package kgraph

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/kgraph/graph"
)

// DefaultPath is where the graph file lives when no path is configured,
// relative to the working directory of the operator process.
const DefaultPath = "data/graph/knowledge_graph.json"

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("kgraph: invalid config")

// RedisConfig selects the Redis persistence backend when URL is set.
type RedisConfig struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	URL string `yaml:"url"`

	// Key is the Redis key holding the graph document. Defaults to
	// persist.DefaultRedisKey.
	Key string `yaml:"key"`
}

// Config holds the store configuration, loadable from YAML.
type Config struct {
	// Path is the canonical graph file path for the file backend.
	// Ignored when Redis.URL is set.
	Path string `yaml:"path"`

	// Redis, when its URL is set, selects the Redis backend instead of
	// the file backend.
	Redis RedisConfig `yaml:"redis"`

	// MaxEdges caps the edge log. Defaults to graph.DefaultMaxEdges.
	MaxEdges int `yaml:"max_edges"`

	// Scope lists the engagement perimeter: CIDR prefixes, single IPs,
	// or "*". Empty means no scope enforcement unless StrictScope is set.
	Scope []string `yaml:"scope"`

	// StrictScope makes an empty scope fail closed, dropping every host
	// and port observation until scope entries are configured.
	StrictScope bool `yaml:"strict_scope"`
}

// DefaultConfig returns the configuration used when nothing is specified:
// file backend at DefaultPath with the default edge cap and no scope.
func DefaultConfig() Config {
	return Config{
		Path:     DefaultPath,
		MaxEdges: graph.DefaultMaxEdges,
	}
}

// LoadConfig reads a YAML configuration file, applying defaults for
// unspecified fields.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.Path == "" && c.Redis.URL == "" {
		return fmt.Errorf("%w: either path or redis.url must be set", ErrInvalidConfig)
	}
	if c.MaxEdges < 0 {
		return fmt.Errorf("%w: max_edges must not be negative", ErrInvalidConfig)
	}
	if _, err := graph.NewScope(c.Scope...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
