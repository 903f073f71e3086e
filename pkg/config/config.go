// Package config loads run configuration the layered way: defaults, then an
// optional TOML file, then environment variables, then command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/rdswitchboard/graph-exporter/pkg/export"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "graph-exporter.toml"

// Config holds all configuration for one exporter run
type Config struct {
	// Store is either a bolt URI (bolt://, neo4j://) or the path of a JSON
	// snapshot file.
	Store         string `koanf:"store"`
	StoreUser     string `koanf:"store-user"`
	StorePassword string `koanf:"store-password"`
	StoreDatabase string `koanf:"store-database"`

	Output string `koanf:"output"`
	Bucket string `koanf:"bucket"`
	Prefix string `koanf:"prefix"`
	Public bool   `koanf:"public"`
	Region string `koanf:"region"`

	MaxLevel    int `koanf:"max-level"`
	MaxNodes    int `koanf:"max-nodes"`
	MaxSiblings int `koanf:"max-siblings"`

	TestNode int64 `koanf:"test-node"`
	Workers  int   `koanf:"workers"`

	Watch      bool   `koanf:"watch"`
	WebMode    bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`

	Sources map[string]export.SourceRule `koanf:"sources"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults mirror the original deployment profile.
	defaults := map[string]interface{}{
		"store":        "",
		"output":       "",
		"bucket":       "",
		"prefix":       "",
		"public":       false,
		"region":       "",
		"max-level":    2,
		"max-nodes":    100,
		"max-siblings": 10,
		"test-node":    0,
		"workers":      0,
		"watch":        false,
		"web":          false,
		"port":         8080,
		"verbosity":    "",
		"verbose":      0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - graph-exporter.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider(DefaultFile), toml.Parser())

	// 3. Environment Variables
	// Prefix: GRAPH_EXPORTER_ (e.g., GRAPH_EXPORTER_MAX_LEVEL=3)
	if err := k.Load(env.Provider("GRAPH_EXPORTER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "GRAPH_EXPORTER_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations that cannot produce a run. It is called
// before any store or sink is opened.
func (c *Config) Validate() error {
	if c.Store == "" {
		return fmt.Errorf("store location is required")
	}
	if c.Output == "" && c.Bucket == "" {
		return fmt.Errorf("no output destination: set output directory or bucket")
	}
	if c.Bucket != "" && c.Prefix == "" {
		return fmt.Errorf("bucket key prefix can not be empty")
	}
	if c.MaxLevel < 0 || c.MaxNodes < 0 || c.MaxSiblings < 0 {
		return fmt.Errorf("extraction limits must be non-negative")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.WebMode && (c.Port < 1 || c.Port > 65535) {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return c.SourceSet().Validate()
}

// Limits returns the extraction limits for this run.
func (c *Config) Limits() export.Limits {
	return export.Limits{
		MaxLevel:    c.MaxLevel,
		MaxNodes:    c.MaxNodes,
		MaxSiblings: c.MaxSiblings,
	}
}

// SourceSet returns the ordered per-label source rules.
func (c *Config) SourceSet() export.SourceSet {
	return export.NewSourceSet(c.Sources)
}

// BoltStore reports whether the store location is a bolt URI rather than a
// snapshot file path.
func (c *Config) BoltStore() bool {
	for _, scheme := range []string{"bolt://", "bolt+s://", "neo4j://", "neo4j+s://"} {
		if strings.HasPrefix(c.Store, scheme) {
			return true
		}
	}
	return false
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
