package config

import (
	"testing"

	"github.com/rdswitchboard/graph-exporter/pkg/export"
)

func validConfig() *Config {
	return &Config{
		Store:       "bolt://localhost:7687",
		Output:      "out",
		MaxLevel:    2,
		MaxNodes:    100,
		MaxSiblings: 10,
		Port:        8080,
		Sources: map[string]export.SourceRule{
			"ands": {Key: "local_id"},
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxLevel != 2 || cfg.MaxNodes != 100 || cfg.MaxSiblings != 10 {
		t.Errorf("Unexpected default limits: %d/%d/%d", cfg.MaxLevel, cfg.MaxNodes, cfg.MaxSiblings)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing store", func(c *Config) { c.Store = "" }, true},
		{"no destination", func(c *Config) { c.Output = "" }, true},
		{"bucket without prefix", func(c *Config) { c.Output = ""; c.Bucket = "b" }, true},
		{"bucket with prefix", func(c *Config) { c.Output = ""; c.Bucket = "b"; c.Prefix = "rda/" }, false},
		{"negative limit", func(c *Config) { c.MaxNodes = -1 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"no sources", func(c *Config) { c.Sources = nil }, true},
		{"source without key", func(c *Config) {
			c.Sources = map[string]export.SourceRule{"ands": {}}
		}, true},
		{"bad web port", func(c *Config) { c.WebMode = true; c.Port = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestBoltStore(t *testing.T) {
	tests := []struct {
		store string
		want  bool
	}{
		{"bolt://localhost:7687", true},
		{"neo4j+s://example.com", true},
		{"graph.json", false},
		{"/data/snapshots/graph.json", false},
	}

	for _, tt := range tests {
		cfg := &Config{Store: tt.store}
		if got := cfg.BoltStore(); got != tt.want {
			t.Errorf("BoltStore(%q) = %v, want %v", tt.store, got, tt.want)
		}
	}
}

func TestSourceSetCarriesLabels(t *testing.T) {
	cfg := validConfig()
	set := cfg.SourceSet()
	if len(set) != 1 || set[0].Label != "ands" || set[0].Key != "local_id" {
		t.Errorf("Unexpected source set: %+v", set)
	}
}
