// Package component provides loading and parsing of runtime.yaml
// configuration files. Runtime configurations define memoization bounds,
// the introspection record store, and id-generation settings; functional
// options on the runtime override anything set here.
package component

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents a runtime.yaml configuration file.
type Config struct {
	// Memo configures the memoization layer.
	Memo *MemoConfig `yaml:"memo,omitempty"`

	// RecordStore configures the external introspection history store.
	RecordStore *RecordStoreConfig `yaml:"record_store,omitempty"`

	// Introspection configures the compiler's tap insertion.
	Introspection *IntrospectionConfig `yaml:"introspection,omitempty"`

	// Seed seeds the runtime's node-id generator; zero picks a fixed
	// default, keeping id streams reproducible.
	Seed uint64 `yaml:"seed,omitempty"`
}

// MemoConfig bounds the context-keyed caches.
type MemoConfig struct {
	// Bound is the per-cache entry limit; entries beyond it evict
	// least-recently-used first.
	Bound int `yaml:"bound"`
}

// RecordStoreConfig connects the Redis-backed introspection history.
type RecordStoreConfig struct {
	// URL is the Redis connection string (e.g. "redis://localhost:6379").
	// Empty disables the external store.
	URL string `yaml:"url"`

	// HistoryCap bounds the records retained per node.
	HistoryCap int `yaml:"history_cap,omitempty"`

	// ConnectTimeout is the connection establishment limit.
	ConnectTimeout time.Duration `yaml:"connect_timeout,omitempty"`
}

// IntrospectionConfig controls tap insertion during compilation.
type IntrospectionConfig struct {
	// MonitorAll inserts a record tap around every node instead of only
	// flagged ones.
	MonitorAll bool `yaml:"monitor_all"`
}

// Load reads and parses a runtime.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("component: read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses runtime.yaml content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("component: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Memo != nil && c.Memo.Bound < 0 {
		return fmt.Errorf("component: memo.bound must be non-negative, got %d", c.Memo.Bound)
	}
	if c.RecordStore != nil && c.RecordStore.HistoryCap < 0 {
		return fmt.Errorf("component: record_store.history_cap must be non-negative, got %d", c.RecordStore.HistoryCap)
	}
	return nil
}
