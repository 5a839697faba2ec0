// Package config provides configuration loading and management for the
// data model service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendKV     = "kv"
	BackendSPARQL = "sparql"
	BackendMemory = "memory"
)

// Config represents the complete service configuration
type Config struct {
	// Namespace is the base IRI of every model
	Namespace string `yaml:"namespace"`
	// ResourceSeparator joins model URIs and resource identifiers: "/" or "#"
	ResourceSeparator string `yaml:"resource_separator"`

	Store       StoreConfig    `yaml:"store"`
	NATS        NATSConfig     `yaml:"nats"`
	Index       IndexConfig    `yaml:"index"`
	Terminology ResolverConfig `yaml:"terminology"`
	CodeList    ResolverConfig `yaml:"codelist"`
	Auth        AuthConfig     `yaml:"auth"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// StoreConfig selects and configures the graph repository
type StoreConfig struct {
	// Backend is kv, sparql or memory
	Backend string `yaml:"backend"`
	// CompareAndSwap makes writes conditional on the revision read
	CompareAndSwap bool         `yaml:"compare_and_swap"`
	KV             KVConfig     `yaml:"kv"`
	SPARQL         SPARQLConfig `yaml:"sparql"`
}

// KVConfig configures the JetStream KV buckets
type KVConfig struct {
	// Bucket holds the model partitions (default: DATAMODEL_GRAPHS)
	Bucket string `yaml:"bucket"`
	// ImportsBucket holds cached external descriptions (default: DATAMODEL_IMPORTS)
	ImportsBucket string `yaml:"imports_bucket"`
	// History is the number of revisions kept per partition
	History uint8 `yaml:"history"`
}

// SPARQLConfig locates a SPARQL 1.1 store
type SPARQLConfig struct {
	QueryEndpoint string        `yaml:"query_endpoint"`
	DataEndpoint  string        `yaml:"data_endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
}

// IndexConfig configures the search index projection
type IndexConfig struct {
	// Backend is kv or memory
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	// PublishGraph also publishes resource triples to the graph ingest stream
	PublishGraph bool `yaml:"publish_graph"`
}

// ResolverConfig configures an external reference resolver
type ResolverConfig struct {
	// Disabled skips resolution entirely
	Disabled         bool          `yaml:"disabled"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
	Parallel         int           `yaml:"parallel"`
}

// AuthConfig configures authorization
type AuthConfig struct {
	// PolicyFile is a YAML grant policy; empty means organization membership only
	PolicyFile string `yaml:"policy_file"`
	// AllowAll disables authorization, for local development
	AllowAll bool `yaml:"allow_all"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address of /metrics (empty = disabled)
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Namespace:         "https://iri.suomi.fi/model/",
		ResourceSeparator: "/",
		Store: StoreConfig{
			Backend: BackendKV,
			KV: KVConfig{
				Bucket:        "DATAMODEL_GRAPHS",
				ImportsBucket: "DATAMODEL_IMPORTS",
				History:       5,
			},
			SPARQL: SPARQLConfig{
				Timeout: 30 * time.Second,
			},
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Index: IndexConfig{
			Backend: BackendKV,
			Bucket:  "DATAMODEL_INDEX",
		},
		Terminology: defaultResolver(),
		CodeList:    defaultResolver(),
	}
}

func defaultResolver() ResolverConfig {
	return ResolverConfig{
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      60 * time.Second,
		Parallel:         4,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if c.ResourceSeparator != "/" && c.ResourceSeparator != "#" {
		return fmt.Errorf("resource_separator must be / or #")
	}
	switch c.Store.Backend {
	case BackendKV, BackendMemory:
	case BackendSPARQL:
		if c.Store.SPARQL.QueryEndpoint == "" || c.Store.SPARQL.DataEndpoint == "" {
			return fmt.Errorf("store.sparql needs query_endpoint and data_endpoint")
		}
	default:
		return fmt.Errorf("store.backend must be kv, sparql or memory")
	}
	switch c.Index.Backend {
	case BackendKV, BackendMemory:
	default:
		return fmt.Errorf("index.backend must be kv or memory")
	}
	if c.NeedsNATS() && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required for the kv backends")
	}
	return nil
}

// NeedsNATS reports whether any configured component talks to JetStream.
func (c *Config) NeedsNATS() bool {
	return c.Store.Backend == BackendKV || c.Index.Backend == BackendKV || c.Index.PublishGraph
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Namespace != "" {
		c.Namespace = other.Namespace
	}
	if other.ResourceSeparator != "" {
		c.ResourceSeparator = other.ResourceSeparator
	}

	// Store
	if other.Store.Backend != "" {
		c.Store.Backend = other.Store.Backend
	}
	if other.Store.CompareAndSwap {
		c.Store.CompareAndSwap = true
	}
	if other.Store.KV.Bucket != "" {
		c.Store.KV.Bucket = other.Store.KV.Bucket
	}
	if other.Store.KV.ImportsBucket != "" {
		c.Store.KV.ImportsBucket = other.Store.KV.ImportsBucket
	}
	if other.Store.KV.History != 0 {
		c.Store.KV.History = other.Store.KV.History
	}
	if other.Store.SPARQL.QueryEndpoint != "" {
		c.Store.SPARQL.QueryEndpoint = other.Store.SPARQL.QueryEndpoint
	}
	if other.Store.SPARQL.DataEndpoint != "" {
		c.Store.SPARQL.DataEndpoint = other.Store.SPARQL.DataEndpoint
	}
	if other.Store.SPARQL.Timeout != 0 {
		c.Store.SPARQL.Timeout = other.Store.SPARQL.Timeout
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Index
	if other.Index.Backend != "" {
		c.Index.Backend = other.Index.Backend
	}
	if other.Index.Bucket != "" {
		c.Index.Bucket = other.Index.Bucket
	}
	if other.Index.PublishGraph {
		c.Index.PublishGraph = true
	}

	c.Terminology.merge(other.Terminology)
	c.CodeList.merge(other.CodeList)

	// Auth
	if other.Auth.PolicyFile != "" {
		c.Auth.PolicyFile = other.Auth.PolicyFile
	}
	if other.Auth.AllowAll {
		c.Auth.AllowAll = true
	}

	// Metrics
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}

func (r *ResolverConfig) merge(other ResolverConfig) {
	if other.Disabled {
		r.Disabled = true
	}
	if other.Timeout != 0 {
		r.Timeout = other.Timeout
	}
	if other.FailureThreshold != 0 {
		r.FailureThreshold = other.FailureThreshold
	}
	if other.OpenTimeout != 0 {
		r.OpenTimeout = other.OpenTimeout
	}
	if other.Parallel != 0 {
		r.Parallel = other.Parallel
	}
}
