// Package config provides configuration loading and structs for shopsage.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application (spec §6).
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Hybrid    HybridConfig    `yaml:"hybrid"`
	Order     OrderConfig     `yaml:"order"`
	Turn      TurnConfig      `yaml:"turn"`
}

// ServerConfig holds HTTP server settings for cmd/shopsaged.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StoreConfig holds Catalog Store paths and transport selection.
type StoreConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	// Transport selects "direct" or "mediated" (spec §6); Phase 2 always
	// forces "mediated" regardless of this value.
	Transport string `yaml:"store_transport"`
}

// EmbeddingConfig holds Embedding Oracle settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"embedding_dim"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// HybridConfig holds Hybrid Retriever weights and candidate sizing.
type HybridConfig struct {
	SemanticWeight      float64 `yaml:"semantic_weight"`
	LexicalWeight       float64 `yaml:"lexical_weight"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	CandidateMinimum    int     `yaml:"candidate_minimum"`
}

// OrderConfig holds pricing constants for Worker: Order.
type OrderConfig struct {
	TaxRate               float64 `yaml:"tax_rate"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold"`
	FlatShipping          float64 `yaml:"flat_shipping"`
}

// TurnConfig holds Supervisor loop and deadline settings.
type TurnConfig struct {
	MaxToolCalls   int `yaml:"max_tool_calls"`
	TurnDeadlineMS int `yaml:"turn_deadline_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Store.DatabasePath = expandPath(cfg.Store.DatabasePath, configDir)
	cfg.Store.BleveIndexPath = expandPath(cfg.Store.BleveIndexPath, configDir)
	cfg.Store.VectorIndexPath = expandPath(cfg.Store.VectorIndexPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate enforces the invariants spec §6 places on configuration.
func (c *Config) Validate() error {
	sum := c.Hybrid.SemanticWeight + c.Hybrid.LexicalWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("hybrid_weights must sum to 1.0, got %.4f", sum)
	}
	if c.Hybrid.CandidateMultiplier < 1 {
		return fmt.Errorf("candidate_multiplier must be >= 1, got %d", c.Hybrid.CandidateMultiplier)
	}
	if c.Turn.MaxToolCalls < 1 {
		return fmt.Errorf("max_tool_calls must be >= 1, got %d", c.Turn.MaxToolCalls)
	}
	switch c.Store.Transport {
	case "direct", "mediated":
	default:
		return fmt.Errorf("store_transport must be 'direct' or 'mediated', got %q", c.Store.Transport)
	}
	return nil
}

// expandPath converts a path to absolute, relative to configDir when given as "./...".
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
