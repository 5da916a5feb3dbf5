package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  database_path: "test.db"
hybrid:
  semantic_weight: 0.7
  lexical_weight: 0.3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Transport != "direct" {
		t.Errorf("default transport: got %s", cfg.Store.Transport)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
store:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  database_path: "./data/db/catalog.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "catalog.db")
	if cfg.Store.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Store.DatabasePath, wantDB)
	}
}

func TestLoad_rejectsBadHybridWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
hybrid:
  semantic_weight: 0.5
  lexical_weight: 0.6
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for hybrid weights that do not sum to 1.0")
	}
}

func TestLoad_rejectsBadTransport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  store_transport: "carrier_pigeon"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unrecognized store_transport")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Store.Transport != "direct" {
		t.Errorf("default transport: got %s", cfg.Store.Transport)
	}
	if cfg.Embedding.Dimensions != 1024 {
		t.Errorf("default embedding_dim: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Hybrid.SemanticWeight != 0.7 || cfg.Hybrid.LexicalWeight != 0.3 {
		t.Errorf("default hybrid weights: got semantic=%f lexical=%f", cfg.Hybrid.SemanticWeight, cfg.Hybrid.LexicalWeight)
	}
	if cfg.Hybrid.CandidateMultiplier != 4 || cfg.Hybrid.CandidateMinimum != 50 {
		t.Errorf("default candidate sizing: got multiplier=%d minimum=%d", cfg.Hybrid.CandidateMultiplier, cfg.Hybrid.CandidateMinimum)
	}
	if cfg.Order.TaxRate != 0.085 || cfg.Order.FreeShippingThreshold != 75.00 || cfg.Order.FlatShipping != 7.99 {
		t.Errorf("default order pricing: got %+v", cfg.Order)
	}
	if cfg.Turn.MaxToolCalls != 5 || cfg.Turn.TurnDeadlineMS != 30000 {
		t.Errorf("default turn config: got %+v", cfg.Turn)
	}
}

func TestApplyDefaults_doesNotOverrideExplicitWeights(t *testing.T) {
	cfg := &Config{Hybrid: HybridConfig{SemanticWeight: 0.9, LexicalWeight: 0.1}}
	ApplyDefaults(cfg)
	if cfg.Hybrid.SemanticWeight != 0.9 || cfg.Hybrid.LexicalWeight != 0.1 {
		t.Errorf("explicit weights were overridden: got %+v", cfg.Hybrid)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Store: StoreConfig{DatabasePath: "/tmp/db", Transport: "direct"},
		Hybrid: HybridConfig{
			SemanticWeight:      0.7,
			LexicalWeight:       0.3,
			CandidateMultiplier: 4,
			CandidateMinimum:    50,
		},
		Turn: TurnConfig{MaxToolCalls: 5, TurnDeadlineMS: 30000},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Store.DatabasePath != "/tmp/db" {
		t.Errorf("loaded database_path: got %s", loaded.Store.DatabasePath)
	}
}
