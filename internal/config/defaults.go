package config

// ApplyDefaults sets default values for any zero values in cfg. Values match
// the defaults pinned for the core components (spec §6).
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Store.DatabasePath == "" {
		cfg.Store.DatabasePath = "/usr/local/var/shopsage/data/db/catalog.db"
	}
	if cfg.Store.BleveIndexPath == "" {
		cfg.Store.BleveIndexPath = "/usr/local/var/shopsage/data/indices/bleve"
	}
	if cfg.Store.VectorIndexPath == "" {
		cfg.Store.VectorIndexPath = "/usr/local/var/shopsage/data/indices/vector"
	}
	if cfg.Store.Transport == "" {
		cfg.Store.Transport = "direct"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/shopsage/data/models/clip-text.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1024
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Hybrid.SemanticWeight == 0 && cfg.Hybrid.LexicalWeight == 0 {
		cfg.Hybrid.SemanticWeight = 0.7
		cfg.Hybrid.LexicalWeight = 0.3
	}
	if cfg.Hybrid.CandidateMultiplier == 0 {
		cfg.Hybrid.CandidateMultiplier = 4
	}
	if cfg.Hybrid.CandidateMinimum == 0 {
		cfg.Hybrid.CandidateMinimum = 50
	}
	if cfg.Order.TaxRate == 0 {
		cfg.Order.TaxRate = 0.085
	}
	if cfg.Order.FreeShippingThreshold == 0 {
		cfg.Order.FreeShippingThreshold = 75.00
	}
	if cfg.Order.FlatShipping == 0 {
		cfg.Order.FlatShipping = 7.99
	}
	if cfg.Turn.MaxToolCalls == 0 {
		cfg.Turn.MaxToolCalls = 5
	}
	if cfg.Turn.TurnDeadlineMS == 0 {
		cfg.Turn.TurnDeadlineMS = 30000
	}
}
