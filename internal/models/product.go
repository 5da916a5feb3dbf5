// Package models defines the core data structures shared across the catalog,
// retrieval, worker, and orchestration packages.
package models

// Category is a closed enumeration of product categories.
type Category string

const (
	CategoryRunningShoes     Category = "Running Shoes"
	CategoryTrainingShoes    Category = "Training Shoes"
	CategoryFitnessEquipment Category = "Fitness Equipment"
	CategoryApparel          Category = "Apparel"
	CategoryAccessories      Category = "Accessories"
	CategoryRecovery         Category = "Recovery"
)

// Categories is the closed set of recognized categories, in declaration order.
// Declaration order matters: the Query Parser matches the first category whose
// keywords appear in a query.
var Categories = []Category{
	CategoryRunningShoes,
	CategoryTrainingShoes,
	CategoryFitnessEquipment,
	CategoryApparel,
	CategoryAccessories,
	CategoryRecovery,
}

// CategoryKeywords maps a category to the keywords that identify it in free text.
// Order within a category's slice does not matter; order of Categories does.
var CategoryKeywords = map[Category][]string{
	CategoryRunningShoes:     {"running shoes", "running shoe", "running sneakers"},
	CategoryTrainingShoes:    {"training shoes", "training shoe", "gym shoes", "gym shoe", "cross trainers"},
	CategoryFitnessEquipment: {"fitness equipment", "fitness gear", "gym equipment", "workout equipment"},
	CategoryApparel:          {"apparel", "clothes", "clothing"},
	CategoryAccessories:      {"accessories", "accessory"},
	CategoryRecovery:         {"recovery products", "recovery gear", "foam roller", "massage gun", "recovery"},
}

// Brands is a static list of brands the Query Parser recognizes by whole-word match.
// Longer names are listed before their substrings so a first whole-word match does
// not need ordering tricks beyond simple containment (e.g. "New Balance" has no
// shorter brand name nested inside it).
var Brands = []string{
	"Nike",
	"Adidas",
	"New Balance",
	"Asics",
	"Brooks",
	"Hoka",
	"Under Armour",
	"Puma",
	"Reebok",
	"Saucony",
}

// Product is an immutable catalog entry.
type Product struct {
	ProductID      string   `json:"product_id" db:"product_id"`
	Name           string   `json:"name" db:"name"`
	Brand          string   `json:"brand" db:"brand"`
	Description    string   `json:"description" db:"description"`
	Category       Category `json:"category" db:"category"`
	Price          float64  `json:"price" db:"price"`
	AvailableSizes []string `json:"available_sizes" db:"available_sizes"`
	Inventory      int      `json:"inventory" db:"inventory"`
	ImageURI       string   `json:"image_uri" db:"image_uri"`
	// Embedding is nil when the product has no vector representation; such
	// products are excluded from semantic results but remain eligible for
	// lexical-only retrieval.
	Embedding []float32 `json:"-" db:"-"`
}

// HasEmbedding reports whether p carries a usable embedding vector.
func (p *Product) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// ScoredProduct pairs a Product with the scores the Hybrid Retriever computed for it.
type ScoredProduct struct {
	Product       *Product `json:"product"`
	Score         float64  `json:"score"`
	SemanticScore float64  `json:"semantic_score"`
	LexicalScore  float64  `json:"lexical_score"`
	// Similarity mirrors SemanticScore for the external RPC schema (spec §6),
	// present only when the retrieval had a query vector.
	Similarity *float64 `json:"similarity,omitempty"`
}
