// Package retrieval implements the Hybrid Retriever (spec §4.2): combining
// dense vector similarity with sparse lexical rank into one ordered result
// set, with deterministic tie-breaks and configuration-resolved weights.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/queryparse"
	"github.com/shopsage/shopsage/internal/store"
)

// CatalogStore is the subset of the Catalog Store the Hybrid Retriever
// depends on. Both the direct store.Store and the mediated tool-server
// transport satisfy it, so retrieval behavior is stable across Phase 1/2.
type CatalogStore interface {
	LexicalSearch(ctx context.Context, f store.Filter, limit int) ([]models.ScoredProduct, error)
	VectorCandidates(ctx context.Context, queryVector []float32, k int) ([]models.ScoredProduct, error)
	BleveRankFor(cleanedText string, candidateIDs []string) (map[string]float64, error)
}

// Config resolves the weights and candidate sizing the retriever uses; these
// must be fixed at construction time, never re-read per call (spec §4.2).
type Config struct {
	SemanticWeight      float64
	LexicalWeight       float64
	CandidateMultiplier int
	CandidateMinimum    int
}

// Retriever is the Hybrid Retriever.
type Retriever struct {
	store  CatalogStore
	config Config
}

// New constructs a Retriever bound to store and the resolved weight/candidate
// configuration.
func New(catalogStore CatalogStore, cfg Config) *Retriever {
	return &Retriever{store: catalogStore, config: cfg}
}

func filterFromParsed(pq *queryparse.ParsedQuery) store.Filter {
	return store.Filter{
		Category:    pq.Category,
		HasCategory: pq.HasCategory,
		Brand:       pq.Brand,
		HasBrand:    pq.HasBrand,
		PriceMax:    pq.PriceMax,
		HasPriceMax: pq.HasPriceMax,
		CleanedText: pq.CleanedText,
	}
}

// Retrieve implements operation retrieve(query, query_vector?, limit) ->
// list[ScoredProduct]. queryVector may be nil, selecting the lexical-only
// path (4.2a); otherwise the hybrid path (4.2b) runs.
func (r *Retriever) Retrieve(ctx context.Context, query *queryparse.ParsedQuery, queryVector []float32, limit int) ([]models.ScoredProduct, error) {
	if queryVector == nil {
		return r.retrieveLexical(ctx, query, limit)
	}
	return r.retrieveHybrid(ctx, query, queryVector, limit)
}

func (r *Retriever) retrieveLexical(ctx context.Context, query *queryparse.ParsedQuery, limit int) ([]models.ScoredProduct, error) {
	results, err := r.store.LexicalSearch(ctx, filterFromParsed(query), limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		return []models.ScoredProduct{}, nil
	}
	return results, nil
}

func (r *Retriever) retrieveHybrid(ctx context.Context, query *queryparse.ParsedQuery, queryVector []float32, limit int) ([]models.ScoredProduct, error) {
	k := r.config.CandidateMinimum
	if mult := r.config.CandidateMultiplier * limit; mult > k {
		k = mult
	}

	candidates, err := r.store.VectorCandidates(ctx, queryVector, k)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []models.ScoredProduct{}, nil
	}

	filter := filterFromParsed(query)
	filtered := candidates[:0]
	for _, c := range candidates {
		if passesFilter(c.Product, filter) {
			filtered = append(filtered, c)
		}
	}
	candidates = filtered
	if len(candidates) == 0 {
		return []models.ScoredProduct{}, nil
	}

	var ranks map[string]float64
	if query.CleanedText != "" {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.Product.ProductID
		}
		ranks, err = r.store.BleveRankFor(query.CleanedText, ids)
		if err != nil {
			return nil, fmt.Errorf("lexical rank: %w", err)
		}
	}

	maxRank := 0.0
	for _, rank := range ranks {
		if rank > maxRank {
			maxRank = rank
		}
	}

	for i := range candidates {
		c := &candidates[i]
		c.SemanticScore = clamp01(c.SemanticScore)
		if maxRank > 0 {
			c.LexicalScore = clamp01(ranks[c.Product.ProductID] / maxRank)
		} else {
			c.LexicalScore = 0
		}
		c.Score = r.config.SemanticWeight*c.SemanticScore + r.config.LexicalWeight*c.LexicalScore
		c.Score = clamp01(c.Score)
		similarity := c.SemanticScore
		c.Similarity = &similarity
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.SemanticScore != b.SemanticScore {
			return a.SemanticScore > b.SemanticScore
		}
		return a.Product.ProductID < b.Product.ProductID
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func passesFilter(p *models.Product, f store.Filter) bool {
	if f.HasCategory && p.Category != f.Category {
		return false
	}
	if f.HasBrand && !equalFold(p.Brand, f.Brand) {
		return false
	}
	if f.HasPriceMax && p.Price > f.PriceMax {
		return false
	}
	return true
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
