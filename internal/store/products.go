package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/shopsageerr"
)

// Filter carries the hard constraints a ParsedQuery places on retrieval; it
// mirrors queryparse.ParsedQuery's optional fields without importing that
// package, keeping store free of a dependency on query understanding.
type Filter struct {
	Category    models.Category
	HasCategory bool
	Brand       string
	HasBrand    bool
	PriceMax    float64
	HasPriceMax bool
	CleanedText string
}

// PutProduct inserts or replaces a product row, reindexes its full-text
// fields, and (when it has an embedding) its vector. Used by catalog seeding,
// which is otherwise out of scope for the core.
func (s *Store) PutProduct(ctx context.Context, p *models.Product) error {
	sizesJSON, err := json.Marshal(p.AvailableSizes)
	if err != nil {
		return fmt.Errorf("marshal available_sizes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (product_id, name, brand, description, category, price, available_sizes, inventory, image_uri)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_id) DO UPDATE SET
		   name=excluded.name, brand=excluded.brand, description=excluded.description,
		   category=excluded.category, price=excluded.price, available_sizes=excluded.available_sizes,
		   inventory=excluded.inventory, image_uri=excluded.image_uri`,
		p.ProductID, p.Name, p.Brand, p.Description, string(p.Category), p.Price, string(sizesJSON), p.Inventory, p.ImageURI,
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	if err := s.indexProduct(p.ProductID, p.Name, p.Description); err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	if p.HasEmbedding() {
		if err := s.vectorIdx.Add(ctx, []string{p.ProductID}, [][]float32{p.Embedding}); err != nil {
			return fmt.Errorf("index product embedding: %w", err)
		}
	}
	return nil
}

// GetProduct returns a product by ID, or a not_found error.
func (s *Store) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT product_id, name, brand, description, category, price, available_sizes, inventory, image_uri
		 FROM products WHERE product_id = ?`, productID)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, shopsageerr.NotFound("product", productID)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetProductsByIDs returns products for the given IDs, in no particular
// order; missing IDs are silently omitted.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(
		`SELECT product_id, name, brand, description, category, price, available_sizes, inventory, image_uri
		 FROM products WHERE product_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	var category, sizesJSON string
	if err := row.Scan(&p.ProductID, &p.Name, &p.Brand, &p.Description, &category,
		&p.Price, &sizesJSON, &p.Inventory, &p.ImageURI); err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	if sizesJSON != "" {
		if err := json.Unmarshal([]byte(sizesJSON), &p.AvailableSizes); err != nil {
			return nil, fmt.Errorf("unmarshal available_sizes: %w", err)
		}
	}
	return &p, nil
}

// LexicalSearch implements the Hybrid Retriever's lexical-only path (spec
// §4.2a): SQL filters derived from Filter, plus a case-insensitive substring
// match of CleanedText against name and description when CleanedText is
// non-empty. Results are ordered by bleve rank against CleanedText
// (descending), falling back to ascending product_id when CleanedText is
// empty or ranks tie.
func (s *Store) LexicalSearch(ctx context.Context, f Filter, limit int) ([]models.ScoredProduct, error) {
	query := `SELECT product_id, name, brand, description, category, price, available_sizes, inventory, image_uri
	          FROM products WHERE 1=1`
	var args []any
	if f.HasCategory {
		query += " AND category = ?"
		args = append(args, string(f.Category))
	}
	if f.HasBrand {
		query += " AND LOWER(brand) = LOWER(?)"
		args = append(args, f.Brand)
	}
	if f.HasPriceMax {
		query += " AND price <= ?"
		args = append(args, f.PriceMax)
	}
	if f.CleanedText != "" {
		query += " AND (LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')"
		pattern := "%" + escapeLike(strings.ToLower(f.CleanedText)) + "%"
		args = append(args, pattern, pattern)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}
	defer rows.Close()

	var products []*models.Product
	var ids []string
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}

	ranks, err := s.bleveRank(f.CleanedText, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}

	scored := make([]models.ScoredProduct, len(products))
	for i, p := range products {
		scored[i] = models.ScoredProduct{
			Product:      p,
			LexicalScore: ranks[p.ProductID],
			Score:        ranks[p.ProductID],
		}
	}

	sortLexical(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func sortLexical(scored []models.ScoredProduct) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.LexicalScore != b.LexicalScore {
			return a.LexicalScore > b.LexicalScore
		}
		return a.Product.ProductID < b.Product.ProductID
	})
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

// VectorCandidates returns up to k products ranked by semantic similarity to
// queryVector, restricted to products carrying an embedding. SemanticScore is
// cosine similarity (the stored index uses inner product over unit vectors).
func (s *Store) VectorCandidates(ctx context.Context, queryVector []float32, k int) ([]models.ScoredProduct, error) {
	hits, err := s.vectorIdx.Search(ctx, queryVector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(hits))
	scoreByID := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
		scoreByID[h.ID] = h.Score
	}

	products, err := s.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}

	scored := make([]models.ScoredProduct, 0, len(products))
	for _, p := range products {
		scored = append(scored, models.ScoredProduct{
			Product:       p,
			SemanticScore: clamp01(scoreByID[p.ProductID]),
		})
	}
	return scored, nil
}

// BleveRankFor returns the raw full-text rank of cleanedText against each of
// candidateIDs, for use by the Hybrid Retriever's fusion step.
func (s *Store) BleveRankFor(cleanedText string, candidateIDs []string) (map[string]float64, error) {
	return s.bleveRank(cleanedText, candidateIDs)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// VectorIndexSize exposes the current number of indexed embeddings, mostly
// useful for tests and health checks.
func (s *Store) VectorIndexSize() int {
	return s.vectorIdx.Size()
}
