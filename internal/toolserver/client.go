package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/shopsageerr"
	"github.com/shopsage/shopsage/internal/store"
)

// Client is the Catalog Store as seen through the mediated tool-server
// transport. It satisfies the same narrow interfaces the direct store.Store
// does (retrieval.CatalogStore, workers.ProductStore), so swapping Phase 1's
// store.Store for a Client changes only which Transport carries the calls.
// It has no order methods and does not satisfy workers.OrderStore.
type Client struct {
	transport Transport
}

// NewClient wraps transport, which must already be connected.
func NewClient(transport Transport) *Client {
	return &Client{transport: transport}
}

// LexicalSearch mirrors store.Store.LexicalSearch's query shape exactly
// (spec §4.2a), but issues it through RunQuery instead of a direct
// connection, and re-ranks with the transport's own BleveRankFor.
func (c *Client) LexicalSearch(ctx context.Context, f store.Filter, limit int) ([]models.ScoredProduct, error) {
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

	rows, err := c.transport.RunQuery(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}
	defer rows.Close()

	var products []*models.Product
	var ids []string
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ProductID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}

	ranks, err := c.transport.BleveRankFor(f.CleanedText, ids)
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

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.LexicalScore != b.LexicalScore {
			return a.LexicalScore > b.LexicalScore
		}
		return a.Product.ProductID < b.Product.ProductID
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// VectorCandidates forwards to the transport's own vector RPC (spec §9: the
// vector index is not carried as SQL in this stack).
func (c *Client) VectorCandidates(ctx context.Context, queryVector []float32, k int) ([]models.ScoredProduct, error) {
	return c.transport.VectorCandidates(ctx, queryVector, k)
}

// BleveRankFor forwards to the transport's own full-text rank RPC.
func (c *Client) BleveRankFor(cleanedText string, candidateIDs []string) (map[string]float64, error) {
	return c.transport.BleveRankFor(cleanedText, candidateIDs)
}

// GetProduct satisfies workers.ProductStore over the mediated transport.
func (c *Client) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	rows, err := c.transport.RunQuery(ctx,
		`SELECT product_id, name, brand, description, category, price, available_sizes, inventory, image_uri
		 FROM products WHERE product_id = ?`, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrRetrieverUnavailable, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, shopsageerr.NotFound("product", productID)
	}
	p, err := scanProductRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProductRow(row rowScanner) (*models.Product, error) {
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

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
