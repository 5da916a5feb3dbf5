// Package store provides the Catalog Store (L3): a SQLite-backed relational
// store for products and orders, paired with a bleve full-text index and an
// in-memory ANN index over product embeddings.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/shopsage/shopsage/internal/vector"
)

// Store is the Catalog Store. It owns all product and order state.
type Store struct {
	db         *sql.DB
	bleveIndex bleve.Index
	vectorIdx  vector.VectorIndex
}

// Open creates or opens the SQLite database at dbPath, the bleve index at
// blevePath, and an in-memory vector index of the given dimensions, and
// initializes the relational schema.
func Open(dbPath, blevePath string, dimensions int) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	// A busy timeout lets concurrent order-placement transactions queue
	// instead of failing outright with SQLITE_BUSY, so contention resolves
	// to a real inventory check rather than a spurious store error.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	// SQLite allows only one writer at a time; route all order-placement
	// transactions through a single connection so they serialize instead of
	// racing across pooled connections and returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	bleveIdx, err := openBleveIndex(blevePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open bleve index: %w", err)
	}

	vecIdx, err := vector.NewMemoryIndex(dimensions)
	if err != nil {
		_ = db.Close()
		_ = bleveIdx.Close()
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	return &Store{db: db, bleveIndex: bleveIdx, vectorIdx: vecIdx}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		product_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		brand TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		price REAL NOT NULL,
		available_sizes TEXT NOT NULL DEFAULT '[]',
		inventory INTEGER NOT NULL DEFAULT 0,
		image_uri TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);
	CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand);
	CREATE INDEX IF NOT EXISTS idx_products_price ON products(price);

	CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		subtotal REAL NOT NULL,
		tax REAL NOT NULL,
		shipping REAL NOT NULL,
		total REAL NOT NULL,
		status TEXT NOT NULL,
		estimated_delivery TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_customer_id ON orders(customer_id);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		product_id TEXT NOT NULL,
		size TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		PRIMARY KEY (order_id, seq),
		FOREIGN KEY (order_id) REFERENCES orders(order_id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Execute runs a parameterized SQL statement or query against the store,
// matching the narrow `execute(sql, params) -> rows` contract (spec §6). All
// typed convenience methods on Store are implemented in terms of this same
// underlying connection; Execute exists for callers (notably the mediated
// tool-server transport) that only need the literal contract.
func (s *Store) Execute(ctx context.Context, query string, params ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, params...)
}

// Close releases the database connection, bleve index, and vector index.
func (s *Store) Close() error {
	var firstErr error
	if err := s.db.Close(); err != nil {
		firstErr = err
	}
	if err := s.bleveIndex.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.vectorIdx.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
