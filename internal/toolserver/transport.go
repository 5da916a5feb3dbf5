// Package toolserver implements the mediated tool-server transport (spec
// §6): a second path to the Catalog Store, selected in Phase 2, exposing
// connect(...) and run_query(sql, params) with the same semantics as the
// direct store.Store.Execute. Retrieval and worker behavior must be stable
// under substitution of this transport for the direct one (spec §4.8), so
// Client satisfies the same CatalogStore and ProductStore interfaces the
// direct store does. Order placement and status lookups are not carried
// over this transport.
package toolserver

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopsage/shopsage/internal/models"
)

// Transport is the mediated connection contract: connect once, then run
// parameterized queries against it. A real deployment would carry this over
// a network RPC; LocalTransport below collocates it with the Catalog Store
// for this core, since wire marshaling is out of scope here.
type Transport interface {
	Connect(ctx context.Context) error
	RunQuery(ctx context.Context, query string, params ...any) (*sql.Rows, error)
	VectorCandidates(ctx context.Context, queryVector []float32, k int) ([]models.ScoredProduct, error)
	BleveRankFor(cleanedText string, candidateIDs []string) (map[string]float64, error)
	Close() error
}

// relationalStore is the subset of store.Store's relational surface the
// mediated transport needs: the literal execute(sql, params) contract plus
// the two non-relational index operations (full-text rank, vector search)
// that this stack keeps outside SQL (spec §9 notes the persisted schema is
// design-level; this core substitutes bleve + an in-memory ANN index for
// tsvector + a vector column, so those two operations are named RPCs rather
// than SQL text).
type relationalStore interface {
	Execute(ctx context.Context, query string, params ...any) (*sql.Rows, error)
	VectorCandidates(ctx context.Context, queryVector []float32, k int) ([]models.ScoredProduct, error)
	BleveRankFor(cleanedText string, candidateIDs []string) (map[string]float64, error)
}

// LocalTransport implements Transport over an in-process Catalog Store. It
// exists so Phase 2 exercises a genuinely distinct code path from Phase 1
// (every call crosses the Transport interface boundary instead of calling
// the store directly) without standing up a real network listener.
type LocalTransport struct {
	store     relationalStore
	connected bool
}

// NewLocalTransport wraps store for mediated access.
func NewLocalTransport(store relationalStore) *LocalTransport {
	return &LocalTransport{store: store}
}

// Connect establishes the mediated session. LocalTransport has nothing to
// dial, but still enforces call-after-connect so a caller that skips it
// fails the same way a real network transport would.
func (t *LocalTransport) Connect(_ context.Context) error {
	t.connected = true
	return nil
}

func (t *LocalTransport) RunQuery(ctx context.Context, query string, params ...any) (*sql.Rows, error) {
	if !t.connected {
		return nil, fmt.Errorf("toolserver: run_query called before connect")
	}
	return t.store.Execute(ctx, query, params...)
}

func (t *LocalTransport) VectorCandidates(ctx context.Context, queryVector []float32, k int) ([]models.ScoredProduct, error) {
	if !t.connected {
		return nil, fmt.Errorf("toolserver: vector_candidates called before connect")
	}
	return t.store.VectorCandidates(ctx, queryVector, k)
}

func (t *LocalTransport) BleveRankFor(cleanedText string, candidateIDs []string) (map[string]float64, error) {
	if !t.connected {
		return nil, fmt.Errorf("toolserver: bleve_rank called before connect")
	}
	return t.store.BleveRankFor(cleanedText, candidateIDs)
}

func (t *LocalTransport) Close() error {
	t.connected = false
	return nil
}
