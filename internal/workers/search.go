// Package workers implements the three specialized Workers the Supervisor
// delegates to (spec §4.3–§4.5). Workers hold no mutable state across turns;
// every call receives an explicit Activity Recorder handle rather than
// reaching for process-wide state.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/embedding"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/queryparse"
	"github.com/shopsage/shopsage/internal/retrieval"
)

const defaultSearchLimit = 5

// SearchResult is the return shape of both text_search and image_search.
type SearchResult struct {
	Products []models.ScoredProduct
	Message  string
}

// SearchWorker is Worker: Search (spec §4.3).
type SearchWorker struct {
	retriever *retrieval.Retriever
	embedder  embedding.Oracle
}

// NewSearchWorker constructs a SearchWorker bound to a Hybrid Retriever and
// an Embedding Oracle.
func NewSearchWorker(retriever *retrieval.Retriever, embedder embedding.Oracle) *SearchWorker {
	return &SearchWorker{retriever: retriever, embedder: embedder}
}

// Tools describes this worker's operations for the Supervisor's tool
// catalog; dispatch itself stays a typed call, not a name-keyed lookup.
func (w *SearchWorker) Tools() []string {
	return []string{"text_search", "image_search"}
}

// TextSearch implements text_search(query, limit) (spec §4.3).
func (w *SearchWorker) TextSearch(ctx context.Context, rec *activity.Recorder, query string, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	parsed := queryparse.Parse(query)

	vector, embeddingErr := w.embedText(ctx, rec, query)
	return w.runRetrieve(ctx, rec, parsed, vector, embeddingErr, limit, "text_search")
}

// ImageSearch implements image_search(image, limit) (spec §4.3). There is no
// lexical component: cleaned_text stays empty and the Hybrid Retriever runs
// semantic-only.
func (w *SearchWorker) ImageSearch(ctx context.Context, rec *activity.Recorder, imageBytes []byte, limit int) (*SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	parsed := &queryparse.ParsedQuery{}

	vector, embeddingErr := w.embedImage(ctx, rec, imageBytes)
	return w.runRetrieve(ctx, rec, parsed, vector, embeddingErr, limit, "image_search")
}

func (w *SearchWorker) embedText(ctx context.Context, rec *activity.Recorder, query string) ([]float32, error) {
	start := time.Now()
	vector, err := w.embedder.EmbedText(ctx, query)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, err
	}
	rec.Record(&models.ActivityEvent{
		Kind:      models.ActivityEmbedding,
		Title:     "Embedded search query",
		LatencyMS: latency,
	})
	return vector, nil
}

func (w *SearchWorker) embedImage(ctx context.Context, rec *activity.Recorder, imageBytes []byte) ([]float32, error) {
	start := time.Now()
	vector, err := w.embedder.EmbedImage(ctx, imageBytes)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return nil, err
	}
	rec.Record(&models.ActivityEvent{
		Kind:      models.ActivityEmbedding,
		Title:     "Embedded search image",
		LatencyMS: latency,
	})
	return vector, nil
}

// runRetrieve applies the embedding-failure fallback shared by both entry
// points: if embedding failed, record an error event and fall back to a
// lexical-only retrieve rather than failing the turn outright. A store
// failure from the retriever, by contrast, is a hard error.
func (w *SearchWorker) runRetrieve(ctx context.Context, rec *activity.Recorder, parsed *queryparse.ParsedQuery, vector []float32, embeddingErr error, limit int, op string) (*SearchResult, error) {
	if embeddingErr != nil {
		rec.Record(&models.ActivityEvent{
			Kind:    models.ActivityError,
			Title:   "Embedding Oracle failed, falling back to lexical search",
			Details: embeddingErr.Error(),
		})
		vector = nil
	}

	products, err := w.retriever.Retrieve(ctx, parsed, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mode := "hybrid"
	if vector == nil {
		mode = "lexical-only"
	}
	rec.Record(&models.ActivityEvent{
		Kind:    models.ActivitySearch,
		Title:   "Ran " + mode + " retrieval",
		Details: fmt.Sprintf("op=%s limit=%d candidates=%d", op, limit, len(products)),
	})
	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityResult,
		Title: fmt.Sprintf("Found %d product(s)", len(products)),
	})

	return &SearchResult{Products: products, Message: summaryMessage(len(products))}, nil
}

func summaryMessage(count int) string {
	if count == 0 {
		return "I couldn't find any matching products."
	}
	if count == 1 {
		return "I found 1 product that matches."
	}
	return fmt.Sprintf("I found %d products that match.", count)
}
