package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/embedding"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/retrieval"
	"github.com/shopsage/shopsage/internal/store"
)

type fakeCatalogStore struct {
	lexicalResults []models.ScoredProduct
	vectorResults  []models.ScoredProduct
	storeErr       error
}

func (f *fakeCatalogStore) LexicalSearch(_ context.Context, _ store.Filter, _ int) ([]models.ScoredProduct, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return f.lexicalResults, nil
}

func (f *fakeCatalogStore) VectorCandidates(_ context.Context, _ []float32, _ int) ([]models.ScoredProduct, error) {
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return f.vectorResults, nil
}

func (f *fakeCatalogStore) BleveRankFor(_ string, _ []string) (map[string]float64, error) {
	return nil, nil
}

type failingEmbedder struct {
	embedding.Oracle
	err error
}

func (f *failingEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	return nil, f.err
}

func (f *failingEmbedder) EmbedImage(context.Context, []byte) ([]float32, error) {
	return nil, f.err
}

func (f *failingEmbedder) Dimensions() int { return 4 }
func (f *failingEmbedder) Close() error    { return nil }

func retrieverConfig() retrieval.Config {
	return retrieval.Config{SemanticWeight: 0.7, LexicalWeight: 0.3, CandidateMultiplier: 4, CandidateMinimum: 50}
}

func TestSearchWorker_TextSearch_Hybrid(t *testing.T) {
	fs := &fakeCatalogStore{
		vectorResults: []models.ScoredProduct{
			{Product: &models.Product{ProductID: "p1", Category: models.CategoryRunningShoes}, SemanticScore: 0.9},
		},
	}
	r := retrieval.New(fs, retrieverConfig())
	w := NewSearchWorker(r, embedding.NewMockOracle(4))
	rec := activity.New("turn-1", nil)

	result, err := w.TextSearch(context.Background(), rec, "running shoes", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(result.Products))
	}

	trace := rec.Take()
	kinds := map[models.ActivityKind]bool{}
	for _, ev := range trace {
		kinds[ev.Kind] = true
	}
	if !kinds[models.ActivityEmbedding] || !kinds[models.ActivitySearch] || !kinds[models.ActivityResult] {
		t.Fatalf("expected embedding, search, result events; got %+v", trace)
	}
}

func TestSearchWorker_TextSearch_EmbeddingFailureFallsBackToLexical(t *testing.T) {
	fs := &fakeCatalogStore{
		lexicalResults: []models.ScoredProduct{
			{Product: &models.Product{ProductID: "p1"}},
		},
	}
	r := retrieval.New(fs, retrieverConfig())
	w := NewSearchWorker(r, &failingEmbedder{err: errors.New("oracle down")})
	rec := activity.New("turn-1", nil)

	result, err := w.TextSearch(context.Background(), rec, "running shoes", 5)
	if err != nil {
		t.Fatalf("expected embedding failure to be recovered, got error: %v", err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected lexical fallback result, got %+v", result)
	}

	trace := rec.Take()
	foundErrorEvent := false
	for _, ev := range trace {
		if ev.Kind == models.ActivityError {
			foundErrorEvent = true
		}
	}
	if !foundErrorEvent {
		t.Fatal("expected an error event recording the embedding failure")
	}
}

func TestSearchWorker_ImageSearch_NoLexicalComponent(t *testing.T) {
	fs := &fakeCatalogStore{
		vectorResults: []models.ScoredProduct{
			{Product: &models.Product{ProductID: "p1"}, SemanticScore: 0.8},
		},
	}
	r := retrieval.New(fs, retrieverConfig())
	w := NewSearchWorker(r, embedding.NewMockOracle(4))
	rec := activity.New("turn-1", nil)

	result, err := w.ImageSearch(context.Background(), rec, []byte{1, 2, 3}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Products) != 1 {
		t.Fatalf("expected 1 product from semantic-only search, got %d", len(result.Products))
	}
}

func TestSearchWorker_StoreFailureIsHardError(t *testing.T) {
	fs := &fakeCatalogStore{storeErr: errors.New("store_failure")}
	r := retrieval.New(fs, retrieverConfig())
	w := NewSearchWorker(r, embedding.NewMockOracle(4))
	rec := activity.New("turn-1", nil)

	if _, err := w.TextSearch(context.Background(), rec, "shoes", 5); err == nil {
		t.Fatal("expected store failure to propagate as a hard error")
	}
}
