package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shopsage/shopsage/internal/config"
	"github.com/shopsage/shopsage/internal/llmoracle"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/orchestrator"
	"github.com/shopsage/shopsage/internal/retrieval"
	"github.com/shopsage/shopsage/internal/store"
	"github.com/shopsage/shopsage/internal/supervisor"
)

type fakeCatalogStore struct {
	results []models.ScoredProduct
}

func (f *fakeCatalogStore) LexicalSearch(_ context.Context, _ store.Filter, _ int) ([]models.ScoredProduct, error) {
	return f.results, nil
}

func (f *fakeCatalogStore) VectorCandidates(_ context.Context, _ []float32, _ int) ([]models.ScoredProduct, error) {
	return f.results, nil
}

func (f *fakeCatalogStore) BleveRankFor(_ string, _ []string) (map[string]float64, error) {
	return nil, nil
}

func testRetrievalConfig() retrieval.Config {
	return retrieval.Config{SemanticWeight: 0.7, LexicalWeight: 0.3, CandidateMultiplier: 4, CandidateMinimum: 50}
}

func newTestServer() *Server {
	cs := &fakeCatalogStore{results: []models.ScoredProduct{
		{Product: &models.Product{ProductID: "p1", Name: "Trail Runner", Category: models.CategoryRunningShoes}},
	}}
	r := retrieval.New(cs, testRetrievalConfig())
	orc := orchestrator.New(r, r, nil, 5*time.Second)
	return NewServer(orc, &config.ServerConfig{Host: "127.0.0.1", Port: 0}, zap.NewNop())
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.handleHealth(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestHandleTurn_Direct(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]any{"phase": 1, "message": "running shoes"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleTurn(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out models.TurnResult
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Products) != 1 {
		t.Errorf("expected 1 product, got %+v", out.Products)
	}
}

func TestHandleTurn_InvalidPhase(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]any{"phase": 9, "message": "hi"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleTurn(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleTurn_BadImageBase64(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]any{"phase": 1, "image_base64": "not-valid-base64!!"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/turns", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleTurn(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleOrder_MissingProductID(t *testing.T) {
	s := newTestServer()
	body, _ := json.Marshal(map[string]any{"quantity": 1})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleOrder(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleOrder_RunsAgentic(t *testing.T) {
	cs := &fakeCatalogStore{}
	r := retrieval.New(cs, testRetrievalConfig())
	oracle := llmoracle.NewMockOracle([]*llmoracle.Response{
		{Final: true, Text: "order placed"},
	})
	sup := supervisor.New(oracle, nil, nil, nil, 5)
	orc := orchestrator.New(r, r, sup, 5*time.Second)
	s := NewServer(orc, &config.ServerConfig{Host: "127.0.0.1", Port: 0}, zap.NewNop())

	body, _ := json.Marshal(map[string]any{"product_id": "p1", "quantity": 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleOrder(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
}

func TestStreamRegistry_AttachFromRequestWithoutSubscriptionIsNil(t *testing.T) {
	reg := newStreamRegistry()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/turns", nil)
	if got := reg.attachFromRequest(r); got != nil {
		t.Errorf("expected no subscription, got %v", got)
	}
}

func TestStreamRegistry_SubscribeThenAttach(t *testing.T) {
	reg := newStreamRegistry()
	sink := reg.subscribe("turn-1")
	defer reg.unsubscribe("turn-1")

	r := httptest.NewRequest(http.MethodPost, "/api/v1/turns?stream_turn_id=turn-1", nil)
	got := reg.attachFromRequest(r)
	if got != sink {
		t.Errorf("expected to find the subscribed sink, got %v", got)
	}
}
