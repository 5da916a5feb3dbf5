package workers

import (
	"context"
	"testing"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/shopsageerr"
)

type fakeProductStore struct {
	products map[string]*models.Product
}

func (f *fakeProductStore) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, shopsageerr.NotFound("product", productID)
	}
	return p, nil
}

func TestProductWorker_GetDetails(t *testing.T) {
	store := &fakeProductStore{products: map[string]*models.Product{
		"p1": {ProductID: "p1", Name: "Trail Runner"},
	}}
	w := NewProductWorker(store)
	rec := activity.New("turn-1", nil)

	p, err := w.GetDetails(context.Background(), rec, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "Trail Runner" {
		t.Errorf("unexpected product: %+v", p)
	}
}

func TestProductWorker_GetDetails_NotFound(t *testing.T) {
	store := &fakeProductStore{products: map[string]*models.Product{}}
	w := NewProductWorker(store)
	rec := activity.New("turn-1", nil)

	if _, err := w.GetDetails(context.Background(), rec, "missing"); err == nil {
		t.Fatal("expected not_found error")
	}
}

func TestProductWorker_CheckInventory_InStockBySizes(t *testing.T) {
	store := &fakeProductStore{products: map[string]*models.Product{
		"p1": {ProductID: "p1", Inventory: 5, AvailableSizes: []string{"9", "10"}},
	}}
	w := NewProductWorker(store)
	rec := activity.New("turn-1", nil)

	status, err := w.CheckInventory(context.Background(), rec, "p1", "10")
	if err != nil {
		t.Fatal(err)
	}
	if !status.InStock || status.Units != 5 {
		t.Errorf("expected in stock with 5 units, got %+v", status)
	}
}

func TestProductWorker_CheckInventory_SizeNotAvailable(t *testing.T) {
	store := &fakeProductStore{products: map[string]*models.Product{
		"p1": {ProductID: "p1", Inventory: 5, AvailableSizes: []string{"9", "10"}},
	}}
	w := NewProductWorker(store)
	rec := activity.New("turn-1", nil)

	status, err := w.CheckInventory(context.Background(), rec, "p1", "11")
	if err != nil {
		t.Fatal(err)
	}
	if status.InStock {
		t.Error("expected out of stock when requested size is not in sizes_available")
	}
}

func TestProductWorker_CheckInventory_ZeroInventory(t *testing.T) {
	store := &fakeProductStore{products: map[string]*models.Product{
		"p1": {ProductID: "p1", Inventory: 0},
	}}
	w := NewProductWorker(store)
	rec := activity.New("turn-1", nil)

	status, err := w.CheckInventory(context.Background(), rec, "p1", "")
	if err != nil {
		t.Fatal(err)
	}
	if status.InStock {
		t.Error("expected out of stock with zero inventory")
	}
}

func TestProductWorker_GetAvailableSizes(t *testing.T) {
	store := &fakeProductStore{products: map[string]*models.Product{
		"p1": {ProductID: "p1", AvailableSizes: []string{"S", "M", "L"}},
	}}
	w := NewProductWorker(store)
	rec := activity.New("turn-1", nil)

	sizes, err := w.GetAvailableSizes(context.Background(), rec, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sizes) != 3 {
		t.Errorf("expected 3 sizes, got %+v", sizes)
	}
}
