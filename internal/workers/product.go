package workers

import (
	"context"
	"fmt"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/models"
)

// ProductStore is the subset of the Catalog Store Worker: Product depends
// on, so the mediated tool-server transport can satisfy it too.
type ProductStore interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// InventoryStatus is the return shape of check_inventory.
type InventoryStatus struct {
	InStock        bool
	Units          int
	SizesAvailable []string
}

// ProductWorker is Worker: Product (spec §4.4). Every operation is a pure,
// idempotent read.
type ProductWorker struct {
	store ProductStore
}

// NewProductWorker constructs a ProductWorker over store.
func NewProductWorker(store ProductStore) *ProductWorker {
	return &ProductWorker{store: store}
}

// Tools describes this worker's operations for the Supervisor's tool
// catalog.
func (w *ProductWorker) Tools() []string {
	return []string{"get_details", "check_inventory", "get_available_sizes"}
}

// GetDetails implements get_details(product_id) (spec §4.4).
func (w *ProductWorker) GetDetails(ctx context.Context, rec *activity.Recorder, productID string) (*models.Product, error) {
	p, err := w.store.GetProduct(ctx, productID)
	if err != nil {
		rec.Record(&models.ActivityEvent{
			Kind:    models.ActivityError,
			Title:   "Product lookup failed",
			Details: err.Error(),
		})
		return nil, err
	}
	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityResult,
		Title: fmt.Sprintf("Fetched details for %s", productID),
	})
	return p, nil
}

// CheckInventory implements check_inventory(product_id, size?) (spec §4.4).
// When size is supplied and the product has a non-empty sizes list, in_stock
// additionally requires that size is among them.
func (w *ProductWorker) CheckInventory(ctx context.Context, rec *activity.Recorder, productID, size string) (*InventoryStatus, error) {
	p, err := w.store.GetProduct(ctx, productID)
	if err != nil {
		rec.Record(&models.ActivityEvent{
			Kind:    models.ActivityError,
			Title:   "Inventory check failed",
			Details: err.Error(),
		})
		return nil, err
	}

	inStock := p.Inventory > 0
	if size != "" && len(p.AvailableSizes) > 0 {
		inStock = inStock && containsSize(p.AvailableSizes, size)
	}

	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityInventory,
		Title: fmt.Sprintf("Checked inventory for %s", productID),
	})

	return &InventoryStatus{
		InStock:        inStock,
		Units:          p.Inventory,
		SizesAvailable: p.AvailableSizes,
	}, nil
}

// GetAvailableSizes is a supplemented read-only operation (grounded on
// original_source's inventory_tools.py) returning just the sizes list,
// for callers that don't need the full inventory count.
func (w *ProductWorker) GetAvailableSizes(ctx context.Context, rec *activity.Recorder, productID string) ([]string, error) {
	p, err := w.store.GetProduct(ctx, productID)
	if err != nil {
		rec.Record(&models.ActivityEvent{
			Kind:    models.ActivityError,
			Title:   "Size lookup failed",
			Details: err.Error(),
		})
		return nil, err
	}
	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityResult,
		Title: fmt.Sprintf("Fetched available sizes for %s", productID),
	})
	return p.AvailableSizes, nil
}

func containsSize(sizes []string, want string) bool {
	for _, s := range sizes {
		if s == want {
			return true
		}
	}
	return false
}
