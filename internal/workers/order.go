package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopsage/shopsage/internal/activity"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/shopsageerr"
)

// OrderStore is the subset of the Catalog Store Worker: Order depends on.
type OrderStore interface {
	PlaceOrder(ctx context.Context, customerID string, items []models.OrderItemRequest, pricing models.OrderPricing) (*models.Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error)
}

// OrderWorker is Worker: Order (spec §4.5).
type OrderWorker struct {
	store   OrderStore
	pricing models.OrderPricing
}

// NewOrderWorker constructs an OrderWorker over store with the resolved
// pricing configuration.
func NewOrderWorker(store OrderStore, pricing models.OrderPricing) *OrderWorker {
	return &OrderWorker{store: store, pricing: pricing}
}

// Tools describes this worker's operations for the Supervisor's tool
// catalog.
func (w *OrderWorker) Tools() []string {
	return []string{"place", "get_order_status"}
}

// Place implements place(customer_id, items) (spec §4.5). The store performs
// the transactional pricing/inventory-decrement algorithm; this method's
// job is recording the activity trace around it.
func (w *OrderWorker) Place(ctx context.Context, rec *activity.Recorder, customerID string, items []models.OrderItemRequest) (*models.Order, error) {
	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityOrder,
		Title: fmt.Sprintf("Placing order for %d item(s)", len(items)),
	})

	order, err := w.store.PlaceOrder(ctx, customerID, items, w.pricing)
	if err != nil {
		var insufficient *shopsageerr.InsufficientInventoryError
		kind := models.ActivityError
		if errors.As(err, &insufficient) {
			kind = models.ActivityInventory
		}
		rec.Record(&models.ActivityEvent{
			Kind:    kind,
			Title:   "Order placement failed",
			Details: err.Error(),
		})
		return nil, err
	}

	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityResult,
		Title: fmt.Sprintf("Order %s confirmed", order.OrderID),
	})
	return order, nil
}

// GetOrderStatus is a supplemented read-only operation (grounded on
// original_source's order_tools.py) for checking an order's lifecycle state.
func (w *OrderWorker) GetOrderStatus(ctx context.Context, rec *activity.Recorder, orderID string) (models.OrderStatus, error) {
	status, err := w.store.GetOrderStatus(ctx, orderID)
	if err != nil {
		rec.Record(&models.ActivityEvent{
			Kind:    models.ActivityError,
			Title:   "Order status lookup failed",
			Details: err.Error(),
		})
		return "", err
	}
	rec.Record(&models.ActivityEvent{
		Kind:  models.ActivityResult,
		Title: fmt.Sprintf("Order %s is %s", orderID, status),
	})
	return status, nil
}
