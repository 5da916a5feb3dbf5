package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/shopsageerr"
)

// PlaceOrder executes the Worker: Order algorithm (spec §4.5) as one
// transaction: lock and validate every item, price the cart off current
// stored prices, decrement inventory, and insert the order. Any failure
// rolls back every prior decrement in the same call.
func (s *Store) PlaceOrder(ctx context.Context, customerID string, items []models.OrderItemRequest, pricing models.OrderPricing) (*models.Order, error) {
	if len(items) == 0 {
		return nil, shopsageerr.ErrMissingField
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	priced := make([]models.OrderItem, 0, len(items))
	var subtotal float64

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, shopsageerr.ErrInvalidQuantity
		}

		var price float64
		var inventory int
		row := tx.QueryRowContext(ctx, `SELECT price, inventory FROM products WHERE product_id = ?`, item.ProductID)
		if err := row.Scan(&price, &inventory); err != nil {
			if err == sql.ErrNoRows {
				return nil, shopsageerr.NotFound("product", item.ProductID)
			}
			return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
		}
		if inventory < item.Quantity {
			return nil, &shopsageerr.InsufficientInventoryError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: inventory,
			}
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE products SET inventory = inventory - ? WHERE product_id = ? AND inventory >= ?`,
			item.Quantity, item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
		}
		if affected == 0 {
			// A concurrent order consumed the remaining units between our
			// read and this decrement; re-read to report an accurate count.
			var remaining int
			_ = tx.QueryRowContext(ctx, `SELECT inventory FROM products WHERE product_id = ?`, item.ProductID).Scan(&remaining)
			return nil, &shopsageerr.InsufficientInventoryError{
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: remaining,
			}
		}

		// unit_price already carries two fractional digits, so the exact
		// product with an integer quantity needs no rounding of its own.
		subtotal += price * float64(item.Quantity)
		priced = append(priced, models.OrderItem{
			ProductID: item.ProductID,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	subtotal = roundHalfUp2(subtotal)
	tax := roundHalfUp2(subtotal * pricing.TaxRate)
	shipping := pricing.FlatShipping
	if subtotal >= pricing.FreeShippingThreshold {
		shipping = 0
	}
	total := roundHalfUp2(subtotal + tax + shipping)

	order := &models.Order{
		OrderID:           newOrderID(),
		CustomerID:        customerID,
		Items:             priced,
		Subtotal:          subtotal,
		Tax:               tax,
		Shipping:          shipping,
		Total:             total,
		Status:            models.OrderStatusConfirmed,
		CreatedAt:         time.Now(),
		EstimatedDelivery: estimatedDeliveryWindow(time.Now()),
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_id, customer_id, subtotal, tax, shipping, total, status, estimated_delivery, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.OrderID, order.CustomerID, order.Subtotal, order.Tax, order.Shipping, order.Total,
		string(order.Status), order.EstimatedDelivery, order.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
	}

	for i, item := range order.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, seq, product_id, size, quantity, unit_price) VALUES (?, ?, ?, ?, ?, ?)`,
			order.OrderID, i, item.ProductID, item.Size, item.Quantity, item.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
	}
	return order, nil
}

// GetOrder returns an order and its items by ID.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	var status, estimatedDelivery string
	err := s.db.QueryRowContext(ctx,
		`SELECT order_id, customer_id, subtotal, tax, shipping, total, status, estimated_delivery, created_at
		 FROM orders WHERE order_id = ?`, orderID,
	).Scan(&o.OrderID, &o.CustomerID, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &status, &estimatedDelivery, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, shopsageerr.NotFound("order", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
	}
	o.Status = models.OrderStatus(status)
	o.EstimatedDelivery = estimatedDelivery

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, size, quantity, unit_price FROM order_items WHERE order_id = ? ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
	}
	defer rows.Close()
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Size, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

// GetOrderStatus is a supplemented read-only lookup (grounded on
// original_source's order_tools.py) for checking an order's lifecycle state
// without fetching the full line-item list.
func (s *Store) GetOrderStatus(ctx context.Context, orderID string) (models.OrderStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE order_id = ?`, orderID).Scan(&status)
	if err == sql.ErrNoRows {
		return "", shopsageerr.NotFound("order", orderID)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", shopsageerr.ErrStoreFailure, err)
	}
	return models.OrderStatus(status), nil
}

// roundHalfUp2 rounds v to two decimal places using half-up rounding (never
// banker's rounding), matching the invariant that subtotal must equal the
// exact sum of rounded line totals.
func roundHalfUp2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// newOrderID produces an "ORD-{uuid-hex-upper}" identifier, matching the
// format original_source's clickshop-demo order_agent.py uses.
func newOrderID() string {
	id := uuid.New()
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return "ORD-" + hex
}

// estimatedDeliveryWindow is a supplemented field (grounded on
// original_source's clickshop-demo order_agent.py) giving a coarse delivery
// estimate; it is not part of the pricing invariants.
func estimatedDeliveryWindow(from time.Time) string {
	start := from.AddDate(0, 0, 3)
	end := from.AddDate(0, 0, 7)
	return start.Format("Jan 2") + " - " + end.Format("Jan 2")
}
