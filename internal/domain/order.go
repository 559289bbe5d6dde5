package domain

import "time"

// OrderStatus is the lifecycle state of an order. No transition graph is
// enforced: any defined status may move to any other. A stricter machine
// (pending→paid→shipped, cancel only from pending/paid) would be a natural
// hardening but is deliberately not assumed here.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the defined order statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is an order header. TotalAmount is computed server-side at checkout
// and, like the line snapshots, never changes after creation; only Status is
// mutable.
type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	Address     string      `json:"address"`
	CreatedAt   time.Time   `json:"created_at"`
	Lines       []OrderLine `json:"lines,omitempty"`
}

// OrderLine joins an order to a product with the purchased quantity and the
// product price captured at purchase time. PriceAtPurchase is immutable:
// later product price changes must never alter historical totals. A product
// appears at most once per order; duplicate cart entries aggregate.
type OrderLine struct {
	ID              int64   `json:"id"`
	OrderID         int64   `json:"order_id"`
	ProductID       int64   `json:"product_id"`
	Quantity        int32   `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

// CartLine is a (product, quantity) pair submitted at checkout.
type CartLine struct {
	ProductID int64
	Quantity  int32
}
