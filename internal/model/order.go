package model

import (
	"encoding/json"
	"time"
)

// OrderStatus is the state of an order.  CART is the only mutable state;
// CLOSED is terminal.
type OrderStatus string

const (
	OrderCart   OrderStatus = "CART"
	OrderClosed OrderStatus = "CLOSED"
)

// Order groups the tickets a user reserves and later buys.  A user owns at
// most one non-deleted order in status CART at any time.  FinalPrice is the
// sum of FinalPrice over the order's non-deleted tickets.  Discounts is an
// opaque payload supplied by callers and stored untouched.
type Order struct {
	ID         string          `json:"id"`                   // orders.id
	UserID     string          `json:"user_id"`              // orders.user_id
	Status     OrderStatus     `json:"status"`               // orders.status
	FinalPrice int64           `json:"final_price"`          // orders.final_price
	Discounts  json.RawMessage `json:"discounts,omitempty"`  // orders.discounts (nullable)
	Tickets    []Ticket        `json:"tickets"`              // live tickets of the order
	CreatedAt  time.Time       `json:"created_at"`           // orders.created_at
	UpdatedAt  time.Time       `json:"updated_at"`           // orders.updated_at
	DeletedAt  *time.Time      `json:"deleted_at,omitempty"` // orders.deleted_at (nullable)
}

// IsOpenCart reports whether the order can still be mutated.
func (o Order) IsOpenCart() bool {
	return o.Status == OrderCart && o.DeletedAt == nil
}
