package model

import (
	"encoding/json"
	"time"
)

// TicketStatus is the state of a ticket line item.
type TicketStatus string

const (
	TicketReserved TicketStatus = "RESERVED"
	TicketPaid     TicketStatus = "PAID"
)

// Ticket is one line item of an order: TicketsToBuy tickets of a single
// pricing tier.  FinalPrice is fixed when the ticket is reserved.  EventID
// duplicates the tier's event for query convenience.
type Ticket struct {
	ID           string          `json:"id"`                   // tickets.id
	OrderID      string          `json:"order_id"`             // tickets.order_id
	TierID       string          `json:"tickets_detail_id"`    // tickets.tickets_detail_id
	EventID      string          `json:"event_id"`             // tickets.event_id
	Status       TicketStatus    `json:"status"`               // tickets.status
	FinalPrice   int64           `json:"final_price"`          // tickets.final_price
	TicketsToBuy int             `json:"tickets_to_buy"`       // tickets.tickets_to_buy
	Currency     string          `json:"currency"`             // tickets.currency
	Discounts    json.RawMessage `json:"discounts,omitempty"`  // tickets.discounts (nullable)
	CreatedAt    time.Time       `json:"created_at"`           // tickets.created_at
	UpdatedAt    time.Time       `json:"updated_at"`           // tickets.updated_at
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"` // tickets.deleted_at (nullable)
}

// TicketInput carries the caller-supplied fields for adding or updating a
// ticket.  Currency falls back to the tier's currency and TicketsToBuy to 1
// when left empty.
type TicketInput struct {
	TierID       string          `json:"tickets_detail_id"`
	FinalPrice   int64           `json:"final_price"`
	TicketsToBuy int             `json:"tickets_to_buy"`
	Currency     string          `json:"currency"`
	Discounts    json.RawMessage `json:"discounts"`
}
