// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumers.
package queue

import (
    "time"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// Queue names.  Both are durable.
const (
    LowStockQueue    = "tickets.low_stock"
    OrderClosedQueue = "orders.closed"
)

// LowStockEvent asks for one email to one fan of an event whose tier
// dropped to the low stock threshold.
type LowStockEvent struct {
    RecipientEmail   string `json:"recipient_email"`
    EventID          string `json:"event_id"`
    TierID           string `json:"tier_id"`
    TicketsAvailable int    `json:"tickets_available"`
    DetectedAt       string `json:"detected_at"`
}

// Notice converts the event back into the domain notice.
func (e LowStockEvent) Notice() model.LowStockNotice {
    return model.LowStockNotice{
        RecipientEmail:   e.RecipientEmail,
        EventID:          e.EventID,
        TierID:           e.TierID,
        TicketsAvailable: e.TicketsAvailable,
    }
}

// OrderClosedEvent is published when a checkout commits.  It carries
// enough of the order for downstream consumers to log or bill it without
// querying the primary database.
type OrderClosedEvent struct {
    OrderID    string              `json:"order_id"`
    UserID     string              `json:"user_id"`
    FinalPrice int64               `json:"final_price"`
    Tickets    []OrderClosedTicket `json:"tickets"`
    ClosedAt   string              `json:"closed_at"`
}

// OrderClosedTicket is one paid ticket line of an OrderClosedEvent.
type OrderClosedTicket struct {
    TicketID     string `json:"ticket_id"`
    TierID       string `json:"tickets_detail_id"`
    EventID      string `json:"event_id"`
    TicketsToBuy int    `json:"tickets_to_buy"`
    FinalPrice   int64  `json:"final_price"`
    Currency     string `json:"currency"`
}

// NewOrderClosedEvent snapshots a closed order.
func NewOrderClosedEvent(o model.Order) OrderClosedEvent {
    ev := OrderClosedEvent{
        OrderID:    o.ID,
        UserID:     o.UserID,
        FinalPrice: o.FinalPrice,
        Tickets:    make([]OrderClosedTicket, 0, len(o.Tickets)),
        ClosedAt:   o.UpdatedAt.UTC().Format(time.RFC3339),
    }
    for _, t := range o.Tickets {
        ev.Tickets = append(ev.Tickets, OrderClosedTicket{
            TicketID:     t.ID,
            TierID:       t.TierID,
            EventID:      t.EventID,
            TicketsToBuy: t.TicketsToBuy,
            FinalPrice:   t.FinalPrice,
            Currency:     t.Currency,
        })
    }
    return ev
}
