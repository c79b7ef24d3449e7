package model

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventScheduled EventStatus = "SCHEDULED"
	EventLive      EventStatus = "LIVE"
	EventCancelled EventStatus = "CANCELLED"
)

// Event is a row of the `events` table.  Events are created and edited by
// managers through the events collaborator; the cart flow only reads them to
// validate that tickets are still sellable and to find the users who liked
// an event when its stock runs low.
type Event struct {
	ID        string      `json:"id"`                   // events.id
	ManagerID string      `json:"manager_id"`           // events.user_id
	Title     string      `json:"title"`                // events.title
	Status    EventStatus `json:"status"`               // events.status
	Date      time.Time   `json:"date"`                 // events.date
	CreatedAt time.Time   `json:"created_at"`           // events.created_at
	DeletedAt *time.Time  `json:"deleted_at,omitempty"` // events.deleted_at (nullable)
}

// Sellable reports whether tickets for the event may still be put in a cart.
func (e Event) Sellable() bool {
	return e.DeletedAt == nil && e.Status != EventCancelled
}
