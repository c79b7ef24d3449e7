package model

import "time"

// Currencies accepted for tiers and tickets.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyPEN = "PEN"
)

// ValidCurrency reports whether c is one of the supported currency codes.
func ValidCurrency(c string) bool {
	switch c {
	case CurrencyUSD, CurrencyEUR, CurrencyPEN:
		return true
	}
	return false
}

// PricingTier ("tickets detail") is a priced category of tickets for an
// event and the unit of inventory tracking.  TicketsAvailable is the
// authoritative remaining stock and is only ever lowered by checkout.
//
// Fields:
//  ID               – UUID primary key.
//  EventID          – owning event.
//  NominalPrice     – list price in minor units.
//  TicketsAvailable – remaining inventory, never negative.
//  TicketsPerPerson – purchase cap advertised to buyers.
//  Currency         – ISO currency code.
//  Zone             – venue zone (e.g. GENERAL, VIP).
//  UpdatedAt        – last modification.
//  DeletedAt        – soft-delete timestamp; tiers referenced by tickets are never hard deleted.
type PricingTier struct {
	ID               string     `json:"id"`                   // tickets_details.id
	EventID          string     `json:"event_id"`             // tickets_details.event_id
	NominalPrice     int64      `json:"nominal_price"`        // tickets_details.nominal_price
	TicketsAvailable int        `json:"tickets_available"`    // tickets_details.tickets_available
	TicketsPerPerson int        `json:"tickets_per_person"`   // tickets_details.tickets_per_person
	Currency         string     `json:"currency"`             // tickets_details.currency
	Zone             string     `json:"zone"`                 // tickets_details.zone
	UpdatedAt        time.Time  `json:"updated_at"`           // tickets_details.updated_at
	DeletedAt        *time.Time `json:"deleted_at,omitempty"` // tickets_details.deleted_at (nullable)
}
