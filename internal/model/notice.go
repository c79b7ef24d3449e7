package model

// LowStockNotice asks the notification collaborator to tell one recipient
// that a tier of an event is running out.  A single checkout never produces
// two notices with the same (RecipientEmail, EventID, TierID).
type LowStockNotice struct {
	RecipientEmail   string `json:"recipient_email"`
	EventID          string `json:"event_id"`
	TierID           string `json:"tier_id"`
	TicketsAvailable int    `json:"tickets_available"`
}
