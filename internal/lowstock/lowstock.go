// Package lowstock decides when a checkout pushed a pricing tier into low
// stock and turns the affected tiers into notices for the users who liked
// the event.
package lowstock

import (
	"sort"
	"strings"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// DefaultThreshold is the remaining stock at or below which a tier counts
// as running low.
const DefaultThreshold = 3

// Crossed reports whether a decrement from before to after moved a tier
// from above the threshold to at or below it.  A tier that was already low
// does not cross again.
func Crossed(before, after, threshold int) bool {
	return before > threshold && after <= threshold
}

// Crossing is one tier that crossed the threshold during a checkout, with
// the emails of the users who liked its event.
type Crossing struct {
	EventID   string
	TierID    string
	Available int
	Emails    []string
}

type key struct{ email, event, tier string }

// Collect flattens crossings into notices, one per (email, event, tier).
// Emails are compared case-insensitively and blank ones are skipped.  The
// result is ordered by event, tier and email.
func Collect(crossings []Crossing) []model.LowStockNotice {
	seen := make(map[key]struct{})
	out := make([]model.LowStockNotice, 0)
	for _, c := range crossings {
		for _, e := range c.Emails {
			email := strings.ToLower(strings.TrimSpace(e))
			if email == "" {
				continue
			}
			k := key{email, c.EventID, c.TierID}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, model.LowStockNotice{
				RecipientEmail:   email,
				EventID:          c.EventID,
				TierID:           c.TierID,
				TicketsAvailable: c.Available,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.EventID != b.EventID {
			return a.EventID < b.EventID
		}
		if a.TierID != b.TierID {
			return a.TierID < b.TierID
		}
		return a.RecipientEmail < b.RecipientEmail
	})
	return out
}
