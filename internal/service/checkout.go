package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/iliyamo/event-ticketing/internal/lowstock"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Notifier delivers low stock notices.  It is called after the checkout
// committed; its failures never undo a purchase.
type Notifier interface {
	Notify(ctx context.Context, notices []model.LowStockNotice) error
}

// OrderEvents receives closed orders for downstream consumers.
type OrderEvents interface {
	PublishOrderClosed(ctx context.Context, order model.Order) error
}

// AvailabilityInvalidator drops cached availability for tiers whose stock
// changed.
type AvailabilityInvalidator interface {
	Invalidate(ctx context.Context, tierIDs ...string)
}

// CheckoutService turns a user's open cart into a closed, paid order and
// takes the stock for it.
type CheckoutService struct {
	cart      *CartService
	threshold int
	notifier  Notifier
	events    OrderEvents
	cache     AvailabilityInvalidator
}

// NewCheckoutService builds a checkout on top of the cart repositories.
// events and cache may be nil.  A threshold below zero disables low stock
// notices.
func NewCheckoutService(cart *CartService, threshold int, notifier Notifier, events OrderEvents, cache AvailabilityInvalidator) *CheckoutService {
	return &CheckoutService{cart: cart, threshold: threshold, notifier: notifier, events: events, cache: cache}
}

// BuyCart closes the user's open cart, decrements every tier by the
// quantity reserved on it and marks the tickets PAID, all or nothing.
// ErrNotFound means there is no open cart, ErrConflictState means the cart
// is empty, already closed or duplicated, and ErrInventoryExhausted names
// the first tier that ran out.
func (s *CheckoutService) BuyCart(ctx context.Context, userID string) (*model.Order, error) {
	var (
		order     *model.Order
		tierIDs   []string
		crossings []lowstock.Crossing
	)
	err := withTx(ctx, s.cart.DB, func(tx *sql.Tx) error {
		carts, err := s.cart.Orders.ListOpenCartsTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		cart, err := pickCart(carts)
		if err != nil {
			return err
		}
		if cart == nil {
			return fmt.Errorf("%w: no open cart", repository.ErrNotFound)
		}
		// closing first makes a concurrent add or buy on this cart fail
		if err := s.cart.Orders.CloseCartTx(ctx, tx, cart.ID); err != nil {
			return err
		}
		tickets, err := s.cart.Tickets.ListLiveByOrderTx(ctx, tx, cart.ID)
		if err != nil {
			return err
		}
		if len(tickets) == 0 {
			return repository.ErrEmptyCart
		}

		eventOf := make(map[string]string, len(tickets))
		for _, t := range tickets {
			eventOf[t.TierID] = t.EventID
		}
		ids, qty := tierQuantities(tickets)
		for _, id := range ids {
			after, err := s.cart.Tiers.TryDecrementTx(ctx, tx, id, qty[id])
			if err != nil {
				return err
			}
			if s.threshold >= 0 && lowstock.Crossed(after+qty[id], after, s.threshold) {
				crossings = append(crossings, lowstock.Crossing{EventID: eventOf[id], TierID: id, Available: after})
			}
		}
		if _, err := s.cart.Tickets.MarkPaidTx(ctx, tx, cart.ID); err != nil {
			return err
		}

		if len(crossings) > 0 {
			eventIDs := make([]string, 0, len(crossings))
			for _, c := range crossings {
				eventIDs = append(eventIDs, c.EventID)
			}
			emails, err := s.cart.Events.LikerEmailsTx(ctx, tx, eventIDs)
			if err != nil {
				return err
			}
			for i := range crossings {
				crossings[i].Emails = emails[crossings[i].EventID]
			}
		}

		if order, err = s.cart.Orders.GetByIDTx(ctx, tx, cart.ID); err != nil {
			return err
		}
		for i := range tickets {
			tickets[i].Status = model.TicketPaid
		}
		order.Tickets = tickets
		tierIDs = ids
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The purchase is committed from here on.
	after := context.WithoutCancel(ctx)
	if s.cache != nil {
		s.cache.Invalidate(after, tierIDs...)
	}
	if notices := lowstock.Collect(crossings); len(notices) > 0 && s.notifier != nil {
		if err := s.notifier.Notify(after, notices); err != nil {
			log.Printf("checkout: low stock notify for order %s failed: %v", order.ID, err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishOrderClosed(after, *order); err != nil {
			log.Printf("checkout: publish order %s closed failed: %v", order.ID, err)
		}
	}
	return order, nil
}
