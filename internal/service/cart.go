// Package service holds the cart and checkout flows.  Each operation runs
// in a single database transaction; a failure rolls back every write it
// made.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// Upper bounds on caller supplied amounts.  Prices are minor units; an
// order total stays far below the int64 range and tickets_to_buy fits the
// INT column.
const (
	MaxTicketPrice   int64 = 10_000_000_000
	MaxOrderTotal    int64 = 1_000_000_000_000_000
	MaxTicketsToBuy        = 10_000
)

// CartService manages a user's open cart and the tickets in it.  Callers
// are expected to have checked ticket and order ownership already.
type CartService struct {
	DB      *sql.DB
	Orders  *repository.OrderRepo
	Tickets *repository.TicketRepo
	Tiers   *repository.TierRepo
	Events  *repository.EventRepo
}

// NewCartService wires the repositories the cart flow needs.
func NewCartService(db *sql.DB, d database.Dialect) *CartService {
	return &CartService{
		DB:      db,
		Orders:  repository.NewOrderRepo(db, d),
		Tickets: repository.NewTicketRepo(db),
		Tiers:   repository.NewTierRepo(db),
		Events:  repository.NewEventRepo(db),
	}
}

// withTx runs fn in a transaction and commits when it returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// pickCart reduces the user's open carts to at most one.  Several open
// carts are a corrupted state that is reported, never repaired.
func pickCart(carts []model.Order) (*model.Order, error) {
	switch len(carts) {
	case 0:
		return nil, nil
	case 1:
		return &carts[0], nil
	}
	return nil, fmt.Errorf("%w (user %s has %d)", repository.ErrMultipleCarts, carts[0].UserID, len(carts))
}

// GetOrCreateCart returns the user's open cart, or nil when there is none.
// Creation happens inside AddToCart so it shares the caller's transaction.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*model.Order, error) {
	carts, err := s.Orders.ListOpenCarts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return pickCart(carts)
}

// normalize checks the caller supplied fields of a ticket and fills in
// defaults.  Currency is resolved against the tier later.
func normalize(in *model.TicketInput) error {
	if in.TierID == "" {
		return fmt.Errorf("%w: tickets_detail_id is required", repository.ErrInvalidInput)
	}
	if in.FinalPrice < 1 {
		return fmt.Errorf("%w: final_price must be at least 1", repository.ErrInvalidInput)
	}
	if in.TicketsToBuy == 0 {
		in.TicketsToBuy = 1
	}
	if in.FinalPrice > MaxTicketPrice {
		return fmt.Errorf("%w: final_price must be at most %d", repository.ErrInvalidInput, MaxTicketPrice)
	}
	if in.TicketsToBuy < 1 || in.TicketsToBuy > MaxTicketsToBuy {
		return fmt.Errorf("%w: tickets_to_buy must be between 1 and %d", repository.ErrInvalidInput, MaxTicketsToBuy)
	}
	if in.Currency != "" && !model.ValidCurrency(in.Currency) {
		return fmt.Errorf("%w: unsupported currency %q", repository.ErrInvalidInput, in.Currency)
	}
	if len(in.Discounts) > 0 && !json.Valid(in.Discounts) {
		return fmt.Errorf("%w: discounts must be valid JSON", repository.ErrInvalidInput)
	}
	return nil
}

// checkLimits rejects a ticket over the tier's per person cap or one that
// would push the order total past MaxOrderTotal.
func checkLimits(tier *model.PricingTier, in model.TicketInput, total int64) error {
	if tier.TicketsPerPerson > 0 && in.TicketsToBuy > tier.TicketsPerPerson {
		return fmt.Errorf("%w: tier %s allows at most %d tickets per person", repository.ErrInvalidInput, tier.ID, tier.TicketsPerPerson)
	}
	if total > MaxOrderTotal-in.FinalPrice {
		return fmt.Errorf("%w: order total would exceed %d", repository.ErrInvalidInput, MaxOrderTotal)
	}
	return nil
}

// sellableTierTx loads a tier of eventID and makes sure the event still
// accepts tickets.
func (s *CartService) sellableTierTx(ctx context.Context, tx *sql.Tx, eventID, tierID string) (*model.PricingTier, error) {
	tier, err := s.Tiers.GetByIDTx(ctx, tx, tierID)
	if err != nil {
		return nil, err
	}
	if tier.EventID != eventID {
		return nil, fmt.Errorf("%w: tier %s does not belong to event %s", repository.ErrNotFound, tierID, eventID)
	}
	event, err := s.Events.GetByIDTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if event.DeletedAt != nil {
		return nil, repository.ErrNotFound
	}
	if event.Status == model.EventCancelled {
		return nil, fmt.Errorf("%w: event %s is cancelled", repository.ErrConflictState, eventID)
	}
	return tier, nil
}

// AddToCart reserves TicketsToBuy tickets of a tier in the user's open
// cart, creating the cart on first use.  Stock is not checked here; it is
// taken at checkout.
func (s *CartService) AddToCart(ctx context.Context, eventID, userID string, in model.TicketInput) (*model.Order, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	var out *model.Order
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		tier, err := s.sellableTierTx(ctx, tx, eventID, in.TierID)
		if err != nil {
			return err
		}
		carts, err := s.Orders.ListOpenCartsTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		cart, err := pickCart(carts)
		if err != nil {
			return err
		}
		if cart == nil {
			if cart, err = s.Orders.CreateCartTx(ctx, tx, userID); err != nil {
				return err
			}
		}
		if err := checkLimits(tier, in, cart.FinalPrice); err != nil {
			return err
		}
		currency := in.Currency
		if currency == "" {
			currency = tier.Currency
		}
		ticket := &model.Ticket{
			OrderID:      cart.ID,
			TierID:       tier.ID,
			EventID:      eventID,
			FinalPrice:   in.FinalPrice,
			TicketsToBuy: in.TicketsToBuy,
			Currency:     currency,
			Discounts:    in.Discounts,
		}
		if err := s.Tickets.CreateTx(ctx, tx, ticket); err != nil {
			return err
		}
		if err := s.Orders.AddToTotalTx(ctx, tx, cart.ID, ticket.FinalPrice); err != nil {
			return err
		}
		out, err = s.loadCartTx(ctx, tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CartService) loadCartTx(ctx context.Context, tx *sql.Tx, orderID string) (*model.Order, error) {
	order, err := s.Orders.GetByIDTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Tickets, err = s.Tickets.ListLiveByOrderTx(ctx, tx, orderID); err != nil {
		return nil, err
	}
	return order, nil
}

// editableTicketTx loads a ticket that may still be changed, reserved and
// part of an open cart, together with that cart.
func (s *CartService) editableTicketTx(ctx context.Context, tx *sql.Tx, ticketID string) (*model.Ticket, *model.Order, error) {
	ticket, err := s.Tickets.GetByIDTx(ctx, tx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.Status != model.TicketReserved {
		return nil, nil, fmt.Errorf("%w: ticket %s is %s", repository.ErrConflictState, ticketID, ticket.Status)
	}
	order, err := s.Orders.GetByIDTx(ctx, tx, ticket.OrderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, repository.ErrCartClosed
	}
	if err != nil {
		return nil, nil, err
	}
	if !order.IsOpenCart() {
		return nil, nil, repository.ErrCartClosed
	}
	return ticket, order, nil
}

// UpdateTicket replaces the fields of a reserved ticket and moves the
// order total by the price difference.
func (s *CartService) UpdateTicket(ctx context.Context, ticketID string, in model.TicketInput) (*model.Ticket, error) {
	if err := normalize(&in); err != nil {
		return nil, err
	}
	var out *model.Ticket
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		ticket, order, err := s.editableTicketTx(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		tier, err := s.sellableTierTx(ctx, tx, ticket.EventID, in.TierID)
		if err != nil {
			return err
		}
		oldPrice := ticket.FinalPrice
		if err := checkLimits(tier, in, order.FinalPrice-oldPrice); err != nil {
			return err
		}
		ticket.TierID = tier.ID
		ticket.FinalPrice = in.FinalPrice
		ticket.TicketsToBuy = in.TicketsToBuy
		ticket.Currency = in.Currency
		if ticket.Currency == "" {
			ticket.Currency = tier.Currency
		}
		ticket.Discounts = in.Discounts
		if err := s.Tickets.UpdateTx(ctx, tx, ticket); err != nil {
			return err
		}
		if delta := ticket.FinalPrice - oldPrice; delta != 0 {
			if err := s.Orders.AddToTotalTx(ctx, tx, ticket.OrderID, delta); err != nil {
				return err
			}
		}
		out = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTicket soft deletes a reserved ticket and takes its price off the
// order total.
func (s *CartService) DeleteTicket(ctx context.Context, ticketID string) error {
	return withTx(ctx, s.DB, func(tx *sql.Tx) error {
		ticket, _, err := s.editableTicketTx(ctx, tx, ticketID)
		if err != nil {
			return err
		}
		if err := s.Tickets.SoftDeleteTx(ctx, tx, ticket.ID); err != nil {
			return err
		}
		return s.Orders.AddToTotalTx(ctx, tx, ticket.OrderID, -ticket.FinalPrice)
	})
}

// GetCart returns the user's open cart with its reserved tickets.
func (s *CartService) GetCart(ctx context.Context, userID string) (*model.Order, error) {
	var out *model.Order
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		carts, err := s.Orders.ListOpenCartsTx(ctx, tx, userID)
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
		out, err = s.loadCartTx(ctx, tx, cart.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrders lists every live order of the user, newest first, each with
// its live tickets.
func (s *CartService) GetOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := s.Tickets.ListByOrders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Tickets = byOrder[orders[i].ID]
		if orders[i].Tickets == nil {
			orders[i].Tickets = []model.Ticket{}
		}
	}
	return orders, nil
}

// DeleteOrder soft deletes one of the user's orders in any status.
func (s *CartService) DeleteOrder(ctx context.Context, userID, orderID string) error {
	return s.Orders.SoftDelete(ctx, userID, orderID)
}

// tierQuantities sums TicketsToBuy per tier and returns the tier ids in
// ascending order, the order in which checkout takes stock.
func tierQuantities(tickets []model.Ticket) ([]string, map[string]int) {
	qty := make(map[string]int)
	for _, t := range tickets {
		qty[t.TierID] += t.TicketsToBuy
	}
	ids := make([]string, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, qty
}
