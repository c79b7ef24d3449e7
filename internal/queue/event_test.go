package queue

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticketing/internal/model"
)

func TestNewOrderClosedEvent(t *testing.T) {
    closed := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("x", 3600))
    ev := NewOrderClosedEvent(model.Order{
        ID: "o-1", UserID: "u-1", FinalPrice: 35, UpdatedAt: closed,
        Tickets: []model.Ticket{
            {ID: "t-1", TierID: "tier-a", EventID: "e-1", TicketsToBuy: 2, FinalPrice: 20, Currency: "USD"},
            {ID: "t-2", TierID: "tier-b", EventID: "e-1", TicketsToBuy: 1, FinalPrice: 15, Currency: "USD"},
        },
    })

    assert.Equal(t, "o-1", ev.OrderID)
    assert.Equal(t, int64(35), ev.FinalPrice)
    assert.Equal(t, "2026-03-01T11:30:00Z", ev.ClosedAt)
    require.Len(t, ev.Tickets, 2)
    assert.Equal(t, "tier-b", ev.Tickets[1].TierID)
    assert.Equal(t, 2, ev.Tickets[0].TicketsToBuy)
}

func TestLowStockEventNotice(t *testing.T) {
    n := LowStockEvent{RecipientEmail: "fan@example.com", EventID: "e", TierID: "t", TicketsAvailable: 2}.Notice()
    assert.Equal(t, model.LowStockNotice{RecipientEmail: "fan@example.com", EventID: "e", TierID: "t", TicketsAvailable: 2}, n)
}
