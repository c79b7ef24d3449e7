package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// TicketRepo persists ticket line items.
type TicketRepo struct {
    db *sql.DB
}

// NewTicketRepo returns a TicketRepo over db.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = `id, order_id, tickets_detail_id, event_id, status, final_price, tickets_to_buy, currency, discounts, created_at, updated_at, deleted_at`

func scanTicket(s rowScanner) (*model.Ticket, error) {
    var t model.Ticket
    var discounts sql.NullString
    var deletedAt sql.NullTime
    if err := s.Scan(&t.ID, &t.OrderID, &t.TierID, &t.EventID, &t.Status, &t.FinalPrice,
        &t.TicketsToBuy, &t.Currency, &discounts, &t.CreatedAt, &t.UpdatedAt, &deletedAt); err != nil {
        return nil, err
    }
    if discounts.Valid && discounts.String != "" {
        t.Discounts = json.RawMessage(discounts.String)
    }
    if deletedAt.Valid {
        d := deletedAt.Time
        t.DeletedAt = &d
    }
    return &t, nil
}

func collectTickets(rows *sql.Rows) ([]model.Ticket, error) {
    defer rows.Close()
    out := make([]model.Ticket, 0)
    for rows.Next() {
        t, err := scanTicket(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *t)
    }
    return out, rows.Err()
}

// CreateTx inserts a RESERVED ticket and fills in its id and timestamps.
func (r *TicketRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
    now := time.Now().UTC()
    t.ID = uuid.NewString()
    t.Status = model.TicketReserved
    t.CreatedAt = now
    t.UpdatedAt = now
    _, err := tx.ExecContext(ctx,
        `INSERT INTO tickets (id, order_id, tickets_detail_id, event_id, status, final_price, tickets_to_buy, currency, discounts, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        t.ID, t.OrderID, t.TierID, t.EventID, t.Status, t.FinalPrice, t.TicketsToBuy,
        t.Currency, nullJSON(t.Discounts), now, now)
    return err
}

// GetByID returns a live ticket.
func (r *TicketRepo) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
    t, err := scanTicket(r.db.QueryRowContext(ctx,
        `SELECT `+ticketColumns+` FROM tickets WHERE id = ? AND deleted_at IS NULL`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return t, err
}

// GetByIDTx is GetByID inside a transaction.
func (r *TicketRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Ticket, error) {
    t, err := scanTicket(tx.QueryRowContext(ctx,
        `SELECT `+ticketColumns+` FROM tickets WHERE id = ? AND deleted_at IS NULL`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return t, err
}

// UpdateTx rewrites the caller editable fields of a RESERVED ticket.
// ErrConflictState is returned when the ticket is no longer reserved.
func (r *TicketRepo) UpdateTx(ctx context.Context, tx *sql.Tx, t *model.Ticket) error {
    t.UpdatedAt = time.Now().UTC()
    res, err := tx.ExecContext(ctx,
        `UPDATE tickets
         SET tickets_detail_id = ?, event_id = ?, final_price = ?, tickets_to_buy = ?, currency = ?, discounts = ?, updated_at = ?
         WHERE id = ? AND status = 'RESERVED' AND deleted_at IS NULL`,
        t.TierID, t.EventID, t.FinalPrice, t.TicketsToBuy, t.Currency, nullJSON(t.Discounts), t.UpdatedAt, t.ID)
    if err != nil {
        return err
    }
    return expectOne(res, ErrConflictState)
}

// SoftDeleteTx marks a RESERVED ticket deleted.
func (r *TicketRepo) SoftDeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
    now := time.Now().UTC()
    res, err := tx.ExecContext(ctx,
        `UPDATE tickets SET deleted_at = ?, updated_at = ?
         WHERE id = ? AND status = 'RESERVED' AND deleted_at IS NULL`,
        now, now, id)
    if err != nil {
        return err
    }
    return expectOne(res, ErrConflictState)
}

// ListLiveByOrderTx returns the live RESERVED tickets of an order in
// creation order.
func (r *TicketRepo) ListLiveByOrderTx(ctx context.Context, tx *sql.Tx, orderID string) ([]model.Ticket, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT `+ticketColumns+` FROM tickets
         WHERE order_id = ? AND status = 'RESERVED' AND deleted_at IS NULL
         ORDER BY created_at, id`, orderID)
    if err != nil {
        return nil, err
    }
    return collectTickets(rows)
}

// ListByOrders returns the live tickets of the given orders in any status,
// grouped by order id.
func (r *TicketRepo) ListByOrders(ctx context.Context, orderIDs []string) (map[string][]model.Ticket, error) {
    out := make(map[string][]model.Ticket, len(orderIDs))
    if len(orderIDs) == 0 {
        return out, nil
    }
    args := make([]interface{}, 0, len(orderIDs))
    for _, id := range orderIDs {
        args = append(args, id)
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+ticketColumns+` FROM tickets
         WHERE order_id IN (`+placeholders+`) AND deleted_at IS NULL
         ORDER BY created_at, id`, args...)
    if err != nil {
        return nil, err
    }
    tickets, err := collectTickets(rows)
    if err != nil {
        return nil, err
    }
    for _, t := range tickets {
        out[t.OrderID] = append(out[t.OrderID], t)
    }
    return out, nil
}

// MarkPaidTx flips every live RESERVED ticket of an order to PAID and
// returns how many were changed.
func (r *TicketRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, orderID string) (int64, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE tickets SET status = 'PAID', updated_at = ?
         WHERE order_id = ? AND status = 'RESERVED' AND deleted_at IS NULL`,
        time.Now().UTC(), orderID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// OwnerOf returns the user id owning the order a live ticket belongs to.
func (r *TicketRepo) OwnerOf(ctx context.Context, ticketID string) (string, error) {
    var owner string
    err := r.db.QueryRowContext(ctx,
        `SELECT o.user_id FROM tickets t
         JOIN orders o ON o.id = t.order_id
         WHERE t.id = ? AND t.deleted_at IS NULL AND o.deleted_at IS NULL`, ticketID).Scan(&owner)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrNotFound
    }
    return owner, err
}
