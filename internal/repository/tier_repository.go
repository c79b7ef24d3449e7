package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/model"
)

// TierRepo is the inventory ledger.  It owns the tickets_available counter
// of every pricing tier (tickets_details table).  The only write it offers
// to the checkout path is a conditional decrement executed as one
// statement, so concurrent checkouts can never push a tier below zero.
type TierRepo struct {
    db *sql.DB
}

// NewTierRepo returns a TierRepo bound to the given database.
func NewTierRepo(db *sql.DB) *TierRepo { return &TierRepo{db: db} }

const tierColumns = `id, event_id, nominal_price, tickets_available, tickets_per_person, currency, zone, updated_at, deleted_at`

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanTier(s rowScanner) (*model.PricingTier, error) {
    var t model.PricingTier
    var deletedAt sql.NullTime
    if err := s.Scan(&t.ID, &t.EventID, &t.NominalPrice, &t.TicketsAvailable, &t.TicketsPerPerson,
        &t.Currency, &t.Zone, &t.UpdatedAt, &deletedAt); err != nil {
        return nil, err
    }
    if deletedAt.Valid {
        d := deletedAt.Time
        t.DeletedAt = &d
    }
    return &t, nil
}

// Create inserts a tier.  It belongs to the events collaborator's write
// path and is used by seeding tools.  The generated ID is set on t.
func (r *TierRepo) Create(ctx context.Context, t *model.PricingTier) error {
    if t.TicketsAvailable < 0 {
        return fmt.Errorf("%w: tickets_available must not be negative", ErrInvalidInput)
    }
    t.ID = uuid.NewString()
    t.UpdatedAt = time.Now().UTC()
    const q = `INSERT INTO tickets_details (id, event_id, nominal_price, tickets_available, tickets_per_person, currency, zone, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q, t.ID, t.EventID, t.NominalPrice, t.TicketsAvailable,
        t.TicketsPerPerson, t.Currency, t.Zone, t.UpdatedAt)
    return err
}

// GetByID returns a live (not soft deleted) tier.  ErrNotFound otherwise.
func (r *TierRepo) GetByID(ctx context.Context, id string) (*model.PricingTier, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+tierColumns+` FROM tickets_details WHERE id = ? AND deleted_at IS NULL`, id)
    t, err := scanTier(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return t, err
}

// GetByIDTx is GetByID inside a transaction.
func (r *TierRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.PricingTier, error) {
    row := tx.QueryRowContext(ctx,
        `SELECT `+tierColumns+` FROM tickets_details WHERE id = ? AND deleted_at IS NULL`, id)
    t, err := scanTier(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return t, err
}

// ListByEvent returns the live tiers of an event ordered by price.
func (r *TierRepo) ListByEvent(ctx context.Context, eventID string) ([]model.PricingTier, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+tierColumns+` FROM tickets_details WHERE event_id = ? AND deleted_at IS NULL ORDER BY nominal_price, id`,
        eventID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    tiers := make([]model.PricingTier, 0)
    for rows.Next() {
        t, err := scanTier(rows)
        if err != nil {
            return nil, err
        }
        tiers = append(tiers, *t)
    }
    return tiers, rows.Err()
}

// Availability returns the remaining stock of a live tier.  It serves
// reporting reads only; checkout never decides on a value read here.
func (r *TierRepo) Availability(ctx context.Context, id string) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT tickets_available FROM tickets_details WHERE id = ? AND deleted_at IS NULL`, id).Scan(&n)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrNotFound
    }
    return n, err
}

// TryDecrementTx subtracts qty from a tier's stock if, and only if, the
// result stays non-negative.  The check and the write are one UPDATE so no
// other transaction can interleave between them.  It returns the stock
// left after the decrement.  When no row qualifies the tier is either
// missing (ErrNotFound) or short (*InventoryExhaustedError); in both cases
// the caller must roll back.
func (r *TierRepo) TryDecrementTx(ctx context.Context, tx *sql.Tx, tierID string, qty int) (int, error) {
    if qty < 1 {
        return 0, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
    }
    const q = `UPDATE tickets_details
               SET tickets_available = tickets_available - ?, updated_at = ?
               WHERE id = ? AND deleted_at IS NULL AND tickets_available >= ?`
    res, err := tx.ExecContext(ctx, q, qty, time.Now().UTC(), tierID, qty)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    var left int
    err = tx.QueryRowContext(ctx,
        `SELECT tickets_available FROM tickets_details WHERE id = ? AND deleted_at IS NULL`, tierID).Scan(&left)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrNotFound
    }
    if err != nil {
        return 0, err
    }
    if n != 1 {
        return left, &InventoryExhaustedError{TierID: tierID, Requested: qty}
    }
    return left, nil
}

// TryDecrement runs TryDecrementTx in its own transaction.
func (r *TierRepo) TryDecrement(ctx context.Context, tierID string, qty int) (int, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    left, err := r.TryDecrementTx(ctx, tx, tierID, qty)
    if err != nil {
        return left, err
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return left, nil
}
