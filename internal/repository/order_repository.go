package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/event-ticketing/internal/database"
    "github.com/iliyamo/event-ticketing/internal/model"
)

// OrderRepo persists orders.  An open cart holds its owner's user id in
// the unique cart_owner column; closing or deleting the order clears it,
// which is how the store enforces one open cart per user.
type OrderRepo struct {
    db      *sql.DB
    dialect database.Dialect
}

// NewOrderRepo returns an OrderRepo for the given database and dialect.
func NewOrderRepo(db *sql.DB, d database.Dialect) *OrderRepo {
    return &OrderRepo{db: db, dialect: d}
}

const orderColumns = `id, user_id, status, final_price, discounts, created_at, updated_at, deleted_at`

func scanOrder(s rowScanner) (*model.Order, error) {
    var o model.Order
    var discounts sql.NullString
    var deletedAt sql.NullTime
    if err := s.Scan(&o.ID, &o.UserID, &o.Status, &o.FinalPrice, &discounts,
        &o.CreatedAt, &o.UpdatedAt, &deletedAt); err != nil {
        return nil, err
    }
    if discounts.Valid && discounts.String != "" {
        o.Discounts = json.RawMessage(discounts.String)
    }
    if deletedAt.Valid {
        d := deletedAt.Time
        o.DeletedAt = &d
    }
    return &o, nil
}

func nullJSON(raw json.RawMessage) sql.NullString {
    if len(raw) == 0 {
        return sql.NullString{}
    }
    return sql.NullString{String: string(raw), Valid: true}
}

// ListOpenCartsTx returns every live CART order of a user, oldest first.
// On MySQL the rows are locked for the rest of the transaction.
func (r *OrderRepo) ListOpenCartsTx(ctx context.Context, tx *sql.Tx, userID string) ([]model.Order, error) {
    rows, err := tx.QueryContext(ctx,
        `SELECT `+orderColumns+` FROM orders
         WHERE user_id = ? AND status = 'CART' AND deleted_at IS NULL
         ORDER BY created_at, id`+r.dialect.LockClause(), userID)
    if err != nil {
        return nil, err
    }
    return collectOrders(rows)
}

// ListOpenCarts is ListOpenCartsTx outside a transaction.
func (r *OrderRepo) ListOpenCarts(ctx context.Context, userID string) ([]model.Order, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+orderColumns+` FROM orders
         WHERE user_id = ? AND status = 'CART' AND deleted_at IS NULL
         ORDER BY created_at, id`, userID)
    if err != nil {
        return nil, err
    }
    return collectOrders(rows)
}

func collectOrders(rows *sql.Rows) ([]model.Order, error) {
    defer rows.Close()
    out := make([]model.Order, 0)
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *o)
    }
    return out, rows.Err()
}

// CreateCartTx inserts an empty CART order for userID.  If another
// transaction claimed the user's cart slot first, ErrCartRace is returned.
func (r *OrderRepo) CreateCartTx(ctx context.Context, tx *sql.Tx, userID string) (*model.Order, error) {
    now := time.Now().UTC()
    o := &model.Order{
        ID:        uuid.NewString(),
        UserID:    userID,
        Status:    model.OrderCart,
        Tickets:   []model.Ticket{},
        CreatedAt: now,
        UpdatedAt: now,
    }
    _, err := tx.ExecContext(ctx,
        `INSERT INTO orders (id, user_id, status, final_price, cart_owner, created_at, updated_at)
         VALUES (?, ?, 'CART', 0, ?, ?, ?)`,
        o.ID, o.UserID, userID, now, now)
    if err != nil {
        return nil, cartInsertErr(err)
    }
    return o, nil
}

// cartInsertErr classifies a failed cart insert.  A concurrent first add
// by the same user ends either on the cart_owner unique key or, on MySQL,
// as a deadlock between the two gap locks taken by ListOpenCartsTx.
func cartInsertErr(err error) error {
    if database.IsDuplicateKey(err) || database.IsLockConflict(err) {
        return ErrCartRace
    }
    return err
}

// GetByIDTx loads a live order.
func (r *OrderRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Order, error) {
    o, err := scanOrder(tx.QueryRowContext(ctx,
        `SELECT `+orderColumns+` FROM orders WHERE id = ? AND deleted_at IS NULL`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return o, err
}

// AddToTotalTx adjusts the running total of an open cart by delta, which
// may be negative.  ErrCartClosed is returned when the order stopped being
// an open cart.
func (r *OrderRepo) AddToTotalTx(ctx context.Context, tx *sql.Tx, orderID string, delta int64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE orders SET final_price = final_price + ?, updated_at = ?
         WHERE id = ? AND status = 'CART' AND deleted_at IS NULL`,
        delta, time.Now().UTC(), orderID)
    if err != nil {
        return err
    }
    return expectOne(res, ErrCartClosed)
}

// CloseCartTx flips an open cart to CLOSED and releases the owner's cart
// slot.  Only one transaction can win this transition; the others get
// ErrCartClosed.
func (r *OrderRepo) CloseCartTx(ctx context.Context, tx *sql.Tx, orderID string) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE orders SET status = 'CLOSED', cart_owner = NULL, updated_at = ?
         WHERE id = ? AND status = 'CART' AND deleted_at IS NULL`,
        time.Now().UTC(), orderID)
    if err != nil {
        return err
    }
    return expectOne(res, ErrCartClosed)
}

// ListByUser returns the live orders of a user in any status, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+orderColumns+` FROM orders
         WHERE user_id = ? AND deleted_at IS NULL
         ORDER BY created_at DESC, id`, userID)
    if err != nil {
        return nil, err
    }
    return collectOrders(rows)
}

// SoftDelete marks a user's order deleted whatever its status.  Deleting
// an open cart frees the user's cart slot.
func (r *OrderRepo) SoftDelete(ctx context.Context, userID, orderID string) error {
    now := time.Now().UTC()
    res, err := r.db.ExecContext(ctx,
        `UPDATE orders SET deleted_at = ?, updated_at = ?, cart_owner = NULL
         WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
        now, now, orderID, userID)
    if err != nil {
        return err
    }
    return expectOne(res, ErrNotFound)
}

// OwnerOf returns the user id of a live order.
func (r *OrderRepo) OwnerOf(ctx context.Context, orderID string) (string, error) {
    var owner string
    err := r.db.QueryRowContext(ctx,
        `SELECT user_id FROM orders WHERE id = ? AND deleted_at IS NULL`, orderID).Scan(&owner)
    if errors.Is(err, sql.ErrNoRows) {
        return "", ErrNotFound
    }
    return owner, err
}

// expectOne turns a zero-row UPDATE into the given error.
func expectOne(res sql.Result, zero error) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return zero
    }
    return nil
}
