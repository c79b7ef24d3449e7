package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo reads events and their likes.  Event CRUD belongs to the events
// collaborator; Create and Like exist for seeding.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Create inserts an event and sets its generated ID.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	if e.Status == "" {
		e.Status = model.EventScheduled
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, user_id, title, status, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.ManagerID, e.Title, e.Status, e.Date.UTC(), e.CreatedAt)
	return err
}

// Like records that a user likes an event.  Liking twice is a no-op.
func (r *EventRepo) Like(ctx context.Context, eventID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_likes (event_id, user_id) VALUES (?, ?)`, eventID, userID)
	if err != nil && isDuplicate(err) {
		return nil
	}
	return err
}

// GetByIDTx loads an event, including soft deleted ones, so callers can
// tell a deleted event from a missing one.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Event, error) {
	var e model.Event
	var deletedAt sql.NullTime
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, title, status, date, created_at, deleted_at FROM events WHERE id = ?`, id).
		Scan(&e.ID, &e.ManagerID, &e.Title, &e.Status, &e.Date, &e.CreatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		d := deletedAt.Time
		e.DeletedAt = &d
	}
	return &e, nil
}

// LikerEmailsTx returns, per event ID, the emails of the users who liked
// the event.  Events without likes are absent from the map.
func (r *EventRepo) LikerEmailsTx(ctx context.Context, tx *sql.Tx, eventIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(eventIDs) == 0 {
		return out, nil
	}
	args := make([]interface{}, 0, len(eventIDs))
	placeholders := make([]string, 0, len(eventIDs))
	for _, id := range eventIDs {
		args = append(args, id)
		placeholders = append(placeholders, "?")
	}
	q := `SELECT l.event_id, u.email
          FROM event_likes l
          JOIN users u ON u.id = l.user_id
          WHERE l.event_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY l.event_id, u.email`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var eventID, email string
		if err := rows.Scan(&eventID, &email); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], email)
	}
	return out, rows.Err()
}
