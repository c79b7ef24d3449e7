// Package dbtest provides a migrated SQLite database and row seeding
// helpers for tests that need a real transactional store.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/database"
)

// Open returns a freshly migrated SQLite database living in t.TempDir().
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db, database.SQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// User inserts a CLIENT user and returns its id.
func User(t testing.TB, db *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO users (id, email, role, created_at) VALUES (?, ?, 'CLIENT', ?)`,
		id, email, time.Now().UTC())
	return id
}

// Event inserts a SCHEDULED event managed by managerID and returns its id.
func Event(t testing.TB, db *sql.DB, managerID string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	exec(t, db, `INSERT INTO events (id, user_id, title, status, date, created_at) VALUES (?, ?, ?, 'SCHEDULED', ?, ?)`,
		id, managerID, "event "+id[:8], now.Add(24*time.Hour), now)
	return id
}

// Like records that userID liked eventID.
func Like(t testing.TB, db *sql.DB, eventID, userID string) {
	t.Helper()
	exec(t, db, `INSERT INTO event_likes (event_id, user_id) VALUES (?, ?)`, eventID, userID)
}

// Tier inserts a USD pricing tier with the given stock and returns its id.
func Tier(t testing.TB, db *sql.DB, eventID string, available int) string {
	t.Helper()
	id := uuid.NewString()
	exec(t, db, `INSERT INTO tickets_details (id, event_id, nominal_price, tickets_available, tickets_per_person, currency, zone, updated_at)
        VALUES (?, ?, 1000, ?, 10, 'USD', 'GENERAL', ?)`, id, eventID, available, time.Now().UTC())
	return id
}

// LegacyCart inserts an open cart without claiming the cart_owner slot,
// reproducing rows written before the uniqueness constraint existed.
func LegacyCart(t testing.TB, db *sql.DB, userID string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	exec(t, db, `INSERT INTO orders (id, user_id, status, final_price, created_at, updated_at) VALUES (?, ?, 'CART', 0, ?, ?)`,
		id, userID, now, now)
	return id
}

// Available reads tickets_available for a tier.
func Available(t testing.TB, db *sql.DB, tierID string) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT tickets_available FROM tickets_details WHERE id = ?`, tierID).Scan(&n); err != nil {
		t.Fatalf("read availability: %v", err)
	}
	return n
}

func exec(t testing.TB, db *sql.DB, q string, args ...interface{}) {
	t.Helper()
	if _, err := db.Exec(q, args...); err != nil {
		t.Fatalf("seed: %v", err)
	}
}
