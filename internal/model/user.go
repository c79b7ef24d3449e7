package model

import "time"

// Role names carried in the JWT "role" claim and stored in users.role.
const (
	RoleClient  = "CLIENT"
	RoleManager = "MANAGER"
)

// User represents an application user as stored in the `users` table.
// Only the fields the cart and checkout flows need are mapped; credentials
// live with the authentication collaborator.
//
// Fields:
//  ID        – UUID primary key.
//  Email     – unique address used for low-stock notifications.
//  Role      – CLIENT or MANAGER.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        string    `json:"id"`         // users.id
	Email     string    `json:"email"`      // users.email
	Role      string    `json:"role"`       // users.role
	CreatedAt time.Time `json:"created_at"` // users.created_at
}
