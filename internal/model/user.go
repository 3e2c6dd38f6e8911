package model

import "time"

// Staff roles. Admins manage the menu; both roles run bills.
const (
	RoleAdmin  = "admin"
	RoleWaiter = "waiter"
)

// User is a staff account as stored in the `users` table.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	RestaurantID – restaurant the account belongs to.
//	Email        – unique, lower-cased email address.
//	Name         – display name.
//	PasswordHash – bcrypt hashed password, never serialized.
//	Role         – admin or waiter.
//	IsActive     – whether the account may sign in.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`            // users.id
	RestaurantID uint64    `json:"restaurant_id"` // users.restaurant_id
	Email        string    `json:"email"`         // users.email
	Name         string    `json:"name"`          // users.name
	PasswordHash string    `json:"-"`             // users.password_hash
	Role         string    `json:"role"`          // users.role
	IsActive     bool      `json:"is_active"`     // users.is_active
	CreatedAt    time.Time `json:"created_at"`    // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`    // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is never stored, only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
