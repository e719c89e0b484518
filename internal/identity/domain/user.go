package domain

import "time"

// User is an account capable of authenticating. Users are never created
// directly: the only paths are invitation acceptance and the one-time
// operator bootstrap.
type User struct {
	ID              string
	Email           string // stored lowercase; unique
	PasswordHash    string // argon2id PHC string, never serialized outward
	Role            Role
	IsActive        bool
	EmailVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
