package domain

import "time"

// TokenPurpose distinguishes the two single-use recovery capabilities.
type TokenPurpose string

const (
	PurposeReset  TokenPurpose = "RESET"
	PurposeVerify TokenPurpose = "VERIFY"
)

// RecoveryToken is a single-purpose, single-use capability for one
// existing User: a password reset or an email verification. Redemption
// sets UsedAt atomically with the effect it authorizes. Issuing a new
// token does not invalidate older outstanding ones of the same purpose.
type RecoveryToken struct {
	ID        string
	UserID    string
	Purpose   TokenPurpose
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
