package domain

import "time"

// InviteStatus is the invitation lifecycle state. PENDING is the only
// non-terminal state; no transition ever re-enters it.
type InviteStatus string

const (
	InvitePending  InviteStatus = "PENDING"
	InviteAccepted InviteStatus = "ACCEPTED"
	InviteExpired  InviteStatus = "EXPIRED"
	InviteRevoked  InviteStatus = "REVOKED"
)

// Terminal reports whether no further transition is allowed from s.
func (s InviteStatus) Terminal() bool { return s != InvitePending }

// Invitation is an offer to create a User. TokenHash is the SHA-256
// fingerprint of the opaque invite token; the raw token exists only inside
// the outbound invitation email. An invitation holds exactly one live
// token: resending replaces both hash and expiry.
type Invitation struct {
	ID             string
	Email          string
	Role           Role
	InviterID      string
	Status         InviteStatus
	TokenHash      string
	ExpiresAt      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	AcceptedAt     *time.Time
	AcceptedUserID *string
}
