package identitysdk

import "time"

// ErrorResponse is the error body every endpoint returns on failure.
type ErrorResponse struct {
	// Error is the machine-readable error code (e.g. "invalid_request",
	// "invalid_credentials", "conflict").
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description"`
}

// UserInfo is the outward representation of a user. The password hash
// never leaves the server.
type UserInfo struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Active        bool       `json:"active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// InvitationInfo is the outward representation of an invitation. The
// token hash stays server-side; only lifecycle metadata is exposed.
type InvitationInfo struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	InvitedBy  string     `json:"invited_by"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// LoginRequest authenticates an email/password pair.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session credential minted by a successful
// login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"` // always "Bearer"
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserInfo  `json:"user"`
}

// ForgotPasswordRequest starts the password recovery flow. The response
// is an empty 202 regardless of whether the address is known.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the password recovery flow.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyEmailRequest redeems an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// InviteCreateRequest asks for a new invitation.
type InviteCreateRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteAcceptRequest redeems an invitation token, choosing the new
// account's password.
type InviteAcceptRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateStatusRequest activates or deactivates a user.
type UpdateStatusRequest struct {
	Active bool `json:"active"`
}

// BootstrapRequest creates the first administrator on a fresh deployment.
type BootstrapRequest struct {
	Token    string `json:"token,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}
