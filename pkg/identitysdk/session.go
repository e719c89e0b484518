package identitysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Session is an authenticated handle to the identity service. It carries a
// bearer session credential obtained from Login. Sessions do not auto-renew:
// when the credential expires the caller logs in again.
type Session struct {
	client      *SDKClient
	accessToken string
	expiresAt   time.Time
	user        UserInfo
}

// User returns the profile captured at login time.
func (s *Session) User() UserInfo { return s.user }

// ExpiresAt returns when the session credential expires.
func (s *Session) ExpiresAt() time.Time { return s.expiresAt }

// AccessToken exposes the raw credential, e.g. to persist between runs.
func (s *Session) AccessToken() string { return s.accessToken }

// Me fetches the caller's current profile from the service.
func (s *Session) Me(ctx context.Context) (*UserInfo, error) {
	var out UserInfo
	if err := s.getJSON(ctx, "/v1/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInvitation invites a new back office user. ADMIN only.
func (s *Session) CreateInvitation(ctx context.Context, email, role string) (*InvitationInfo, error) {
	var out InvitationInfo
	err := s.postJSON(ctx, "/v1/invitations", InviteCreateRequest{
		Email: email,
		Role:  role,
	}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvitations returns all invitation records. ADMIN only.
func (s *Session) ListInvitations(ctx context.Context) ([]InvitationInfo, error) {
	var out []InvitationInfo
	if err := s.getJSON(ctx, "/v1/invitations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResendInvitation rotates a pending invitation's token and resends the
// mail. The previous token stops working. ADMIN only.
func (s *Session) ResendInvitation(ctx context.Context, id string) (*InvitationInfo, error) {
	var out InvitationInfo
	err := s.postJSON(ctx, "/v1/invitations/"+id+"/resend", nil, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RevokeInvitation cancels a pending invitation. ADMIN only.
func (s *Session) RevokeInvitation(ctx context.Context, id string) error {
	return s.postJSON(ctx, "/v1/invitations/"+id+"/revoke", nil, nil, http.StatusNoContent)
}

// DeleteInvitation removes an invitation record in any status. ADMIN only.
func (s *Session) DeleteInvitation(ctx context.Context, id string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/v1/invitations/"+id, nil, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusNoContent)
}

// ListUsers returns all back office users. ADMIN only.
func (s *Session) ListUsers(ctx context.Context) ([]UserInfo, error) {
	var out []UserInfo
	if err := s.getJSON(ctx, "/v1/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateUserRole changes a user's role. ADMIN only; admins cannot change
// their own role.
func (s *Session) UpdateUserRole(ctx context.Context, id, role string) (*UserInfo, error) {
	var out UserInfo
	err := s.putJSON(ctx, "/v1/users/"+id+"/role", UpdateRoleRequest{Role: role}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUserStatus activates or deactivates a user. ADMIN only; admins
// cannot deactivate themselves.
func (s *Session) UpdateUserStatus(ctx context.Context, id string, active bool) (*UserInfo, error) {
	var out UserInfo
	err := s.putJSON(ctx, "/v1/users/"+id+"/status", UpdateStatusRequest{Active: active}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendVerification asks the service to mail a fresh email verification
// token to the caller.
func (s *Session) ResendVerification(ctx context.Context) error {
	return s.postJSON(ctx, "/v1/auth/resend-verification", nil, nil, http.StatusAccepted)
}

// doAuthRequest performs an HTTP request with the session's bearer credential.
func (s *Session) doAuthRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

func (s *Session) getJSON(ctx context.Context, path string, target any) error {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, http.StatusOK)
}

func (s *Session) postJSON(ctx context.Context, path string, in any, target any, expectedStatus int) error {
	var body io.Reader
	headers := map[string]string{}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPost, path, body, headers)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

func (s *Session) putJSON(ctx context.Context, path string, in any, target any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodPut, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, http.StatusOK)
}
