package identitysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the KeyHaven back office identity service.
// It provides access to unauthenticated operations and can create
// authenticated Sessions via Login.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new identity service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges email and password for an authenticated Session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{
		Email:    email,
		Password: password,
	}, &out, http.StatusOK)
	if err != nil {
		return nil, err
	}

	return &Session{
		client:      c,
		accessToken: out.AccessToken,
		expiresAt:   out.ExpiresAt,
		user:        out.User,
	}, nil
}

// Bootstrap creates the first administrator account on a fresh deployment.
func (c *SDKClient) Bootstrap(ctx context.Context, token, email, password string) (*UserInfo, error) {
	var out UserInfo
	err := c.postJSON(ctx, "/v1/bootstrap", BootstrapRequest{
		Token:    token,
		Email:    email,
		Password: password,
	}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptInvitation redeems an invitation token and creates the account.
func (c *SDKClient) AcceptInvitation(ctx context.Context, token, password string) (*UserInfo, error) {
	var out UserInfo
	err := c.postJSON(ctx, "/v1/invitations/accept", InviteAcceptRequest{
		Token:    token,
		Password: password,
	}, &out, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword requests a password reset mail. The service responds 202
// whether or not the email is known.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/v1/auth/forgot-password", ForgotPasswordRequest{
		Email: email,
	}, nil, http.StatusAccepted)
}

// ResetPassword redeems a reset token and sets a new password.
func (c *SDKClient) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.postJSON(ctx, "/v1/auth/reset-password", ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	}, nil, http.StatusNoContent)
}

// VerifyEmail redeems an email verification token.
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) error {
	return c.postJSON(ctx, "/v1/auth/verify-email", VerifyEmailRequest{
		Token: token,
	}, nil, http.StatusNoContent)
}

// Livez reports whether the service process is up.
func (c *SDKClient) Livez(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, body)
	}
	return nil
}

// Readyz reports whether the service can reach its dependencies.
func (c *SDKClient) Readyz(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, body)
	}
	return nil
}

// url builds a complete URL by appending the path to the base URL.
func (c *SDKClient) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request with the SDKClient's HTTP client.
// This is for unauthenticated requests (no Authorization header).
func (c *SDKClient) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// postJSON sends a JSON body and decodes a JSON response when target is non-nil.
func (c *SDKClient) postJSON(ctx context.Context, path string, in any, target any, expectedStatus int) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return err
	}

	return decodeJSON(resp, target, expectedStatus)
}

// decodeJSON decodes a JSON response into the target. A nil target only
// checks the status code. Returns a typed *APIError on non-2xx responses.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
