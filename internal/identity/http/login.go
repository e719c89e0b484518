package http

import (
	"errors"
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

type LoginHandler struct {
	IdentityService *service.IdentityService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Authenticate an email/password pair and mint a session credential.
//	@Description	Unknown email, wrong password and deactivated accounts all return the same 401.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	identitysdk.LoginResponse	"access_token, token_type, expires_at, user"
//	@Failure		400		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateLogin(req); err != nil {
		writeValidationError(w, err)
		return
	}

	sess, err := h.IdentityService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}
		log.Error("login failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Login failed")
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, identitysdk.LoginResponse{
		AccessToken: sess.Token,
		TokenType:   "Bearer",
		ExpiresAt:   sess.ExpiresAt,
		User:        userInfo(sess.User),
	})
}
