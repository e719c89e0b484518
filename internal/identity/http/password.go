package http

import (
	"errors"
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

type PasswordHandler struct {
	IdentityService *service.IdentityService
}

// HandleForgot godoc
//
//	@Summary		Forgot Password Endpoint
//	@Description	Start the password recovery flow. Always returns 202, whether or not the
//	@Description	address belongs to an account, so the endpoint cannot be used to probe
//	@Description	for registered emails.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identitysdk.ForgotPasswordRequest	true	"Email"
//	@Success		202		"accepted"
//	@Failure		400		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/forgot-password [post].
func (h *PasswordHandler) HandleForgot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateForgotPassword(req); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.IdentityService.ForgotPassword(ctx, req.Email); err != nil {
		log.Error("forgot-password failed", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Request failed")
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleReset godoc
//
//	@Summary		Reset Password Endpoint
//	@Description	Redeem a password reset token and install a new password. The token is
//	@Description	single-use: a second redemption returns 409.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identitysdk.ResetPasswordRequest	true	"Token and new password"
//	@Success		204		"password updated"
//	@Failure		400		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/reset-password [post].
func (h *PasswordHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateResetPassword(req); err != nil {
		writeValidationError(w, err)
		return
	}

	err := h.IdentityService.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound):
			writeError(w, http.StatusBadRequest, "invalid_token", "Token is not valid")
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			writeError(w, http.StatusConflict, "already_used", "Token has already been used")
		case errors.Is(err, service.ErrTokenExpired):
			writeError(w, http.StatusGone, "expired", "Token has expired")
		default:
			log.Error("reset-password failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Request failed")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
