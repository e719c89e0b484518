package http

import (
	"errors"
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

type VerifyHandler struct {
	IdentityService *service.IdentityService
}

// HandleVerify godoc
//
//	@Summary		Verify Email Endpoint
//	@Description	Redeem an email verification token and mark the address verified.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body	identitysdk.VerifyEmailRequest	true	"Token"
//	@Success		204		"email verified"
//	@Failure		400		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/verify-email [post].
func (h *VerifyHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.VerifyEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateVerifyEmail(req); err != nil {
		writeValidationError(w, err)
		return
	}

	err := h.IdentityService.VerifyEmail(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound):
			writeError(w, http.StatusBadRequest, "invalid_token", "Token is not valid")
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			writeError(w, http.StatusConflict, "already_used", "Token has already been used")
		case errors.Is(err, service.ErrTokenExpired):
			writeError(w, http.StatusGone, "expired", "Token has expired")
		default:
			log.Error("verify-email failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Request failed")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleResend godoc
//
//	@Summary		Resend Verification Endpoint
//	@Description	Issue a fresh email verification token for the authenticated user and
//	@Description	email the link. Earlier tokens stay valid until used or expired.
//	@Tags			Auth
//	@Produce		json
//	@Success		202	"accepted"
//	@Failure		401	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		409	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/auth/resend-verification [post].
func (h *VerifyHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	err := h.IdentityService.SendEmailVerification(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailVerified):
			writeError(w, http.StatusConflict, "already_verified", "Email address is already verified")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		default:
			log.Error("resend-verification failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Request failed")
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
