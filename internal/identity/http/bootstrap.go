package http

import (
	"errors"
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP godoc
//
//	@Summary		Bootstrap Endpoint
//	@Description	Create the first administrator on a fresh deployment. Closed permanently
//	@Description	once any user exists; optionally gated by a pre-configured token.
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.BootstrapRequest	true	"Bootstrap data"
//	@Success		201		{object}	identitysdk.UserInfo			"created administrator"
//	@Failure		400		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.BootstrapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateBootstrap(req); err != nil {
		writeValidationError(w, err)
		return
	}

	admin, err := h.BootstrapService.Bootstrap(ctx, req.Token, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			writeError(w, http.StatusConflict, "conflict", "System is already bootstrapped")
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid bootstrap token")
		default:
			log.Error("bootstrap failed", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Bootstrap failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userInfo(admin))
}
