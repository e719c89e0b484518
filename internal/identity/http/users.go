package http

import (
	"errors"
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

type UsersHandler struct {
	IdentityService *service.IdentityService
}

// HandleList godoc
//
//	@Summary		List Users Endpoint
//	@Description	List all back-office users, newest first. Admin only.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{array}		identitysdk.UserInfo		"users"
//	@Failure		401	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/users [get].
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	users, err := h.IdentityService.ListUsers(ctx)
	if err != nil {
		log.Error("failed to list users", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to list users")
		return
	}

	out := make([]identitysdk.UserInfo, 0, len(users))
	for _, u := range users {
		out = append(out, userInfo(u))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleUpdateRole godoc
//
//	@Summary		Update Role Endpoint
//	@Description	Change a user's role. Administrators cannot change their own role. Admin only.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"User id"
//	@Param			request	body		identitysdk.UpdateRoleRequest	true	"New role"
//	@Success		200		{object}	identitysdk.UserInfo			"updated user"
//	@Failure		400		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		404		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/users/{id}/role [put].
func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateUpdateRole(req); err != nil {
		writeValidationError(w, err)
		return
	}

	actorID := httpx.UserIDFromContext(ctx)
	targetID := r.PathValue("id")

	err := h.IdentityService.UpdateRole(ctx, actorID, targetID, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "not_found", "User not found")
		case errors.Is(err, service.ErrSelfMutation):
			writeError(w, http.StatusConflict, "conflict", "Cannot change your own role")
		case errors.Is(err, service.ErrInvalidRole):
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid role")
		default:
			log.Error("failed to update role", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to update role")
		}
		return
	}

	h.writeUser(w, r, targetID)
}

// HandleUpdateStatus godoc
//
//	@Summary		Update Status Endpoint
//	@Description	Activate or deactivate an account. Administrators cannot deactivate
//	@Description	themselves. Admin only.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"User id"
//	@Param			request	body		identitysdk.UpdateStatusRequest	true	"New status"
//	@Success		200		{object}	identitysdk.UserInfo			"updated user"
//	@Failure		404		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/users/{id}/status [put].
func (h *UsersHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actorID := httpx.UserIDFromContext(ctx)
	targetID := r.PathValue("id")

	err := h.IdentityService.UpdateStatus(ctx, actorID, targetID, req.Active)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "not_found", "User not found")
		case errors.Is(err, service.ErrSelfMutation):
			writeError(w, http.StatusConflict, "conflict", "Cannot change your own status")
		default:
			log.Error("failed to update status", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to update status")
		}
		return
	}

	h.writeUser(w, r, targetID)
}

// HandleMe godoc
//
//	@Summary		Current User Endpoint
//	@Description	Return the authenticated user's own account.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	identitysdk.UserInfo		"user"
//	@Failure		401	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/me [get].
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}
	h.writeUser(w, r, userID)
}

func (h *UsersHandler) writeUser(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, err := h.IdentityService.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "User not found")
			return
		}
		log.Error("failed to fetch user", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to fetch user")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userInfo(user))
}
