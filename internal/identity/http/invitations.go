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

type InvitationsHandler struct {
	InviteService *service.InviteService
}

// HandleCreate godoc
//
//	@Summary		Create Invitation Endpoint
//	@Description	Invite a new back-office user. At most one pending invitation may exist
//	@Description	per email; the raw invitation token travels only inside the invitation
//	@Description	email, never through the API. Admin only.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.InviteCreateRequest	true	"Email and role"
//	@Success		201		{object}	identitysdk.InvitationInfo		"invitation"
//	@Failure		400		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations [post].
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.InviteCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateInviteCreate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	inviterID := httpx.UserIDFromContext(ctx)

	inv, err := h.InviteService.Create(ctx, req.Email, domain.Role(req.Role), inviterID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "conflict", "Email already belongs to a user")
		case errors.Is(err, service.ErrInvitePending):
			writeError(w, http.StatusConflict, "conflict", "A pending invitation for this email already exists")
		case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidInviteRequest):
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid invitation parameters")
		default:
			log.Error("failed to create invitation", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to create invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, invitationInfo(inv))
}

// HandleList godoc
//
//	@Summary		List Invitations Endpoint
//	@Description	List all invitations, newest first, across every lifecycle status. Admin only.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{array}		identitysdk.InvitationInfo	"invitations"
//	@Failure		401	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		403	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations [get].
func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	invs, err := h.InviteService.List(ctx)
	if err != nil {
		log.Error("failed to list invitations", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "Failed to list invitations")
		return
	}

	out := make([]identitysdk.InvitationInfo, 0, len(invs))
	for _, inv := range invs {
		out = append(out, invitationInfo(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleResend godoc
//
//	@Summary		Resend Invitation Endpoint
//	@Description	Rotate the token of a pending invitation and re-send the email. The
//	@Description	previous token stops working immediately. Admin only.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string						true	"Invitation id"
//	@Success		200	{object}	identitysdk.InvitationInfo	"invitation"
//	@Failure		404	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		409	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id}/resend [post].
func (h *InvitationsHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	inv, err := h.InviteService.Resend(ctx, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Invitation not found")
		case errors.Is(err, service.ErrInviteNotPending):
			writeError(w, http.StatusConflict, "conflict", "Invitation is not pending")
		default:
			log.Error("failed to resend invitation", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to resend invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitationInfo(inv))
}

// HandleRevoke godoc
//
//	@Summary		Revoke Invitation Endpoint
//	@Description	Withdraw a pending invitation. Revocation is terminal: the invitation's
//	@Description	token can never be redeemed afterwards. Admin only.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path	string	true	"Invitation id"
//	@Success		204	"revoked"
//	@Failure		404	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		409	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id}/revoke [post].
func (h *InvitationsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	err := h.InviteService.Revoke(ctx, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Invitation not found")
		case errors.Is(err, service.ErrInviteNotPending):
			writeError(w, http.StatusConflict, "conflict", "Invitation is not pending")
		default:
			log.Error("failed to revoke invitation", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to revoke invitation")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete godoc
//
//	@Summary		Delete Invitation Endpoint
//	@Description	Permanently remove an invitation record, regardless of status. Admin only.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path	string	true	"Invitation id"
//	@Success		204	"deleted"
//	@Failure		404	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Failure		500	{object}	identitysdk.ErrorResponse	"error, error_description"
//	@Security		BearerAuth
//	@Router			/v1/invitations/{id} [delete].
func (h *InvitationsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	err := h.InviteService.Delete(ctx, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusNotFound, "not_found", "Invitation not found")
		default:
			log.Error("failed to delete invitation", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to delete invitation")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAccept godoc
//
//	@Summary		Accept Invitation Endpoint
//	@Description	Redeem an invitation token and create the invited account with the chosen
//	@Description	password. The only way a user comes into existence outside bootstrap.
//	@Tags			Invitations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		identitysdk.InviteAcceptRequest	true	"Token and password"
//	@Success		201		{object}	identitysdk.UserInfo			"created user"
//	@Failure		400		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		410		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	identitysdk.ErrorResponse		"error, error_description"
//	@Router			/v1/invitations/accept [post].
func (h *InvitationsHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req identitysdk.InviteAcceptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateInviteAccept(req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.InviteService.Accept(ctx, req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			writeError(w, http.StatusBadRequest, "invalid_token", "Invitation token is not valid")
		case errors.Is(err, service.ErrInviteExpired):
			writeError(w, http.StatusGone, "expired", "Invitation has expired")
		case errors.Is(err, service.ErrInviteAlreadyUsed):
			writeError(w, http.StatusConflict, "already_used", "Invitation has already been accepted")
		case errors.Is(err, service.ErrEmailTaken):
			writeError(w, http.StatusConflict, "conflict", "Email already belongs to a user")
		default:
			log.Error("failed to accept invitation", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "Failed to accept invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userInfo(user))
}
