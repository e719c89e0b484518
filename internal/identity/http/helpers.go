package http

import (
	"encoding/json"
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
)

// decodeJSON parses the request body into dst and writes the standard
// 400 response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, code int, errCode, desc string) {
	httpx.WriteJSON(w, code, identitysdk.ErrorResponse{
		Error:            errCode,
		ErrorDescription: desc,
	})
}

// writeValidationError reports a failed DTO validation. Ozzo error
// strings already name the offending field.
func writeValidationError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
}

func userInfo(u domain.User) identitysdk.UserInfo {
	return identitysdk.UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		Role:          string(u.Role),
		Active:        u.IsActive,
		EmailVerified: u.EmailVerifiedAt != nil,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func invitationInfo(inv domain.Invitation) identitysdk.InvitationInfo {
	return identitysdk.InvitationInfo{
		ID:         inv.ID,
		Email:      inv.Email,
		Role:       string(inv.Role),
		Status:     string(inv.Status),
		InvitedBy:  inv.InviterID,
		ExpiresAt:  inv.ExpiresAt,
		CreatedAt:  inv.CreatedAt,
		AcceptedAt: inv.AcceptedAt,
	}
}
