package http

import (
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/slogx"
)

// requireRole is the authorization guard behind AuthnMiddleware. It
// reloads the user from the store on every request, so role changes and
// deactivation take effect immediately rather than when the session
// credential expires. The role claim inside the credential is treated as
// a hint only.
func requireRole(st store.Store, roles ...domain.Role) httpx.Middleware {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			userID := httpx.UserIDFromContext(ctx)
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}

			user, err := st.Users().GetUserByID(ctx, userID)
			if err != nil {
				// Deleted users hold dead credentials.
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}

			if !user.IsActive {
				log.Warn("request from deactivated account", "user_id", user.ID)
				writeError(w, http.StatusForbidden, "forbidden", "Account is deactivated")
				return
			}

			if len(allowed) > 0 {
				if _, ok := allowed[user.Role]; !ok {
					log.Warn("insufficient role",
						"user_id", user.ID,
						"role", string(user.Role),
					)
					writeError(w, http.StatusForbidden, "forbidden", "Insufficient role")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
