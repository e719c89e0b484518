package http

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/keyhaven/backoffice/internal/identity/domain"
	"github.com/keyhaven/backoffice/internal/identity/metrics"
	"github.com/keyhaven/backoffice/internal/identity/service"
	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/jwtx"
	"github.com/keyhaven/backoffice/pkg/slogx"

	_ "github.com/keyhaven/backoffice/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier jwtx.Verifier
	logger   *slog.Logger
	store    store.Store
	gatherer prometheus.Gatherer

	IdentityService  *service.IdentityService
	InviteService    *service.InviteService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	verifier jwtx.Verifier,
	st store.Store,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:      http.NewServeMux(),
		verifier: verifier,
		store:    st,
		gatherer: gatherer,
		logger:   logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerInvitations()
	r.registerUsers()
	r.registerBootstrap()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			KeyHaven Back Office Identity API
//	@version		0.1.0
//	@description	Invitation-based identity service for the KeyHaven back office:
//	@description	login, invitation lifecycle, password recovery, email verification
//	@description	and user administration.
//
//	@contact.name				KeyHaven Engineering
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session credential. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{IdentityService: r.IdentityService}
	password := &PasswordHandler{IdentityService: r.IdentityService}
	verify := &VerifyHandler{IdentityService: r.IdentityService}

	// Credential endpoints get the strict profile, keyed by client IP.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(password.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(password.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.Chain(http.HandlerFunc(verify.HandleVerify),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Authenticated; any active role may ask for a fresh verification mail.
	r.Mux.Handle("POST /v1/auth/resend-verification",
		httpx.Chain(http.HandlerFunc(verify.HandleResend),
			httpx.AuthnMiddleware(r.verifier),
			requireRole(r.store),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{InviteService: r.InviteService}

	admin := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			requireRole(r.store, domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/invitations", admin(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("GET /v1/invitations", admin(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("POST /v1/invitations/{id}/resend", admin(http.HandlerFunc(h.HandleResend)))
	r.Mux.Handle("POST /v1/invitations/{id}/revoke", admin(http.HandlerFunc(h.HandleRevoke)))
	r.Mux.Handle("DELETE /v1/invitations/{id}", admin(http.HandlerFunc(h.HandleDelete)))

	// Public redemption endpoint, strict by IP.
	r.Mux.Handle("POST /v1/invitations/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{IdentityService: r.IdentityService}

	admin := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			requireRole(r.store, domain.RoleAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/users", admin(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("PUT /v1/users/{id}/role", admin(http.HandlerFunc(h.HandleUpdateRole)))
	r.Mux.Handle("PUT /v1/users/{id}/status", admin(http.HandlerFunc(h.HandleUpdateStatus)))

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.AuthnMiddleware(r.verifier),
			requireRole(r.store),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerBootstrap() {
	h := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /v1/bootstrap",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler())
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store))
	r.Mux.Handle("GET /metrics", metrics.Handler(r.gatherer))
}
