package http

import (
	"net/http"

	"github.com/keyhaven/backoffice/internal/identity/store"
	"github.com/keyhaven/backoffice/pkg/httpx"
	"github.com/keyhaven/backoffice/pkg/identitysdk"
)

// LivezHandler godoc
//
//	@Summary		Liveness Endpoint
//	@Description	Liveness probe; returns 200 whenever the process is running.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	identitysdk.HealthResponse	"status"
//	@Router			/livez [get].
func LivezHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, identitysdk.HealthResponse{Status: "ok"})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Endpoint
//	@Description	Readiness probe; verifies the database connection.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	identitysdk.HealthResponse	"status"
//	@Failure		503	{object}	identitysdk.HealthResponse	"status"
//	@Router			/readyz [get].
func ReadyzHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, identitysdk.HealthResponse{Status: "degraded"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, identitysdk.HealthResponse{Status: "ok"})
	}
}
