package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(t *testing.T, h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}
	h := Chain(okHandler(), RateLimitByIP(cfg))

	for range 3 {
		rec := doRequest(t, h, "10.0.0.1:1234")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitBlocksBeyondBurst(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	h := Chain(okHandler(), RateLimitByIP(cfg))

	require.Equal(t, http.StatusOK, doRequest(t, h, "10.0.0.2:1234").Code)
	require.Equal(t, http.StatusOK, doRequest(t, h, "10.0.0.2:1234").Code)

	rec := doRequest(t, h, "10.0.0.2:1234")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
	h := Chain(okHandler(), RateLimitByIP(cfg))

	require.Equal(t, http.StatusOK, doRequest(t, h, "10.0.0.3:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doRequest(t, h, "10.0.0.3:1234").Code)

	// A different source address has its own bucket.
	require.Equal(t, http.StatusOK, doRequest(t, h, "10.0.0.4:1234").Code)
}

func TestIPKeyExtractorPrefersForwardedHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:9999"
	require.Equal(t, "192.0.2.10", IPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	require.Equal(t, "198.51.100.7", IPKeyExtractor(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.7")
	require.Equal(t, "203.0.113.5", IPKeyExtractor(req))
}

func TestChainOrdering(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mk("outer"), mk("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}
