package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(true)
	c.RecordLogin(true)
	c.RecordLogin(false)
	c.RecordInvitationEvent("created")
	c.RecordTokenIssued("RESET")
	c.RecordTokenRedeemed("RESET")
	c.RecordEmail(false)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			key := fam.GetName()
			for _, lbl := range m.GetLabel() {
				key += "/" + lbl.GetValue()
			}
			byName[key] = m.GetCounter().GetValue()
		}
	}

	require.Equal(t, 2.0, byName["backoffice_logins_total/success"])
	require.Equal(t, 1.0, byName["backoffice_logins_total/failure"])
	require.Equal(t, 1.0, byName["backoffice_invitation_events_total/created"])
	require.Equal(t, 1.0, byName["backoffice_recovery_tokens_issued_total/RESET"])
	require.Equal(t, 1.0, byName["backoffice_emails_total/failure"])
}

func TestHandlerServesScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin(true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler(reg).ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "backoffice_logins_total")
}
