// Package metrics collects and exposes Prometheus metrics for the
// identity flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer records against. Nop backs tests
// that don't care about metrics.
type Recorder interface {
	RecordLogin(success bool)
	RecordInvitationEvent(event string)
	RecordTokenIssued(purpose string)
	RecordTokenRedeemed(purpose string)
	RecordEmail(success bool)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	logins         *prometheus.CounterVec
	invitations    *prometheus.CounterVec
	tokensIssued   *prometheus.CounterVec
	tokensRedeemed *prometheus.CounterVec
	emails         *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		invitations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_invitation_events_total",
			Help: "Invitation lifecycle events (created, resent, revoked, accepted, expired, deleted).",
		}, []string{"event"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_recovery_tokens_issued_total",
			Help: "Recovery tokens issued by purpose.",
		}, []string{"purpose"}),
		tokensRedeemed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_recovery_tokens_redeemed_total",
			Help: "Recovery tokens redeemed by purpose.",
		}, []string{"purpose"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_emails_total",
			Help: "Outbound emails by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.logins,
		c.invitations,
		c.tokensIssued,
		c.tokensRedeemed,
		c.emails,
	)

	return c
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (c *Collector) RecordLogin(success bool) {
	c.logins.WithLabelValues(outcome(success)).Inc()
}

func (c *Collector) RecordInvitationEvent(event string) {
	c.invitations.WithLabelValues(event).Inc()
}

func (c *Collector) RecordTokenIssued(purpose string) {
	c.tokensIssued.WithLabelValues(purpose).Inc()
}

func (c *Collector) RecordTokenRedeemed(purpose string) {
	c.tokensRedeemed.WithLabelValues(purpose).Inc()
}

func (c *Collector) RecordEmail(success bool) {
	c.emails.WithLabelValues(outcome(success)).Inc()
}

// Nop discards every recording.
type Nop struct{}

func (Nop) RecordLogin(bool)             {}
func (Nop) RecordInvitationEvent(string) {}
func (Nop) RecordTokenIssued(string)     {}
func (Nop) RecordTokenRedeemed(string)   {}
func (Nop) RecordEmail(bool)             {}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
