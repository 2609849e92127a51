package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module.
type Metrics struct {
	// Credentials issued by skill
	Issued *prometheus.CounterVec

	// Verification outcomes: "valid", "revoked", "expired"
	VerifyOutcome *prometheus.CounterVec

	// Revocations performed
	Revoked prometheus.Counter
}

// New creates a new Metrics instance with all credential module metrics registered.
func New() *Metrics {
	return &Metrics{
		Issued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_credentials_issued_total",
			Help: "Total credentials issued by skill",
		}, []string{"skill"}),

		VerifyOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credentia_credential_verifications_total",
			Help: "Total credential verification checks by outcome",
		}, []string{"outcome"}),

		Revoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credentia_credentials_revoked_total",
			Help: "Total credentials revoked",
		}),
	}
}

// IncrementIssued records a credential issuance.
func (m *Metrics) IncrementIssued(skill string) {
	if m != nil {
		m.Issued.WithLabelValues(skill).Inc()
	}
}

// IncrementVerify records a verification check outcome.
func (m *Metrics) IncrementVerify(outcome string) {
	if m != nil {
		m.VerifyOutcome.WithLabelValues(outcome).Inc()
	}
}

// IncrementRevoked records a revocation.
func (m *Metrics) IncrementRevoked() {
	if m != nil {
		m.Revoked.Inc()
	}
}
