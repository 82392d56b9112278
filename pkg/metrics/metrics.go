package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeCached    = "cached"
	OutcomeIssued    = "issued"
	OutcomeForced    = "forced"
	OutcomeFailed    = "failed"
	OutcomeFetched   = "fetched"
	OutcomeStale     = "stale"
	OutcomeAnonymous = "anonymous"
)

// Metrics holds the widget service counters.
type Metrics struct {
	TokenAcquisitions *prometheus.CounterVec
	IssuerCalls       *prometheus.CounterVec
	CatalogFetches    *prometheus.CounterVec
	TokenPersistFails prometheus.Counter
}

// New registers the counters with reg. Pass prometheus.DefaultRegisterer in
// services and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TokenAcquisitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpwidget",
			Subsystem: "token",
			Name:      "acquisitions_total",
			Help:      "Access-token acquisitions by outcome.",
		}, []string{"outcome"}), // cached, issued, forced, failed, anonymous
		IssuerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpwidget",
			Subsystem: "token",
			Name:      "issuer_calls_total",
			Help:      "Calls to the remote learner-token endpoint by force flag.",
		}, []string{"force"}),
		CatalogFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpwidget",
			Subsystem: "catalog",
			Name:      "fetches_total",
			Help:      "Widget catalog reads by outcome.",
		}, []string{"outcome"}), // cached, fetched, stale
		TokenPersistFails: f.NewCounter(prometheus.CounterOpts{
			Namespace: "cpwidget",
			Subsystem: "token",
			Name:      "persist_failures_total",
			Help:      "Issued tokens that could not be written to the user profile.",
		}),
	}
}

// Nop returns counters registered nowhere.
func Nop() *Metrics { return New(prometheus.NewRegistry()) }
