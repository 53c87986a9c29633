package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments ballot submission and the tally repair loop. Labels
// never carry voter or candidate identifiers.
type Metrics struct {
	// Submission outcomes: success, already_voted, persistence_error, ...
	Submissions *prometheus.CounterVec

	SubmissionLatency prometheus.Histogram

	TallyIncrementFailures prometheus.Counter

	// Reconciliation items created, by reason
	ReconciliationEnqueued *prometheus.CounterVec

	TallyCorrections prometheus.Counter
}

// New registers the balloting metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_ballot_submissions_total",
			Help: "Ballot submissions by outcome",
		}, []string{"outcome"}),

		SubmissionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "agora_ballot_submission_duration_seconds",
			Help:    "Duration of ballot submission from eligibility check to response",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		TallyIncrementFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "agora_tally_increment_failures_total",
			Help: "Cached vote_count increments that failed after a ballot was persisted",
		}),

		ReconciliationEnqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_reconciliation_enqueued_total",
			Help: "Reconciliation items created by reason",
		}, []string{"reason"}),

		TallyCorrections: factory.NewCounter(prometheus.CounterOpts{
			Name: "agora_tally_corrections_total",
			Help: "Cached vote counts rewritten from vote rows",
		}),
	}
}

func (m *Metrics) ObserveSubmission(outcome string, d time.Duration) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
		m.SubmissionLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncTallyIncrementFailure() {
	if m != nil {
		m.TallyIncrementFailures.Inc()
	}
}

func (m *Metrics) IncReconciliationEnqueued(reason string) {
	if m != nil {
		m.ReconciliationEnqueued.WithLabelValues(reason).Inc()
	}
}

// AddTallyCorrections ignores non-positive counts.
func (m *Metrics) AddTallyCorrections(count int) {
	if m != nil && count > 0 {
		m.TallyCorrections.Add(float64(count))
	}
}
