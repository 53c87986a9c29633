package metrics

import (
	"testing"
	"time"

	"agora/contexts/elections/balloting/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.BallotMetrics = (*Metrics)(nil)

func TestMetricsRecordSubmissionOutcomes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSubmission("success", 20*time.Millisecond)
	m.ObserveSubmission("success", 30*time.Millisecond)
	m.ObserveSubmission("already_voted", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues("already_voted")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SubmissionLatency))
}

func TestMetricsRecordRepairCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncTallyIncrementFailure()
	m.IncReconciliationEnqueued("ballot_persist_failed")
	m.IncReconciliationEnqueued("claimed_without_ballot")
	m.IncReconciliationEnqueued("claimed_without_ballot")
	m.AddTallyCorrections(3)
	m.AddTallyCorrections(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TallyIncrementFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconciliationEnqueued.WithLabelValues("ballot_persist_failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconciliationEnqueued.WithLabelValues("claimed_without_ballot")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TallyCorrections))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveSubmission("success", time.Second)
		m.IncTallyIncrementFailure()
		m.IncReconciliationEnqueued("ballot_persist_failed")
		m.AddTallyCorrections(1)
	})
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}
