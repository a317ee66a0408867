package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()

	assert.NotNil(t, m.Registry)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.StatementsProcessed)
	assert.NotNil(t, m.JobsQueued)
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.RecordsExtracted.Add(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(a.RecordsExtracted))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.RecordsExtracted))
}

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun(nil, 40, 12, 2*time.Second)
	m.ObserveRun(errors.New("boom"), 0, 0, time.Second)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.StatementsProcessed.WithLabelValues(StatusSucceeded)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StatementsProcessed.WithLabelValues(StatusFailed)))
	assert.Equal(t, float64(40), testutil.ToFloat64(m.RecordsExtracted))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.JourneysBuilt))

	count, err := testutil.GatherAndCount(m.Registry, "barik_pipeline_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestObserveRun_NilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveRun(nil, 1, 1, time.Second)
}

func TestHTTPMetrics_RecordRequest(t *testing.T) {
	m := New()

	m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("GET", "/health").Observe(0.01)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
}
