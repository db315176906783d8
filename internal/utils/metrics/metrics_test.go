package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New("test", reg), reg
}

func TestNew_DefaultNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("", reg)
	m.RecordQuotaDecision(QuotaGranted)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
	assert.Equal(t, "pixelgate_quota_decisions_total", families[0].GetName())
}

func TestRecordHTTPRequest(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordHTTPRequest("POST", "/api/conversation", 200, 150*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/conversation", 403, 5*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/conversation", 403, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/conversation", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/conversation", "4xx")))
}

func TestRecordGeneration(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.RecordGeneration("replicate", OutcomeSuccess, 3*time.Second)
	m.RecordGeneration("replicate", OutcomeFailure, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("replicate", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("replicate", OutcomeFailure)))

	count, err := testutil.GatherAndCount(reg, "test_generation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordQuotaDecision(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.RecordQuotaDecision(QuotaGranted)
	m.RecordQuotaDecision(QuotaDenied)
	m.RecordQuotaDecision(QuotaDenied)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues(QuotaGranted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuotaDecisionsTotal.WithLabelValues(QuotaDenied)))
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{401, "4xx"},
		{403, "4xx"},
		{500, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusCodeToString(tt.code))
	}
}
