package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestRecordEntityWriteIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(entityWrites.WithLabelValues("meet", "create"))

	RecordEntityWrite("meet", "create")

	after := testutil.ToFloat64(entityWrites.WithLabelValues("meet", "create"))
	require.InDelta(t, before+1, after, 0.0001)
	require.Greater(t, testutil.ToFloat64(lastWriteGauge), float64(0))
}

func TestRecordPolicyRejectionIsLabeledByRule(t *testing.T) {
	before := testutil.ToFloat64(policyRejections.WithLabelValues("single_meet"))

	RecordPolicyRejection("single_meet")
	RecordPolicyRejection("single_meet")

	require.InDelta(t, before+2, testutil.ToFloat64(policyRejections.WithLabelValues("single_meet")), 0.0001)
}

func TestRecordHTTPRequestObservesLatency(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/meets", http.StatusOK, 20*time.Millisecond)

	require.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/meets", "200")), float64(1))

	metric := &dto.Metric{}
	observer, err := httpDuration.GetMetricWithLabelValues(http.MethodGet, "/api/meets")
	require.NoError(t, err)
	require.NoError(t, observer.(interface{ Write(*dto.Metric) error }).Write(metric))
	require.GreaterOrEqual(t, metric.GetHistogram().GetSampleCount(), uint64(1))
}
