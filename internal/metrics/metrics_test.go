package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(escalationsTotal.WithLabelValues("warn"))
	IncEscalation("warn")
	assert.Equal(t, before+1, testutil.ToFloat64(escalationsTotal.WithLabelValues("warn")))

	before = testutil.ToFloat64(unauthorizedAttemptsTotal)
	IncUnauthorizedAttempt()
	assert.Equal(t, before+1, testutil.ToFloat64(unauthorizedAttemptsTotal))

	SetActiveRestrictions(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(activeRestrictions))
}

func TestServerExposesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	Register(registry)
	IncChannelEnforcement()
	IncActionFailure("ban")

	srv := NewServer("127.0.0.1:0", registry)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "hallmonitor_channel_enforcements_total")
	assert.Contains(t, string(body), `hallmonitor_action_failures_total{action="ban"}`)

	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
