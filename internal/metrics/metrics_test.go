package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_IndependentRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	a := NewCollector()
	b := NewCollector()

	a.PollSucceeded()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.StatsPolls.WithLabelValues(PollOK, "none")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.StatsPolls.WithLabelValues(PollOK, "none")))
}

func TestContactDispatched(t *testing.T) {
	c := NewCollector()

	c.ContactDispatched("none", 120*time.Millisecond)
	c.ContactDispatched("transport_failure", time.Second)
	c.ContactDispatched("transport_failure", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ContactDispatches.WithLabelValues("sent", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ContactDispatches.WithLabelValues("failed", "transport_failure")))
}

func TestPollCounters(t *testing.T) {
	c := NewCollector()

	c.PollSucceeded()
	c.PollFailed("transport_failure")
	c.PollSkipped()
	c.PollSkipped()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.StatsPolls.WithLabelValues(PollOK, "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StatsPolls.WithLabelValues(PollFailed, "transport_failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StatsPolls.WithLabelValues(PollSkipped, "none")))
	assert.Greater(t, testutil.ToFloat64(c.StatsLastSuccess), 0.0)
}

func TestLiveClientsGauge(t *testing.T) {
	c := NewCollector()

	c.ClientConnected()
	c.ClientConnected()
	c.ClientDisconnected()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.LiveClients))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	c := NewCollector()
	c.ObserveHTTP(http.MethodPost, "/api/contact", http.StatusOK, 50*time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `portfolio_http_requests_total{method="POST",route="/api/contact",status="200"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
