package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/handler"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/stats"
	"github.com/sudeepta/portfolio/internal/tenure"
)

type fakeStats struct {
	status     model.PollStatus
	refreshErr error
	refreshes  int
}

func (f *fakeStats) Status() model.PollStatus { return f.status }

func (f *fakeStats) Refresh(context.Context) error {
	f.refreshes++
	return f.refreshErr
}

var statsNow = time.Date(2025, time.October, 16, 12, 0, 0, 0, time.UTC)

func newStatsHandler(src handler.StatsSource) *handler.StatsHandler {
	clock := func() time.Time { return statsNow }
	experience := tenure.NewCalculator(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), clock)
	role := tenure.NewCalculator(time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), clock)
	return handler.NewStatsHandler(src, experience, role, discardLogger())
}

func TestStatsHandler_HandleStats(t *testing.T) {
	src := &fakeStats{status: model.PollStatus{
		Snapshot: model.Snapshot{
			GithubStats: model.GithubStats{CommitCount: 512, Collaborations: 9, JoinedYear: 2019},
			FetchedAt:   statsNow,
		},
		LastError: "github /users/x returned status 403",
	}}
	h := newStatsHandler(src)

	rr := httptest.NewRecorder()
	h.HandleStats(rr, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Snapshot struct {
			CommitCount    int `json:"commitCount"`
			Collaborations int `json:"collaborations"`
			JoinedYear     int `json:"joinedYear"`
		} `json:"snapshot"`
		LastError  string `json:"lastError"`
		Experience struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
			Text  string  `json:"text"`
			Since string  `json:"since"`
		} `json:"experience"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))

	assert.Equal(t, 512, body.Snapshot.CommitCount)
	assert.Equal(t, 9, body.Snapshot.Collaborations)
	assert.Equal(t, 2019, body.Snapshot.JoinedYear)
	assert.Equal(t, "github /users/x returned status 403", body.LastError)

	// 2024-04-01 → 2025-10-16: 18 months + 15/30 = 18.5 months = 1.54 years → 1.5
	assert.Equal(t, 1.5, body.Experience.Value)
	assert.Equal(t, "Years", body.Experience.Unit)
	assert.Equal(t, "1.5+ Years", body.Experience.Text)
	assert.Equal(t, "2024-04-01", body.Experience.Since)
}

func TestStatsHandler_HandleExperience(t *testing.T) {
	h := newStatsHandler(&fakeStats{})

	rr := httptest.NewRecorder()
	h.HandleExperience(rr, httptest.NewRequest(http.MethodGet, "/api/experience", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body handler.ExperienceResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))

	assert.Equal(t, "2025-07-01", body.CurrentRole.Since)
	assert.Equal(t, "3 Months 15 Days", body.CurrentRole.Elapsed)
	assert.Equal(t, "1.5+ Years", body.Experience.Text)
}

func TestStatsHandler_HandleRefresh(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		src := &fakeStats{}
		rr := httptest.NewRecorder()
		newStatsHandler(src).HandleRefresh(rr, httptest.NewRequest(http.MethodPost, "/api/admin/stats/refresh", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 1, src.refreshes)
	})

	t.Run("in flight", func(t *testing.T) {
		src := &fakeStats{refreshErr: stats.ErrRefreshInFlight}
		rr := httptest.NewRecorder()
		newStatsHandler(src).HandleRefresh(rr, httptest.NewRequest(http.MethodPost, "/api/admin/stats/refresh", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		src := &fakeStats{refreshErr: apperror.TransportFailure("github down", assert.AnError)}
		rr := httptest.NewRecorder()
		newStatsHandler(src).HandleRefresh(rr, httptest.NewRequest(http.MethodPost, "/api/admin/stats/refresh", nil))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.JSONEq(t, `{"error":"transport_failure","message":"github down"}`, rr.Body.String())
	})
}
