package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sudeepta/portfolio/internal/config"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/stats"
	"github.com/sudeepta/portfolio/internal/tenure"
)

// StatsSource exposes the poller state. *stats.Poller implements it.
type StatsSource interface {
	Status() model.PollStatus
	Refresh(ctx context.Context) error
}

// StatsHandler serves the home-page counters and resume tenure.
type StatsHandler struct {
	stats       StatsSource
	experience  *tenure.Calculator
	currentRole *tenure.Calculator
	logger      *slog.Logger
}

func NewStatsHandler(source StatsSource, experience, currentRole *tenure.Calculator, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats:       source,
		experience:  experience,
		currentRole: currentRole,
		logger:      logger,
	}
}

// ExperienceView is the coarse experience counter.
type ExperienceView struct {
	tenure.Experience
	Text  string `json:"text"`
	Since string `json:"since"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	model.PollStatus
	Experience ExperienceView `json:"experience"`
}

// RoleView is the fine tenure of the current role.
type RoleView struct {
	Since   string `json:"since"`
	Elapsed string `json:"elapsed"`
}

// ExperienceResponse is the body of GET /api/experience.
type ExperienceResponse struct {
	Experience  ExperienceView `json:"experience"`
	CurrentRole RoleView       `json:"currentRole"`
}

func (h *StatsHandler) experienceView() ExperienceView {
	e := h.experience.Experience()
	return ExperienceView{
		Experience: e,
		Text:       e.String(),
		Since:      h.experience.Start().Format(config.DateLayout),
	}
}

// HandleStats serves GET /api/stats: the last good snapshot with poll
// diagnostics, plus the years-of-experience counter.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatsResponse{
		PollStatus: h.stats.Status(),
		Experience: h.experienceView(),
	})
}

// HandleExperience serves GET /api/experience.
func (h *StatsHandler) HandleExperience(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ExperienceResponse{
		Experience: h.experienceView(),
		CurrentRole: RoleView{
			Since:   h.currentRole.Start().Format(config.DateLayout),
			Elapsed: h.currentRole.Elapsed(),
		},
	})
}

// HandleRefresh serves POST /api/admin/stats/refresh: one immediate fetch
// outside the ticker. A refresh already in flight answers 409.
func (h *StatsHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	err := h.stats.Refresh(ctx)
	switch {
	case errors.Is(err, stats.ErrRefreshInFlight):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "refresh_in_flight",
			Message: "a refresh is already running",
		})
		return
	case err != nil:
		h.logger.Warn("manual stats refresh failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.stats.Status())
}
