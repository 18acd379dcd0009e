package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/auth"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/repository"
	"github.com/sudeepta/portfolio/internal/service"
)

// AdminService is what the operator endpoints need. *service.AdminService
// implements it.
type AdminService interface {
	Login(ctx context.Context, password string) (string, error)
	Deliveries(ctx context.Context, opts repository.ListOptions) (*service.DeliveryPage, error)
	Delivery(ctx context.Context, id string) (*model.Delivery, error)
}

// AdminHandler serves the /api/admin routes.
type AdminHandler struct {
	admin        AdminService
	sessionTTL   time.Duration
	secureCookie bool
	logger       *slog.Logger
}

// NewAdminHandler creates an AdminHandler. secureCookie marks the session
// cookie Secure; turn it off only for plain-HTTP local development.
func NewAdminHandler(admin AdminService, sessionTTL time.Duration, secureCookie bool, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:        admin,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin serves POST /api/admin/login.
func (h *AdminHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Password == "" {
		writeError(w, apperror.InvalidInput("password", "password is required"))
		return
	}

	token, err := h.admin.Login(r.Context(), req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, auth.SessionCookie(token, h.sessionTTL, h.secureCookie))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "signed in",
		"expiresAt": time.Now().Add(h.sessionTTL).UTC(),
	})
}

// HandleLogout serves POST /api/admin/logout. It always succeeds.
func (h *AdminHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearedCookie(h.secureCookie))
	w.WriteHeader(http.StatusNoContent)
}

// HandleDeliveries serves GET /api/admin/deliveries?limit=&offset=&status=.
func (h *AdminHandler) HandleDeliveries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := repository.ListOptions{Status: q.Get("status")}
	var err error
	if opts.Limit, err = queryInt(q.Get("limit")); err != nil {
		writeError(w, apperror.InvalidInput("limit", "limit must be an integer"))
		return
	}
	if opts.Offset, err = queryInt(q.Get("offset")); err != nil {
		writeError(w, apperror.InvalidInput("offset", "offset must be an integer"))
		return
	}

	page, err := h.admin.Deliveries(r.Context(), opts)
	if err != nil {
		h.logger.Error("listing deliveries", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleDelivery serves GET /api/admin/deliveries/{id}.
func (h *AdminHandler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.admin.Delivery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
