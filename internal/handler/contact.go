package handler

import (
	"context"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sudeepta/portfolio/internal/model"
)

// Contact form response bodies. The front-end matches on these exact
// shapes, so they do not follow ErrorResponse.
var (
	contactSent   = map[string]string{"message": "Email sent successfully"}
	contactFailed = map[string]string{"error": "Failed to send email"}
)

// ContactSubmitter dispatches a contact submission and accounts for bodies
// that could not be decoded. *service.ContactService implements it.
type ContactSubmitter interface {
	Submit(ctx context.Context, requestID string, sub model.ContactSubmission) error
	RejectBody(ctx context.Context, requestID string, cause error)
}

// ContactHandler serves POST /api/contact.
type ContactHandler struct {
	contacts ContactSubmitter
	logger   *slog.Logger
}

func NewContactHandler(contacts ContactSubmitter, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger}
}

// HandleSubmit decodes the submission and dispatches it.
//
// Every failure, including a malformed body, answers 500 with the same
// body; the error kind only shows up in logs and metrics.
func (h *ContactHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := chimiddleware.GetReqID(r.Context())

	var sub model.ContactSubmission
	if err := decodeJSON(w, r, &sub); err != nil {
		h.contacts.RejectBody(r.Context(), requestID, err)
		writeJSON(w, http.StatusInternalServerError, contactFailed)
		return
	}

	if err := h.contacts.Submit(r.Context(), requestID, sub); err != nil {
		writeJSON(w, http.StatusInternalServerError, contactFailed)
		return
	}

	writeJSON(w, http.StatusOK, contactSent)
}
