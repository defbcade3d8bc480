package report

import (
	"errors"
	"fmt"
	"net/http"

	"aitestlms/internal/app/apiresp"
	"aitestlms/internal/session"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	summary, err := h.svc.SessionSummary(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, summary)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	data, err := h.svc.ExportXLSX(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("session-%s-results.xlsx", sessionID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
