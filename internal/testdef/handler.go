package testdef

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aitestlms/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc definitionService
}

type definitionService interface {
	Create(ctx context.Context, in CreateInput) (*Definition, error)
	Get(ctx context.Context, id string) (*Definition, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]*Definition, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type createDefinitionRequest struct {
	TeacherID       string `json:"teacher_id"`
	InstitutionID   string `json:"institution_id"`
	Subject         string `json:"subject"`
	Topic           string `json:"topic"`
	Grade           string `json:"grade"`
	ClassName       string `json:"class_name"`
	DurationMinutes int    `json:"duration_minutes"`
	QuestionCount   int    `json:"question_count"`
	AccessCode      string `json:"access_code"`
}

type createDefinitionResponse struct {
	Definition *Definition `json:"definition"`
	// AccessCode is echoed exactly once; only its hash is stored.
	AccessCode string `json:"access_code,omitempty"`
}

func NewHandler(svc definitionService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	def, err := h.svc.Create(r.Context(), CreateInput{
		TeacherID:       req.TeacherID,
		InstitutionID:   req.InstitutionID,
		Subject:         req.Subject,
		Topic:           req.Topic,
		Grade:           req.Grade,
		ClassName:       req.ClassName,
		DurationMinutes: req.DurationMinutes,
		QuestionCount:   req.QuestionCount,
		AccessCode:      req.AccessCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrNoQuestionsAvailable):
			writeJSON(w, r, http.StatusUnprocessableEntity, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		}
		return
	}

	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: createDefinitionResponse{
		Definition: sanitize(def),
		AccessCode: strings.TrimSpace(req.AccessCode),
	}})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	def, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDefinitionNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: sanitize(def)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := strings.TrimSpace(r.URL.Query().Get("teacher_id"))
	defs, err := h.svc.ListByTeacher(r.Context(), teacherID)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, response{OK: false, Error: "internal error"})
		return
	}
	out := make([]*Definition, 0, len(defs))
	for _, def := range defs {
		out = append(out, sanitize(def))
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

// sanitize strips the access code hash from API responses.
func sanitize(def *Definition) *Definition {
	cp := *def
	cp.AccessCodeHash = ""
	return &cp
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
