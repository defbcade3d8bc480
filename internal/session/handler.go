package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"aitestlms/internal/app/apiresp"
	"aitestlms/internal/bank"
	"aitestlms/internal/testdef"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc coordinatorService
}

type coordinatorService interface {
	Start(ctx context.Context, definitionID string) (*Session, error)
	Join(ctx context.Context, sessionID, learnerID, learnerName, accessCode string) (*Session, error)
	CurrentQuestion(ctx context.Context, sessionID, afterQuestionID string) (*bank.Question, error)
	AdvanceQuestion(ctx context.Context, sessionID, afterQuestionID string) (*bank.Question, *Message, error)
	SubmitAnswer(ctx context.Context, sessionID, learnerID, learnerName, questionID, rawAnswer string) (*SubmitOutcome, error)
	End(ctx context.Context, sessionID string) ([]*Result, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Leaderboard(ctx context.Context, sessionID string) ([]*Result, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type startSessionRequest struct {
	DefinitionID string `json:"definition_id"`
}

type joinSessionRequest struct {
	LearnerID   string `json:"learner_id"`
	LearnerName string `json:"learner_name"`
	AccessCode  string `json:"access_code"`
}

type advanceQuestionRequest struct {
	AfterQuestionID string `json:"after_question_id"`
}

type submitAnswerRequest struct {
	LearnerID   string `json:"learner_id"`
	LearnerName string `json:"learner_name"`
	QuestionID  string `json:"question_id"`
	Answer      string `json:"answer"`
}

type advanceQuestionResponse struct {
	Exhausted bool           `json:"exhausted"`
	Question  *bank.Question `json:"question,omitempty"`
	Message   *Message       `json:"message,omitempty"`
}

func NewHandler(svc coordinatorService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.DefinitionID) == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "definition_id is required"})
		return
	}

	sess, err := h.svc.Start(r.Context(), req.DefinitionID)
	if err != nil {
		switch {
		case errors.Is(err, testdef.ErrDefinitionNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		case errors.Is(err, testdef.ErrAlreadyActive), errors.Is(err, testdef.ErrAlreadyCompleted):
			writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: sess})
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var req joinSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	sess, err := h.svc.Join(r.Context(), sessionID, req.LearnerID, req.LearnerName, req.AccessCode)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrSessionNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrSessionNotActive):
			writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrAccessCodeInvalid):
			writeJSON(w, r, http.StatusForbidden, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: sess})
}

func (h *Handler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	after := strings.TrimSpace(r.URL.Query().Get("after"))

	q, err := h.svc.CurrentQuestion(r.Context(), sessionID, after)
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: advanceQuestionResponse{
		Exhausted: q == nil,
		Question:  q,
	}})
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var req advanceQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}

	q, msg, err := h.svc.AdvanceQuestion(r.Context(), sessionID, req.AfterQuestionID)
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: advanceQuestionResponse{
		Exhausted: q == nil,
		Question:  q,
		Message:   msg,
	}})
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.QuestionID) == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "question_id is required"})
		return
	}

	out, err := h.svc.SubmitAnswer(r.Context(), sessionID, req.LearnerID, req.LearnerName, req.QuestionID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrQuestionNotFound):
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
		case errors.Is(err, ErrSessionNotActive):
			writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: out})
}

func (h *Handler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	results, err := h.svc.End(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: results})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	sess, err := h.svc.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: sess})
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	standings, err := h.svc.Leaderboard(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: standings})
}

func (h *Handler) writeQuestionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrQuestionNotFound), errors.Is(err, testdef.ErrDefinitionNotFound):
		writeJSON(w, r, http.StatusNotFound, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSessionNotActive):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, statusForInternal(err), response{OK: false, Error: "internal error"})
	}
}

func statusForInternal(err error) int {
	if errors.Is(err, ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
