package report

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aitestlms/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/xuri/excelize/v2"
)

type fakeSessionSource struct {
	sessions map[string]*session.Session
}

func (f *fakeSessionSource) GetSession(_ context.Context, id string) (*session.Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return sess, nil
}

type fakeResultSource struct {
	results []*session.Result
}

func (f *fakeResultSource) ListResults(_ context.Context, filter func(*session.Result) bool) ([]*session.Result, error) {
	var out []*session.Result
	for _, r := range f.results {
		if filter == nil || filter(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func fixtureService() *Service {
	sessions := &fakeSessionSource{sessions: map[string]*session.Session{
		"s1": {ID: "s1", DefinitionID: "def-1", Participants: []string{"alice", "bob", "carol"}},
		"s2": {ID: "s2", DefinitionID: "def-2"},
	}}
	completed := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	results := &fakeResultSource{results: []*session.Result{
		{ID: "r1", SessionID: "s1", LearnerID: "alice", LearnerName: "Alice", ScorePercent: 50, AnsweredQuestions: 2, CorrectAnswers: 1, TotalQuestions: 2, CompletedAt: completed},
		{ID: "r2", SessionID: "s1", LearnerID: "bob", LearnerName: "Bob", ScorePercent: 100, AnsweredQuestions: 2, CorrectAnswers: 2, TotalQuestions: 2, CompletedAt: completed},
		{ID: "r3", SessionID: "s1", LearnerID: "carol", LearnerName: "Carol", ScorePercent: 0, TotalQuestions: 2, CompletedAt: completed},
		{ID: "r4", SessionID: "other", LearnerID: "zed", ScorePercent: 100, CompletedAt: completed},
	}}
	return NewService(sessions, results)
}

func TestSessionSummary(t *testing.T) {
	svc := fixtureService()

	summary, err := svc.SessionSummary(context.Background(), "s1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.SessionID != "s1" || summary.DefinitionID != "def-1" {
		t.Fatalf("identity mismatch: %+v", summary)
	}
	if summary.Participants != 3 {
		t.Fatalf("participants = %d, want 3", summary.Participants)
	}
	if summary.HighestScore != 100 || summary.LowestScore != 0 {
		t.Fatalf("score range mismatch: %+v", summary)
	}
	if summary.AverageScore != 50 {
		t.Fatalf("average = %v, want 50", summary.AverageScore)
	}
}

func TestSessionSummaryEmpty(t *testing.T) {
	svc := fixtureService()

	summary, err := svc.SessionSummary(context.Background(), "s2")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Participants != 0 || summary.AverageScore != 0 || summary.HighestScore != 0 {
		t.Fatalf("empty session summary must be all zeros: %+v", summary)
	}
}

func TestSessionSummaryNotFound(t *testing.T) {
	svc := fixtureService()
	if _, err := svc.SessionSummary(context.Background(), "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestExportXLSX(t *testing.T) {
	svc := fixtureService()

	data, err := svc.ExportXLSX(context.Background(), "s1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	// Header plus one row per result for the session.
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0][0] != "Rank" || rows[0][3] != "Score %" {
		t.Fatalf("header mismatch: %v", rows[0])
	}
	// Best score first.
	if rows[1][1] != "bob" || rows[1][3] != "100" {
		t.Fatalf("rank 1 mismatch: %v", rows[1])
	}
	if rows[3][1] != "carol" {
		t.Fatalf("rank 3 mismatch: %v", rows[3])
	}
}

func newReportRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/reports/sessions/{id}/summary", h.Summary)
	r.Get("/reports/sessions/{id}/export", h.Export)
	return r
}

func TestHandlerSummaryNotFound(t *testing.T) {
	h := NewHandler(fixtureService())
	req := httptest.NewRequest(http.MethodGet, "/reports/sessions/missing/summary", nil)
	rec := httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerExportHeaders(t *testing.T) {
	h := NewHandler(fixtureService())
	req := httptest.NewRequest(http.MethodGet, "/reports/sessions/s1/export", nil)
	rec := httptest.NewRecorder()
	newReportRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "session-s1-results.xlsx") {
		t.Fatalf("content disposition = %q", cd)
	}
	if _, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Fatalf("response body is not a workbook: %v", err)
	}
}
