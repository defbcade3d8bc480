package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aitestlms/internal/bank"
	"aitestlms/internal/report"
	"aitestlms/internal/session"
	"aitestlms/internal/store"
	"aitestlms/internal/testdef"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	st := store.NewMemory()
	cfg := defaultConfig()

	definitions := testdef.NewService(bank.NewWithDefaults(), st, cfg.DefaultDurationMinutes)
	coordinator := session.NewCoordinator(st, st, st, nil)
	reports := report.NewService(st, st)

	return NewRouter(cfg, RouterDeps{
		Definitions: definitions,
		Coordinator: coordinator,
		Reports:     reports,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var envelope map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("%s %s: decode response: %v\n%s", method, path, err, rec.Body.String())
	}
	return rec, envelope
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

// Full flow over the wire: create a definition, start its session, join,
// answer the first question, end, then pull the report.
func TestFullSessionFlow(t *testing.T) {
	router := newTestRouter(t)

	rec, envelope := doJSON(t, router, http.MethodPost, "/api/v1/definitions",
		`{"teacher_id":"t1","subject":"general","topic":"General Knowledge","question_count":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create definition status = %d: %s", rec.Code, rec.Body.String())
	}
	data := envelope["data"].(map[string]any)
	def := data["definition"].(map[string]any)
	defID := def["id"].(string)

	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/sessions/start",
		fmt.Sprintf(`{"definition_id":%q}`, defID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("start session status = %d: %s", rec.Code, rec.Body.String())
	}
	sess := envelope["data"].(map[string]any)
	sessID := sess["id"].(string)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+sessID+"/join",
		`{"learner_id":"alice","learner_name":"Alice"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+sessID+"/question", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("question status = %d: %s", rec.Code, rec.Body.String())
	}
	qData := envelope["data"].(map[string]any)
	if exhausted, _ := qData["exhausted"].(bool); exhausted {
		t.Fatalf("fresh session must have a first question: %s", rec.Body.String())
	}
	question := qData["question"].(map[string]any)
	questionID := question["id"].(string)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+sessID+"/answers",
		fmt.Sprintf(`{"learner_id":"alice","learner_name":"Alice","question_id":%q,"answer":"whatever"}`, questionID))
	if rec.Code != http.StatusOK {
		t.Fatalf("answer status = %d: %s", rec.Code, rec.Body.String())
	}

	rec, envelope = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+sessID+"/end", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("end status = %d: %s", rec.Code, rec.Body.String())
	}
	results := envelope["data"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d: %s", len(results), rec.Body.String())
	}

	rec, envelope = doJSON(t, router, http.MethodGet, "/api/v1/reports/sessions/"+sessID+"/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary status = %d: %s", rec.Code, rec.Body.String())
	}
	summary := envelope["data"].(map[string]any)
	if summary["participants"].(float64) != 1 {
		t.Fatalf("summary participants mismatch: %s", rec.Body.String())
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	router := newTestRouter(t)
	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/sessions/2f3b1a10-5d7c-4f1e-9f33-b1a2c3d4e5f6", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
