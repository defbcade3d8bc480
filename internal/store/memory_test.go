package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"aitestlms/internal/bank"
	"aitestlms/internal/session"
	"aitestlms/internal/testdef"
)

func sampleDefinition() *testdef.Definition {
	return &testdef.Definition{
		ID:        "def-1",
		TeacherID: "t1",
		Subject:   "Math",
		Status:    testdef.StatusPending,
		Questions: []bank.Question{
			{ID: "q1", Text: "Pick", Type: bank.MultipleChoice, Options: []string{"A", "B"}, CorrectAnswer: "A"},
		},
		DurationMinutes: 30,
	}
}

func sampleSession() *session.Session {
	correct := true
	return &session.Session{
		ID:           "s1",
		DefinitionID: "def-1",
		StartedAt:    time.Now().UTC(),
		Participants: []string{"alice"},
		IsActive:     true,
		Log: []session.Message{
			{ID: "m1", Seq: 1, SenderID: "alice", Kind: session.KindAnswer, QuestionID: "q1", IsCorrect: &correct},
		},
	}
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.GetDefinition(ctx, "missing"); !errors.Is(err, testdef.ErrDefinitionNotFound) {
		t.Fatalf("expected ErrDefinitionNotFound, got %v", err)
	}
	if _, err := m.GetSession(ctx, "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMemoryDefinitionRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.PutDefinition(ctx, sampleDefinition()); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := m.GetDefinition(ctx, "def-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TeacherID != "t1" || len(got.Questions) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

// Mutations of a returned definition must not be visible on the next read.
func TestMemoryDefinitionIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	original := sampleDefinition()
	if err := m.PutDefinition(ctx, original); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Writer-side copy: mutating the argument after Put changes nothing.
	original.Status = testdef.StatusCompleted
	original.Questions[0].Options[0] = "tampered"

	got, err := m.GetDefinition(ctx, "def-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != testdef.StatusPending || got.Questions[0].Options[0] != "A" {
		t.Fatalf("writer-side mutation leaked: %+v", got)
	}

	// Reader-side copy: mutating the result changes nothing.
	got.Questions[0].CorrectAnswer = "tampered"
	again, _ := m.GetDefinition(ctx, "def-1")
	if again.Questions[0].CorrectAnswer != "A" {
		t.Fatalf("reader-side mutation leaked: %+v", again)
	}
}

func TestMemorySessionIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.PutSession(ctx, sampleSession()); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := m.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Participants[0] = "mallory"
	got.Log[0].Content = "tampered"
	*got.Log[0].IsCorrect = false
	got.IsActive = false

	again, _ := m.GetSession(ctx, "s1")
	if again.Participants[0] != "alice" || again.Log[0].Content == "tampered" || !again.IsActive {
		t.Fatalf("session mutation leaked: %+v", again)
	}
	if !*again.Log[0].IsCorrect {
		t.Fatalf("IsCorrect pointer shared between snapshots")
	}
}

func TestMemoryListSessionsFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	active := sampleSession()
	ended := sampleSession()
	ended.ID = "s2"
	ended.IsActive = false
	if err := m.PutSession(ctx, active); err != nil {
		t.Fatalf("put active: %v", err)
	}
	if err := m.PutSession(ctx, ended); err != nil {
		t.Fatalf("put ended: %v", err)
	}

	got, err := m.ListSessions(ctx, func(s *session.Session) bool { return s.IsActive })
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("filter mismatch: %+v", got)
	}

	all, _ := m.ListSessions(ctx, nil)
	if len(all) != 2 {
		t.Fatalf("nil filter must return everything, got %d", len(all))
	}
}

func TestMemoryResults(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, r := range []*session.Result{
		{ID: "r1", SessionID: "s1", LearnerID: "alice", ScorePercent: 50},
		{ID: "r2", SessionID: "s2", LearnerID: "bob", ScorePercent: 100},
	} {
		if err := m.PutResult(ctx, r); err != nil {
			t.Fatalf("put result: %v", err)
		}
	}

	got, err := m.ListResults(ctx, func(r *session.Result) bool { return r.SessionID == "s1" })
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].LearnerID != "alice" {
		t.Fatalf("filter mismatch: %+v", got)
	}

	got[0].ScorePercent = 0
	again, _ := m.ListResults(ctx, func(r *session.Result) bool { return r.ID == "r1" })
	if again[0].ScorePercent != 50 {
		t.Fatalf("result mutation leaked")
	}
}
