package session

import (
	"context"
	"errors"
	"time"

	"aitestlms/internal/testdef"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotActive  = errors.New("session not active")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrAccessCodeInvalid = errors.New("access code invalid")

	// ErrStorageUnavailable marks unexpected persistence failures so
	// callers can tell a broken backend apart from a missing record.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SenderAI is the sentinel sender id for engine-authored messages.
const SenderAI = "AI"

type MessageKind string

const (
	KindQuestion MessageKind = "question"
	KindAnswer   MessageKind = "answer"
	KindInfo     MessageKind = "info"
	KindResult   MessageKind = "result"
)

// Message is immutable once appended. Seq is the logical append position
// and is authoritative for scoring; Timestamp is informational and may
// disagree with Seq order under concurrent submission.
type Message struct {
	ID         string      `json:"id"`
	Seq        int         `json:"seq"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name"`
	Content    string      `json:"content"`
	Timestamp  time.Time   `json:"timestamp"`
	Kind       MessageKind `json:"kind"`
	QuestionID string      `json:"question_id,omitempty"`
	IsCorrect  *bool       `json:"is_correct,omitempty"`
}

// Session is one live activation of a definition. The message log is the
// sole source of truth for what happened; no state changes except log
// appends, roster appends and the active flag flip.
type Session struct {
	ID           string     `json:"id"`
	DefinitionID string     `json:"definition_id"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	Participants []string   `json:"participants"`
	IsActive     bool       `json:"is_active"`
	Log          []Message  `json:"log"`
}

func (s *Session) HasParticipant(learnerID string) bool {
	for _, p := range s.Participants {
		if p == learnerID {
			return true
		}
	}
	return false
}

func (s *Session) nextSeq() int {
	return len(s.Log) + 1
}

// displayName resolves a learner's name from the first message they
// authored, falling back to the raw id.
func (s *Session) displayName(learnerID string) string {
	for _, m := range s.Log {
		if m.SenderID == learnerID && m.SenderName != "" {
			return m.SenderName
		}
	}
	return learnerID
}

// Result is the write-once score record for one (session, participant)
// pair, derived entirely from the message log at session end.
type Result struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	LearnerID         string    `json:"learner_id"`
	LearnerName       string    `json:"learner_name"`
	ScorePercent      int       `json:"score_percent"`
	TotalQuestions    int       `json:"total_questions"`
	AnsweredQuestions int       `json:"answered_questions"`
	CorrectAnswers    int       `json:"correct_answers"`
	CompletedAt       time.Time `json:"completed_at"`
}

type DefinitionStore interface {
	GetDefinition(ctx context.Context, id string) (*testdef.Definition, error)
	PutDefinition(ctx context.Context, def *testdef.Definition) error
}

type SessionStore interface {
	GetSession(ctx context.Context, id string) (*Session, error)
	PutSession(ctx context.Context, sess *Session) error
	ListSessions(ctx context.Context, filter func(*Session) bool) ([]*Session, error)
}

type ResultStore interface {
	PutResult(ctx context.Context, res *Result) error
	ListResults(ctx context.Context, filter func(*Result) bool) ([]*Result, error)
}
