package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"aitestlms/internal/assistant"
	"aitestlms/internal/bank"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("invalid input")

// Feedbacker produces the AI follow-up text appended after every graded
// answer.
type Feedbacker interface {
	Feedback(ctx context.Context, q bank.Question, correct bool) string
}

// Coordinator owns live sessions. Every mutating operation runs under a
// per-session mutex, so all writes to one session apply atomically in a
// total order while independent sessions proceed in parallel. Reads work
// on store snapshots and therefore observe a consistent prefix of the log.
type Coordinator struct {
	defs     DefinitionStore
	sessions SessionStore
	results  ResultStore
	feedback Feedbacker
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(defs DefinitionStore, sessions SessionStore, results ResultStore, feedback Feedbacker) *Coordinator {
	if feedback == nil {
		feedback = assistant.NewService(assistant.ServiceConfig{})
	}
	return &Coordinator{
		defs:     defs,
		sessions: sessions,
		results:  results,
		feedback: feedback,
		now:      func() time.Time { return time.Now().UTC() },
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock acquires the serialization mutex for a key and returns its release
// func. Lock entries are kept for the coordinator's lifetime; sessions are
// few and short-lived enough that reclaiming them is not worth the
// bookkeeping.
func (c *Coordinator) lock(key string) func() {
	c.mu.Lock()
	l, ok := c.locks[key]
	if !ok {
		l = &sync.Mutex{}
		c.locks[key] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Start activates a Pending definition and creates its session with a
// welcome message. Starting a definition that is already active or
// completed fails without creating a second session.
func (c *Coordinator) Start(ctx context.Context, definitionID string) (*Session, error) {
	unlock := c.lock("definition:" + definitionID)
	defer unlock()

	def, err := c.defs.GetDefinition(ctx, definitionID)
	if err != nil {
		return nil, err
	}
	if err := def.Activate(); err != nil {
		return nil, err
	}

	now := c.now()
	sess := &Session{
		ID:           uuid.NewString(),
		DefinitionID: def.ID,
		StartedAt:    now,
		Participants: []string{},
		IsActive:     true,
	}
	c.append(sess, SenderAI, SenderAI, welcomeText(def), KindInfo, "", nil)

	if err := c.sessions.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	if err := c.defs.PutDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("persist definition: %w", err)
	}
	return sess, nil
}

// Join adds a learner to the roster and announces it. Joining twice is a
// no-op returning the current session, so a client retrying after a lost
// acknowledgment never double-announces.
func (c *Coordinator) Join(ctx context.Context, sessionID, learnerID, learnerName, accessCode string) (*Session, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, fmt.Errorf("%w: learner_id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(learnerName) == "" {
		learnerName = learnerID
	}

	unlock := c.lock("session:" + sessionID)
	defer unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive {
		return nil, ErrSessionNotActive
	}
	if sess.HasParticipant(learnerID) {
		return sess, nil
	}

	def, err := c.defs.GetDefinition(ctx, sess.DefinitionID)
	if err != nil {
		return nil, err
	}
	if !def.VerifyAccessCode(accessCode) {
		return nil, ErrAccessCodeInvalid
	}

	sess.Participants = append(sess.Participants, learnerID)
	// Authored by the learner: result aggregation resolves display names
	// from the first message a learner authored.
	c.append(sess, learnerID, learnerName, joinText(learnerName), KindInfo, "", nil)

	if err := c.sessions.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return sess, nil
}

// CurrentQuestion returns the first question when afterQuestionID is empty,
// otherwise the question following it in definition order. A nil question
// with nil error means the sequence is exhausted. The lookup is pure over
// the immutable definition, so ordering is identical for every participant.
func (c *Coordinator) CurrentQuestion(ctx context.Context, sessionID, afterQuestionID string) (*bank.Question, error) {
	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	def, err := c.defs.GetDefinition(ctx, sess.DefinitionID)
	if err != nil {
		return nil, err
	}
	return nextQuestion(def.Questions, afterQuestionID)
}

// AdvanceQuestion broadcasts the next question as a log message. When the
// sequence is exhausted it returns nils without appending; the caller is
// expected to end the session.
func (c *Coordinator) AdvanceQuestion(ctx context.Context, sessionID, afterQuestionID string) (*bank.Question, *Message, error) {
	unlock := c.lock("session:" + sessionID)
	defer unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if !sess.IsActive {
		return nil, nil, ErrSessionNotActive
	}
	def, err := c.defs.GetDefinition(ctx, sess.DefinitionID)
	if err != nil {
		return nil, nil, err
	}

	q, err := nextQuestion(def.Questions, afterQuestionID)
	if err != nil {
		return nil, nil, err
	}
	if q == nil {
		return nil, nil, nil
	}

	msg := c.append(sess, SenderAI, SenderAI, renderQuestion(*q), KindQuestion, q.ID, nil)
	if err := c.sessions.PutSession(ctx, sess); err != nil {
		return nil, nil, fmt.Errorf("persist session: %w", err)
	}
	return q, msg, nil
}

type SubmitOutcome struct {
	Correct  bool    `json:"correct"`
	Answer   Message `json:"answer"`
	Feedback Message `json:"feedback"`
}

// SubmitAnswer grades a submission, appends the answer message with its
// correctness flag and a follow-up AI feedback message. Resubmissions for
// the same question are all recorded; deduplication is the aggregator's
// concern, exactly-once submission is the caller's.
func (c *Coordinator) SubmitAnswer(ctx context.Context, sessionID, learnerID, learnerName, questionID, rawAnswer string) (*SubmitOutcome, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, fmt.Errorf("%w: learner_id is required", ErrInvalidInput)
	}

	unlock := c.lock("session:" + sessionID)
	defer unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive {
		return nil, ErrSessionNotActive
	}
	def, err := c.defs.GetDefinition(ctx, sess.DefinitionID)
	if err != nil {
		return nil, err
	}
	q, ok := def.QuestionByID(questionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}

	correct := Grade(q, rawAnswer)
	answerMsg := c.append(sess, learnerID, learnerName, rawAnswer, KindAnswer, q.ID, &correct)
	feedbackMsg := c.append(sess, SenderAI, SenderAI, c.feedback.Feedback(ctx, q, correct), KindInfo, q.ID, nil)

	if err := c.sessions.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return &SubmitOutcome{Correct: correct, Answer: *answerMsg, Feedback: *feedbackMsg}, nil
}

// End closes the session, derives the write-once results from the log and
// appends the leaderboard summary. Ending an already-ended session returns
// the stored results without recomputing or appending anything.
func (c *Coordinator) End(ctx context.Context, sessionID string) ([]*Result, error) {
	unlock := c.lock("session:" + sessionID)
	defer unlock()

	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsActive {
		return c.storedResults(ctx, sessionID)
	}

	def, err := c.defs.GetDefinition(ctx, sess.DefinitionID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	results := aggregateResults(sess, def, now)
	for _, r := range results {
		if err := c.results.PutResult(ctx, r); err != nil {
			return nil, fmt.Errorf("persist result: %w", err)
		}
	}

	sess.IsActive = false
	sess.EndedAt = &now
	c.append(sess, SenderAI, SenderAI, resultSummaryText(results), KindResult, "", nil)
	if err := c.sessions.PutSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	if err := def.Complete(); err == nil {
		if err := c.defs.PutDefinition(ctx, def); err != nil {
			return nil, fmt.Errorf("persist definition: %w", err)
		}
	}
	return results, nil
}

// Get returns the session snapshot (roster and full log).
func (c *Coordinator) Get(ctx context.Context, sessionID string) (*Session, error) {
	return c.sessions.GetSession(ctx, sessionID)
}

// Leaderboard computes live standings from the current log snapshot without
// touching any state. Nothing it returns is persisted.
func (c *Coordinator) Leaderboard(ctx context.Context, sessionID string) ([]*Result, error) {
	sess, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	def, err := c.defs.GetDefinition(ctx, sess.DefinitionID)
	if err != nil {
		return nil, err
	}
	return aggregateResults(sess, def, c.now()), nil
}

// ExpireOverdue ends every active session whose definition duration has
// elapsed and reports how many were ended. Duration-based auto-end is an
// extension over the core contract; sessions normally end via End.
func (c *Coordinator) ExpireOverdue(ctx context.Context) (int, error) {
	active, err := c.sessions.ListSessions(ctx, func(s *Session) bool { return s.IsActive })
	if err != nil {
		return 0, err
	}

	ended := 0
	for _, s := range active {
		def, err := c.defs.GetDefinition(ctx, s.DefinitionID)
		if err != nil {
			continue
		}
		deadline := s.StartedAt.Add(time.Duration(def.DurationMinutes) * time.Minute)
		if !c.now().After(deadline) {
			continue
		}
		if _, err := c.End(ctx, s.ID); err == nil {
			ended++
		}
	}
	return ended, nil
}

func (c *Coordinator) storedResults(ctx context.Context, sessionID string) ([]*Result, error) {
	stored, err := c.results.ListResults(ctx, func(r *Result) bool { return r.SessionID == sessionID })
	if err != nil {
		return nil, err
	}
	sortResults(stored)
	return stored, nil
}

// append builds the next message under the session's logical clock and adds
// it to the log. Callers hold the session lock.
func (c *Coordinator) append(sess *Session, senderID, senderName, content string, kind MessageKind, questionID string, isCorrect *bool) *Message {
	msg := Message{
		ID:         uuid.NewString(),
		Seq:        sess.nextSeq(),
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Timestamp:  c.now(),
		Kind:       kind,
		QuestionID: questionID,
		IsCorrect:  isCorrect,
	}
	sess.Log = append(sess.Log, msg)
	return &sess.Log[len(sess.Log)-1]
}

// nextQuestion walks the fixed definition order. Empty afterID selects the
// first question; the last question's successor is nil (exhausted).
func nextQuestion(questions []bank.Question, afterID string) (*bank.Question, error) {
	if afterID == "" {
		if len(questions) == 0 {
			return nil, nil
		}
		q := questions[0]
		return &q, nil
	}
	for i := range questions {
		if questions[i].ID == afterID {
			if i+1 >= len(questions) {
				return nil, nil
			}
			q := questions[i+1]
			return &q, nil
		}
	}
	return nil, ErrQuestionNotFound
}
