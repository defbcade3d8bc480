package bank

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

var (
	ErrInvalidQuestion = errors.New("invalid question")
	ErrEmptySubject    = errors.New("subject is required")
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// Question is an immutable bank entry. Copies handed out by Sample share
// nothing with the pool originals.
type Question struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Difficulty    string       `json:"difficulty,omitempty"`
}

// Bank holds per-subject question pools with a default pool used as a
// fallback for unregistered subjects.
type Bank struct {
	mu             sync.RWMutex
	pools          map[string][]Question
	defaultSubject string
}

func New(defaultSubject string) *Bank {
	s := normalizeSubject(defaultSubject)
	if s == "" {
		s = "general"
	}
	return &Bank{
		pools:          make(map[string][]Question),
		defaultSubject: s,
	}
}

// NewWithDefaults returns a bank pre-loaded with the built-in general
// knowledge pool so a fresh deployment can create definitions immediately.
func NewWithDefaults() *Bank {
	b := New("general")
	if err := b.Register("general", defaultPool()); err != nil {
		panic(fmt.Sprintf("bank: register default pool: %v", err))
	}
	return b
}

func (b *Bank) DefaultSubject() string {
	return b.defaultSubject
}

// Register installs or replaces the pool for a subject. Every question is
// validated; a single bad question rejects the whole pool.
func (b *Bank) Register(subject string, questions []Question) error {
	s := normalizeSubject(subject)
	if s == "" {
		return ErrEmptySubject
	}
	for i, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}

	pool := make([]Question, len(questions))
	for i, q := range questions {
		pool[i] = copyQuestion(q)
	}

	b.mu.Lock()
	b.pools[s] = pool
	b.mu.Unlock()
	return nil
}

// Sample returns up to n questions for the subject in random order. An
// unregistered subject falls back to the default pool. The returned slice
// is an independent copy; an empty result means the bank has nothing for
// either pool.
func (b *Bank) Sample(subject string, n int) []Question {
	if n <= 0 {
		return nil
	}

	b.mu.RLock()
	pool, ok := b.pools[normalizeSubject(subject)]
	if !ok || len(pool) == 0 {
		pool = b.pools[b.defaultSubject]
	}
	picked := make([]Question, len(pool))
	for i, q := range pool {
		picked[i] = copyQuestion(q)
	}
	b.mu.RUnlock()

	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if n < len(picked) {
		picked = picked[:n]
	}
	return picked
}

func (b *Bank) Subjects() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.pools))
	for s := range b.pools {
		out = append(out, s)
	}
	return out
}

// ValidateQuestion enforces the bank invariants: non-empty text and answer,
// multiple choice options must include the correct answer, true/false
// answers must be the literal True or False.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("%w: correct answer is required", ErrInvalidQuestion)
	}

	switch q.Type {
	case MultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: multiple choice needs options", ErrInvalidQuestion)
		}
		found := false
		for _, opt := range q.Options {
			if strings.EqualFold(opt, q.CorrectAnswer) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: options must contain the correct answer", ErrInvalidQuestion)
		}
	case TrueFalse:
		if !strings.EqualFold(q.CorrectAnswer, "True") && !strings.EqualFold(q.CorrectAnswer, "False") {
			return fmt.Errorf("%w: true/false answer must be True or False", ErrInvalidQuestion)
		}
	case ShortAnswer:
		// No format constraint beyond a non-empty answer.
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidQuestion, q.Type)
	}
	return nil
}

func copyQuestion(q Question) Question {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	return out
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
