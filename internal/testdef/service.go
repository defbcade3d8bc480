package testdef

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aitestlms/internal/bank"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDefinitionNotFound   = errors.New("definition not found")
	ErrNoQuestionsAvailable = errors.New("no questions available")
	ErrAlreadyActive        = errors.New("definition already started")
	ErrAlreadyCompleted     = errors.New("definition already completed")
	ErrInvalidInput         = errors.New("invalid input")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Definition is an immutable quiz template. Its question list is fixed at
// creation time and never resampled; only Status moves, and only forward.
type Definition struct {
	ID              string          `json:"id"`
	TeacherID       string          `json:"teacher_id"`
	InstitutionID   string          `json:"institution_id"`
	Subject         string          `json:"subject"`
	Topic           string          `json:"topic"`
	Grade           string          `json:"grade"`
	ClassName       string          `json:"class_name"`
	Questions       []bank.Question `json:"questions"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          Status          `json:"status"`
	AccessCodeHash  string          `json:"access_code_hash,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Activate flips Pending to Active. Any other starting state is an error so
// a definition can never back a second live session.
func (d *Definition) Activate() error {
	switch d.Status {
	case StatusPending:
		d.Status = StatusActive
		return nil
	case StatusActive:
		return ErrAlreadyActive
	default:
		return ErrAlreadyCompleted
	}
}

// Complete flips Active to Completed. Completing an already completed
// definition is a no-op so session end stays retry-safe.
func (d *Definition) Complete() error {
	switch d.Status {
	case StatusActive:
		d.Status = StatusCompleted
		return nil
	case StatusCompleted:
		return nil
	default:
		return fmt.Errorf("cannot complete definition in status %q", d.Status)
	}
}

// HasAccessCode reports whether learners must present a code to join.
func (d *Definition) HasAccessCode() bool {
	return d.AccessCodeHash != ""
}

// VerifyAccessCode checks a presented code against the stored hash. A
// definition without a code accepts anything.
func (d *Definition) VerifyAccessCode(code string) bool {
	if !d.HasAccessCode() {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(d.AccessCodeHash), []byte(code)) == nil
}

// QuestionByID finds a question in definition order.
func (d *Definition) QuestionByID(id string) (bank.Question, bool) {
	for _, q := range d.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return bank.Question{}, false
}

type Store interface {
	GetDefinition(ctx context.Context, id string) (*Definition, error)
	PutDefinition(ctx context.Context, def *Definition) error
	ListDefinitions(ctx context.Context, filter func(*Definition) bool) ([]*Definition, error)
}

type Service struct {
	bank            *bank.Bank
	store           Store
	defaultDuration int
}

func NewService(b *bank.Bank, store Store, defaultDurationMinutes int) *Service {
	if defaultDurationMinutes <= 0 {
		defaultDurationMinutes = 30
	}
	return &Service{bank: b, store: store, defaultDuration: defaultDurationMinutes}
}

type CreateInput struct {
	TeacherID       string
	InstitutionID   string
	Subject         string
	Topic           string
	Grade           string
	ClassName       string
	DurationMinutes int
	QuestionCount   int
	AccessCode      string
}

// Create samples questions from the bank, deep-copies them under fresh ids
// so no two definitions alias a bank original, and persists a Pending
// definition. An empty pool is an error rather than a zero-question
// definition, which would make every score computation degenerate.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Definition, error) {
	if strings.TrimSpace(in.TeacherID) == "" {
		return nil, fmt.Errorf("%w: teacher_id is required", ErrInvalidInput)
	}
	if in.QuestionCount <= 0 {
		return nil, fmt.Errorf("%w: question_count must be positive", ErrInvalidInput)
	}
	duration := in.DurationMinutes
	if duration <= 0 {
		duration = s.defaultDuration
	}

	sampled := s.bank.Sample(in.Subject, in.QuestionCount)
	if len(sampled) == 0 {
		return nil, ErrNoQuestionsAvailable
	}
	for i := range sampled {
		sampled[i].ID = uuid.NewString()
	}

	def := &Definition{
		ID:              uuid.NewString(),
		TeacherID:       strings.TrimSpace(in.TeacherID),
		InstitutionID:   strings.TrimSpace(in.InstitutionID),
		Subject:         strings.TrimSpace(in.Subject),
		Topic:           strings.TrimSpace(in.Topic),
		Grade:           strings.TrimSpace(in.Grade),
		ClassName:       strings.TrimSpace(in.ClassName),
		Questions:       sampled,
		DurationMinutes: duration,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}

	if code := strings.TrimSpace(in.AccessCode); code != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash access code: %w", err)
		}
		def.AccessCodeHash = string(hash)
	}

	if err := s.store.PutDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("persist definition: %w", err)
	}
	return def, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Definition, error) {
	return s.store.GetDefinition(ctx, id)
}

func (s *Service) ListByTeacher(ctx context.Context, teacherID string) ([]*Definition, error) {
	return s.store.ListDefinitions(ctx, func(d *Definition) bool {
		return teacherID == "" || d.TeacherID == teacherID
	})
}
