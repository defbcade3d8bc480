package store

import (
	"context"
	"sync"

	"aitestlms/internal/session"
	"aitestlms/internal/testdef"
)

// Memory is a map-backed store for development and tests. It hands out
// deep copies on both sides of every call so callers can never mutate
// stored state except through Put.
type Memory struct {
	mu       sync.RWMutex
	defs     map[string]*testdef.Definition
	sessions map[string]*session.Session
	results  map[string]*session.Result
}

func NewMemory() *Memory {
	return &Memory{
		defs:     make(map[string]*testdef.Definition),
		sessions: make(map[string]*session.Session),
		results:  make(map[string]*session.Result),
	}
}

func (m *Memory) GetDefinition(ctx context.Context, id string) (*testdef.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.defs[id]
	if !ok {
		return nil, testdef.ErrDefinitionNotFound
	}
	return copyDefinition(def), nil
}

func (m *Memory) PutDefinition(ctx context.Context, def *testdef.Definition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[def.ID] = copyDefinition(def)
	return nil
}

func (m *Memory) ListDefinitions(ctx context.Context, filter func(*testdef.Definition) bool) ([]*testdef.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*testdef.Definition, 0)
	for _, def := range m.defs {
		if filter == nil || filter(def) {
			out = append(out, copyDefinition(def))
		}
	}
	return out, nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return copySession(sess), nil
}

func (m *Memory) PutSession(ctx context.Context, sess *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = copySession(sess)
	return nil
}

func (m *Memory) ListSessions(ctx context.Context, filter func(*session.Session) bool) ([]*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session.Session, 0)
	for _, sess := range m.sessions {
		if filter == nil || filter(sess) {
			out = append(out, copySession(sess))
		}
	}
	return out, nil
}

func (m *Memory) PutResult(ctx context.Context, res *session.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *res
	m.results[res.ID] = &cp
	return nil
}

func (m *Memory) ListResults(ctx context.Context, filter func(*session.Result) bool) ([]*session.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session.Result, 0)
	for _, res := range m.results {
		if filter == nil || filter(res) {
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

func copyDefinition(def *testdef.Definition) *testdef.Definition {
	cp := *def
	cp.Questions = append(def.Questions[:0:0], def.Questions...)
	for i := range cp.Questions {
		if cp.Questions[i].Options != nil {
			cp.Questions[i].Options = append([]string(nil), cp.Questions[i].Options...)
		}
	}
	return &cp
}

func copySession(sess *session.Session) *session.Session {
	cp := *sess
	cp.Participants = append([]string(nil), sess.Participants...)
	cp.Log = append(sess.Log[:0:0], sess.Log...)
	for i := range cp.Log {
		if cp.Log[i].IsCorrect != nil {
			v := *cp.Log[i].IsCorrect
			cp.Log[i].IsCorrect = &v
		}
	}
	if sess.EndedAt != nil {
		t := *sess.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}
