package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"aitestlms/internal/session"
	"aitestlms/internal/testdef"
)

// Postgres keeps each collection as a JSONB document table keyed by id.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the collection tables if they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS test_definitions (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS test_sessions (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS test_results (
			id TEXT PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return storageErr("ensure schema", err)
		}
	}
	return nil
}

func (p *Postgres) GetDefinition(ctx context.Context, id string) (*testdef.Definition, error) {
	var def testdef.Definition
	if err := p.getDoc(ctx, "test_definitions", id, &def); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, testdef.ErrDefinitionNotFound
		}
		return nil, storageErr("load definition", err)
	}
	return &def, nil
}

func (p *Postgres) PutDefinition(ctx context.Context, def *testdef.Definition) error {
	if err := p.putDoc(ctx, "test_definitions", def.ID, def); err != nil {
		return storageErr("save definition", err)
	}
	return nil
}

func (p *Postgres) ListDefinitions(ctx context.Context, filter func(*testdef.Definition) bool) ([]*testdef.Definition, error) {
	out := make([]*testdef.Definition, 0)
	err := p.listDocs(ctx, "test_definitions", func(raw []byte) error {
		var def testdef.Definition
		if err := json.Unmarshal(raw, &def); err != nil {
			return err
		}
		if filter == nil || filter(&def) {
			out = append(out, &def)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list definitions", err)
	}
	return out, nil
}

func (p *Postgres) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	if err := p.getDoc(ctx, "test_sessions", id, &sess); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, storageErr("load session", err)
	}
	return &sess, nil
}

func (p *Postgres) PutSession(ctx context.Context, sess *session.Session) error {
	if err := p.putDoc(ctx, "test_sessions", sess.ID, sess); err != nil {
		return storageErr("save session", err)
	}
	return nil
}

func (p *Postgres) ListSessions(ctx context.Context, filter func(*session.Session) bool) ([]*session.Session, error) {
	out := make([]*session.Session, 0)
	err := p.listDocs(ctx, "test_sessions", func(raw []byte) error {
		var sess session.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			return err
		}
		if filter == nil || filter(&sess) {
			out = append(out, &sess)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	return out, nil
}

func (p *Postgres) PutResult(ctx context.Context, res *session.Result) error {
	if err := p.putDoc(ctx, "test_results", res.ID, res); err != nil {
		return storageErr("save result", err)
	}
	return nil
}

func (p *Postgres) ListResults(ctx context.Context, filter func(*session.Result) bool) ([]*session.Result, error) {
	out := make([]*session.Result, 0)
	err := p.listDocs(ctx, "test_results", func(raw []byte) error {
		var res session.Result
		if err := json.Unmarshal(raw, &res); err != nil {
			return err
		}
		if filter == nil || filter(&res) {
			out = append(out, &res)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("list results", err)
	}
	return out, nil
}

func (p *Postgres) getDoc(ctx context.Context, table, id string, dst interface{}) error {
	var raw []byte
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, table)
	if err := p.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (p *Postgres) putDoc(ctx context.Context, table, id string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id)
		DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, table)
	_, err = p.db.ExecContext(ctx, query, id, raw)
	return err
}

func (p *Postgres) listDocs(ctx context.Context, table string, each func(raw []byte) error) error {
	query := fmt.Sprintf(`SELECT doc FROM %s ORDER BY updated_at, id`, table)
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := each(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(session.ErrStorageUnavailable, err))
}
