package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/healthbot/knowledge-core/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS kb_sessions (
	session_id TEXT PRIMARY KEY,
	files JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kb_sessions_created_at ON kb_sessions(created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) Save(ctx context.Context, meta domain.SessionMeta) error {
	files, err := json.Marshal(meta.Files)
	if err != nil {
		return fmt.Errorf("marshal session files: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO kb_sessions (session_id, files, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (session_id) DO UPDATE SET files = EXCLUDED.files, created_at = EXCLUDED.created_at
`, meta.SessionID, files, meta.CreatedAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionMeta, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT session_id, files, created_at
FROM kb_sessions
WHERE session_id = $1
`, sessionID)

	meta, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &meta, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kb_sessions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) ListExpired(ctx context.Context, before time.Time) ([]domain.SessionMeta, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT session_id, files, created_at
FROM kb_sessions
WHERE created_at < $1
ORDER BY created_at
`, before)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SessionMeta, 0)
	for rows.Next() {
		meta, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

type sessionScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row sessionScanner) (domain.SessionMeta, error) {
	var meta domain.SessionMeta
	var files []byte
	if err := row.Scan(&meta.SessionID, &files, &meta.CreatedAt); err != nil {
		return domain.SessionMeta{}, err
	}
	if err := json.Unmarshal(files, &meta.Files); err != nil {
		return domain.SessionMeta{}, fmt.Errorf("unmarshal session files: %w", err)
	}
	return meta, nil
}
