package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

// SessionRepository keeps one row per review session with the snapshot as JSONB.
// The version column mirrors snapshot.version and guards concurrent saves.
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

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS review_sessions (
	id TEXT PRIMARY KEY,
	version BIGINT NOT NULL,
	snapshot JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_review_sessions_updated_at ON review_sessions(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	snapshotJSON, err := json.Marshal(session.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO review_sessions (id, version, snapshot, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5)
`, session.ID, session.Snapshot.Version, snapshotJSON, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "create session", fmt.Errorf("session %s already exists", session.ID))
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, version, snapshot, created_at, updated_at
FROM review_sessions
WHERE id = $1
`, id)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("get session", "session", id)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return session, nil
}

// Save replaces the snapshot only while the stored version still equals expectedVersion.
func (r *SessionRepository) Save(ctx context.Context, id string, snapshot domain.GroupedAssets, expectedVersion int64) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE review_sessions
SET snapshot = $2, version = $3, updated_at = $4
WHERE id = $1 AND version = $5
`, id, snapshotJSON, snapshot.Version, time.Now().UTC(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var stored int64
	err = r.db.QueryRowContext(ctx, `SELECT version FROM review_sessions WHERE id = $1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound("save session", "session", id)
	}
	if err != nil {
		return fmt.Errorf("read session version: %w", err)
	}
	return domain.WrapError(domain.ErrConflict, "save session",
		fmt.Errorf("session %s is at version %d, expected %d", id, stored, expectedVersion))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*domain.Session, error) {
	var (
		session     domain.Session
		version     int64
		snapshotRaw []byte
	)
	if err := row.Scan(&session.ID, &version, &snapshotRaw, &session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshotRaw, &session.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	session.Snapshot.Version = version
	return &session, nil
}
