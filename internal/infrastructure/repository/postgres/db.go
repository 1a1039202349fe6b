package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID int64 = 2024060101

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

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS evidence_documents (
	id TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	mime_type TEXT NOT NULL DEFAULT '',
	file_size BIGINT NOT NULL DEFAULT 0,
	storage_key TEXT NOT NULL DEFAULT '',
	expiration_date TIMESTAMPTZ,
	uploaded_at TIMESTAMPTZ NOT NULL,
	document_type TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_evidence_documents_profile ON evidence_documents(profile_id, uploaded_at, id);

CREATE TABLE IF NOT EXISTS gap_statuses (
	profile_id TEXT NOT NULL,
	gap_id TEXT NOT NULL,
	status TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (profile_id, gap_id)
);

CREATE TABLE IF NOT EXISTS pack_health_scores (
	seq BIGSERIAL PRIMARY KEY,
	id TEXT NOT NULL UNIQUE,
	profile_id TEXT NOT NULL,
	overall_score INTEGER NOT NULL,
	completeness_score INTEGER NOT NULL,
	expiration_score INTEGER NOT NULL,
	quality_score INTEGER NOT NULL,
	remediation_score INTEGER NOT NULL,
	breakdown JSONB NOT NULL,
	eligible BOOLEAN NOT NULL,
	config_version TEXT NOT NULL DEFAULT '',
	gap_count INTEGER NOT NULL,
	open_gaps INTEGER NOT NULL,
	calculated_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pack_health_scores_profile ON pack_health_scores(profile_id, seq DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}
