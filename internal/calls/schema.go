package calls

import (
	"context"
	"database/sql"
	"strings"

	"phonebank-training/pkg/utils"
)

// schemaStatements share one layout across dialects; {{ts}} is replaced with
// the dialect's timestamp type.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
  id           TEXT PRIMARY KEY,
  display_name TEXT,
  created_at   {{ts}} NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS call_sessions (
  id                   TEXT PRIMARY KEY,
  user_id              TEXT NOT NULL REFERENCES user_profiles(id),
  voter_profile_id     TEXT NOT NULL,
  start_time           {{ts}} NOT NULL,
  end_time             {{ts}},
  duration             INTEGER CHECK (duration >= 0),
  transcript           TEXT,
  external_call_id     TEXT,
  recording_url        TEXT,
  recording_fetched_at {{ts}},
  status               TEXT NOT NULL CHECK (status IN ('in-progress', 'completed', 'abandoned')),
  created_at           {{ts}} NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_call_sessions_user_created ON call_sessions (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_call_sessions_created ON call_sessions (created_at)`,
	`CREATE TABLE IF NOT EXISTS performance_metrics (
  id                    TEXT PRIMARY KEY,
  session_id            TEXT NOT NULL UNIQUE REFERENCES call_sessions(id) ON DELETE CASCADE,
  confidence            INTEGER NOT NULL CHECK (confidence BETWEEN 0 AND 100),
  enthusiasm            INTEGER NOT NULL CHECK (enthusiasm BETWEEN 0 AND 100),
  clarity               INTEGER NOT NULL CHECK (clarity BETWEEN 0 AND 100),
  persuasiveness        INTEGER NOT NULL CHECK (persuasiveness BETWEEN 0 AND 100),
  empathy               INTEGER NOT NULL CHECK (empathy BETWEEN 0 AND 100),
  overall_score         INTEGER NOT NULL CHECK (overall_score BETWEEN 0 AND 100),
  strengths             TEXT NOT NULL,
  areas_for_improvement TEXT NOT NULL,
  key_moments           TEXT NOT NULL,
  sentiment             TEXT NOT NULL CHECK (sentiment IN ('positive', 'neutral', 'negative')),
  created_at            {{ts}} NOT NULL
)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	tsType := "DATETIME"
	if dialect == DialectPostgres {
		tsType = "TIMESTAMPTZ"
	}
	err := utils.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, strings.ReplaceAll(stmt, "{{ts}}", tsType)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistenceErr("migrate", err)
	}
	return nil
}
