package calls

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Repository persists sessions, metrics and user profiles.
//
// Implementations return ErrNotFound and ErrConflict as sentinels and wrap
// every storage failure in ErrPersistence.
type Repository interface {
	EnsureUserProfile(ctx context.Context, p UserProfile) (UserProfile, error)

	CreateSession(ctx context.Context, s CallSession) error
	GetSession(ctx context.Context, id string) (CallSession, error)
	// FinalizeSession moves an in-progress session to a terminal status.
	// It returns ErrConflict when the session is already terminal.
	FinalizeSession(ctx context.Context, id string, f Finalization) (CallSession, error)
	// CacheRecordingURL stores the URL only while none is stored yet and
	// reports whether this call wrote it.
	CacheRecordingURL(ctx context.Context, id, url string, fetchedAt time.Time) (bool, error)
	ListSessions(ctx context.Context, f ListFilter) ([]CallSession, error)

	// InsertMetrics returns ErrConflict when the session already has metrics.
	InsertMetrics(ctx context.Context, m PerformanceMetrics) error
	GetMetrics(ctx context.Context, sessionID string) (PerformanceMetrics, error)

	UserProgress(ctx context.Context, userID string) (UserProgress, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]RecentSession, error)
}

// Finalization carries the fields written once at call end.
type Finalization struct {
	EndTime        time.Time
	Duration       int
	Transcript     Transcript
	Status         SessionStatus
	ExternalCallID string
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLRepository implements Repository over database/sql for Postgres (pgx)
// and SQLite (modernc). Queries are written with ? placeholders and rebound
// for Postgres.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	if r.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

const sessionColumns = `id, user_id, voter_profile_id, start_time, end_time, duration, transcript,
       external_call_id, recording_url, recording_fetched_at, status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (CallSession, error) {
	var (
		s          CallSession
		endTime    sql.NullTime
		duration   sql.NullInt64
		transcript sql.NullString
		externalID sql.NullString
		recURL     sql.NullString
		fetchedAt  sql.NullTime
		status     string
	)
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.VoterProfileID,
		&s.StartTime,
		&endTime,
		&duration,
		&transcript,
		&externalID,
		&recURL,
		&fetchedAt,
		&status,
		&s.CreatedAt,
	); err != nil {
		return CallSession{}, err
	}
	if endTime.Valid {
		t := endTime.Time.UTC()
		s.EndTime = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		s.Duration = &d
	}
	if transcript.Valid {
		t, err := decodeTranscript(transcript.String)
		if err != nil {
			return CallSession{}, err
		}
		s.Transcript = t
	}
	s.ExternalCallID = externalID.String
	s.RecordingURL = recURL.String
	if fetchedAt.Valid {
		t := fetchedAt.Time.UTC()
		s.RecordingFetchedAt = &t
	}
	s.Status = SessionStatus(status)
	s.StartTime = s.StartTime.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

func (r *SQLRepository) EnsureUserProfile(ctx context.Context, p UserProfile) (UserProfile, error) {
	const upsert = `
INSERT INTO user_profiles (id, display_name, created_at)
VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET display_name = COALESCE(excluded.display_name, user_profiles.display_name)
`
	if _, err := r.db.ExecContext(ctx, r.q(upsert), p.ID, nullString(p.DisplayName), p.CreatedAt.UTC()); err != nil {
		return UserProfile{}, persistenceErr("ensure user profile", err)
	}

	const q = `SELECT id, display_name, created_at FROM user_profiles WHERE id = ?`
	var (
		out  UserProfile
		name sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, r.q(q), p.ID).Scan(&out.ID, &name, &out.CreatedAt); err != nil {
		return UserProfile{}, persistenceErr("ensure user profile", err)
	}
	out.DisplayName = name.String
	out.CreatedAt = out.CreatedAt.UTC()
	return out, nil
}

func (r *SQLRepository) CreateSession(ctx context.Context, s CallSession) error {
	const q = `
INSERT INTO call_sessions (
  id, user_id, voter_profile_id, start_time, external_call_id, status, created_at
) VALUES (
  ?, ?, ?, ?, ?, ?, ?
)
`
	_, err := r.db.ExecContext(ctx, r.q(q),
		s.ID,
		s.UserID,
		s.VoterProfileID,
		s.StartTime.UTC(),
		nullString(s.ExternalCallID),
		string(s.Status),
		s.CreatedAt.UTC(),
	)
	if err != nil {
		return persistenceErr("create session", err)
	}
	return nil
}

func (r *SQLRepository) GetSession(ctx context.Context, id string) (CallSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM call_sessions WHERE id = ?`
	s, err := scanSession(r.db.QueryRowContext(ctx, r.q(q), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallSession{}, ErrNotFound
		}
		return CallSession{}, persistenceErr("get session", err)
	}
	return s, nil
}

func (r *SQLRepository) FinalizeSession(ctx context.Context, id string, f Finalization) (CallSession, error) {
	const q = `
UPDATE call_sessions
SET end_time = ?, duration = ?, transcript = ?, status = ?,
    external_call_id = COALESCE(?, external_call_id)
WHERE id = ? AND status = 'in-progress'
`
	transcript, err := encodeTranscript(f.Transcript)
	if err != nil {
		return CallSession{}, persistenceErr("finalize session", err)
	}
	res, err := r.db.ExecContext(ctx, r.q(q),
		f.EndTime.UTC(),
		f.Duration,
		transcript,
		string(f.Status),
		nullString(f.ExternalCallID),
		id,
	)
	if err != nil {
		return CallSession{}, persistenceErr("finalize session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return CallSession{}, persistenceErr("finalize session", err)
	}

	s, err := r.GetSession(ctx, id)
	if err != nil {
		return CallSession{}, err
	}
	if n == 0 {
		return CallSession{}, fmt.Errorf("%w: session %s is already finalized", ErrConflict, id)
	}
	return s, nil
}

func (r *SQLRepository) CacheRecordingURL(ctx context.Context, id, url string, fetchedAt time.Time) (bool, error) {
	const q = `
UPDATE call_sessions
SET recording_url = ?, recording_fetched_at = ?
WHERE id = ? AND recording_url IS NULL
`
	res, err := r.db.ExecContext(ctx, r.q(q), url, fetchedAt.UTC(), id)
	if err != nil {
		return false, persistenceErr("cache recording url", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, persistenceErr("cache recording url", err)
	}
	return n == 1, nil
}

func (r *SQLRepository) ListSessions(ctx context.Context, f ListFilter) ([]CallSession, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	q := `SELECT ` + sessionColumns + ` FROM call_sessions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := r.db.QueryContext(ctx, r.q(q), args...)
	if err != nil {
		return nil, persistenceErr("list sessions", err)
	}
	defer rows.Close()

	out := make([]CallSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, persistenceErr("list sessions", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("list sessions", err)
	}
	return out, nil
}

func (r *SQLRepository) InsertMetrics(ctx context.Context, m PerformanceMetrics) error {
	strengths, err := json.Marshal(nonNil(m.Strengths))
	if err != nil {
		return persistenceErr("encode strengths", err)
	}
	areas, err := json.Marshal(nonNil(m.AreasForImprovement))
	if err != nil {
		return persistenceErr("encode areas for improvement", err)
	}
	moments, err := json.Marshal(nonNilMoments(m.KeyMoments))
	if err != nil {
		return persistenceErr("encode key moments", err)
	}

	const q = `
INSERT INTO performance_metrics (
  id, session_id, confidence, enthusiasm, clarity, persuasiveness, empathy, overall_score,
  strengths, areas_for_improvement, key_moments, sentiment, created_at
) VALUES (
  ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)
ON CONFLICT (session_id) DO NOTHING
`
	res, err := r.db.ExecContext(ctx, r.q(q),
		m.ID,
		m.SessionID,
		m.Confidence,
		m.Enthusiasm,
		m.Clarity,
		m.Persuasiveness,
		m.Empathy,
		m.OverallScore,
		string(strengths),
		string(areas),
		string(moments),
		string(m.Sentiment),
		m.CreatedAt.UTC(),
	)
	if err != nil {
		return persistenceErr("insert metrics", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("insert metrics", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: metrics already recorded for session %s", ErrConflict, m.SessionID)
	}
	return nil
}

func (r *SQLRepository) GetMetrics(ctx context.Context, sessionID string) (PerformanceMetrics, error) {
	const q = `
SELECT id, session_id, confidence, enthusiasm, clarity, persuasiveness, empathy, overall_score,
       strengths, areas_for_improvement, key_moments, sentiment, created_at
FROM performance_metrics
WHERE session_id = ?
`
	var (
		m                         PerformanceMetrics
		strengths, areas, moments string
		sentiment                 string
	)
	err := r.db.QueryRowContext(ctx, r.q(q), sessionID).Scan(
		&m.ID,
		&m.SessionID,
		&m.Confidence,
		&m.Enthusiasm,
		&m.Clarity,
		&m.Persuasiveness,
		&m.Empathy,
		&m.OverallScore,
		&strengths,
		&areas,
		&moments,
		&sentiment,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PerformanceMetrics{}, ErrNotFound
		}
		return PerformanceMetrics{}, persistenceErr("get metrics", err)
	}
	if err := json.Unmarshal([]byte(strengths), &m.Strengths); err != nil {
		return PerformanceMetrics{}, persistenceErr("decode strengths", err)
	}
	if err := json.Unmarshal([]byte(areas), &m.AreasForImprovement); err != nil {
		return PerformanceMetrics{}, persistenceErr("decode areas for improvement", err)
	}
	if err := json.Unmarshal([]byte(moments), &m.KeyMoments); err != nil {
		return PerformanceMetrics{}, persistenceErr("decode key moments", err)
	}
	m.Sentiment = Sentiment(sentiment)
	m.CreatedAt = m.CreatedAt.UTC()
	return m, nil
}

func (r *SQLRepository) UserProgress(ctx context.Context, userID string) (UserProgress, error) {
	const q = `
SELECT
  COUNT(*),
  COALESCE(SUM(CASE WHEN s.voter_profile_id LIKE 'easy-%' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN s.voter_profile_id LIKE 'medium-%' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN s.voter_profile_id LIKE 'hard-%' THEN 1 ELSE 0 END), 0),
  COALESCE(SUM(CASE WHEN s.status = 'completed' THEN 1 ELSE 0 END), 0),
  CAST(AVG(m.overall_score) AS DOUBLE PRECISION)
FROM call_sessions s
LEFT JOIN performance_metrics m ON m.session_id = s.id
WHERE s.user_id = ?
`
	out := UserProgress{UserID: userID}
	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, r.q(q), userID).Scan(
		&out.TotalCalls,
		&out.EasyCalls,
		&out.MediumCalls,
		&out.HardCalls,
		&out.CompletedCalls,
		&avg,
	); err != nil {
		return UserProgress{}, persistenceErr("user progress", err)
	}
	if avg.Valid {
		v := avg.Float64
		out.AverageScore = &v
	}
	return out, nil
}

func (r *SQLRepository) RecentSessions(ctx context.Context, userID string, limit int) ([]RecentSession, error) {
	const q = `
SELECT s.id, s.voter_profile_id, s.status, s.created_at, m.overall_score
FROM call_sessions s
LEFT JOIN performance_metrics m ON m.session_id = s.id
WHERE s.user_id = ?
ORDER BY s.created_at DESC, s.id DESC
LIMIT ?
`
	rows, err := r.db.QueryContext(ctx, r.q(q), userID, limit)
	if err != nil {
		return nil, persistenceErr("recent sessions", err)
	}
	defer rows.Close()

	out := make([]RecentSession, 0, limit)
	for rows.Next() {
		var (
			rs     RecentSession
			status string
			score  sql.NullInt64
		)
		if err := rows.Scan(&rs.SessionID, &rs.VoterProfileID, &status, &rs.CreatedAt, &score); err != nil {
			return nil, persistenceErr("recent sessions", err)
		}
		rs.Status = SessionStatus(status)
		rs.CreatedAt = rs.CreatedAt.UTC()
		if score.Valid {
			v := int(score.Int64)
			rs.OverallScore = &v
		}
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("recent sessions", err)
	}
	return out, nil
}

// encodeTranscript stores the speaker-tagged lines as JSON so speaker-less
// lines keep their text verbatim.
func encodeTranscript(t Transcript) (sql.NullString, error) {
	if len(t) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeTranscript also accepts plain "Speaker: text" rows.
func decodeTranscript(raw string) (Transcript, error) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return ParseTranscript(raw), nil
	}
	var t Transcript
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
