package calls

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// Service manages the practice-call lifecycle.
//
// Invariants:
// - in-progress sessions carry no end time or duration
// - finalization happens once and always yields a terminal status
// - metrics are created once per session and never mutated
//
// Every operation performs a single durable write and never retries.
type Service struct {
	repo Repository
	// clock is injectable for deterministic tests.
	clock func() time.Time
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now, newID: uuid.NewString}
}

// WithClock returns a copy of the service that reads time from clock.
func (s *Service) WithClock(clock func() time.Time) *Service {
	cp := *s
	cp.clock = clock
	return &cp
}

type StartSessionParams struct {
	UserID         string    `json:"user_id"`
	VoterProfileID string    `json:"voter_profile_id"`
	StartTime      time.Time `json:"start_time"`
	ExternalCallID string    `json:"external_call_id,omitempty"`
}

type FinalizeParams struct {
	EndTime        time.Time     `json:"end_time"`
	Duration       int           `json:"duration"`
	Transcript     Transcript    `json:"transcript"`
	Status         SessionStatus `json:"status"`
	ExternalCallID string        `json:"external_call_id,omitempty"`
}

// EnsureUserProfile creates the profile row StartSession depends on. It is
// idempotent and keeps an existing display name when none is given.
func (s *Service) EnsureUserProfile(ctx context.Context, userID, displayName string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, validationf("user id is required")
	}
	return s.repo.EnsureUserProfile(ctx, UserProfile{
		ID:          userID,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   s.clock().UTC(),
	})
}

// StartSession records a new in-progress call. The user profile must already
// exist; a missing profile surfaces as ErrPersistence from the store.
func (s *Service) StartSession(ctx context.Context, p StartSessionParams) (CallSession, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return CallSession{}, validationf("user id is required")
	}
	if strings.TrimSpace(p.VoterProfileID) == "" {
		return CallSession{}, validationf("voter profile id is required")
	}
	now := s.clock().UTC()
	start := p.StartTime.UTC()
	if p.StartTime.IsZero() {
		start = now
	}

	session := CallSession{
		ID:             s.newID(),
		UserID:         p.UserID,
		VoterProfileID: p.VoterProfileID,
		StartTime:      start,
		ExternalCallID: strings.TrimSpace(p.ExternalCallID),
		Status:         StatusInProgress,
		CreatedAt:      now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return CallSession{}, err
	}
	return session, nil
}

// FinalizeSession moves an in-progress session to completed or abandoned.
// A second finalization is rejected with ErrConflict.
func (s *Service) FinalizeSession(ctx context.Context, sessionID string, p FinalizeParams) (CallSession, error) {
	if sessionID == "" {
		return CallSession{}, validationf("session id is required")
	}
	if !p.Status.Terminal() {
		return CallSession{}, validationf("status must be completed or abandoned, got %q", p.Status)
	}
	if p.EndTime.IsZero() {
		return CallSession{}, validationf("end time is required")
	}
	if p.Duration < 0 {
		return CallSession{}, validationf("duration must be >= 0, got %d", p.Duration)
	}

	current, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return CallSession{}, err
	}
	if current.Status.Terminal() {
		return CallSession{}, errConflictFinalized(sessionID)
	}
	elapsed := p.EndTime.Sub(current.StartTime)
	if elapsed < 0 {
		return CallSession{}, validationf("end time %s is before start time %s",
			p.EndTime.UTC().Format(time.RFC3339), current.StartTime.Format(time.RFC3339))
	}
	if want := int(math.Round(elapsed.Seconds())); p.Duration != want {
		return CallSession{}, validationf("duration %d does not match end time minus start time (%d)", p.Duration, want)
	}

	return s.repo.FinalizeSession(ctx, sessionID, Finalization{
		EndTime:        p.EndTime.UTC(),
		Duration:       p.Duration,
		Transcript:     p.Transcript,
		Status:         p.Status,
		ExternalCallID: strings.TrimSpace(p.ExternalCallID),
	})
}

// RecordMetrics validates the evaluation, derives the overall score and stores it.
func (s *Service) RecordMetrics(ctx context.Context, sessionID string, in MetricsInput) (PerformanceMetrics, error) {
	if sessionID == "" {
		return PerformanceMetrics{}, validationf("session id is required")
	}
	if err := ValidateMetrics(in); err != nil {
		return PerformanceMetrics{}, err
	}
	if _, err := s.repo.GetSession(ctx, sessionID); err != nil {
		return PerformanceMetrics{}, err
	}

	m := in.Metrics(s.newID(), sessionID, s.clock().UTC())
	if err := s.repo.InsertMetrics(ctx, m); err != nil {
		return PerformanceMetrics{}, err
	}
	return m, nil
}

// ValidateMetrics checks every sub-score, the sentiment and the key moment types.
func ValidateMetrics(in MetricsInput) error {
	scores := []struct {
		name  string
		value int
	}{
		{"confidence", in.Confidence},
		{"enthusiasm", in.Enthusiasm},
		{"clarity", in.Clarity},
		{"persuasiveness", in.Persuasiveness},
		{"empathy", in.Empathy},
	}
	for _, sc := range scores {
		if sc.value < 0 || sc.value > 100 {
			return validationf("%s must be between 0 and 100, got %d", sc.name, sc.value)
		}
	}
	if in.Sentiment != "" && !in.Sentiment.Valid() {
		return validationf("unknown sentiment %q", in.Sentiment)
	}
	for i, km := range in.KeyMoments {
		if !km.Type.Valid() {
			return validationf("key moment %d has unknown type %q", i, km.Type)
		}
		if km.TimestampSeconds < 0 {
			return validationf("key moment %d has negative timestamp", i)
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, sessionID string) (CallSession, error) {
	if sessionID == "" {
		return CallSession{}, validationf("session id is required")
	}
	return s.repo.GetSession(ctx, sessionID)
}

// GetSessionDetail returns the session and its metrics; metrics is nil when
// none were recorded.
func (s *Service) GetSessionDetail(ctx context.Context, sessionID string) (CallSession, *PerformanceMetrics, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return CallSession{}, nil, err
	}
	m, err := s.repo.GetMetrics(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session, nil, nil
		}
		return CallSession{}, nil, err
	}
	return session, &m, nil
}

// ListSessions returns sessions newest first. The limit is normalized with NormalizeLimit.
func (s *Service) ListSessions(ctx context.Context, f ListFilter) ([]CallSession, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, validationf("unknown status %q", f.Status)
	}
	f.Limit = NormalizeLimit(f.Limit)
	return s.repo.ListSessions(ctx, f)
}

// NormalizeLimit maps non-positive limits to the default and caps at MaxListLimit.
func NormalizeLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	if n > MaxListLimit {
		return MaxListLimit
	}
	return n
}

func errConflictFinalized(id string) error {
	return fmt.Errorf("%w: session %s is already finalized", ErrConflict, id)
}
