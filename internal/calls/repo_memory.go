package calls

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"phonebank-training/internal/voters"
)

// MemoryRepo is an in-memory Repository for tests and local development.
// It mirrors the SQL store: profiles must exist before sessions, metrics are
// unique per session, and finalization only applies to in-progress sessions.
type MemoryRepo struct {
	mu sync.Mutex

	profiles map[string]UserProfile
	sessions map[string]CallSession
	metrics  map[string]PerformanceMetrics // key: session id

	// Err, when set, is returned wrapped in ErrPersistence by every call.
	Err error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles: map[string]UserProfile{},
		sessions: map[string]CallSession{},
		metrics:  map[string]PerformanceMetrics{},
	}
}

func (r *MemoryRepo) fail(op string) error {
	if r.Err != nil {
		return persistenceErr(op, r.Err)
	}
	return nil
}

func (r *MemoryRepo) EnsureUserProfile(ctx context.Context, p UserProfile) (UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ensure user profile"); err != nil {
		return UserProfile{}, err
	}
	if existing, ok := r.profiles[p.ID]; ok {
		if p.DisplayName != "" {
			existing.DisplayName = p.DisplayName
			r.profiles[p.ID] = existing
		}
		return existing, nil
	}
	r.profiles[p.ID] = p
	return p, nil
}

func (r *MemoryRepo) CreateSession(ctx context.Context, s CallSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("create session"); err != nil {
		return err
	}
	if _, ok := r.profiles[s.UserID]; !ok {
		return persistenceErr("create session", fmt.Errorf("user profile %s does not exist", s.UserID))
	}
	if _, ok := r.sessions[s.ID]; ok {
		return persistenceErr("create session", fmt.Errorf("duplicate session id %s", s.ID))
	}
	r.sessions[s.ID] = cloneSession(s)
	return nil
}

func (r *MemoryRepo) GetSession(ctx context.Context, id string) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("get session"); err != nil {
		return CallSession{}, err
	}
	s, ok := r.sessions[id]
	if !ok {
		return CallSession{}, ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *MemoryRepo) FinalizeSession(ctx context.Context, id string, f Finalization) (CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("finalize session"); err != nil {
		return CallSession{}, err
	}
	s, ok := r.sessions[id]
	if !ok {
		return CallSession{}, ErrNotFound
	}
	if s.Status != StatusInProgress {
		return CallSession{}, fmt.Errorf("%w: session %s is already finalized", ErrConflict, id)
	}
	end := f.EndTime.UTC()
	d := f.Duration
	s.EndTime = &end
	s.Duration = &d
	s.Transcript = append(Transcript(nil), f.Transcript...)
	s.Status = f.Status
	if f.ExternalCallID != "" {
		s.ExternalCallID = f.ExternalCallID
	}
	r.sessions[id] = s
	return cloneSession(s), nil
}

func (r *MemoryRepo) CacheRecordingURL(ctx context.Context, id, url string, fetchedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("cache recording url"); err != nil {
		return false, err
	}
	s, ok := r.sessions[id]
	if !ok || s.RecordingURL != "" {
		return false, nil
	}
	at := fetchedAt.UTC()
	s.RecordingURL = url
	s.RecordingFetchedAt = &at
	r.sessions[id] = s
	return true, nil
}

func (r *MemoryRepo) ListSessions(ctx context.Context, f ListFilter) ([]CallSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("list sessions"); err != nil {
		return nil, err
	}
	out := make([]CallSession, 0)
	for _, s := range r.newestFirst() {
		if f.UserID != "" && s.UserID != f.UserID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, cloneSession(s))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepo) InsertMetrics(ctx context.Context, m PerformanceMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("insert metrics"); err != nil {
		return err
	}
	if _, ok := r.sessions[m.SessionID]; !ok {
		return persistenceErr("insert metrics", fmt.Errorf("session %s does not exist", m.SessionID))
	}
	if _, ok := r.metrics[m.SessionID]; ok {
		return fmt.Errorf("%w: metrics already recorded for session %s", ErrConflict, m.SessionID)
	}
	r.metrics[m.SessionID] = m
	return nil
}

func (r *MemoryRepo) GetMetrics(ctx context.Context, sessionID string) (PerformanceMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("get metrics"); err != nil {
		return PerformanceMetrics{}, err
	}
	m, ok := r.metrics[sessionID]
	if !ok {
		return PerformanceMetrics{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) UserProgress(ctx context.Context, userID string) (UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("user progress"); err != nil {
		return UserProgress{}, err
	}
	out := UserProgress{UserID: userID}
	var scoreSum, scored int
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		out.TotalCalls++
		switch voters.DifficultyOf(s.VoterProfileID) {
		case voters.DifficultyEasy:
			out.EasyCalls++
		case voters.DifficultyMedium:
			out.MediumCalls++
		case voters.DifficultyHard:
			out.HardCalls++
		}
		if s.Status == StatusCompleted {
			out.CompletedCalls++
		}
		if m, ok := r.metrics[s.ID]; ok {
			scoreSum += m.OverallScore
			scored++
		}
	}
	if scored > 0 {
		avg := float64(scoreSum) / float64(scored)
		out.AverageScore = &avg
	}
	return out, nil
}

func (r *MemoryRepo) RecentSessions(ctx context.Context, userID string, limit int) ([]RecentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("recent sessions"); err != nil {
		return nil, err
	}
	out := make([]RecentSession, 0, limit)
	for _, s := range r.newestFirst() {
		if s.UserID != userID {
			continue
		}
		rs := RecentSession{SessionID: s.ID, VoterProfileID: s.VoterProfileID, Status: s.Status, CreatedAt: s.CreatedAt}
		if m, ok := r.metrics[s.ID]; ok {
			score := m.OverallScore
			rs.OverallScore = &score
		}
		out = append(out, rs)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// newestFirst must be called with r.mu held.
func (r *MemoryRepo) newestFirst() []CallSession {
	all := make([]CallSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return all
}

func cloneSession(s CallSession) CallSession {
	out := s
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.Duration != nil {
		d := *s.Duration
		out.Duration = &d
	}
	if s.RecordingFetchedAt != nil {
		t := *s.RecordingFetchedAt
		out.RecordingFetchedAt = &t
	}
	out.Transcript = append(Transcript(nil), s.Transcript...)
	return out
}
