package reporting

import (
	"context"
	"sync"

	"phonebank-training/internal/calls"
)

// MemoryRepo serves canned aggregates for tests and early development.
// Unknown users get an empty aggregate, like the SQL query does.
type MemoryRepo struct {
	mu sync.Mutex

	Progress map[string]calls.UserProgress
	Recent   map[string][]calls.RecentSession

	ProgressErr error
	RecentErr   error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		Progress: map[string]calls.UserProgress{},
		Recent:   map[string][]calls.RecentSession{},
	}
}

func (r *MemoryRepo) UserProgress(ctx context.Context, userID string) (calls.UserProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ProgressErr != nil {
		return calls.UserProgress{}, r.ProgressErr
	}
	p, ok := r.Progress[userID]
	if !ok {
		return calls.UserProgress{UserID: userID}, nil
	}
	return p, nil
}

func (r *MemoryRepo) RecentSessions(ctx context.Context, userID string, limit int) ([]calls.RecentSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RecentErr != nil {
		return nil, r.RecentErr
	}
	rows := r.Recent[userID]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]calls.RecentSession{}, rows...), nil
}
