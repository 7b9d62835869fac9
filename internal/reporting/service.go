package reporting

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"phonebank-training/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Repository abstracts data access for reporting.
//
// calls.Repository satisfies it; both reads are scoped to one user.
type Repository interface {
	UserProgress(ctx context.Context, userID string) (calls.UserProgress, error)
	RecentSessions(ctx context.Context, userID string, limit int) ([]calls.RecentSession, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log}
}

// UserProgress combines the aggregate with the most recent sessions. A failed
// recent-sessions read is logged and the summary is returned without them.
func (s *Service) UserProgress(ctx context.Context, userID string) (Progress, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Progress{}, ErrInvalidRequest
	}
	if s.repo == nil {
		return Progress{}, errors.New("reporting: repository not configured")
	}

	agg, err := s.repo.UserProgress(ctx, userID)
	if err != nil {
		return Progress{}, err
	}

	out := Progress{
		UserID:         userID,
		TotalCalls:     agg.TotalCalls,
		EasyCalls:      agg.EasyCalls,
		MediumCalls:    agg.MediumCalls,
		HardCalls:      agg.HardCalls,
		CompletedCalls: agg.CompletedCalls,
		RecentSessions: []calls.RecentSession{},
	}
	if agg.AverageScore != nil {
		avg := round1(*agg.AverageScore)
		out.AverageScore = &avg
	}
	if out.TotalCalls > 0 {
		out.CompletionRate = round1(float64(out.CompletedCalls) / float64(out.TotalCalls) * 100)
	} else {
		return out, nil
	}

	recent, err := s.repo.RecentSessions(ctx, userID, RecentLimit)
	if err != nil {
		s.log.Warn("failed to fetch recent sessions", "user_id", userID, "err", err)
		return out, nil
	}
	out.RecentSessions = recent
	return out, nil
}
