// Package practice drives a volunteer's practice call end to end: start a
// session against a persona, then close it, score it and store the result.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"phonebank-training/internal/analysis"
	"phonebank-training/internal/calls"
	"phonebank-training/internal/voters"
)

// SessionService is the slice of calls.Service the flow depends on.
type SessionService interface {
	EnsureUserProfile(ctx context.Context, userID, displayName string) (calls.UserProfile, error)
	StartSession(ctx context.Context, p calls.StartSessionParams) (calls.CallSession, error)
	Get(ctx context.Context, sessionID string) (calls.CallSession, error)
	FinalizeSession(ctx context.Context, sessionID string, p calls.FinalizeParams) (calls.CallSession, error)
	RecordMetrics(ctx context.Context, sessionID string, in calls.MetricsInput) (calls.PerformanceMetrics, error)
}

type Flow struct {
	sessions SessionService
	analyzer analysis.Analyzer
	voters   voters.Store
	log      *slog.Logger
	clock    func() time.Time
}

func NewFlow(sessions SessionService, analyzer analysis.Analyzer, store voters.Store, log *slog.Logger) *Flow {
	if log == nil {
		log = slog.Default()
	}
	return &Flow{sessions: sessions, analyzer: analyzer, voters: store, log: log, clock: time.Now}
}

// EndCallParams closes a call. Status defaults to completed. With only a
// Duration the end time is start plus Duration; with neither, the end time
// is now and the duration is the elapsed time since the session start.
type EndCallParams struct {
	EndTime        time.Time           `json:"end_time"`
	Duration       *int                `json:"duration,omitempty"`
	Transcript     calls.Transcript    `json:"transcript"`
	Status         calls.SessionStatus `json:"status"`
	ExternalCallID string              `json:"external_call_id,omitempty"`
}

// Report is what the volunteer sees after a call. Warnings list the steps
// that failed after the session was finalized.
type Report struct {
	Session      calls.CallSession         `json:"session"`
	Metrics      *calls.PerformanceMetrics `json:"metrics,omitempty"`
	CoachingTips []string                  `json:"coaching_tips"`
	Warnings     []string                  `json:"warnings,omitempty"`
}

func (f *Flow) Start(ctx context.Context, userID, voterProfileID, externalCallID string) (calls.CallSession, error) {
	voterProfileID = strings.TrimSpace(voterProfileID)
	if _, ok := f.voters.FindByID(voterProfileID); !ok {
		return calls.CallSession{}, fmt.Errorf("%w: unknown voter profile %q", calls.ErrValidation, voterProfileID)
	}
	if _, err := f.sessions.EnsureUserProfile(ctx, userID, ""); err != nil {
		return calls.CallSession{}, err
	}
	return f.sessions.StartSession(ctx, calls.StartSessionParams{
		UserID:         userID,
		VoterProfileID: voterProfileID,
		StartTime:      f.clock().UTC(),
		ExternalCallID: externalCallID,
	})
}

// Session returns a session owned by userID. Sessions of other users are
// reported as not found.
func (f *Flow) Session(ctx context.Context, userID, sessionID string) (calls.CallSession, error) {
	s, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return calls.CallSession{}, err
	}
	if s.UserID != userID {
		return calls.CallSession{}, fmt.Errorf("%w: session %s", calls.ErrNotFound, sessionID)
	}
	return s, nil
}

func (f *Flow) End(ctx context.Context, userID, sessionID string, p EndCallParams) (Report, error) {
	current, err := f.Session(ctx, userID, sessionID)
	if err != nil {
		return Report{}, err
	}

	status := p.Status
	if status == "" {
		status = calls.StatusCompleted
	}
	end, duration := endAndDuration(current.StartTime, p, f.clock)

	session, err := f.sessions.FinalizeSession(ctx, sessionID, calls.FinalizeParams{
		EndTime:        end,
		Duration:       duration,
		Transcript:     p.Transcript,
		Status:         status,
		ExternalCallID: p.ExternalCallID,
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{Session: session}
	in, err := f.analyzer.Analyze(ctx, session.Transcript, duration, voters.DifficultyOf(session.VoterProfileID))
	if err != nil {
		f.log.Warn("call analysis failed", "session_id", sessionID, "err", err)
		report.Warnings = append(report.Warnings, "analysis failed: "+err.Error())
		return report, nil
	}

	m, err := f.sessions.RecordMetrics(ctx, sessionID, in)
	if err != nil {
		f.log.Warn("failed to store performance metrics", "session_id", sessionID, "err", err)
		report.Warnings = append(report.Warnings, "metrics were not saved: "+err.Error())
		if errors.Is(err, calls.ErrValidation) {
			return report, nil
		}
		m = in.Metrics("", sessionID, f.clock().UTC())
	}
	report.Metrics = &m
	report.CoachingTips = analysis.CoachingTips(m)
	return report, nil
}

func endAndDuration(start time.Time, p EndCallParams, clock func() time.Time) (time.Time, int) {
	switch {
	case p.EndTime.IsZero() && p.Duration != nil:
		return start.Add(time.Duration(*p.Duration) * time.Second), *p.Duration
	case p.Duration != nil:
		return p.EndTime, *p.Duration
	}
	end := p.EndTime
	if end.IsZero() {
		end = clock().UTC()
	}
	duration := 0
	if elapsed := end.Sub(start); elapsed > 0 {
		duration = int(math.Round(elapsed.Seconds()))
	}
	return end, duration
}
