package calls

import (
	"fmt"
	"math"
	"time"
)

// CallSession is one practice call between a volunteer and a simulated voter.
//
// In-progress sessions have no EndTime and no Duration. Terminal sessions
// (completed, abandoned) always carry EndTime. After finalization only the
// recording cache fields change.
type CallSession struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	VoterProfileID string        `json:"voter_profile_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time,omitempty"`
	Duration       *int          `json:"duration,omitempty"` // seconds
	Transcript     Transcript    `json:"transcript,omitempty"`
	ExternalCallID string        `json:"external_call_id,omitempty"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`

	RecordingURL       string     `json:"recording_url,omitempty"`
	RecordingFetchedAt *time.Time `json:"recording_fetched_at,omitempty"`
}

type SessionStatus string

const (
	StatusInProgress SessionStatus = "in-progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusCompleted, StatusAbandoned:
		return true
	default:
		return false
	}
}

func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// ParseStatus accepts the wire form of a status; empty input yields "".
func ParseStatus(v string) (SessionStatus, error) {
	if v == "" {
		return "", nil
	}
	s := SessionStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: status must be one of in-progress, completed, abandoned, got %q", ErrValidation, v)
	}
	return s, nil
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

func (s Sentiment) Valid() bool {
	return s == SentimentPositive || s == SentimentNeutral || s == SentimentNegative
}

type MomentType string

const (
	MomentSuccess           MomentType = "success"
	MomentChallenge         MomentType = "challenge"
	MomentMissedOpportunity MomentType = "missed-opportunity"
)

func (m MomentType) Valid() bool {
	return m == MomentSuccess || m == MomentChallenge || m == MomentMissedOpportunity
}

type KeyMoment struct {
	TimestampSeconds int        `json:"timestamp"`
	Description      string     `json:"description"`
	Type             MomentType `json:"type"`
}

// PerformanceMetrics is the 1:1 evaluation of a session. Immutable once stored.
type PerformanceMetrics struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`

	Confidence     int `json:"confidence"`
	Enthusiasm     int `json:"enthusiasm"`
	Clarity        int `json:"clarity"`
	Persuasiveness int `json:"persuasiveness"`
	Empathy        int `json:"empathy"`
	OverallScore   int `json:"overall_score"`

	Strengths           []string    `json:"strengths"`
	AreasForImprovement []string    `json:"areas_for_improvement"`
	KeyMoments          []KeyMoment `json:"key_moments"`
	Sentiment           Sentiment   `json:"sentiment"`

	CreatedAt time.Time `json:"created_at"`
}

// MetricsInput is the raw evaluation handed to RecordMetrics.
// The overall score is derived, never supplied.
type MetricsInput struct {
	Confidence     int `json:"confidence"`
	Enthusiasm     int `json:"enthusiasm"`
	Clarity        int `json:"clarity"`
	Persuasiveness int `json:"persuasiveness"`
	Empathy        int `json:"empathy"`

	Strengths           []string    `json:"strengths"`
	AreasForImprovement []string    `json:"areas_for_improvement"`
	KeyMoments          []KeyMoment `json:"key_moments"`
	Sentiment           Sentiment   `json:"sentiment"`
}

// OverallScore is the rounded mean of the five sub-scores.
func (in MetricsInput) OverallScore() int {
	sum := in.Confidence + in.Enthusiasm + in.Clarity + in.Persuasiveness + in.Empathy
	return int(math.Round(float64(sum) / 5))
}

// Metrics builds the metrics row for a session from the input.
func (in MetricsInput) Metrics(id, sessionID string, createdAt time.Time) PerformanceMetrics {
	sentiment := in.Sentiment
	if sentiment == "" {
		sentiment = SentimentNeutral
	}
	return PerformanceMetrics{
		ID:                  id,
		SessionID:           sessionID,
		Confidence:          in.Confidence,
		Enthusiasm:          in.Enthusiasm,
		Clarity:             in.Clarity,
		Persuasiveness:      in.Persuasiveness,
		Empathy:             in.Empathy,
		OverallScore:        in.OverallScore(),
		Strengths:           nonNil(in.Strengths),
		AreasForImprovement: nonNil(in.AreasForImprovement),
		KeyMoments:          nonNilMoments(in.KeyMoments),
		Sentiment:           sentiment,
		CreatedAt:           createdAt,
	}
}

type UserProfile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserProgress is the per-user aggregate over sessions and their metrics.
// AverageScore is nil when no session has metrics.
type UserProgress struct {
	UserID         string   `json:"user_id"`
	TotalCalls     int      `json:"total_calls"`
	EasyCalls      int      `json:"easy_calls"`
	MediumCalls    int      `json:"medium_calls"`
	HardCalls      int      `json:"hard_calls"`
	CompletedCalls int      `json:"completed_calls"`
	AverageScore   *float64 `json:"average_score,omitempty"`
}

// RecentSession is a session summary joined with its overall score, if any.
type RecentSession struct {
	SessionID      string        `json:"session_id"`
	VoterProfileID string        `json:"voter_profile_id"`
	Status         SessionStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	OverallScore   *int          `json:"overall_score,omitempty"`
}

// ListFilter narrows ListSessions. Zero values mean "any".
type ListFilter struct {
	UserID string
	Status SessionStatus
	Limit  int
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nonNilMoments(in []KeyMoment) []KeyMoment {
	if in == nil {
		return []KeyMoment{}
	}
	return in
}
