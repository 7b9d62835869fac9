package reporting

import (
	"math"

	"phonebank-training/internal/calls"
)

// RecentLimit is how many sessions a progress summary lists.
const RecentLimit = 5

// Progress is a user's aggregate practice record.
// AverageScore is nil until at least one session has metrics.
type Progress struct {
	UserID string `json:"user_id"`

	TotalCalls     int `json:"total_calls"`
	EasyCalls      int `json:"easy_calls"`
	MediumCalls    int `json:"medium_calls"`
	HardCalls      int `json:"hard_calls"`
	CompletedCalls int `json:"completed_calls"`

	AverageScore   *float64 `json:"average_score,omitempty"`
	CompletionRate float64  `json:"completion_rate"`

	RecentSessions []calls.RecentSession `json:"recent_sessions"`
}

// Distribution holds whole-number percentages per difficulty.
type Distribution struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Distribution is all zero when there are no calls.
func (p Progress) Distribution() Distribution {
	if p.TotalCalls == 0 {
		return Distribution{}
	}
	pct := func(n int) int {
		return int(math.Round(float64(n) / float64(p.TotalCalls) * 100))
	}
	return Distribution{Easy: pct(p.EasyCalls), Medium: pct(p.MediumCalls), Hard: pct(p.HardCalls)}
}

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
	LevelExpert       Level = "Expert"
)

// Level maps the average score to a label; ok is false without an average.
func (p Progress) Level() (Level, bool) {
	if p.AverageScore == nil {
		return "", false
	}
	return LevelFor(*p.AverageScore), true
}

func LevelFor(avg float64) Level {
	switch {
	case avg >= 80:
		return LevelExpert
	case avg >= 70:
		return LevelAdvanced
	case avg >= 60:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
