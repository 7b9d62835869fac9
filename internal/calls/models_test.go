package calls

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStatusValues(t *testing.T) {
	for _, s := range []SessionStatus{StatusInProgress, StatusCompleted, StatusAbandoned} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if StatusInProgress.Terminal() || !StatusCompleted.Terminal() || !StatusAbandoned.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus(""); err != nil || s != "" {
		t.Fatalf("empty status: got %q %v", s, err)
	}
	if s, err := ParseStatus("abandoned"); err != nil || s != StatusAbandoned {
		t.Fatalf("abandoned: got %q %v", s, err)
	}
	if _, err := ParseStatus("failed"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestMetricsInput_MetricsFillsDefaults(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	m := MetricsInput{Confidence: 80, Enthusiasm: 70, Clarity: 90, Persuasiveness: 60, Empathy: 75}.Metrics("m1", "s1", at)
	if m.OverallScore != 75 || m.Sentiment != SentimentNeutral {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	if m.Strengths == nil || m.AreasForImprovement == nil || m.KeyMoments == nil {
		t.Fatalf("lists must be non-nil: %+v", m)
	}
	if m.ID != "m1" || m.SessionID != "s1" || !m.CreatedAt.Equal(at) {
		t.Fatalf("unexpected identity fields: %+v", m)
	}
}
