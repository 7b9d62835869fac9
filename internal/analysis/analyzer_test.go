package analysis

import (
	"context"
	"testing"
	"time"

	"phonebank-training/internal/calls"
	"phonebank-training/internal/voters"
)

func TestHeuristicPositiveEasyCall(t *testing.T) {
	tr := calls.ParseTranscript(`Volunteer: Hi, I'm calling from the campaign.
Voter: Sure, thanks for calling.
Volunteer: Can we count on your vote?
Voter: Yes, I agree.`)

	got, err := NewHeuristic().Analyze(context.Background(), tr, 120, voters.DifficultyEasy)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Confidence != 88 || got.Enthusiasm != 85 || got.Clarity != 83 || got.Persuasiveness != 92 || got.Empathy != 87 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if got.Sentiment != calls.SentimentPositive {
		t.Fatalf("expected positive sentiment, got %q", got.Sentiment)
	}
	if len(got.Strengths) != 3 || len(got.AreasForImprovement) != 0 {
		t.Fatalf("unexpected feedback: %v / %v", got.Strengths, got.AreasForImprovement)
	}
	if len(got.KeyMoments) != 2 || got.KeyMoments[0].TimestampSeconds != 0 || got.KeyMoments[1].TimestampSeconds != 30 {
		t.Fatalf("unexpected key moments: %+v", got.KeyMoments)
	}
	if err := calls.ValidateMetrics(got); err != nil {
		t.Fatalf("analyzer output must validate: %v", err)
	}
}

func TestHeuristicSkepticalHardCall(t *testing.T) {
	tr := calls.ParseTranscript("Volunteer: Hello there.\nVoter: No. I don't care and I won't vote. You're wrong.")

	got, err := NewHeuristic().Analyze(context.Background(), tr, 60, voters.DifficultyHard)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Confidence != 52 || got.Persuasiveness != 56 || got.Empathy != 67 {
		t.Fatalf("unexpected scores: %+v", got)
	}
	if got.Sentiment != calls.SentimentNegative {
		t.Fatalf("expected negative sentiment, got %q", got.Sentiment)
	}
	if len(got.Strengths) != 0 || len(got.AreasForImprovement) != 3 {
		t.Fatalf("unexpected feedback: %v / %v", got.Strengths, got.AreasForImprovement)
	}
	last := got.KeyMoments[len(got.KeyMoments)-1]
	if last.Type != calls.MomentMissedOpportunity || last.TimestampSeconds != 30 {
		t.Fatalf("expected a missed opportunity at 30s, got %+v", got.KeyMoments)
	}

	tips := CoachingTips(got.Metrics("m", "s", time.Time{}))
	if len(tips) != 4 {
		t.Fatalf("expected tips for confidence and persuasiveness, got %v", tips)
	}
}

func TestHeuristicMatchesWholeWords(t *testing.T) {
	tr := calls.ParseTranscript("Voter: I know, nobody cares about the economy now.")
	got, err := NewHeuristic().Analyze(context.Background(), tr, 10, voters.DifficultyMedium)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Sentiment != calls.SentimentNeutral || got.Confidence != 70 {
		t.Fatalf("substrings must not count as keywords: %+v", got)
	}
}

func TestHeuristicEmptyTranscript(t *testing.T) {
	got, err := NewHeuristic().Analyze(context.Background(), nil, 0, voters.DifficultyUnknown)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.KeyMoments == nil || len(got.KeyMoments) != 0 || got.Sentiment != calls.SentimentNeutral {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestHeuristicHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHeuristic().Analyze(ctx, nil, 0, voters.DifficultyEasy); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestClamp(t *testing.T) {
	for in, want := range map[int]int{-5: 0, 0: 0, 55: 55, 100: 100, 130: 100} {
		if got := clamp(in); got != want {
			t.Fatalf("clamp(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCoachingTipsEncouragesStrongCalls(t *testing.T) {
	tips := CoachingTips(calls.PerformanceMetrics{Confidence: 60, Persuasiveness: 90, Empathy: 80, Clarity: 75})
	if len(tips) != 2 || tips[0] != "Great job! Keep practicing to maintain your skills" {
		t.Fatalf("unexpected tips: %v", tips)
	}
	all := CoachingTips(calls.PerformanceMetrics{})
	if len(all) != 8 {
		t.Fatalf("expected 8 tips for an all-zero call, got %d", len(all))
	}
}
