package analysis

import (
	"context"
	"strings"
	"unicode"

	"phonebank-training/internal/calls"
	"phonebank-training/internal/voters"
)

// Analyzer turns a finished call into a metrics bundle. Implementations may
// call out to a model; Heuristic is the local, deterministic one.
type Analyzer interface {
	Analyze(ctx context.Context, transcript calls.Transcript, durationSeconds int, difficulty voters.Difficulty) (calls.MetricsInput, error)
}

var (
	positivePhrases = []string{"agree", "sounds good", "yes", "sure", "okay", "thanks", "appreciate"}
	negativePhrases = []string{"no", "don't", "won't", "can't", "never", "disagree", "wrong"}
)

const (
	baseScore           = 70
	strengthThreshold   = 75
	skepticismThreshold = 2

	speakerVolunteer = "Volunteer"
	speakerVoter     = "Voter"
)

// Heuristic scores a call from keyword buckets and persona difficulty.
type Heuristic struct{}

func NewHeuristic() Heuristic { return Heuristic{} }

func (Heuristic) Analyze(ctx context.Context, transcript calls.Transcript, durationSeconds int, difficulty voters.Difficulty) (calls.MetricsInput, error) {
	if err := ctx.Err(); err != nil {
		return calls.MetricsInput{}, err
	}

	words := tokenize(transcript.String())
	pos := countPresent(words, positivePhrases)
	neg := countPresent(words, negativePhrases)

	base := baseScore + difficultyModifier(difficulty)
	out := calls.MetricsInput{
		Confidence:     clamp(base + 2*pos - 2*neg),
		Enthusiasm:     clamp(base + 5),
		Clarity:        clamp(base + 3),
		Persuasiveness: clamp(base + 3*pos - neg),
		Empathy:        clamp(base + 7),
		Sentiment:      sentimentOf(pos, neg),
	}

	out.Strengths, out.AreasForImprovement = feedback(out)
	out.KeyMoments = keyMoments(transcript, durationSeconds, neg)
	return out, nil
}

func difficultyModifier(d voters.Difficulty) int {
	switch d {
	case voters.DifficultyEasy:
		return 10
	case voters.DifficultyHard:
		return -10
	default:
		return 0
	}
}

func sentimentOf(pos, neg int) calls.Sentiment {
	switch {
	case pos > neg:
		return calls.SentimentPositive
	case neg > pos:
		return calls.SentimentNegative
	default:
		return calls.SentimentNeutral
	}
}

func feedback(m calls.MetricsInput) (strengths, improvements []string) {
	strengths, improvements = []string{}, []string{}
	add := func(score int, good, bad string) {
		if score > strengthThreshold {
			strengths = append(strengths, good)
		} else {
			improvements = append(improvements, bad)
		}
	}
	add(m.Confidence, "Strong, confident communication", "Build more confidence in delivery")
	add(m.Persuasiveness, "Effective persuasion techniques", "Practice addressing voter concerns more directly")
	add(m.Empathy, "Good active listening and empathy", "Show more understanding of voter concerns")
	return strengths, improvements
}

// keyMoments places moments on the timeline by line position, since
// transcripts carry no per-line timestamps.
func keyMoments(t calls.Transcript, durationSeconds, neg int) []calls.KeyMoment {
	out := []calls.KeyMoment{}
	if len(t) == 0 {
		return out
	}
	at := func(i int) int {
		if durationSeconds <= 0 {
			return 0
		}
		return durationSeconds * i / len(t)
	}

	for i, l := range t {
		if strings.EqualFold(l.Speaker, speakerVolunteer) {
			out = append(out, calls.KeyMoment{TimestampSeconds: at(i), Description: "Opening introduction", Type: calls.MomentSuccess})
			break
		}
	}
	for i, l := range t {
		if strings.EqualFold(l.Speaker, speakerVoter) && countPresent(tokenize(l.Text), positivePhrases) > 0 {
			out = append(out, calls.KeyMoment{TimestampSeconds: at(i), Description: "Voter responded positively", Type: calls.MomentSuccess})
			break
		}
	}
	if neg > skepticismThreshold {
		idx := len(t) - 1
		for i, l := range t {
			if strings.EqualFold(l.Speaker, speakerVoter) && countPresent(tokenize(l.Text), negativePhrases) > 0 {
				idx = i
				break
			}
		}
		out = append(out, calls.KeyMoment{
			TimestampSeconds: at(idx),
			Description:      "Voter expressed skepticism - could have addressed more directly",
			Type:             calls.MomentMissedOpportunity,
		})
	}
	return out
}

// tokenize lowercases and splits on anything but letters, digits and apostrophes.
func tokenize(s string) []string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// countPresent counts how many phrases occur at least once as whole words.
func countPresent(words []string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if containsPhrase(words, strings.Fields(p)) {
			n++
		}
	}
	return n
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(words); i++ {
		for j, w := range phrase {
			if words[i+j] != w {
				continue outer
			}
		}
		return true
	}
	return false
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
