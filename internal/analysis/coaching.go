package analysis

import "phonebank-training/internal/calls"

const tipThreshold = 60

// CoachingTips returns two tips per weak sub-score, or encouragement when
// nothing is below the threshold.
func CoachingTips(m calls.PerformanceMetrics) []string {
	var tips []string
	if m.Confidence < tipThreshold {
		tips = append(tips,
			"Practice your opening script until it feels natural and conversational",
			"Remember: voters respond better when you sound confident in your message")
	}
	if m.Persuasiveness < tipThreshold {
		tips = append(tips,
			"Focus on addressing specific voter concerns rather than giving generic responses",
			"Use concrete examples and stories to make your points relatable")
	}
	if m.Empathy < tipThreshold {
		tips = append(tips,
			"Practice active listening - acknowledge voter concerns before pivoting to your message",
			"Use phrases like 'I understand' and 'That makes sense' to build rapport")
	}
	if m.Clarity < tipThreshold {
		tips = append(tips,
			"Keep your points concise and organized - avoid rambling",
			"Practice transitioning smoothly between topics")
	}
	if len(tips) == 0 {
		tips = []string{
			"Great job! Keep practicing to maintain your skills",
			"Try a harder difficulty level to challenge yourself",
		}
	}
	return tips
}
