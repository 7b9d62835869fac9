package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"phonebank-training/internal/analysis"
	"phonebank-training/internal/calls"
	"phonebank-training/internal/recordings"
	"phonebank-training/internal/voters"

	"github.com/mark3labs/mcp-go/mcp"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatDuration(d *int) string {
	if d == nil {
		return "N/A"
	}
	return fmt.Sprintf("%dm %ds", *d/60, *d%60)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func handleListSessions(d Deps) textHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (string, error) {
		status, err := calls.ParseStatus(stringArg(req, "status"))
		if err != nil {
			return "", err
		}
		filter := calls.ListFilter{
			UserID: stringArg(req, "userId"),
			Status: status,
			Limit:  calls.NormalizeLimit(intArg(req, "limit", calls.DefaultListLimit)),
		}

		sessions, err := d.Sessions.ListSessions(ctx, filter)
		if err != nil {
			return "", fmt.Errorf("failed to fetch call sessions: %w", err)
		}
		if len(sessions) == 0 {
			return "No call sessions found matching the criteria.", nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "**Recent Call Sessions** (%d found):\n\n", len(sessions))
		for i, s := range sessions {
			if i > 0 {
				b.WriteString("\n\n")
			}
			recording := "Not available"
			if s.RecordingURL != "" {
				recording = "Available"
			}
			fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, voters.DisplayName(d.Voters, s.VoterProfileID), s.VoterProfileID)
			fmt.Fprintf(&b, "   - Session ID: %s\n", s.ID)
			fmt.Fprintf(&b, "   - Date: %s\n", formatTime(s.StartTime))
			fmt.Fprintf(&b, "   - Duration: %s\n", formatDuration(s.Duration))
			fmt.Fprintf(&b, "   - Status: %s\n", s.Status)
			fmt.Fprintf(&b, "   - Vapi Call ID: %s\n", orNA(s.ExternalCallID))
			fmt.Fprintf(&b, "   - Recording: %s", recording)
		}
		return b.String(), nil
	}
}

func handleCallDetails(d Deps) textHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (string, error) {
		id, err := requiredString(req, "sessionId")
		if err != nil {
			return "", err
		}
		s, m, err := d.Sessions.GetSessionDetail(ctx, id)
		if err != nil {
			if errors.Is(err, calls.ErrNotFound) {
				return fmt.Sprintf("Call session %s not found.", id), nil
			}
			return "", fmt.Errorf("failed to fetch call session: %w", err)
		}

		endTime := "N/A"
		if s.EndTime != nil {
			endTime = formatTime(*s.EndTime)
		}
		recording := s.RecordingURL
		if recording == "" {
			recording = "Not available"
		}

		var b strings.Builder
		b.WriteString("**Call Session Details**\n\n")
		fmt.Fprintf(&b, "**Session ID:** %s\n", s.ID)
		fmt.Fprintf(&b, "**Voter Profile:** %s (%s)\n", voters.DisplayName(d.Voters, s.VoterProfileID), s.VoterProfileID)
		fmt.Fprintf(&b, "**User ID:** %s\n", s.UserID)
		fmt.Fprintf(&b, "**Start Time:** %s\n", formatTime(s.StartTime))
		fmt.Fprintf(&b, "**End Time:** %s\n", endTime)
		fmt.Fprintf(&b, "**Duration:** %s\n", formatDuration(s.Duration))
		fmt.Fprintf(&b, "**Status:** %s\n", s.Status)
		fmt.Fprintf(&b, "**Vapi Call ID:** %s\n", orNA(s.ExternalCallID))
		fmt.Fprintf(&b, "**Recording URL:** %s\n\n", recording)

		if len(s.Transcript) > 0 {
			fmt.Fprintf(&b, "**Transcript:**\n%s\n\n", s.Transcript.String())
		} else {
			b.WriteString("**Transcript:** Not available\n\n")
		}

		if m == nil {
			b.WriteString("**Performance Metrics:** Not available\n")
			return b.String(), nil
		}
		b.WriteString("**Performance Metrics:**\n")
		fmt.Fprintf(&b, "- Confidence: %d/100\n", m.Confidence)
		fmt.Fprintf(&b, "- Enthusiasm: %d/100\n", m.Enthusiasm)
		fmt.Fprintf(&b, "- Clarity: %d/100\n", m.Clarity)
		fmt.Fprintf(&b, "- Persuasiveness: %d/100\n", m.Persuasiveness)
		fmt.Fprintf(&b, "- Empathy: %d/100\n", m.Empathy)
		fmt.Fprintf(&b, "- Overall Score: %d/100\n", m.OverallScore)
		fmt.Fprintf(&b, "- Sentiment: %s\n\n", m.Sentiment)

		writeList(&b, "Strengths", m.Strengths)
		writeList(&b, "Areas for Improvement", m.AreasForImprovement)
		if len(m.KeyMoments) > 0 {
			b.WriteString("**Key Moments:**\n")
			for _, km := range m.KeyMoments {
				fmt.Fprintf(&b, "- %ds: %s (%s)\n", km.TimestampSeconds, km.Description, km.Type)
			}
			b.WriteString("\n")
		}
		writeList(&b, "Coaching Tips", analysis.CoachingTips(*m))
		return b.String(), nil
	}
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func handleCallRecording(d Deps) textHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (string, error) {
		id, err := requiredString(req, "sessionId")
		if err != nil {
			return "", err
		}
		res, err := d.Recordings.Resolve(ctx, id)
		if err != nil {
			if errors.Is(err, calls.ErrPersistence) {
				return "", fmt.Errorf("failed to fetch call session: %w", err)
			}
			return "", fmt.Errorf("failed to fetch recording for session %s: %w", id, err)
		}

		switch res.Kind {
		case recordings.KindNotFound:
			return fmt.Sprintf("Call session %s not found.", id), nil
		case recordings.KindCached:
			fetchedAt := "Unknown"
			if !res.FetchedAt.IsZero() {
				fetchedAt = formatTime(res.FetchedAt)
			}
			return fmt.Sprintf("**Recording URL (Cached):**\n%s\n\n**Cached at:** %s\n\n*Note: This URL may expire. If it doesn't work, try fetching a fresh URL.*",
				res.URL, fetchedAt), nil
		case recordings.KindFresh:
			return fmt.Sprintf("**Recording URL (Fresh):**\n%s\n\n**Fetched at:** %s\n\n*Note: This URL has been cached for future use.*",
				res.URL, formatTime(res.FetchedAt)), nil
		}

		if res.Reason == recordings.ReasonNoExternalCallID {
			return fmt.Sprintf("No Vapi call ID found for session %s. Recording not available.", id), nil
		}
		return fmt.Sprintf("Recording not yet available for session %s. Vapi recordings are typically available 5-10 minutes after the call ends.", id), nil
	}
}

func handleUserProgress(d Deps) textHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (string, error) {
		userID, err := requiredString(req, "userId")
		if err != nil {
			return "", err
		}
		p, err := d.Progress.UserProgress(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("failed to fetch user progress: %w", err)
		}
		if p.TotalCalls == 0 {
			return fmt.Sprintf("No progress data found for user %s.", userID), nil
		}

		avg := "N/A"
		if p.AverageScore != nil {
			avg = formatScore(*p.AverageScore)
		}

		var b strings.Builder
		b.WriteString("**User Progress Summary**\n\n")
		fmt.Fprintf(&b, "**Total Calls:** %d\n", p.TotalCalls)
		fmt.Fprintf(&b, "**Easy Calls:** %d\n", p.EasyCalls)
		fmt.Fprintf(&b, "**Medium Calls:** %d\n", p.MediumCalls)
		fmt.Fprintf(&b, "**Hard Calls:** %d\n", p.HardCalls)
		fmt.Fprintf(&b, "**Average Score:** %s\n", avg)
		fmt.Fprintf(&b, "**Completion Rate:** %s%%\n\n", formatScore(p.CompletionRate))

		if len(p.RecentSessions) > 0 {
			b.WriteString("**Recent Sessions:**\n")
			for i, rs := range p.RecentSessions {
				score := "N/A"
				if rs.OverallScore != nil {
					score = fmt.Sprintf("%d", *rs.OverallScore)
				}
				fmt.Fprintf(&b, "%d. **%s** (%s) - %s - Score: %s\n",
					i+1,
					voters.DisplayName(d.Voters, rs.VoterProfileID),
					difficultyLabel(rs.VoterProfileID),
					rs.CreatedAt.UTC().Format("2006-01-02"),
					score,
				)
			}
			b.WriteString("\n")
		}

		dist := p.Distribution()
		b.WriteString("**Difficulty Distribution:**\n")
		fmt.Fprintf(&b, "- Easy: %d (%d%%)\n", p.EasyCalls, dist.Easy)
		fmt.Fprintf(&b, "- Medium: %d (%d%%)\n", p.MediumCalls, dist.Medium)
		fmt.Fprintf(&b, "- Hard: %d (%d%%)\n\n", p.HardCalls, dist.Hard)

		if level, ok := p.Level(); ok {
			fmt.Fprintf(&b, "**Performance Level:** %s (%s/100)\n", level, avg)
		}
		return b.String(), nil
	}
}

// difficultyLabel treats anything not easy or medium as Hard.
func difficultyLabel(profileID string) string {
	switch voters.DifficultyOf(profileID) {
	case voters.DifficultyEasy:
		return "Easy"
	case voters.DifficultyMedium:
		return "Medium"
	default:
		return "Hard"
	}
}

// formatScore drops a trailing ".0".
func formatScore(v float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", v), ".0")
}
