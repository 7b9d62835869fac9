package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"phonebank-training/internal/calls"
	"phonebank-training/internal/recordings"
	"phonebank-training/internal/reporting"
	"phonebank-training/internal/telephony"
	"phonebank-training/internal/voters"

	mcppkg "github.com/mark3labs/mcp-go/mcp"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubProvider struct {
	url   string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) GetCallDetails(ctx context.Context, callID string) (telephony.CallDetails, error) {
	p.calls++
	return telephony.CallDetails{ID: callID, RecordingURL: p.url}, p.err
}

type panicReader struct{}

func (panicReader) ListSessions(ctx context.Context, f calls.ListFilter) ([]calls.CallSession, error) {
	panic("boom")
}

func (panicReader) GetSessionDetail(ctx context.Context, id string) (calls.CallSession, *calls.PerformanceMetrics, error) {
	panic("boom")
}

type fixture struct {
	repo     *calls.MemoryRepo
	svc      *calls.Service
	provider *stubProvider
	deps     Deps
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := calls.NewMemoryRepo()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &fixture{
		repo:     repo,
		svc:      calls.NewService(repo).WithClock(func() time.Time { return now }),
		provider: &stubProvider{url: "https://storage.vapi.ai/rec.wav"},
		now:      now,
	}
	f.deps = Deps{
		Sessions:   f.svc,
		Recordings: recordings.NewResolver(repo, f.provider, recordings.Options{Logger: quiet}),
		Progress:   reporting.NewService(repo, quiet),
		Voters:     voters.NewMemoryStore(voters.Seed()),
		Logger:     quiet,
	}
	if _, err := f.svc.EnsureUserProfile(context.Background(), "u1", ""); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	return f
}

func (f *fixture) start(t *testing.T, voter, externalID string, at time.Time) calls.CallSession {
	t.Helper()
	svc := f.svc.WithClock(func() time.Time { return at })
	s, err := svc.StartSession(context.Background(), calls.StartSessionParams{
		UserID: "u1", VoterProfileID: voter, StartTime: at, ExternalCallID: externalID,
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return s
}

func call(t *testing.T, h textHandler, args map[string]any) *mcppkg.CallToolResult {
	t.Helper()
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Arguments: args}}
	res, err := dispatch(quiet, "test", h)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return res
}

func callResultText(t *testing.T, res *mcppkg.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected non-empty tool result")
	}
	text, ok := mcppkg.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content")
	}
	return text.Text
}

func TestNewServerRegistersTools(t *testing.T) {
	f := newFixture(t)
	if srv := NewServer(f.deps); srv == nil {
		t.Fatalf("expected MCP server instance")
	}
}

func TestListSessionsNewestFirstWithLimit(t *testing.T) {
	f := newFixture(t)
	f.start(t, "easy-1", "", f.now)
	f.start(t, "medium-1", "", f.now.Add(time.Minute))
	newest := f.start(t, "hard-1", "vapi-9", f.now.Add(2*time.Minute))

	res := call(t, handleListSessions(f.deps), map[string]any{"userId": "u1", "limit": float64(1)})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", callResultText(t, res))
	}
	text := callResultText(t, res)
	if !strings.HasPrefix(text, "**Recent Call Sessions** (1 found):") {
		t.Fatalf("unexpected header: %q", text)
	}
	if !strings.Contains(text, "Session ID: "+newest.ID) || !strings.Contains(text, "(hard-1)") {
		t.Fatalf("expected newest session, got %q", text)
	}
	if !strings.Contains(text, "Vapi Call ID: vapi-9") || !strings.Contains(text, "Duration: N/A") || !strings.Contains(text, "Recording: Not available") {
		t.Fatalf("unexpected fields: %q", text)
	}
}

func TestListSessionsEmptyAndBadStatus(t *testing.T) {
	f := newFixture(t)
	res := call(t, handleListSessions(f.deps), map[string]any{"status": "completed"})
	if res.IsError || callResultText(t, res) != "No call sessions found matching the criteria." {
		t.Fatalf("unexpected result: %q", callResultText(t, res))
	}

	res = call(t, handleListSessions(f.deps), map[string]any{"status": "ringing"})
	if !res.IsError || !strings.HasPrefix(callResultText(t, res), "Error: ") {
		t.Fatalf("expected error result, got %q", callResultText(t, res))
	}
}

func TestCallDetails(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, "easy-1", "vapi-1", f.now)
	ctx := context.Background()
	if _, err := f.svc.FinalizeSession(ctx, s.ID, calls.FinalizeParams{
		EndTime: f.now.Add(125 * time.Second), Duration: 125, Status: calls.StatusCompleted,
		Transcript: calls.ParseTranscript("Volunteer: Hi there\nVoter: Sure"),
	}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	res := call(t, handleCallDetails(f.deps), map[string]any{"sessionId": s.ID})
	text := callResultText(t, res)
	for _, want := range []string{
		"**Call Session Details**",
		"**Duration:** 2m 5s",
		"**Recording URL:** Not available",
		"**Transcript:**\nVolunteer: Hi there\nVoter: Sure",
		"**Performance Metrics:** Not available",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}

	if _, err := f.svc.RecordMetrics(ctx, s.ID, calls.MetricsInput{
		Confidence: 50, Enthusiasm: 70, Clarity: 90, Persuasiveness: 80, Empathy: 75,
		Strengths:  []string{"Clear ask"},
		KeyMoments: []calls.KeyMoment{{TimestampSeconds: 30, Description: "Strong opening introduction", Type: calls.MomentSuccess}},
		Sentiment:  calls.SentimentPositive,
	}); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	text = callResultText(t, call(t, handleCallDetails(f.deps), map[string]any{"sessionId": s.ID}))
	for _, want := range []string{
		"- Confidence: 50/100",
		"- Overall Score: 73/100",
		"- Sentiment: positive",
		"**Strengths:**\n- Clear ask",
		"- 30s: Strong opening introduction (success)",
		"**Coaching Tips:**\n- Practice your opening script",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}
}

func TestCallDetailsNotFoundIsNotAnError(t *testing.T) {
	f := newFixture(t)
	res := call(t, handleCallDetails(f.deps), map[string]any{"sessionId": "nope"})
	if res.IsError || callResultText(t, res) != "Call session nope not found." {
		t.Fatalf("unexpected result: %q", callResultText(t, res))
	}

	res = call(t, handleCallDetails(f.deps), map[string]any{})
	if !res.IsError || callResultText(t, res) != "Error: sessionId is required" {
		t.Fatalf("unexpected result: %q", callResultText(t, res))
	}
}

func TestCallRecordingFlow(t *testing.T) {
	f := newFixture(t)
	noCall := f.start(t, "easy-1", "", f.now)
	withCall := f.start(t, "easy-2", "vapi-1", f.now)

	text := callResultText(t, call(t, handleCallRecording(f.deps), map[string]any{"sessionId": noCall.ID}))
	if text != "No Vapi call ID found for session "+noCall.ID+". Recording not available." {
		t.Fatalf("unexpected no-call text: %q", text)
	}

	text = callResultText(t, call(t, handleCallRecording(f.deps), map[string]any{"sessionId": withCall.ID}))
	if !strings.HasPrefix(text, "**Recording URL (Fresh):**\nhttps://storage.vapi.ai/rec.wav") {
		t.Fatalf("unexpected fresh text: %q", text)
	}
	text = callResultText(t, call(t, handleCallRecording(f.deps), map[string]any{"sessionId": withCall.ID}))
	if !strings.HasPrefix(text, "**Recording URL (Cached):**\nhttps://storage.vapi.ai/rec.wav") {
		t.Fatalf("unexpected cached text: %q", text)
	}
	if f.provider.calls != 1 {
		t.Fatalf("expected one provider fetch, got %d", f.provider.calls)
	}

	text = callResultText(t, call(t, handleCallRecording(f.deps), map[string]any{"sessionId": "ghost"}))
	if text != "Call session ghost not found." {
		t.Fatalf("unexpected not-found text: %q", text)
	}
}

func TestCallRecordingNotReadyAndHardFailure(t *testing.T) {
	f := newFixture(t)
	s := f.start(t, "easy-1", "vapi-1", f.now)

	f.provider.url = ""
	res := call(t, handleCallRecording(f.deps), map[string]any{"sessionId": s.ID})
	if res.IsError || !strings.HasPrefix(callResultText(t, res), "Recording not yet available for session "+s.ID) {
		t.Fatalf("unexpected result: %q", callResultText(t, res))
	}

	f.provider.err = &telephony.ProviderError{Provider: "vapi", StatusCode: 500, Status: "Internal Server Error"}
	res = call(t, handleCallRecording(f.deps), map[string]any{"sessionId": s.ID})
	if !res.IsError || !strings.Contains(callResultText(t, res), "500") {
		t.Fatalf("expected error result, got %q", callResultText(t, res))
	}
}

func TestUserProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := call(t, handleUserProgress(f.deps), map[string]any{"userId": "u1"})
	if res.IsError || callResultText(t, res) != "No progress data found for user u1." {
		t.Fatalf("unexpected zero-session result: %q", callResultText(t, res))
	}

	a := f.start(t, "easy-1", "", f.now)
	b := f.start(t, "hard-1", "", f.now.Add(time.Minute))
	if _, err := f.svc.FinalizeSession(ctx, a.ID, calls.FinalizeParams{EndTime: f.now.Add(time.Minute), Duration: 60, Status: calls.StatusCompleted}); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	for id, score := range map[string]int{a.ID: 80, b.ID: 70} {
		in := calls.MetricsInput{Confidence: score, Enthusiasm: score, Clarity: score, Persuasiveness: score, Empathy: score}
		if _, err := f.svc.RecordMetrics(ctx, id, in); err != nil {
			t.Fatalf("metrics: %v", err)
		}
	}

	text := callResultText(t, call(t, handleUserProgress(f.deps), map[string]any{"userId": "u1"}))
	for _, want := range []string{
		"**Total Calls:** 2",
		"**Easy Calls:** 1",
		"**Hard Calls:** 1",
		"**Average Score:** 75",
		"**Completion Rate:** 50%",
		"1. **Disillusioned Former Democrat - Bronx** (Hard) - 2026-03-01 - Score: 70",
		"- Easy: 1 (50%)",
		"**Performance Level:** Advanced (75/100)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in %q", want, text)
		}
	}
}

func TestDispatchBoundary(t *testing.T) {
	f := newFixture(t)
	f.repo.Err = errors.New("connection refused")
	res := call(t, handleListSessions(f.deps), map[string]any{})
	if !res.IsError || !strings.HasPrefix(callResultText(t, res), "Error: failed to fetch call sessions") {
		t.Fatalf("expected store failure as tool error, got %q", callResultText(t, res))
	}

	d := f.deps
	d.Sessions = panicReader{}
	res = call(t, handleCallDetails(d), map[string]any{"sessionId": "x"})
	if !res.IsError || !strings.HasPrefix(callResultText(t, res), "Error: ") {
		t.Fatalf("expected panic as tool error, got %q", callResultText(t, res))
	}
}

func TestFormatHelpers(t *testing.T) {
	d := 125
	if got := formatDuration(&d); got != "2m 5s" {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := formatScore(72.0); got != "72" {
		t.Fatalf("formatScore = %q", got)
	}
	if got := formatScore(66.7); got != "66.7" {
		t.Fatalf("formatScore = %q", got)
	}
}
