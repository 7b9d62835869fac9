package telephony

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*VapiClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewVapiClient(VapiConfig{APIKey: "secret", BaseURL: srv.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.backoff = time.Millisecond
	return c, srv
}

func TestNewVapiClientRequiresKey(t *testing.T) {
	if _, err := NewVapiClient(VapiConfig{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGetCallDetailsParsesRecording(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/call/call-123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"call-123","status":"ended","createdAt":"2026-03-01T10:00:00Z","endedAt":"2026-03-01T10:02:05Z","recording":{"url":"https://storage.vapi.ai/rec.wav","duration":125}}`)
	})

	d, err := c.GetCallDetails(context.Background(), "call-123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.RecordingURL != "https://storage.vapi.ai/rec.wav" || d.RecordingDurationSeconds != 125 || !d.HasRecording() {
		t.Fatalf("unexpected details: %+v", d)
	}
	if d.EndedAt == nil || d.Status != "ended" {
		t.Fatalf("unexpected details: %+v", d)
	}
}

func TestGetCallDetailsRecordingFallbacks(t *testing.T) {
	bodies := map[string]string{
		`{"id":"a","recordingUrl":"https://x/top.wav"}`:              "https://x/top.wav",
		`{"id":"a","artifact":{"recordingUrl":"https://x/art.wav"}}`: "https://x/art.wav",
		`{"id":"a","status":"in-progress"}`:                          "",
	}
	for body, want := range bodies {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		d, err := c.GetCallDetails(context.Background(), "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if d.RecordingURL != want {
			t.Fatalf("body %s: expected %q, got %q", body, want, d.RecordingURL)
		}
	}
}

func TestGetCallDetailsNotFound(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, `{"message":"Call not found"}`, http.StatusNotFound)
	})
	_, err := c.GetCallDetails(context.Background(), "missing")
	if !errors.Is(err, ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("404 must not be retried, got %d hits", hits)
	}
}

func TestGetCallDetailsProviderError(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"database exploded"}`)
	})
	_, err := c.GetCallDetails(context.Background(), "x")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.StatusCode != 500 || pe.Message != "database exploded" {
		t.Fatalf("unexpected provider error: %+v", pe)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("500 must not be retried, got %d hits", hits)
	}
}

func TestGetCallDetailsRetriesGatewayErrors(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"id":"x","recording":{"url":"https://x/r.wav"}}`)
	})
	d, err := c.GetCallDetails(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if d.RecordingURL != "https://x/r.wav" || atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("unexpected result %+v after %d hits", d, hits)
	}
}

func TestGetCallDetailsGivesUpAfterMaxAttempts(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetCallDetails(context.Background(), "x")
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 ProviderError, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != int32(defaultVapiMaxAttempts) {
		t.Fatalf("expected %d attempts, got %d", defaultVapiMaxAttempts, got)
	}
}

type stubProvider struct {
	details CallDetails
	err     error
}

func (s stubProvider) Name() string { return "stub" }

func (s stubProvider) GetCallDetails(ctx context.Context, callID string) (CallDetails, error) {
	return s.details, s.err
}

func TestLenientRecordingURL(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	if u, ok := LenientRecordingURL(ctx, stubProvider{details: CallDetails{RecordingURL: "https://r"}}, log, "c"); !ok || u != "https://r" {
		t.Fatalf("expected url, got %q %v", u, ok)
	}
	cases := []CallProvider{
		stubProvider{details: CallDetails{Status: "in-progress"}},
		stubProvider{err: ErrCallNotFound},
		stubProvider{err: &ProviderError{StatusCode: 500}},
		nil,
	}
	for i, p := range cases {
		if u, ok := LenientRecordingURL(ctx, p, log, "c"); ok || u != "" {
			t.Fatalf("case %d: expected no recording, got %q", i, u)
		}
	}
}
