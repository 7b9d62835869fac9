package telephony

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CallProvider defines the provider-agnostic interface used by business logic.
//
// Rules:
// - No provider HTTP calls outside telephony adapters.
// - A call the provider does not know yields ErrCallNotFound.
// - Any other non-success response yields *ProviderError.
type CallProvider interface {
	Name() string
	GetCallDetails(ctx context.Context, callID string) (CallDetails, error)
}

// CallDetails is the provider-agnostic view of a remote call.
type CallDetails struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// RecordingURL is empty while the provider is still processing audio.
	RecordingURL             string  `json:"recording_url,omitempty"`
	RecordingDurationSeconds float64 `json:"recording_duration_seconds,omitempty"`
}

func (d CallDetails) HasRecording() bool { return d.RecordingURL != "" }

var (
	ErrCallNotFound  = errors.New("telephony: call not found")
	ErrNotConfigured = errors.New("telephony: provider not configured")
)

// ProviderError is a non-success response from the provider other than 404.
type ProviderError struct {
	Provider   string
	StatusCode int
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: failed to fetch call details: %d %s", e.Provider, e.StatusCode, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Retryable reports whether the response is a transient gateway failure.
func (e *ProviderError) Retryable() bool {
	switch e.StatusCode {
	case 502, 503, 504:
		return true
	default:
		return false
	}
}
