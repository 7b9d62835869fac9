package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultVapiBaseURL = "https://api.vapi.ai"

	defaultVapiTimeout     = 10 * time.Second
	defaultVapiMaxAttempts = 2
	defaultVapiBackoff     = 250 * time.Millisecond
	maxErrorBody           = 4 << 10
)

type VapiConfig struct {
	APIKey  string
	BaseURL string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration
	// MaxAttempts caps attempts for transport errors and 502/503/504.
	MaxAttempts int
	// RequestsPerSecond limits outbound calls; <= 0 disables limiting.
	RequestsPerSecond float64

	HTTPClient *http.Client
}

// VapiClient is the strict Vapi REST adapter.
type VapiClient struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
}

// NewVapiClient fails with ErrNotConfigured when no API key is set.
func NewVapiClient(cfg VapiConfig) (*VapiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: VAPI_API_KEY is required", ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultVapiBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVapiTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultVapiMaxAttempts
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &VapiClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  hc,
		limiter:     limiter,
		maxAttempts: cfg.MaxAttempts,
		backoff:     defaultVapiBackoff,
	}, nil
}

func (c *VapiClient) Name() string { return "vapi" }

type vapiCallResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	EndedAt      *time.Time `json:"endedAt"`
	RecordingURL string     `json:"recordingUrl"`
	Recording    *struct {
		URL      string  `json:"url"`
		Duration float64 `json:"duration"`
	} `json:"recording"`
	Artifact *struct {
		RecordingURL string `json:"recordingUrl"`
	} `json:"artifact"`
}

func (r vapiCallResponse) details() CallDetails {
	d := CallDetails{ID: r.ID, Status: r.Status, CreatedAt: r.CreatedAt, EndedAt: r.EndedAt}
	switch {
	case r.Recording != nil && r.Recording.URL != "":
		d.RecordingURL = r.Recording.URL
		d.RecordingDurationSeconds = r.Recording.Duration
	case r.RecordingURL != "":
		d.RecordingURL = r.RecordingURL
	case r.Artifact != nil && r.Artifact.RecordingURL != "":
		d.RecordingURL = r.Artifact.RecordingURL
	}
	return d
}

// GetCallDetails fetches GET {base}/call/{id}.
func (c *VapiClient) GetCallDetails(ctx context.Context, callID string) (CallDetails, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return CallDetails{}, errors.New("telephony: call id is required")
	}
	endpoint := c.baseURL + "/call/" + url.PathEscape(callID)

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.backoff*time.Duration(attempt-1)); err != nil {
				return CallDetails{}, err
			}
		}
		d, err := c.fetch(ctx, endpoint, callID)
		if err == nil {
			return d, nil
		}
		lastErr = err
		if !retryable(ctx, err) {
			return CallDetails{}, err
		}
	}
	return CallDetails{}, lastErr
}

func (c *VapiClient) fetch(ctx context.Context, endpoint, callID string) (CallDetails, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return CallDetails{}, fmt.Errorf("vapi: rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CallDetails{}, fmt.Errorf("vapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CallDetails{}, fmt.Errorf("vapi: get call %s: %w", callID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return CallDetails{}, fmt.Errorf("%w: call %s", ErrCallNotFound, callID)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return CallDetails{}, &ProviderError{
			Provider:   c.Name(),
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Message:    errorMessage(body),
		}
	}

	var out vapiCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CallDetails{}, fmt.Errorf("vapi: decode call %s: %w", callID, err)
	}
	return out.details(), nil
}

// errorMessage prefers the JSON "message" field and falls back to the raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message any    `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch m := payload.Message.(type) {
		case string:
			if m != "" {
				return m
			}
		case []any:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, "; ")
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrCallNotFound) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
