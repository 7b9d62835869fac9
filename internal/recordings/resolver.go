package recordings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"phonebank-training/internal/calls"
	"phonebank-training/internal/telephony"
)

type Kind string

const (
	KindCached      Kind = "cached"
	KindFresh       Kind = "fresh"
	KindUnavailable Kind = "unavailable"
	KindNotFound    Kind = "not_found"
)

type Reason string

const (
	ReasonNoExternalCallID Reason = "no-external-call-id"
	ReasonNotYetAvailable  Reason = "not-yet-available"
	ReasonFetchInProgress  Reason = "fetch-in-progress"
)

// Result is the outcome of Resolve. URL and FetchedAt are set for cached and
// fresh results, Reason for unavailable ones.
type Result struct {
	Kind      Kind      `json:"kind"`
	URL       string    `json:"url,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
	Reason    Reason    `json:"reason,omitempty"`
}

type Mode string

const (
	ModeStrict  Mode = "strict"
	ModeLenient Mode = "lenient"
)

// SessionStore is the slice of calls.Repository the resolver needs.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (calls.CallSession, error)
	CacheRecordingURL(ctx context.Context, id, url string, fetchedAt time.Time) (bool, error)
}

type Options struct {
	// Guard serializes provider fetches per session. Optional.
	Guard  FetchGuard
	Mode   Mode
	Logger *slog.Logger
}

// Resolver returns a session's recording URL, fetching it from the provider
// at most once per successful fetch and caching it on the session.
type Resolver struct {
	store    SessionStore
	provider telephony.CallProvider
	guard    FetchGuard
	mode     Mode
	log      *slog.Logger
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewResolver(store SessionStore, provider telephony.CallProvider, opts Options) *Resolver {
	mode := opts.Mode
	if mode == "" {
		mode = ModeStrict
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		store:    store,
		provider: provider,
		guard:    opts.Guard,
		mode:     mode,
		log:      log,
		clock:    time.Now,
	}
}

// Resolve never re-fetches once a URL is cached. Only store read failures and
// strict-mode provider failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, sessionID string) (Result, error) {
	s, err := r.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			return Result{Kind: KindNotFound}, nil
		}
		return Result{}, err
	}

	if s.RecordingURL != "" {
		out := Result{Kind: KindCached, URL: s.RecordingURL}
		if s.RecordingFetchedAt != nil {
			out.FetchedAt = *s.RecordingFetchedAt
		}
		return out, nil
	}
	if s.ExternalCallID == "" {
		return unavailable(ReasonNoExternalCallID), nil
	}

	if r.guard != nil {
		release, ok, err := r.guard.Acquire(ctx, sessionID)
		switch {
		case err != nil:
			r.log.Warn("recording fetch guard failed; fetching unguarded", "session_id", sessionID, "err", err)
		case !ok:
			return unavailable(ReasonFetchInProgress), nil
		default:
			defer release()
		}
	}

	url, err := r.fetch(ctx, s.ExternalCallID)
	if err != nil {
		return Result{}, err
	}
	if url == "" {
		return unavailable(ReasonNotYetAvailable), nil
	}

	fetchedAt := r.clock().UTC()
	wrote, err := r.store.CacheRecordingURL(ctx, sessionID, url, fetchedAt)
	switch {
	case err != nil:
		r.log.Warn("failed to cache recording url", "session_id", sessionID, "err", err)
	case !wrote:
		r.log.Debug("recording url already cached by a concurrent fetch", "session_id", sessionID)
	}
	return Result{Kind: KindFresh, URL: url, FetchedAt: fetchedAt}, nil
}

// fetch returns "" when the provider has no recording yet.
func (r *Resolver) fetch(ctx context.Context, callID string) (string, error) {
	if r.provider == nil {
		return "", telephony.ErrNotConfigured
	}
	if r.mode == ModeLenient {
		url, _ := telephony.LenientRecordingURL(ctx, r.provider, r.log, callID)
		return url, nil
	}

	d, err := r.provider.GetCallDetails(ctx, callID)
	if err != nil {
		if errors.Is(err, telephony.ErrCallNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fetch recording for call %s: %w", callID, err)
	}
	return d.RecordingURL, nil
}

func unavailable(reason Reason) Result {
	return Result{Kind: KindUnavailable, Reason: reason}
}
