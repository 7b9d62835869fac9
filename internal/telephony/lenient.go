package telephony

import (
	"context"
	"errors"
	"log/slog"
)

// LenientRecordingURL is the best-effort capability: it reports ok=false for
// any failure. Not-found and missing recordings log at debug, everything else
// at warn, so provider outages remain visible in logs.
func LenientRecordingURL(ctx context.Context, p CallProvider, log *slog.Logger, callID string) (string, bool) {
	if p == nil {
		return "", false
	}
	if log == nil {
		log = slog.Default()
	}
	d, err := p.GetCallDetails(ctx, callID)
	switch {
	case errors.Is(err, ErrCallNotFound):
		log.Debug("recording not ready", "provider", p.Name(), "call_id", callID, "reason", "call not found")
		return "", false
	case err != nil:
		log.Warn("recording fetch failed", "provider", p.Name(), "call_id", callID, "err", err)
		return "", false
	case !d.HasRecording():
		log.Debug("recording not ready", "provider", p.Name(), "call_id", callID, "status", d.Status)
		return "", false
	}
	return d.RecordingURL, true
}
