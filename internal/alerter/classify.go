package alerter

import (
	"time"

	"github.com/clusterdash/alertd/internal/types"
)

// NormalizedEvent is what the presenter needs to render a classified event
type NormalizedEvent struct {
	Source     string
	Status     int
	StatusText string
	Detail     string
	LastUpdate time.Time
}

func normalizeNetError(ev types.NetError) NormalizedEvent {
	return NormalizedEvent{
		Source:     ev.Source,
		Status:     ev.Status,
		StatusText: ev.StatusText,
	}
}

// ClassifyNetError maps a failed request to a category. ok is false when the
// event carries no status text and must be ignored.
func ClassifyNetError(ev types.NetError) (cat types.Category, ok bool) {
	if ev.StatusText == "" {
		return "", false
	}

	switch {
	case ev.StatusText == "timeout":
		return types.CategoryTimeout, true
	// a malformed JSON body can surface as a 200 "OK"
	case ev.StatusText == "parsererror" || (ev.Status == 200 && ev.StatusText == "OK"):
		return types.CategoryParserError, true
	case ev.Status == 403:
		return types.CategorySessionExpired, true
	case ev.Status >= 500:
		return types.CategoryServerError, true
	case ev.Status == 0:
		return types.CategoryServerUnreachable, true
	default:
		return types.CategoryUnexpectedError, true
	}
}

// HeartbeatStale reports whether the cluster last updated more than threshold before now
func HeartbeatStale(s types.HeartbeatSample, now time.Time, threshold time.Duration) bool {
	return now.Sub(s.UpdatedAt()) > threshold
}
