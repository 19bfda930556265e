package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clusterdash/alertd/internal/metrics"
	"github.com/clusterdash/alertd/internal/types"
)

// Notifier presents an alert to the user. Implementations must not block
// the caller on network I/O.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg types.Message) error
}

// Nop drops every message
type Nop struct{}

func (Nop) Name() string                                    { return "nop" }
func (Nop) Notify(_ context.Context, _ types.Message) error { return nil }

// Multi fans a message out to several notifiers
type Multi struct {
	logger    zerolog.Logger
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier
func NewMulti(logger zerolog.Logger, notifiers ...Notifier) *Multi {
	return &Multi{
		logger:    logger.With().Str("component", "notifier").Logger(),
		notifiers: notifiers,
	}
}

// Name implements Notifier
func (m *Multi) Name() string { return "multi" }

// Notify delivers msg to every notifier and joins their errors
func (m *Multi) Notify(ctx context.Context, msg types.Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			metrics.NotifyFailures.WithLabelValues(n.Name()).Inc()
			m.logger.Error().
				Err(err).
				Str("notifier", n.Name()).
				Str("alert_id", msg.ID).
				Msg("Failed to send notification")
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			// Continue to other notifiers
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped notifiers
func (m *Multi) Len() int {
	return len(m.notifiers)
}
