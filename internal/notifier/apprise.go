package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clusterdash/alertd/internal/types"
)

const (
	defaultAppriseTimeout = 10 * time.Second
	defaultAppriseBuffer  = 64
	drainTimeout          = 5 * time.Second
)

// ErrQueueFull is returned when the delivery queue cannot take another message
var ErrQueueFull = errors.New("apprise queue full")

// AppriseConfig holds one Apprise channel's resolved settings
type AppriseConfig struct {
	Name string
	// ServiceURL is the Apprise service URL, e.g. slack://tokenA/tokenB/tokenC
	ServiceURL string
	// APIURL is an Apprise API base URL. Empty means log only.
	APIURL   string
	Severity []types.Severity
}

// Apprise sends alerts to an Apprise API endpoint from a background worker
type Apprise struct {
	logger zerolog.Logger
	client *http.Client
	cfg    AppriseConfig
	queue  chan types.Message
	wg     sync.WaitGroup
}

// NewApprise creates an Apprise notifier. Call Start to begin delivery.
func NewApprise(logger zerolog.Logger, cfg AppriseConfig) *Apprise {
	return &Apprise{
		logger: logger.With().Str("component", "apprise").Str("channel", cfg.Name).Logger(),
		client: &http.Client{
			Timeout: defaultAppriseTimeout,
		},
		cfg:   cfg,
		queue: make(chan types.Message, defaultAppriseBuffer),
	}
}

// Name implements Notifier
func (a *Apprise) Name() string { return "apprise:" + a.cfg.Name }

// Start launches the delivery worker. When ctx is done it delivers what is
// still queued, within drainTimeout, and exits.
func (a *Apprise) Start(ctx context.Context) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				a.drain()
				return
			case msg := <-a.queue:
				if ctx.Err() != nil {
					a.drain(msg)
					return
				}
				a.send(ctx, msg)
			}
		}
	}()
}

// drain delivers pending and whatever is still queued, bounded by drainTimeout
func (a *Apprise) drain(pending ...types.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for _, msg := range pending {
		a.send(ctx, msg)
	}
	for {
		select {
		case msg := <-a.queue:
			if ctx.Err() != nil {
				a.logger.Warn().Str("alert_id", msg.ID).Msg("Dropping queued notification at shutdown")
				continue
			}
			a.send(ctx, msg)
		default:
			return
		}
	}
}

func (a *Apprise) send(ctx context.Context, msg types.Message) {
	if err := a.deliver(ctx, msg); err != nil {
		a.logger.Error().
			Err(err).
			Str("alert_id", msg.ID).
			Msg("Failed to send notification")
		return
	}
	a.logger.Info().
		Str("alert_id", msg.ID).
		Msg("Notification sent")
}

// Wait blocks until the worker has exited
func (a *Apprise) Wait() {
	a.wg.Wait()
}

// Notify implements Notifier by enqueueing msg
func (a *Apprise) Notify(_ context.Context, msg types.Message) error {
	if !a.accepts(msg.Severity) {
		return nil
	}
	select {
	case a.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Apprise) accepts(sev types.Severity) bool {
	if len(a.cfg.Severity) == 0 {
		return true
	}
	for _, s := range a.cfg.Severity {
		if s == sev {
			return true
		}
	}
	return false
}

// appriseType maps severities onto Apprise notification types
func appriseType(sev types.Severity) string {
	switch sev {
	case types.SeverityError:
		return "failure"
	case types.SeverityWarning:
		return "warning"
	case types.SeveritySuccess:
		return "success"
	default:
		return "info"
	}
}

// formatTitle formats an alert into a notification title
func formatTitle(msg types.Message) string {
	var emoji string
	switch msg.Severity {
	case types.SeverityError:
		emoji = "🔴"
	case types.SeverityWarning:
		emoji = "⚠️"
	case types.SeveritySuccess:
		emoji = "🟢"
	default:
		emoji = "ℹ️"
	}

	if msg.Category == "" {
		return fmt.Sprintf("%s Dashboard: request %s", emoji, msg.Severity)
	}
	return fmt.Sprintf("%s Dashboard alert: %s", emoji, msg.Category)
}

func (a *Apprise) deliver(ctx context.Context, msg types.Message) error {
	payload := map[string]string{
		"urls":   a.cfg.ServiceURL,
		"title":  formatTitle(msg),
		"body":   msg.Text,
		"type":   appriseType(msg.Severity),
		"format": "text",
	}

	if a.cfg.APIURL == "" {
		// without an Apprise API there is nowhere to POST
		a.logger.Info().
			Str("title", payload["title"]).
			Str("message", msg.Text).
			Msg("Would send notification (Apprise API not configured)")
		return nil
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.APIURL+"/notify/", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("apprise API error: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}
