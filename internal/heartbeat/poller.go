// Package heartbeat polls the cluster heartbeat endpoint and reports the
// result on the event bus, the way the dashboard's periodic model fetch does.
//
// A successful poll publishes heartbeat:update. A failed poll publishes
// app:neterror shaped like a browser XHR failure so the alert dispatcher
// classifies it with the same rules as any other request:
//
//	deadline exceeded        -> status 0,   statusText "timeout"
//	connection failure       -> status 0,   statusText "error"
//	non-2xx response         -> status N,   statusText http.StatusText(N)
//	undecodable 2xx response -> status N,   statusText "parsererror"
package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/clusterdash/alertd/internal/bus"
	"github.com/clusterdash/alertd/internal/types"
	"github.com/clusterdash/alertd/internal/version"
)

const sourceName = "heartbeat"

// Poller fetches heartbeat samples on an interval
type Poller struct {
	url      string
	interval time.Duration
	client   *http.Client
	pub      bus.Publisher
	logger   zerolog.Logger
}

// NewPoller creates a poller for url
func NewPoller(url string, interval, timeout time.Duration, pub bus.Publisher, logger zerolog.Logger) *Poller {
	return &Poller{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
		pub:      pub,
		logger:   logger.With().Str("component", "heartbeat").Str("url", url).Logger(),
	}
}

// Run polls immediately and then every interval until ctx is done
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Msg("Heartbeat polling started")
	for {
		p.Poll(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Heartbeat polling stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll performs one fetch and publishes its outcome
func (p *Poller) Poll(ctx context.Context) {
	sample, netErr := p.fetch(ctx)
	if ctx.Err() != nil {
		// shutting down, not a cluster problem
		return
	}
	if netErr != nil {
		p.logger.Warn().
			Int("status", netErr.Status).
			Str("status_text", netErr.StatusText).
			Msg("Heartbeat poll failed")
		p.pub.Publish(bus.TopicNetError, *netErr)
		return
	}

	p.logger.Debug().
		Int64("cluster_update_time_unix", sample.ClusterUpdateTimeUnix).
		Msg("Heartbeat received")
	p.pub.Publish(bus.TopicHeartbeatUpdate, sample)
}

func (p *Poller) fetch(ctx context.Context) (types.HeartbeatSample, *types.NetError) {
	var sample types.HeartbeatSample

	fail := func(status int, text string) (types.HeartbeatSample, *types.NetError) {
		return sample, &types.NetError{
			Source:      sourceName,
			Status:      status,
			StatusText:  text,
			TimestampMs: time.Now().UnixMilli(),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fail(0, "error")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("alertd"))

	resp, err := p.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fail(0, "timeout")
		}
		return fail(0, "error")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fail(resp.StatusCode, statusText(resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(&sample); err != nil {
		if isTimeout(err) {
			return fail(0, "timeout")
		}
		return fail(resp.StatusCode, "parsererror")
	}
	return sample, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func statusText(code int) string {
	if s := http.StatusText(code); s != "" {
		return s
	}
	return fmt.Sprintf("HTTP %d", code)
}
