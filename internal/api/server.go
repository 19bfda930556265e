package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/clusterdash/alertd/internal/alerter"
	"github.com/clusterdash/alertd/internal/bus"
	"github.com/clusterdash/alertd/internal/metrics"
	"github.com/clusterdash/alertd/internal/notifier"
	"github.com/clusterdash/alertd/internal/types"
	"github.com/clusterdash/alertd/internal/webui"
)

const maxEventBody = 64 << 10

var errMissingUpdateTime = errors.New("cluster_update_time_unix is required")

// AlertState is the dispatcher view the API reports on
type AlertState interface {
	Halted() bool
	Snapshot() map[types.Category]alerter.State
	TimeoutCount() int
	Rule(cat types.Category) (alerter.Rule, bool)
}

// Server provides HTTP API endpoints and web UI
type Server struct {
	state     AlertState
	feed      *notifier.Feed
	pub       bus.Publisher
	logger    zerolog.Logger
	addr      string
	logBuffer *webui.LogBuffer
	limiter   *rate.Limiter
	startTime time.Time
	version   string
	commit    string
	buildDate string
	http      *http.Server
}

// NewServer creates a new API server. eventsPerMinute of 0 disables ingestion rate limiting.
func NewServer(state AlertState, feed *notifier.Feed, pub bus.Publisher, logger zerolog.Logger, addr string, eventsPerMinute int) *Server {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if eventsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(eventsPerMinute)/60.0), max(1, eventsPerMinute/10))
	}

	s := &Server{
		state:     state,
		feed:      feed,
		pub:       pub,
		logger:    logger.With().Str("component", "api").Logger(),
		addr:      addr,
		limiter:   limiter,
		startTime: time.Now(),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// SetLogBuffer sets the log buffer for the web UI
func (s *Server) SetLogBuffer(lb *webui.LogBuffer) {
	s.logBuffer = lb
}

// SetVersion sets the version information
func (s *Server) SetVersion(version, commit, buildDate string) {
	s.version = version
	s.commit = commit
	s.buildDate = buildDate
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /alerts", s.handleAlerts)
	mux.HandleFunc("GET /api/policy", s.handlePolicy)
	mux.HandleFunc("GET /api/logs", s.handleLogsAPI)
	mux.HandleFunc("POST /api/events/{kind}", s.handleEvent)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Web UI
	mux.HandleFunc("GET /{$}", s.handleWebUI)

	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.addr).
		Msg("Starting API server with Web UI")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// handleHealth returns service health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleStatus returns current state summary
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"halted":        s.state.Halted(),
		"alerts_shown":  s.feed.Total(),
		"timeout_count": s.state.TimeoutCount(),
		"time":          time.Now().UTC().Format(time.RFC3339),
		"uptime":        time.Since(s.startTime).String(),
		"version":       s.version,
		"commit":        s.commit,
		"build_date":    s.buildDate,
	})
}

// handleAlerts returns recently presented alerts, newest first
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.feed.Recent(0)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
		"halted": s.state.Halted(),
	})
}

// PolicyRow is one category's rule and state
type PolicyRow struct {
	Category    types.Category `json:"category"`
	Rule        string         `json:"rule"`
	Window      string         `json:"window,omitempty"`
	Threshold   int            `json:"threshold,omitempty"`
	Fired       bool           `json:"fired"`
	Occurrences int            `json:"occurrences"`
	LastFired   time.Time      `json:"last_fired,omitempty"`
}

func (s *Server) policyRows() []PolicyRow {
	snap := s.state.Snapshot()
	rows := make([]PolicyRow, 0, len(types.Categories()))
	for _, cat := range types.Categories() {
		rule, _ := s.state.Rule(cat)
		st := snap[cat]
		row := PolicyRow{
			Category:    cat,
			Rule:        rule.Kind.String(),
			Threshold:   rule.Threshold,
			Fired:       st.Fired,
			Occurrences: st.Occurrences,
			LastFired:   st.LastFired,
		}
		if rule.Window > 0 {
			row.Window = rule.Window.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// handlePolicy returns per-category suppression state
func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"halted":     s.state.Halted(),
		"categories": s.policyRows(),
	})
}

// handleLogsAPI returns recent log entries as JSON
func (s *Server) handleLogsAPI(w http.ResponseWriter, r *http.Request) {
	var entries []webui.LogEntry
	if s.logBuffer != nil {
		entries = s.logBuffer.GetRecentEntries(200)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// eventKinds maps URL path names to bus topics
var eventKinds = map[string]string{
	"neterror":    bus.TopicNetError,
	"configerror": bus.TopicConfigError,
	"heartbeat":   bus.TopicHeartbeatUpdate,
	"success":     bus.TopicRequestSuccess,
	"error":       bus.TopicRequestError,
}

func decodeEvent(topic string, body io.Reader) (any, error) {
	dec := json.NewDecoder(body)
	switch topic {
	case bus.TopicNetError:
		var ev types.NetError
		err := dec.Decode(&ev)
		return ev, err
	case bus.TopicConfigError:
		var ev types.ConfigError
		err := dec.Decode(&ev)
		return ev, err
	case bus.TopicHeartbeatUpdate:
		var ev types.HeartbeatSample
		if err := dec.Decode(&ev); err != nil {
			return nil, err
		}
		if ev.ClusterUpdateTimeUnix <= 0 {
			return nil, errMissingUpdateTime
		}
		return ev, nil
	default:
		var ev types.RequestNotice
		err := dec.Decode(&ev)
		return ev, err
	}
}

// handleEvent publishes an inbound event onto the bus
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	topic, ok := eventKinds[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown event kind "+kind)
		return
	}

	if !s.limiter.Allow() {
		metrics.EventsRateLimited.Inc()
		s.logger.Debug().Str("topic", topic).Msg("Event rate limited")
		writeError(w, http.StatusTooManyRequests, "rate limited")
		return
	}

	payload, err := decodeEvent(topic, io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body: "+err.Error())
		return
	}

	before := s.feed.Total()
	delivered := s.pub.Publish(topic, payload)

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":   true,
		"topic":     topic,
		"delivered": delivered,
		"presented": s.feed.Total() > before,
	})
}

// PageData holds all data for the web UI template
type PageData struct {
	Halted  bool
	Total   int
	Uptime  string
	Alerts  []types.Message
	Policy  []PolicyRow
	Logs    []webui.LogEntry
	Version string
	Commit  string
}

// handleWebUI renders the main web interface
func (s *Server) handleWebUI(w http.ResponseWriter, r *http.Request) {
	data := PageData{
		Halted:  s.state.Halted(),
		Total:   s.feed.Total(),
		Uptime:  formatDuration(time.Since(s.startTime)),
		Alerts:  s.feed.Recent(50),
		Policy:  s.policyRows(),
		Version: s.version,
		Commit:  s.commit,
	}
	if s.logBuffer != nil {
		data.Logs = s.logBuffer.GetRecentEntries(100)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := webui.Templates.ExecuteTemplate(w, "base", data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	if d < 24*time.Hour {
		return d.Round(time.Minute).String()
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd %dh", days, hours)
}
