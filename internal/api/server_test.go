package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterdash/alertd/internal/alerter"
	"github.com/clusterdash/alertd/internal/bus"
	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/l10n"
	"github.com/clusterdash/alertd/internal/notifier"
	"github.com/clusterdash/alertd/internal/webui"
)

type fixture struct {
	srv     *Server
	handler http.Handler
	d       *alerter.Dispatcher
	feed    *notifier.Feed
}

func newFixture(t *testing.T, eventsPerMinute int) *fixture {
	t.Helper()
	cfg := config.Default()

	text, err := l10n.Load("en-US", "", zerolog.Nop())
	require.NoError(t, err)

	feed := notifier.NewFeed(50)
	b := bus.New(zerolog.Nop())
	d := alerter.NewDispatcher(cfg.Policy,
		alerter.NewPresenter(text, cfg.Presentation, cfg.Policy.ClusterAPIThreshold),
		feed, zerolog.Nop())
	d.Attach(b)
	t.Cleanup(d.Close)

	srv := NewServer(d, feed, b, zerolog.Nop(), "127.0.0.1:0", eventsPerMinute)
	srv.SetVersion("1.2.3", "abc123", "today")
	return &fixture{srv: srv, handler: srv.Handler(), d: d, feed: feed}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 0)
	rec, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestStatus(t *testing.T) {
	f := newFixture(t, 0)
	rec, body := f.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["halted"])
	assert.Equal(t, float64(0), body["alerts_shown"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "abc123", body["commit"])
}

func TestPostEvent_PresentsAlert(t *testing.T) {
	f := newFixture(t, 0)

	rec, body := f.do(t, http.MethodPost, "/api/events/neterror",
		`{"source":"/api/pods","status":503,"statusText":"Service Unavailable"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, bus.TopicNetError, body["topic"])
	assert.Equal(t, float64(1), body["delivered"])
	assert.Equal(t, true, body["presented"])

	// inside the throttle window
	_, body = f.do(t, http.MethodPost, "/api/events/neterror",
		`{"source":"/api/pods","status":503,"statusText":"Service Unavailable"}`)
	assert.Equal(t, false, body["presented"])

	rec, body = f.do(t, http.MethodGet, "/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	alerts := body["alerts"].([]interface{})
	first := alerts[0].(map[string]interface{})
	assert.Equal(t, "server_error", first["category"])
}

func TestPostEvent_RequestNotice(t *testing.T) {
	f := newFixture(t, 0)
	rec, body := f.do(t, http.MethodPost, "/api/events/success", `{"headline":"Pod deleted"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, bus.TopicRequestSuccess, body["topic"])
	assert.Equal(t, true, body["presented"])

	msgs := f.feed.Recent(1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Pod deleted", msgs[0].Text)
}

func TestPostEvent_UnreachableHalts(t *testing.T) {
	f := newFixture(t, 0)
	_, body := f.do(t, http.MethodPost, "/api/events/neterror", `{"status":0,"statusText":"error"}`)
	assert.Equal(t, true, body["presented"])
	assert.True(t, f.d.Halted())

	_, body = f.do(t, http.MethodPost, "/api/events/configerror", `{"message":"bad config"}`)
	assert.Equal(t, false, body["presented"])

	_, body = f.do(t, http.MethodPost, "/api/events/error", `{"headline":"Delete failed"}`)
	assert.Equal(t, true, body["presented"])

	_, body = f.do(t, http.MethodGet, "/status", "")
	assert.Equal(t, true, body["halted"])
}

func TestPostEvent_Errors(t *testing.T) {
	f := newFixture(t, 0)

	rec, body := f.do(t, http.MethodPost, "/api/events/bogus", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = f.do(t, http.MethodPost, "/api/events/neterror", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = f.do(t, http.MethodPost, "/api/events/heartbeat", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "cluster_update_time_unix")
	assert.Equal(t, 0, f.feed.Total())

	rec, _ = f.do(t, http.MethodGet, "/api/events/neterror", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPostEvent_RateLimited(t *testing.T) {
	// burst of 1
	f := newFixture(t, 1)

	rec, _ := f.do(t, http.MethodPost, "/api/events/success", `{"headline":"one"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec, body := f.do(t, http.MethodPost, "/api/events/success", `{"headline":"two"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limited", body["error"])
	assert.Equal(t, 1, f.feed.Total())
}

func TestPolicy(t *testing.T) {
	f := newFixture(t, 0)
	f.do(t, http.MethodPost, "/api/events/configerror", `{"message":"bad config"}`)

	rec, body := f.do(t, http.MethodGet, "/api/policy", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rows := body["categories"].([]interface{})
	byCat := make(map[string]map[string]interface{})
	for _, r := range rows {
		row := r.(map[string]interface{})
		byCat[row["category"].(string)] = row
	}
	require.Contains(t, byCat, "config_error")
	assert.Equal(t, true, byCat["config_error"]["fired"])
	assert.Equal(t, "once", byCat["config_error"]["rule"])
	assert.Equal(t, "after", byCat["timeout"]["rule"])
	assert.Equal(t, float64(3), byCat["timeout"]["threshold"])
	assert.Equal(t, "10s", byCat["server_error"]["window"])
}

func TestLogsAndWebUI(t *testing.T) {
	f := newFixture(t, 0)
	lb := webui.NewLogBuffer(10)
	f.srv.SetLogBuffer(lb)
	zerolog.New(lb).Info().Str("component", "dispatcher").Msg("Alert fired")

	_, body := f.do(t, http.MethodGet, "/api/logs", "")
	assert.Equal(t, float64(1), body["count"])

	f.do(t, http.MethodPost, "/api/events/success", `{"headline":"Saved"}`)

	rec, _ := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, "Dashboard alerts")
	assert.Contains(t, html, "Saved")
	assert.Contains(t, html, "Alert fired")
	assert.Contains(t, html, "1.2.3")

	rec, _ = f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", formatDuration(42_000_000_000))
	assert.Equal(t, "2d", formatDuration(48*60*60*1_000_000_000))
	assert.Equal(t, "1d 3h", formatDuration(27*60*60*1_000_000_000))
}
