package alerter

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/l10n"
	"github.com/clusterdash/alertd/internal/types"
)

// keyText echoes the key and its sorted args so tests can see what was looked up
type keyText struct{}

func (keyText) Lookup(key string, args l10n.Args) string {
	if len(args) == 0 {
		return key
	}
	parts := make([]string, 0, len(args))
	for k, v := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(parts)
	return key + "(" + strings.Join(parts, ",") + ")"
}

func newTestPresenter() *Presenter {
	cfg := config.Default()
	return NewPresenter(keyText{}, cfg.Presentation, cfg.Policy.ClusterAPIThreshold)
}

func TestPresent_Attributes(t *testing.T) {
	p := newTestPresenter()
	ev := NormalizedEvent{Source: "cluster", Status: 503, StatusText: "Service Unavailable"}

	tests := []struct {
		cat         types.Category
		severity    types.Severity
		timeout     time.Duration
		dismissible bool
		modal       bool
		textPrefix  string
	}{
		{types.CategoryTimeout, types.SeverityError, 0, true, false, l10n.KeyDashboardUpdateTimeout},
		{types.CategoryClusterAPITimeout, types.SeverityWarning, 0, true, false, l10n.KeyClusterNotResponding},
		{types.CategorySessionExpired, types.SeverityWarning, 0, false, false, l10n.KeySessionTimeout},
		{types.CategoryServerError, types.SeverityError, 0, true, false, l10n.KeyServerErrorMessage},
		{types.CategoryUnexpectedError, types.SeverityError, 0, true, false, l10n.KeyUnexpectedError},
		{types.CategoryParserError, types.SeverityError, 10 * time.Second, true, false, l10n.KeyJSONParserError},
		{types.CategoryServerUnreachable, types.SeverityError, 0, false, true, l10n.KeyServerUnreachable},
	}

	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			msg := p.Present(tt.cat, ev, 1)
			assert.Equal(t, tt.cat, msg.Category)
			assert.Equal(t, tt.severity, msg.Severity)
			assert.Equal(t, tt.timeout, msg.Timeout)
			assert.Equal(t, tt.dismissible, msg.Dismissible)
			assert.Equal(t, tt.modal, msg.Modal)
			assert.Equal(t, tt.modal, msg.Force)
			assert.Equal(t, types.LayoutTop, msg.Layout)
			assert.True(t, strings.HasPrefix(msg.Text, tt.textPrefix), msg.Text)
			assert.NotEmpty(t, msg.ID)
		})
	}
}

func TestPresent_NetArgsReachText(t *testing.T) {
	p := newTestPresenter()
	msg := p.Present(types.CategoryServerError, NormalizedEvent{Source: "osd", Status: 500, StatusText: "Internal"}, 0)
	assert.Equal(t, "serverErrorMessage(source=osd,status=500,statusText=Internal)", msg.Text)
}

func TestPresent_TimeoutCarriesRetry(t *testing.T) {
	msg := newTestPresenter().Present(types.CategoryTimeout, NormalizedEvent{}, 4)
	assert.Equal(t, 4, msg.Retry)
	assert.Equal(t, "dashboardUpdateTimeout(retry=4)", msg.Text)
}

func TestPresent_SessionExpiredLoginAction(t *testing.T) {
	msg := newTestPresenter().Present(types.CategorySessionExpired, NormalizedEvent{}, 0)
	require.Len(t, msg.Actions, 1)
	a := msg.Actions[0]
	assert.Equal(t, l10n.KeyLoginButton, a.Label)
	assert.Equal(t, "/login/", a.Href)
	assert.True(t, a.CloseOnActivate)
	assert.True(t, msg.Sticky())
}

func TestPresent_ConfigErrorUsesFreeText(t *testing.T) {
	msg := newTestPresenter().Present(types.CategoryConfigError, NormalizedEvent{Detail: "bad pool size"}, 0)
	assert.Equal(t, "bad pool size", msg.Text)
	assert.Equal(t, types.SeverityError, msg.Severity)
	assert.True(t, msg.Sticky())
}

func TestRequestNotice(t *testing.T) {
	p := newTestPresenter()

	ok := p.RequestNotice(true, "Pool created")
	assert.Equal(t, types.SeveritySuccess, ok.Severity)
	assert.Equal(t, 10*time.Second, ok.Timeout)
	assert.Equal(t, types.LayoutTopRight, ok.Layout)
	assert.Equal(t, "Pool created", ok.Text)
	assert.Empty(t, ok.Category)

	fail := p.RequestNotice(false, "Pool creation failed")
	assert.Equal(t, types.SeverityError, fail.Severity)
	assert.True(t, fail.Sticky())
	assert.Equal(t, types.LayoutTopRight, fail.Layout)
}

func TestPresent_WithBuiltinCatalog(t *testing.T) {
	cat, err := l10n.Load("en-US", "", zerolog.Nop())
	require.NoError(t, err)
	cfg := config.Default()
	p := NewPresenter(cat, cfg.Presentation, cfg.Policy.ClusterAPIThreshold)

	msg := p.Present(types.CategoryServerError, NormalizedEvent{Status: 503, StatusText: "Service Unavailable"}, 0)
	assert.Contains(t, msg.Text, "503 Service Unavailable")

	msg = p.Present(types.CategoryClusterAPITimeout, NormalizedEvent{LastUpdate: time.Now()}, 0)
	assert.Contains(t, msg.Text, "15m0s")
}
