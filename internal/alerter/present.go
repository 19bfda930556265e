package alerter

import (
	"time"

	"github.com/google/uuid"

	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/l10n"
	"github.com/clusterdash/alertd/internal/types"
)

// Localizer resolves a string id to display text
type Localizer interface {
	Lookup(key string, args l10n.Args) string
}

// Presenter turns classified events into alert messages
type Presenter struct {
	text             Localizer
	transientTimeout time.Duration
	clusterThreshold time.Duration
	loginURL         string
	now              func() time.Time
}

// NewPresenter creates a presenter using cfg's fixed attributes
func NewPresenter(text Localizer, cfg config.PresentationConfig, clusterThreshold time.Duration) *Presenter {
	return &Presenter{
		text:             text,
		transientTimeout: cfg.TransientTimeout,
		clusterThreshold: clusterThreshold,
		loginURL:         cfg.LoginURL,
		now:              time.Now,
	}
}

func (p *Presenter) base(cat types.Category, sev types.Severity) types.Message {
	return types.Message{
		ID:          uuid.NewString(),
		Category:    cat,
		Severity:    sev,
		Layout:      types.LayoutTop,
		Dismissible: true,
		CreatedAt:   p.now(),
	}
}

func netArgs(ev NormalizedEvent) l10n.Args {
	return l10n.Args{
		"source":     ev.Source,
		"status":     ev.Status,
		"statusText": ev.StatusText,
	}
}

// Present renders cat. retry is the visible counter shown on timeouts.
func (p *Presenter) Present(cat types.Category, ev NormalizedEvent, retry int) types.Message {
	switch cat {
	case types.CategoryTimeout:
		msg := p.base(cat, types.SeverityError)
		msg.Retry = retry
		msg.Text = p.text.Lookup(l10n.KeyDashboardUpdateTimeout, l10n.Args{"retry": retry})
		return msg

	case types.CategoryClusterAPITimeout:
		msg := p.base(cat, types.SeverityWarning)
		msg.Text = p.text.Lookup(l10n.KeyClusterNotResponding, l10n.Args{
			"threshold":  p.clusterThreshold.String(),
			"lastUpdate": ev.LastUpdate.UTC().Format(time.RFC3339),
		})
		return msg

	case types.CategorySessionExpired:
		msg := p.base(cat, types.SeverityWarning)
		msg.Dismissible = false
		msg.Text = p.text.Lookup(l10n.KeySessionTimeout, nil)
		msg.Actions = []types.Action{{
			Label:           p.text.Lookup(l10n.KeyLoginButton, nil),
			Class:           "btn btn-primary",
			Href:            p.loginURL,
			CloseOnActivate: true,
		}}
		return msg

	case types.CategoryServerError:
		msg := p.base(cat, types.SeverityError)
		msg.Text = p.text.Lookup(l10n.KeyServerErrorMessage, netArgs(ev))
		return msg

	case types.CategoryUnexpectedError:
		msg := p.base(cat, types.SeverityError)
		msg.Text = p.text.Lookup(l10n.KeyUnexpectedError, netArgs(ev))
		return msg

	case types.CategoryParserError:
		msg := p.base(cat, types.SeverityError)
		msg.Text = p.text.Lookup(l10n.KeyJSONParserError, netArgs(ev))
		msg.Timeout = p.transientTimeout
		return msg

	case types.CategoryServerUnreachable:
		msg := p.base(cat, types.SeverityError)
		msg.Text = p.text.Lookup(l10n.KeyServerUnreachable, netArgs(ev))
		msg.Dismissible = false
		msg.Modal = true
		msg.Force = true
		return msg

	case types.CategoryConfigError:
		msg := p.base(cat, types.SeverityError)
		msg.Text = ev.Detail
		return msg
	}

	msg := p.base(cat, types.SeverityError)
	msg.Text = string(cat)
	return msg
}

// RequestNotice renders a request completion headline
func (p *Presenter) RequestNotice(success bool, headline string) types.Message {
	msg := p.base("", types.SeverityError)
	msg.Layout = types.LayoutTopRight
	msg.Text = headline
	if success {
		msg.Severity = types.SeveritySuccess
		msg.Timeout = p.transientTimeout
	}
	return msg
}
