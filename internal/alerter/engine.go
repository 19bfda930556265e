package alerter

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clusterdash/alertd/internal/bus"
	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/metrics"
	"github.com/clusterdash/alertd/internal/notifier"
	"github.com/clusterdash/alertd/internal/types"
)

// Dispatcher turns bus events into rate-limited alerts for the notifier
type Dispatcher struct {
	policy           *Policy
	presenter        *Presenter
	notifier         notifier.Notifier
	logger           zerolog.Logger
	clusterThreshold time.Duration
	now              func() time.Time

	mu       sync.Mutex
	states   map[types.Category]State
	halted   bool
	timeouts int
	onHalt   []func()
	subs     []bus.Subscription
}

// Option customizes a Dispatcher
type Option func(*Dispatcher)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
		d.presenter.now = now
	}
}

// NewDispatcher creates a dispatcher with the policy described by cfg
func NewDispatcher(cfg config.PolicyConfig, presenter *Presenter, n notifier.Notifier, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		policy:           NewPolicy(cfg),
		presenter:        presenter,
		notifier:         n,
		logger:           logger.With().Str("component", "dispatcher").Logger(),
		clusterThreshold: cfg.ClusterAPIThreshold,
		now:              time.Now,
		states:           make(map[types.Category]State),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Attach registers the dispatcher's handlers on sub
func (d *Dispatcher) Attach(sub bus.Subscriber) {
	handlers := map[string]bus.Handler{
		bus.TopicNetError: func(p any) {
			if ev, ok := p.(types.NetError); ok {
				d.HandleNetError(ev)
			} else {
				d.badPayload(bus.TopicNetError, p)
			}
		},
		bus.TopicConfigError: func(p any) {
			if ev, ok := p.(types.ConfigError); ok {
				d.HandleConfigError(ev.Message)
			} else {
				d.badPayload(bus.TopicConfigError, p)
			}
		},
		bus.TopicHeartbeatUpdate: func(p any) {
			if s, ok := p.(types.HeartbeatSample); ok {
				d.HandleHeartbeat(s)
			} else {
				d.badPayload(bus.TopicHeartbeatUpdate, p)
			}
		},
		bus.TopicRequestSuccess: func(p any) {
			if r, ok := p.(types.RequestNotice); ok {
				d.HandleRequest(true, r.Headline)
			} else {
				d.badPayload(bus.TopicRequestSuccess, p)
			}
		},
		bus.TopicRequestError: func(p any) {
			if r, ok := p.(types.RequestNotice); ok {
				d.HandleRequest(false, r.Headline)
			} else {
				d.badPayload(bus.TopicRequestError, p)
			}
		},
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, topic := range bus.Topics() {
		d.subs = append(d.subs, sub.Subscribe(topic, handlers[topic]))
	}
}

// Close releases every bus subscription
func (d *Dispatcher) Close() {
	d.mu.Lock()
	subs := d.subs
	d.subs = nil
	d.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// OnHalt registers fn to run once the session halts
func (d *Dispatcher) OnHalt(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onHalt = append(d.onHalt, fn)
}

func (d *Dispatcher) badPayload(topic string, p any) {
	d.logger.Warn().
		Str("topic", topic).
		Type("payload_type", p).
		Msg("Ignoring event with unexpected payload")
}

// HandleNetError classifies a failed request and alerts if policy allows
func (d *Dispatcher) HandleNetError(ev types.NetError) bool {
	metrics.EventsReceived.WithLabelValues(bus.TopicNetError).Inc()

	cat, ok := ClassifyNetError(ev)
	if !ok {
		d.logger.Debug().
			Str("source", ev.Source).
			Int("status", ev.Status).
			Msg("Ignoring network error without status text")
		return false
	}
	return d.dispatch(cat, normalizeNetError(ev))
}

// HandleHeartbeat alerts when the cluster has stopped reporting
func (d *Dispatcher) HandleHeartbeat(s types.HeartbeatSample) bool {
	metrics.EventsReceived.WithLabelValues(bus.TopicHeartbeatUpdate).Inc()

	if s.ClusterUpdateTimeUnix <= 0 {
		d.logger.Debug().Msg("Ignoring heartbeat without cluster update time")
		return false
	}
	if !HeartbeatStale(s, d.now(), d.clusterThreshold) {
		return false
	}
	return d.dispatch(types.CategoryClusterAPITimeout, NormalizedEvent{LastUpdate: s.UpdatedAt()})
}

// HandleConfigError alerts on a configuration problem
func (d *Dispatcher) HandleConfigError(message string) bool {
	metrics.EventsReceived.WithLabelValues(bus.TopicConfigError).Inc()
	return d.dispatch(types.CategoryConfigError, NormalizedEvent{Detail: message})
}

// HandleRequest shows a request completion. It is never rate limited and
// keeps showing after the session halts.
func (d *Dispatcher) HandleRequest(success bool, headline string) bool {
	topic := bus.TopicRequestError
	if success {
		topic = bus.TopicRequestSuccess
	}
	metrics.EventsReceived.WithLabelValues(topic).Inc()
	d.send(d.presenter.RequestNotice(success, headline))
	return true
}

func (d *Dispatcher) dispatch(cat types.Category, ev NormalizedEvent) bool {
	d.mu.Lock()

	if d.halted {
		d.mu.Unlock()
		metrics.AlertsSuppressed.WithLabelValues(string(cat), ReasonHalted).Inc()
		return false
	}

	decision, next, reason := d.policy.Evaluate(cat, d.now(), d.states[cat])
	d.states[cat] = next
	if decision == Suppress {
		d.mu.Unlock()
		metrics.AlertsSuppressed.WithLabelValues(string(cat), reason).Inc()
		d.logger.Debug().
			Str("category", string(cat)).
			Str("reason", reason).
			Msg("Alert suppressed")
		return false
	}

	retry := 0
	if cat == types.CategoryTimeout {
		d.timeouts++
		retry = d.timeouts
	}

	var hooks []func()
	if rule, _ := d.policy.Rule(cat); rule.Halts {
		d.halted = true
		hooks = d.onHalt
	}
	d.mu.Unlock()

	msg := d.presenter.Present(cat, ev, retry)
	metrics.AlertsEmitted.WithLabelValues(string(cat)).Inc()
	d.logger.Info().
		Str("category", string(cat)).
		Str("severity", string(msg.Severity)).
		Str("alert_id", msg.ID).
		Msg("Alert fired")

	d.send(msg)

	if len(hooks) > 0 {
		metrics.SessionHalted.Set(1)
		d.logger.Warn().Msg("Server unreachable, silencing all further alerts")
		for _, fn := range hooks {
			fn()
		}
	}
	return true
}

func (d *Dispatcher) send(msg types.Message) {
	if err := d.notifier.Notify(context.Background(), msg); err != nil {
		// notifiers log their own failures
		d.logger.Debug().
			Err(err).
			Str("alert_id", msg.ID).
			Msg("Alert notification incomplete")
	}
}

// Halted reports whether alerts have been silenced for the session
func (d *Dispatcher) Halted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.halted
}

// Snapshot returns a copy of the per-category policy state
func (d *Dispatcher) Snapshot() map[types.Category]State {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[types.Category]State, len(d.states))
	for k, v := range d.states {
		out[k] = v
	}
	return out
}

// TimeoutCount is the number of timeout alerts shown so far
func (d *Dispatcher) TimeoutCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeouts
}

// Rule returns the suppression rule applied to cat
func (d *Dispatcher) Rule(cat types.Category) (Rule, bool) {
	return d.policy.Rule(cat)
}
