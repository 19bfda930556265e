package alerter

import (
	"time"

	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/types"
)

// RuleKind is the suppression strategy of a category
type RuleKind int

const (
	// RuleThrottle emits at most once per Window
	RuleThrottle RuleKind = iota
	// RuleOnce emits at most once per session
	RuleOnce
	// RuleAfter suppresses the first Threshold-1 occurrences, then throttles by Window
	RuleAfter
)

func (k RuleKind) String() string {
	switch k {
	case RuleThrottle:
		return "throttle"
	case RuleOnce:
		return "once"
	case RuleAfter:
		return "after"
	default:
		return "unknown"
	}
}

// Rule parameterizes a RuleKind
type Rule struct {
	Kind      RuleKind
	Window    time.Duration
	Threshold int
	// Halts silences every category after this one emits
	Halts bool
}

// State is the per-category record a rule needs
type State struct {
	LastFired   time.Time `json:"last_fired,omitempty"`
	Fired       bool      `json:"fired"`
	Occurrences int       `json:"occurrences"`
}

// Decision is the outcome of a policy evaluation
type Decision int

const (
	Suppress Decision = iota
	Emit
)

func (d Decision) String() string {
	if d == Emit {
		return "emit"
	}
	return "suppress"
}

// Reason values explain a suppression
const (
	ReasonThrottled    = "throttled"
	ReasonAlreadyFired = "already_fired"
	ReasonBelowCount   = "below_threshold"
	ReasonHalted       = "session_halted"
	ReasonNoRule       = "no_rule"
)

// Policy holds one rule per category
type Policy struct {
	rules map[types.Category]Rule
}

// NewPolicy builds the dashboard's suppression rules from cfg
func NewPolicy(cfg config.PolicyConfig) *Policy {
	throttle := Rule{Kind: RuleThrottle, Window: cfg.ThrottleWindow}
	clusterWindow := cfg.ClusterAPIWindow
	if clusterWindow == 0 {
		clusterWindow = cfg.ClusterAPIThreshold
	}
	return &Policy{
		rules: map[types.Category]Rule{
			types.CategoryTimeout:           {Kind: RuleAfter, Threshold: cfg.TimeoutThreshold, Window: cfg.ThrottleWindow},
			types.CategoryServerError:       throttle,
			types.CategoryUnexpectedError:   throttle,
			types.CategoryParserError:       throttle,
			types.CategoryClusterAPITimeout: {Kind: RuleThrottle, Window: clusterWindow},
			types.CategorySessionExpired:    {Kind: RuleOnce},
			types.CategoryServerUnreachable: {Kind: RuleOnce, Halts: true},
			types.CategoryConfigError:       {Kind: RuleOnce},
		},
	}
}

// Rule returns the rule for cat
func (p *Policy) Rule(cat types.Category) (Rule, bool) {
	r, ok := p.rules[cat]
	return r, ok
}

// Evaluate decides whether cat may emit at now given its current state, and
// returns the state to keep. The state advances on suppression too, since
// RuleAfter counts every occurrence.
func (p *Policy) Evaluate(cat types.Category, now time.Time, st State) (Decision, State, string) {
	rule, ok := p.rules[cat]
	if !ok {
		return Suppress, st, ReasonNoRule
	}

	switch rule.Kind {
	case RuleOnce:
		if st.Fired {
			return Suppress, st, ReasonAlreadyFired
		}
	case RuleAfter:
		st.Occurrences++
		if st.Occurrences < rule.Threshold {
			return Suppress, st, ReasonBelowCount
		}
		if throttled(rule, now, st) {
			return Suppress, st, ReasonThrottled
		}
	case RuleThrottle:
		if throttled(rule, now, st) {
			return Suppress, st, ReasonThrottled
		}
	}

	st.Fired = true
	st.LastFired = now
	return Emit, st, ""
}

func throttled(rule Rule, now time.Time, st State) bool {
	return st.Fired && now.Sub(st.LastFired) < rule.Window
}
