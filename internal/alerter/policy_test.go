package alerter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clusterdash/alertd/internal/config"
	"github.com/clusterdash/alertd/internal/types"
)

func defaultPolicy() *Policy {
	return NewPolicy(config.Default().Policy)
}

// run feeds cat to the policy at each offset and returns the emitted offsets
func run(p *Policy, cat types.Category, offsets ...time.Duration) []time.Duration {
	start := time.Unix(1_700_000_000, 0)
	var st State
	var emitted []time.Duration
	for _, off := range offsets {
		var d Decision
		d, st, _ = p.Evaluate(cat, start.Add(off), st)
		if d == Emit {
			emitted = append(emitted, off)
		}
	}
	return emitted
}

func TestPolicy_Rules(t *testing.T) {
	p := defaultPolicy()

	for _, cat := range types.Categories() {
		_, ok := p.Rule(cat)
		assert.True(t, ok, "no rule for %s", cat)
	}

	r, _ := p.Rule(types.CategoryServerUnreachable)
	assert.Equal(t, RuleOnce, r.Kind)
	assert.True(t, r.Halts)

	r, _ = p.Rule(types.CategoryClusterAPITimeout)
	assert.Equal(t, RuleThrottle, r.Kind)
	assert.Equal(t, 15*time.Minute, r.Window)

	r, _ = p.Rule(types.CategoryTimeout)
	assert.Equal(t, RuleAfter, r.Kind)
	assert.Equal(t, 3, r.Threshold)
}

func TestPolicy_FireOnce(t *testing.T) {
	p := defaultPolicy()
	for _, cat := range []types.Category{
		types.CategorySessionExpired, types.CategoryServerUnreachable, types.CategoryConfigError,
	} {
		t.Run(string(cat), func(t *testing.T) {
			got := run(p, cat, 0, time.Second, time.Hour, 48*time.Hour)
			assert.Equal(t, []time.Duration{0}, got)
		})
	}
}

func TestPolicy_Throttle(t *testing.T) {
	p := defaultPolicy()
	for _, cat := range []types.Category{
		types.CategoryServerError, types.CategoryUnexpectedError, types.CategoryParserError,
	} {
		t.Run(string(cat), func(t *testing.T) {
			// bursts inside the window collapse into one
			assert.Equal(t, []time.Duration{0},
				run(p, cat, 0, time.Second, 2*time.Second, 9*time.Second))

			// spaced beyond the window each emit
			assert.Equal(t, []time.Duration{0, 11 * time.Second, 22 * time.Second},
				run(p, cat, 0, 11*time.Second, 22*time.Second))

			// the window restarts from the last emission, not the last event
			assert.Equal(t, []time.Duration{0, 10 * time.Second},
				run(p, cat, 0, 5*time.Second, 10*time.Second, 15*time.Second))
		})
	}
}

func TestPolicy_ClusterAPITimeoutThrottle(t *testing.T) {
	p := defaultPolicy()
	got := run(p, types.CategoryClusterAPITimeout,
		0, time.Minute, 14*time.Minute, 15*time.Minute, 16*time.Minute, 31*time.Minute)
	assert.Equal(t, []time.Duration{0, 15 * time.Minute, 31 * time.Minute}, got)
}

func TestPolicy_TimeoutAfterThreshold(t *testing.T) {
	p := defaultPolicy()

	// 1st and 2nd suppressed, 3rd shown, then throttled at 10s
	got := run(p, types.CategoryTimeout,
		0, time.Second, 2*time.Second, 3*time.Second, 13*time.Second)
	assert.Equal(t, []time.Duration{2 * time.Second, 13 * time.Second}, got)
}

func TestPolicy_TimeoutCountsEveryOccurrence(t *testing.T) {
	p := defaultPolicy()
	now := time.Unix(1_700_000_000, 0)

	d, st, reason := p.Evaluate(types.CategoryTimeout, now, State{})
	assert.Equal(t, Suppress, d)
	assert.Equal(t, ReasonBelowCount, reason)
	assert.Equal(t, 1, st.Occurrences)

	d, st, _ = p.Evaluate(types.CategoryTimeout, now, st)
	assert.Equal(t, Suppress, d)
	assert.Equal(t, 2, st.Occurrences)

	d, st, _ = p.Evaluate(types.CategoryTimeout, now, st)
	assert.Equal(t, Emit, d)
	assert.Equal(t, 3, st.Occurrences)
	assert.True(t, st.Fired)
	assert.Equal(t, now, st.LastFired)

	d, st, reason = p.Evaluate(types.CategoryTimeout, now.Add(time.Second), st)
	assert.Equal(t, Suppress, d)
	assert.Equal(t, ReasonThrottled, reason)
	assert.Equal(t, 4, st.Occurrences)
}

func TestPolicy_EvaluateIsPure(t *testing.T) {
	p := defaultPolicy()
	now := time.Unix(1_700_000_000, 0)
	in := State{}

	d1, out1, _ := p.Evaluate(types.CategoryServerError, now, in)
	d2, out2, _ := p.Evaluate(types.CategoryServerError, now, in)
	require.Equal(t, d1, d2)
	assert.Equal(t, out1, out2)
	assert.Equal(t, State{}, in)
}

func TestPolicy_UnknownCategory(t *testing.T) {
	d, _, reason := defaultPolicy().Evaluate("bogus", time.Now(), State{})
	assert.Equal(t, Suppress, d)
	assert.Equal(t, ReasonNoRule, reason)
}

func TestPolicy_CustomParameters(t *testing.T) {
	p := NewPolicy(config.PolicyConfig{
		ThrottleWindow:      time.Second,
		TimeoutThreshold:    1,
		ClusterAPIThreshold: time.Minute,
	})
	assert.Equal(t, []time.Duration{0, time.Second},
		run(p, types.CategoryTimeout, 0, 500*time.Millisecond, time.Second))
}

func TestPolicy_ClusterAPIWindowIndependentOfThreshold(t *testing.T) {
	p := NewPolicy(config.PolicyConfig{
		ThrottleWindow:      10 * time.Second,
		TimeoutThreshold:    3,
		ClusterAPIThreshold: 15 * time.Minute,
		ClusterAPIWindow:    time.Minute,
	})
	rule, ok := p.Rule(types.CategoryClusterAPITimeout)
	require.True(t, ok)
	assert.Equal(t, time.Minute, rule.Window)
	assert.Equal(t, []time.Duration{0, time.Minute},
		run(p, types.CategoryClusterAPITimeout, 0, 30*time.Second, time.Minute))

	// unset window falls back to the staleness threshold
	rule, _ = NewPolicy(config.PolicyConfig{ClusterAPIThreshold: 15 * time.Minute}).Rule(types.CategoryClusterAPITimeout)
	assert.Equal(t, 15*time.Minute, rule.Window)
}

func TestRuleKindAndDecisionStrings(t *testing.T) {
	assert.Equal(t, "throttle", RuleThrottle.String())
	assert.Equal(t, "once", RuleOnce.String())
	assert.Equal(t, "after", RuleAfter.String())
	assert.Equal(t, "emit", Emit.String())
	assert.Equal(t, "suppress", Suppress.String())
}
