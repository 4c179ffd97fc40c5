package nudge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genforge/internal/agentcontext"
	"genforge/internal/health"
)

func TestEngineCooldownIsTimeSensitive(t *testing.T) {
	t.Parallel()

	var current time.Time
	calls := 0
	rule := Rule{
		ID:         "r1",
		CooldownMs: 1000,
		Predicate: func(ctx agentcontext.Snapshot, h health.HealthStatus) bool {
			calls++
			return true
		},
		Format: func(ctx agentcontext.Snapshot, h health.HealthStatus) string { return "hi" },
	}
	e := NewEngine([]Rule{rule})
	e.now = func() time.Time { return current }

	current = time.Unix(0, 0)
	msgs := e.Evaluate(agentcontext.Snapshot{}, health.HealthStatus{})
	require.Len(t, msgs, 1)

	current = current.Add(500 * time.Millisecond)
	msgs = e.Evaluate(agentcontext.Snapshot{}, health.HealthStatus{})
	assert.Len(t, msgs, 0, "within cooldown, rule is suppressed")

	current = current.Add(600 * time.Millisecond)
	msgs = e.Evaluate(agentcontext.Snapshot{}, health.HealthStatus{})
	assert.Len(t, msgs, 1, "cooldown elapsed, rule fires again")
}

func TestEngineDeclaredOrder(t *testing.T) {
	t.Parallel()

	always := func(ctx agentcontext.Snapshot, h health.HealthStatus) bool { return true }
	e := NewEngine([]Rule{
		{ID: "b", Predicate: always},
		{ID: "a", Predicate: always},
	})
	msgs := e.Evaluate(agentcontext.Snapshot{}, health.HealthStatus{})
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].RuleID)
	assert.Equal(t, "a", msgs[1].RuleID)
}

func TestDefaultRulesAllDown(t *testing.T) {
	t.Parallel()

	e := NewEngine(DefaultRules())
	msgs := e.Evaluate(agentcontext.Snapshot{}, health.HealthStatus{Overall: health.OverallAllDown})
	require.Len(t, msgs, 1)
	assert.Equal(t, "all-down", msgs[0].RuleID)
}
