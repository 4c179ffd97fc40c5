package nudge

import (
	"fmt"

	"genforge/internal/agentcontext"
	"genforge/internal/health"
)

const (
	longRunningSessionMs = 2 * 60 * 60 * 1000 // 2h
	slowResponseMs       = 5000
	staleIdleMs          = 10 * 60 * 1000 // 10m
)

// DefaultRules returns the five rules that ship with the core: prompt
// refine, vendor fallback, all-down, long-running session, and slow
// response, in this declared order.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:         "prompt-refine",
			Priority:   PriorityLow,
			CooldownMs: 5 * 60 * 1000,
			Category:   "prompt",
			Predicate: func(ctx agentcontext.Snapshot, h health.HealthStatus) bool {
				return ctx.PromptEditIdleMs >= staleIdleMs && ctx.LastPrompt != "" && ctx.LastRefinedPrompt == ""
			},
			Format: func(ctx agentcontext.Snapshot, h health.HealthStatus) string {
				return "Your prompt hasn't been refined in a while - consider running analysis on it."
			},
			Action: "refine_prompt",
		},
		{
			ID:         "vendor-fallback",
			Priority:   PriorityMedium,
			CooldownMs: 10 * 60 * 1000,
			Category:   "health",
			Predicate: func(ctx agentcontext.Snapshot, h health.HealthStatus) bool {
				return h.Overall == health.OverallPartial
			},
			Format: func(ctx agentcontext.Snapshot, h health.HealthStatus) string {
				return "One or more generation services is degraded; requests may fall back to a secondary model."
			},
			Action: "show_health_banner",
		},
		{
			ID:         "all-down",
			Priority:   PriorityHigh,
			CooldownMs: 60 * 1000,
			Category:   "health",
			Predicate: func(ctx agentcontext.Snapshot, h health.HealthStatus) bool {
				return h.Overall == health.OverallAllDown
			},
			Format: func(ctx agentcontext.Snapshot, h health.HealthStatus) string {
				return "All configured services are unreachable."
			},
			Action: "show_outage_banner",
		},
		{
			ID:         "long-running-session",
			Priority:   PriorityLow,
			CooldownMs: 30 * 60 * 1000,
			Category:   "session",
			Predicate: func(ctx agentcontext.Snapshot, h health.HealthStatus) bool {
				return len(ctx.DevinSessionIDs) > 0 && longRunningSessionCheck(ctx)
			},
			Format: func(ctx agentcontext.Snapshot, h health.HealthStatus) string {
				return fmt.Sprintf("This session has produced %d shots - consider wrapping up or saving progress.", ctx.ActiveShotCount)
			},
			Action: "suggest_wrap_up",
		},
		{
			ID:         "slow-response",
			Priority:   PriorityMedium,
			CooldownMs: 5 * 60 * 1000,
			Category:   "health",
			Predicate: func(ctx agentcontext.Snapshot, h health.HealthStatus) bool {
				for _, svc := range h.Services {
					if svc.Status == health.StatusOK && svc.LatencyMs >= slowResponseMs {
						return true
					}
				}
				return false
			},
			Format: func(ctx agentcontext.Snapshot, h health.HealthStatus) string {
				return "Generation requests are taking longer than usual."
			},
			Action: "show_latency_banner",
		},
	}
}

// longRunningSessionCheck centralizes the shot-count threshold so the
// predicate above stays readable.
func longRunningSessionCheck(ctx agentcontext.Snapshot) bool {
	const shotThreshold = 20
	return ctx.ActiveShotCount >= shotThreshold
}
