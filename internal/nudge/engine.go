// Package nudge implements the declarative rule engine (C6): per-rule
// cooldowns over a bounded LRU, evaluated in declared order.
package nudge

import (
	"time"

	"genforge/internal/agentcontext"
	"genforge/internal/health"
	"genforge/internal/resilience"
)

// Priority orders a nudge's importance for callers that want to sort.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const lastSentCapacity = 100

// Rule is a declarative nudge definition, per spec.md §3.
type Rule struct {
	ID         string
	Priority   Priority
	CooldownMs int64
	Category   string
	Predicate  func(ctx agentcontext.Snapshot, h health.HealthStatus) bool
	Format     func(ctx agentcontext.Snapshot, h health.HealthStatus) string
	Action     string
}

// Message is what the engine emits when a rule's predicate holds and its
// cooldown has elapsed.
type Message struct {
	RuleID   string
	Priority Priority
	Category string
	Text     string
	Action   string
	SentAt   time.Time
}

// Engine evaluates a fixed, pluggable list of rules against the current
// context and health snapshot.
type Engine struct {
	rules    []Rule
	lastSent *resilience.LRU[string, time.Time]
	counter  uint64
	now      func() time.Time
}

// NewEngine builds an engine over rules, evaluated in the given order.
func NewEngine(rules []Rule) *Engine {
	lru, _ := resilience.NewLRU[string, time.Time](lastSentCapacity) // capacity is a fixed positive constant
	return &Engine{rules: rules, lastSent: lru, now: time.Now}
}

// Evaluate tests every rule's predicate in declared order, keeps only those
// whose predicate holds and whose per-rule cooldown has elapsed (a rule
// never sent before always qualifies), marks every included rule as sent
// now, and returns the included messages in declarative order.
func (e *Engine) Evaluate(ctx agentcontext.Snapshot, h health.HealthStatus) []Message {
	now := e.now()
	var out []Message

	for _, r := range e.rules {
		if r.Predicate == nil || !r.Predicate(ctx, h) {
			continue
		}

		if last, ok := e.lastSent.Get(r.ID); ok {
			if now.Sub(last).Milliseconds() < r.CooldownMs {
				continue
			}
		}

		text := ""
		if r.Format != nil {
			text = r.Format(ctx, h)
		}
		out = append(out, Message{
			RuleID:   r.ID,
			Priority: r.Priority,
			Category: r.Category,
			Text:     text,
			Action:   r.Action,
			SentAt:   now,
		})
		e.lastSent.Set(r.ID, now)
		e.counter++
	}

	return out
}

// NudgeCount returns how many nudges have been emitted in total.
func (e *Engine) NudgeCount() uint64 {
	return e.counter
}
