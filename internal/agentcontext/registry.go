// Package agentcontext holds the worker-owned AgentContext (C5): last
// prompt, last refined prompt, active shot count, a deduplicated session
// window, cached flags, and a derived idle duration.
package agentcontext

import (
	"time"

	"genforge/internal/resilience"
)

const (
	sessionWindowCapacity = 20
	sessionWindowTTL      = time.Hour
)

// Snapshot is the read-only view returned by Get.
type Snapshot struct {
	LastPrompt        string
	LastRefinedPrompt string
	ActiveShotCount   int
	DevinSessionIDs   []string
	CachedFlags       map[string]bool
	LastActivity      time.Time
	PromptEditIdleMs  int64
}

// Registry is the single-owner mutable AgentContext. It is mutated only by
// the worker goroutine via Update; Get returns an immutable snapshot safe to
// hand to readers.
type Registry struct {
	lastPrompt        string
	lastRefinedPrompt string
	activeShotCount   int
	cachedFlags       map[string]bool
	lastActivity      time.Time
	lastPromptAt      time.Time
	sessionWindow     *resilience.SlidingWindow[string, string]
	now               func() time.Time
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{
		cachedFlags: make(map[string]bool),
		sessionWindow: resilience.NewSlidingWindow[string, string](resilience.SlidingWindowConfig{
			MaxEntries: sessionWindowCapacity,
			MaxAge:     sessionWindowTTL,
		}),
		now: time.Now,
	}
}

// Partial is a merge-by-field update, per spec.md §9's "record/map
// interchange" guidance: only non-nil/non-zero fields are considered
// present and are merged in, never a full overwrite.
type Partial struct {
	LastPrompt        *string
	LastRefinedPrompt *string
	ActiveShotCount   *int
	DevinSessionIDs   []string
	CachedFlags       map[string]bool
}

// Update merges partial into the context. Session ids are deduplicated
// through the session window (never by overwrite); setting either prompt
// field records the current time as the last prompt timestamp, which
// PromptEditIdleMs is derived from on read.
func (r *Registry) Update(partial Partial) {
	if partial.LastPrompt != nil {
		r.lastPrompt = *partial.LastPrompt
		r.lastPromptAt = r.now()
	}
	if partial.LastRefinedPrompt != nil {
		r.lastRefinedPrompt = *partial.LastRefinedPrompt
		r.lastPromptAt = r.now()
	}
	if partial.ActiveShotCount != nil {
		r.activeShotCount = *partial.ActiveShotCount
	}
	for _, id := range partial.DevinSessionIDs {
		r.sessionWindow.Add(id, id)
	}
	for k, v := range partial.CachedFlags {
		r.cachedFlags[k] = v
	}
	r.lastActivity = r.now()
}

// Get returns a snapshot of the current context. promptEditIdleMs is 0 if no
// prompt field has ever been set.
func (r *Registry) Get() Snapshot {
	var idleMs int64
	if !r.lastPromptAt.IsZero() {
		idleMs = r.now().Sub(r.lastPromptAt).Milliseconds()
	}

	flags := make(map[string]bool, len(r.cachedFlags))
	for k, v := range r.cachedFlags {
		flags[k] = v
	}

	return Snapshot{
		LastPrompt:        r.lastPrompt,
		LastRefinedPrompt: r.lastRefinedPrompt,
		ActiveShotCount:   r.activeShotCount,
		DevinSessionIDs:   r.sessionWindow.GetKeys(),
		CachedFlags:       flags,
		LastActivity:      r.lastActivity,
		PromptEditIdleMs:  idleMs,
	}
}
