// Package agentproxy implements the out-of-process agent runtime (C7) as a
// dedicated goroutine ("worker") reachable only through typed command/event
// channels, plus the parent-side Proxy handle. See SPEC_FULL.md's Process
// Model Note for why a goroutine is the idiomatic Go analogue of an
// isolated worker process here.
package agentproxy

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"genforge/internal/agentcontext"
	"genforge/internal/agentproto"
	"genforge/internal/health"
	"genforge/internal/nudge"
)

// Config tunes the worker's periodic timers.
type Config struct {
	HealthInterval time.Duration
	NudgeInterval  time.Duration
}

const (
	defaultHealthInterval = 60 * time.Second
	defaultNudgeInterval  = 30 * time.Second
)

// Worker owns the mutable HealthStatus cache, AgentContext, and NudgeEngine
// state exclusively; nothing outside its goroutine ever touches them
// directly.
type Worker struct {
	cfg     Config
	monitor *health.Monitor
	context *agentcontext.Registry
	nudges  *nudge.Engine

	commands chan agentproto.Command
	events   chan agentproto.Event

	cachedHealth health.HealthStatus

	healthTimer *time.Ticker
	nudgeTimer  *time.Ticker
}

// NewWorker builds a worker. commandBuffer/eventBuffer size the channels;
// 0 is treated as 16.
func NewWorker(cfg Config, monitor *health.Monitor, ctxReg *agentcontext.Registry, engine *nudge.Engine, commandBuffer, eventBuffer int) *Worker {
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = defaultHealthInterval
	}
	if cfg.NudgeInterval <= 0 {
		cfg.NudgeInterval = defaultNudgeInterval
	}
	if commandBuffer <= 0 {
		commandBuffer = 16
	}
	if eventBuffer <= 0 {
		eventBuffer = 16
	}
	return &Worker{
		cfg:      cfg,
		monitor:  monitor,
		context:  ctxReg,
		nudges:   engine,
		commands: make(chan agentproto.Command, commandBuffer),
		events:   make(chan agentproto.Event, eventBuffer),
	}
}

// Commands returns the channel the parent sends commands on.
func (w *Worker) Commands() chan<- agentproto.Command { return w.commands }

// Events returns the channel the parent receives events from.
func (w *Worker) Events() <-chan agentproto.Event { return w.events }

// Run is the worker goroutine's body. It emits ready, then processes
// commands and periodic timers in a single select loop (FIFO per spec.md
// §5) until shutdown or ctx cancellation, then emits shutdown_complete and
// returns.
func (w *Worker) Run(ctx context.Context) {
	w.emit(agentproto.Event{Type: agentproto.EventReady})

	w.healthTimer = time.NewTicker(w.cfg.HealthInterval)
	w.nudgeTimer = time.NewTicker(w.cfg.NudgeInterval)
	defer w.healthTimer.Stop()
	defer w.nudgeTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.emit(agentproto.Event{Type: agentproto.EventShutdownComplete})
			return

		case cmd := <-w.commands:
			if cmd.Validate() != nil {
				w.emit(agentproto.Event{Type: agentproto.EventError, Payload: cmd.Validate().Error()})
				continue
			}
			if w.handle(ctx, cmd) {
				w.emit(agentproto.Event{Type: agentproto.EventShutdownComplete})
				return
			}

		case <-w.healthTimer.C:
			w.runHealthCheck(ctx)
			w.evaluateNudges()

		case <-w.nudgeTimer.C:
			w.evaluateNudges()
		}
	}
}

// handle processes one validated command. It returns true when the worker
// should exit (a shutdown command was received).
func (w *Worker) handle(ctx context.Context, cmd agentproto.Command) bool {
	switch cmd.Type {
	case agentproto.CommandCheckHealth:
		w.runHealthCheck(ctx)

	case agentproto.CommandUpdateContext:
		partial := partialFromPayload(cmd.Payload)
		w.context.Update(partial)
		w.emit(agentproto.Event{Type: agentproto.EventContextSync, Payload: w.context.Get()})

	case agentproto.CommandGetStatus:
		w.emit(agentproto.Event{Type: agentproto.EventStatus, Payload: w.context.Get()})

	case agentproto.CommandConfigure:
		w.applyConfig(cmd.Payload)

	case agentproto.CommandShutdown:
		return true

	default:
		log.Warn().Str("type", string(cmd.Type)).Msg("agentproxy: unhandled command type")
	}
	return false
}

func (w *Worker) runHealthCheck(ctx context.Context) {
	status := w.monitor.Check(ctx)
	w.cachedHealth = status
	w.emit(agentproto.Event{Type: agentproto.EventHealthUpdate, Payload: status})
}

func (w *Worker) evaluateNudges() {
	msgs := w.nudges.Evaluate(w.context.Get(), w.cachedHealth)
	for _, m := range msgs {
		w.emit(agentproto.Event{Type: agentproto.EventNudge, Payload: m})
	}
}

// applyConfig retunes the worker's periodic timers. Per spec.md §4.9 the
// timers are driven by the current config, so a change here takes effect
// immediately rather than waiting for the next natural tick.
func (w *Worker) applyConfig(payload map[string]any) {
	if v, ok := payload["healthIntervalMs"].(float64); ok && v > 0 {
		w.cfg.HealthInterval = time.Duration(v) * time.Millisecond
		if w.healthTimer != nil {
			w.healthTimer.Reset(w.cfg.HealthInterval)
		}
	}
	if v, ok := payload["nudgeIntervalMs"].(float64); ok && v > 0 {
		w.cfg.NudgeInterval = time.Duration(v) * time.Millisecond
		if w.nudgeTimer != nil {
			w.nudgeTimer.Reset(w.cfg.NudgeInterval)
		}
	}
}

func (w *Worker) emit(ev agentproto.Event) {
	select {
	case w.events <- ev:
	default:
		log.Warn().Str("type", string(ev.Type)).Msg("agentproxy: event channel full, dropping event")
	}
}

func partialFromPayload(payload map[string]any) agentcontext.Partial {
	var p agentcontext.Partial
	if v, ok := payload["lastPrompt"].(string); ok {
		p.LastPrompt = &v
	}
	if v, ok := payload["lastRefinedPrompt"].(string); ok {
		p.LastRefinedPrompt = &v
	}
	if v, ok := payload["activeShotCount"].(float64); ok {
		iv := int(v)
		p.ActiveShotCount = &iv
	}
	if raw, ok := payload["devinSessionIds"].([]any); ok {
		ids := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		p.DevinSessionIDs = ids
	}
	return p
}
