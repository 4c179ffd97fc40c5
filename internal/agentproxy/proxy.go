package agentproxy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"genforge/internal/agentcontext"
	"genforge/internal/agentproto"
	"genforge/internal/health"
)

// ErrGetHealthTimeout is returned by GetHealth when no health_update arrives
// within its deadline.
var ErrGetHealthTimeout = errors.New("agentproxy: get health timed out")

// ErrGetStatusTimeout is returned by GetStatus when no status event arrives
// within its deadline.
var ErrGetStatusTimeout = errors.New("agentproxy: get status timed out")

const (
	getHealthTimeout = 15 * time.Second
	getStatusTimeout = 5 * time.Second

	maxRestarts = 3
)

var restartBackoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// WorkerFactory builds a fresh Worker for (re)start. The proxy never shares
// worker state across restarts — each restart gets its own monitor/context/
// nudge-engine instances, matching spec.md's "no shared mutable state
// crosses the boundary" even across a crash/restart cycle.
type WorkerFactory func() *Worker

// Proxy is the single parent-side handle onto one worker instance. It is a
// process-scoped handle with explicit Start/Stop rather than a global
// singleton (spec.md §9's re-architecture guidance), though applications
// that want one process-wide instance can hold a single Proxy value however
// they like.
type Proxy struct {
	mu sync.Mutex

	factory WorkerFactory
	worker  *Worker
	cancel  context.CancelFunc

	lastHealth  health.HealthStatus
	lastContext agentcontext.Snapshot

	restartCount int
	shuttingDown bool

	subscribers []chan agentproto.Event
}

// NewProxy builds a proxy around the given worker factory.
func NewProxy(factory WorkerFactory) *Proxy {
	return &Proxy{factory: factory}
}

// Start launches the worker and begins supervising it for abnormal exit.
func (p *Proxy) Start(ctx context.Context) {
	p.mu.Lock()
	p.shuttingDown = false
	p.mu.Unlock()
	p.spawn(ctx)
}

func (p *Proxy) spawn(parentCtx context.Context) {
	runCtx, cancel := context.WithCancel(parentCtx)

	p.mu.Lock()
	w := p.factory()
	p.worker = w
	p.cancel = cancel
	p.mu.Unlock()

	go p.pump(w)
	go func() {
		w.Run(runCtx)
		p.onExit(parentCtx)
	}()
}

// pump republishes every event from the worker to subscribers and updates
// the proxy's last-seen snapshots.
func (p *Proxy) pump(w *Worker) {
	for ev := range w.Events() {
		p.mu.Lock()
		switch ev.Type {
		case agentproto.EventReady:
			p.restartCount = 0
		case agentproto.EventHealthUpdate:
			if hs, ok := ev.Payload.(health.HealthStatus); ok {
				p.lastHealth = hs
			}
		case agentproto.EventContextSync, agentproto.EventStatus:
			if snap, ok := ev.Payload.(agentcontext.Snapshot); ok {
				p.lastContext = snap
			}
		}
		subs := append([]chan agentproto.Event(nil), p.subscribers...)
		p.mu.Unlock()

		for _, sub := range subs {
			select {
			case sub <- ev:
			default:
			}
		}

		if ev.Type == agentproto.EventShutdownComplete {
			return
		}
	}
}

// onExit runs after the worker goroutine returns. A clean shutdown (we
// requested it) never restarts. An abnormal exit restarts up to maxRestarts
// times with exponential backoff, unless restarts are already exhausted.
func (p *Proxy) onExit(parentCtx context.Context) {
	p.mu.Lock()
	shuttingDown := p.shuttingDown
	p.mu.Unlock()
	if shuttingDown {
		return
	}

	p.mu.Lock()
	attempt := p.restartCount
	p.mu.Unlock()

	if attempt >= maxRestarts {
		log.Error().Int("attempts", attempt).Msg("agentproxy: worker crashed, restart budget exhausted")
		p.mu.Lock()
		subs := append([]chan agentproto.Event(nil), p.subscribers...)
		p.mu.Unlock()
		for _, sub := range subs {
			select {
			case sub <- agentproto.Event{Type: agentproto.EventError, Payload: "restart budget exhausted"}:
			default:
			}
		}
		return
	}

	backoff := restartBackoffs[attempt]
	p.mu.Lock()
	p.restartCount++
	p.mu.Unlock()

	log.Warn().Dur("backoff", backoff).Int("attempt", attempt+1).Msg("agentproxy: worker exited abnormally, restarting")
	time.Sleep(backoff)
	p.spawn(parentCtx)
}

// Stop requests a graceful shutdown and waits for it to complete or ctx to
// expire.
func (p *Proxy) Stop(ctx context.Context) error {
	p.mu.Lock()
	p.shuttingDown = true
	w := p.worker
	p.mu.Unlock()

	if w == nil {
		return nil
	}

	sub := p.Subscribe(4)
	defer p.Unsubscribe(sub)

	select {
	case w.Commands() <- agentproto.Command{Type: agentproto.CommandShutdown}:
	case <-ctx.Done():
		return ctx.Err()
	}

	for {
		select {
		case ev := <-sub:
			if ev.Type == agentproto.EventShutdownComplete {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Subscribe returns a channel that receives the worker's events, republished
// in order. Delivery does not block: an event that arrives while the
// channel's buffer is full is dropped for that subscriber.
func (p *Proxy) Subscribe(buffer int) chan agentproto.Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan agentproto.Event, buffer)
	p.mu.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.mu.Unlock()
	return ch
}

// Unsubscribe removes a previously-subscribed channel.
func (p *Proxy) Unsubscribe(ch chan agentproto.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, sub := range p.subscribers {
		if sub == ch {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

// GetHealth always issues check_health and resolves on the next
// health_update, or ErrGetHealthTimeout after 15s.
func (p *Proxy) GetHealth(ctx context.Context) (health.HealthStatus, error) {
	p.mu.Lock()
	w := p.worker
	p.mu.Unlock()
	if w == nil {
		return health.HealthStatus{}, ErrGetHealthTimeout
	}

	sub := p.Subscribe(4)
	defer p.Unsubscribe(sub)

	deadline, cancel := context.WithTimeout(ctx, getHealthTimeout)
	defer cancel()

	select {
	case w.Commands() <- agentproto.Command{Type: agentproto.CommandCheckHealth}:
	case <-deadline.Done():
		return health.HealthStatus{}, ErrGetHealthTimeout
	}

	for {
		select {
		case ev := <-sub:
			if ev.Type == agentproto.EventHealthUpdate {
				if hs, ok := ev.Payload.(health.HealthStatus); ok {
					return hs, nil
				}
			}
		case <-deadline.Done():
			return health.HealthStatus{}, ErrGetHealthTimeout
		}
	}
}

// GetStatus resolves on the next status event, or ErrGetStatusTimeout after
// 5s.
func (p *Proxy) GetStatus(ctx context.Context) (agentcontext.Snapshot, error) {
	p.mu.Lock()
	w := p.worker
	p.mu.Unlock()
	if w == nil {
		return agentcontext.Snapshot{}, ErrGetStatusTimeout
	}

	sub := p.Subscribe(4)
	defer p.Unsubscribe(sub)

	deadline, cancel := context.WithTimeout(ctx, getStatusTimeout)
	defer cancel()

	select {
	case w.Commands() <- agentproto.Command{Type: agentproto.CommandGetStatus}:
	case <-deadline.Done():
		return agentcontext.Snapshot{}, ErrGetStatusTimeout
	}

	for {
		select {
		case ev := <-sub:
			if ev.Type == agentproto.EventStatus {
				if snap, ok := ev.Payload.(agentcontext.Snapshot); ok {
					return snap, nil
				}
			}
		case <-deadline.Done():
			return agentcontext.Snapshot{}, ErrGetStatusTimeout
		}
	}
}

// LastHealth returns the last-observed health snapshot without issuing a
// new check.
func (p *Proxy) LastHealth() health.HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastHealth
}

// LastContext returns the last-observed context snapshot without issuing a
// new query.
func (p *Proxy) LastContext() agentcontext.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastContext
}

// SendUpdateContext is a convenience wrapper that sends an update_context
// command built from a nudge-engine-free partial payload.
func (p *Proxy) SendUpdateContext(ctx context.Context, payload map[string]any) error {
	p.mu.Lock()
	w := p.worker
	p.mu.Unlock()
	if w == nil {
		return errors.New("agentproxy: no running worker")
	}
	select {
	case w.Commands() <- agentproto.Command{Type: agentproto.CommandUpdateContext, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
