// Package health implements the per-service health monitor (C4): one
// circuit breaker per configured service, concurrent time-bounded probing,
// and single-flight collapsing of overlapping checks.
package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"genforge/internal/resilience"
)

// Status is one service's health state.
type Status string

const (
	StatusOK           Status = "ok"
	StatusDegraded     Status = "degraded"
	StatusDown         Status = "down"
	StatusUnconfigured Status = "unconfigured"
)

// Overall summarizes every configured service.
type Overall string

const (
	OverallAllOK   Overall = "all_ok"
	OverallPartial Overall = "partial"
	OverallAllDown Overall = "all_down"
)

// ServiceHealth is one service's probe result.
type ServiceHealth struct {
	Status    Status
	LatencyMs int64
	LastCheck time.Time
	Error     string
}

// HealthStatus is the full mapping plus the computed overall, per spec.md §3.
type HealthStatus struct {
	Services map[string]ServiceHealth
	Overall  Overall
}

// Prober is a single service's health probe. It must honor ctx and return
// within the monitor's per-call timeout.
type Prober func(ctx context.Context) (ServiceHealth, error)

const probeTimeout = 10 * time.Second

// Monitor coordinates N named probes, each behind its own circuit breaker.
type Monitor struct {
	mu       sync.Mutex
	probes   map[string]Prober
	breakers map[string]*resilience.CircuitBreaker
	cached   *HealthStatus
	running  bool
	checks   uint64
}

// ServiceConfig names a probe and its breaker tuning.
type ServiceConfig struct {
	Name             string
	Probe            Prober
	FailureThreshold int
	ResetTimeout     time.Duration
}

// NewMonitor builds a monitor over the given services. A ServiceConfig with
// a nil Probe is treated as unconfigured.
func NewMonitor(services []ServiceConfig) *Monitor {
	m := &Monitor{
		probes:   make(map[string]Prober, len(services)),
		breakers: make(map[string]*resilience.CircuitBreaker, len(services)),
	}
	for _, svc := range services {
		if svc.Probe == nil {
			continue
		}
		m.probes[svc.Name] = svc.Probe
		threshold := svc.FailureThreshold
		if threshold < 1 {
			threshold = 3
		}
		reset := svc.ResetTimeout
		if reset <= 0 {
			reset = 30 * time.Second
		}
		m.breakers[svc.Name] = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: threshold,
			ResetTimeout:     reset,
		})
	}
	for _, svc := range services {
		if svc.Probe == nil {
			m.probes[svc.Name] = nil
		}
	}
	return m
}

// Check runs all configured probes concurrently, each wrapped by its
// breaker and bounded to probeTimeout. Overlapping invocations are
// collapsed: if a check is already in flight, Check returns the cached
// snapshot (or an all-down synthesized snapshot if none exists yet) without
// launching a second round of probes.
func (m *Monitor) Check(ctx context.Context) HealthStatus {
	m.mu.Lock()
	if m.running {
		cached := m.cached
		m.mu.Unlock()
		if cached != nil {
			return *cached
		}
		return synthesizeAllDown(m.probes)
	}
	m.running = true
	m.checks++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	services := make(map[string]ServiceHealth, len(m.probes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for name, probe := range m.probes {
		name, probe := name, probe
		g.Go(func() error {
			result := m.probeOne(gctx, name, probe)
			mu.Lock()
			services[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := HealthStatus{Services: services, Overall: computeOverall(services)}

	m.mu.Lock()
	m.cached = &status
	m.mu.Unlock()

	return status
}

func (m *Monitor) probeOne(ctx context.Context, name string, probe Prober) ServiceHealth {
	if probe == nil {
		return ServiceHealth{Status: StatusUnconfigured, LatencyMs: 0, LastCheck: time.Now()}
	}

	breaker := m.breakers[name]
	callCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var result ServiceHealth
	err := breaker.Execute(func() error {
		r, err := probe(callCtx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		if err == resilience.ErrCircuitOpen {
			return ServiceHealth{Status: StatusDown, LastCheck: time.Now(), Error: "circuit open"}
		}
		return ServiceHealth{Status: StatusDown, LastCheck: time.Now(), Error: err.Error()}
	}
	return result
}

func computeOverall(services map[string]ServiceHealth) Overall {
	configured := 0
	okCount := 0
	for _, s := range services {
		if s.Status == StatusUnconfigured {
			continue
		}
		configured++
		if s.Status == StatusOK {
			okCount++
		}
	}
	if configured == 0 {
		return OverallAllDown
	}
	if okCount == configured {
		return OverallAllOK
	}
	if okCount == 0 {
		return OverallAllDown
	}
	return OverallPartial
}

func synthesizeAllDown(probes map[string]Prober) HealthStatus {
	services := make(map[string]ServiceHealth, len(probes))
	for name, probe := range probes {
		if probe == nil {
			services[name] = ServiceHealth{Status: StatusUnconfigured, LastCheck: time.Now()}
			continue
		}
		services[name] = ServiceHealth{Status: StatusDown, LastCheck: time.Now(), Error: "check already in flight"}
	}
	return HealthStatus{Services: services, Overall: computeOverall(services)}
}

// CheckCount returns how many Check invocations actually ran probes.
func (m *Monitor) CheckCount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checks
}
