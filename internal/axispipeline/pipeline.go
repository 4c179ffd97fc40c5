package axispipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"genforge/internal/telemetry"
)

// ErrEmptyPrompt is returned when Request.Prompt is empty.
var ErrEmptyPrompt = errors.New("axispipeline: prompt must not be empty")

const pollInterval = 100 * time.Millisecond

func allAxes() []Axis { return []Axis{A1, A2, A3, A4, A5, A6, A7} }

func axisLabel(a Axis) string { return string(a) }

func groupOf(a Axis) Group {
	for g, axes := range groupAxes {
		for _, candidate := range axes {
			if candidate == a {
				return g
			}
		}
	}
	return ""
}

// Analyze validates req, then returns a channel of StreamEvents. The
// channel is the idiomatic Go analogue of the async generator in spec.md
// §9: a finite, non-restartable, single-pass pull sequence. The channel is
// closed after the single EventFinal event. Consumption is the caller's
// responsibility — events already sent before ctx is cancelled remain
// valid, per spec.md §5's cancellation contract.
func Analyze(ctx context.Context, req Request, analyzers Analyzers) (<-chan StreamEvent, error) {
	if req.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	requested := req.IncludeAxes
	if len(requested) == 0 {
		requested = allAxes()
	}

	out := make(chan StreamEvent, 8)
	go run(ctx, req, requested, analyzers, out)
	return out, nil
}

type groupOutcome struct {
	group   Group
	result  map[string]any
	err     error
}

func run(ctx context.Context, req Request, requested []Axis, analyzers Analyzers, out chan<- StreamEvent) {
	defer close(out)

	tracer := telemetry.Tracer(nil)
	ctx, span := tracer.Start(ctx, "axispipeline.analyze")
	defer span.End()

	started := time.Now()

	state := make(map[Axis]AxisProgress, len(requested))
	for _, a := range requested {
		state[a] = AxisProgress{ID: a, Label: axisLabel(a), Status: AxisPending}
	}
	emitProgress(out, state, 0)

	groupsInPlay := map[Group][]Axis{}
	for _, a := range requested {
		g := groupOf(a)
		groupsInPlay[g] = append(groupsInPlay[g], a)
	}

	results := make(chan groupOutcome, len(groupsInPlay))
	pending := 0

	for g, axes := range groupsInPlay {
		analyzer := analyzers.forGroup(g)
		if analyzer == nil {
			now := time.Now()
			for _, a := range axes {
				p := state[a]
				p.Status = AxisCompleted
				p.StartedAt = &now
				p.CompletedAt = &now
				p.DurationMs = 0
				state[a] = p
			}
			continue
		}

		now := time.Now()
		for _, a := range axes {
			p := state[a]
			p.Status = AxisRunning
			p.StartedAt = &now
			state[a] = p
			out <- StreamEvent{Type: EventAxisStart, Axes: copyState(state)}
		}

		pending++
		go func(g Group, axes []Axis, analyzer Analyzer) {
			raw, err := analyzer.Analyze(ctx, req)
			if err != nil {
				results <- groupOutcome{group: g, err: err}
				return
			}
			validated, verr := analyzer.Validate(raw)
			if verr != nil {
				results <- groupOutcome{group: g, err: verr}
				return
			}
			results <- groupOutcome{group: g, result: validated}
		}(g, axes, analyzer)
	}

	partial := make(map[string]any)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	settled := 0
	total := len(requested)

pollLoop:
	for pending > 0 {
		select {
		case <-ctx.Done():
			break pollLoop

		case outcome := <-results:
			pending--
			completedAt := time.Now()
			axes := groupsInPlay[outcome.group]

			if outcome.err != nil {
				for _, a := range axes {
					p := state[a]
					p.Status = AxisFailed
					p.CompletedAt = &completedAt
					if p.StartedAt != nil {
						p.DurationMs = completedAt.Sub(*p.StartedAt).Milliseconds()
					}
					p.Error = outcome.err.Error()
					state[a] = p
				}
				log.Debug().Str("group", string(outcome.group)).Err(outcome.err).Msg("axispipeline: group failed")
			} else {
				partial[string(outcome.group)] = outcome.result
				for _, a := range axes {
					p := state[a]
					p.Status = AxisCompleted
					p.CompletedAt = &completedAt
					if p.StartedAt != nil {
						p.DurationMs = completedAt.Sub(*p.StartedAt).Milliseconds()
					}
					state[a] = p
				}
			}

			settled = countSettled(state)
			out <- StreamEvent{Type: EventAxisComplete, Axes: copyState(state), PercentDone: percent(settled, total)}

		case <-ticker.C:
			settled = countSettled(state)
			emitProgress(out, state, percent(settled, total))
		}
	}

	confidence := computeConfidence(state, partial)
	final := &FinalResult{
		Partial:         partial,
		Confidence:      confidence,
		ProcessedAt:     time.Now(),
		TotalDurationMs: time.Since(started).Milliseconds(),
		AxisResults:     copyState(state),
	}
	out <- StreamEvent{Type: EventFinal, Axes: copyState(state), PercentDone: 100, Final: final}
}

func emitProgress(out chan<- StreamEvent, state map[Axis]AxisProgress, pct float64) {
	out <- StreamEvent{Type: EventProgress, Axes: copyState(state), PercentDone: pct}
}

func copyState(state map[Axis]AxisProgress) map[Axis]AxisProgress {
	out := make(map[Axis]AxisProgress, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

func countSettled(state map[Axis]AxisProgress) int {
	n := 0
	for _, p := range state {
		if p.Status == AxisCompleted || p.Status == AxisFailed {
			n++
		}
	}
	return n
}

func percent(settled, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(settled) / float64(total) * 100
}

func computeConfidence(state map[Axis]AxisProgress, partial map[string]any) Confidence {
	completed := 0
	for _, p := range state {
		if p.Status == AxisCompleted {
			completed++
		}
	}
	requested := len(state)

	coverage := 0.0
	if requested > 0 {
		coverage = float64(completed) / float64(requested) * 100
	}

	depth := 30.0
	switch {
	case completed >= 6:
		depth = 85
	case completed >= 3:
		depth = 60
	}

	_, hasGrok := partial[string(GroupGrok)]
	_, hasOpus := partial[string(GroupOpus)]
	coherence := 50.0
	if hasGrok && hasOpus {
		coherence = 80
	}

	_, hasEmotion := partial[string(GroupEmotion)]
	specificity := 65.0
	if hasEmotion {
		specificity = 85
	}

	total := 0.3*coverage + 0.3*depth + 0.2*coherence + 0.2*specificity

	return Confidence{
		Coverage:    coverage,
		Depth:       depth,
		Coherence:   coherence,
		Specificity: specificity,
		Total:       total,
	}
}

// StreamAxisAnalysis is the convenience callback API: it drains Analyze's
// event channel and returns only the terminal result.
func StreamAxisAnalysis(ctx context.Context, req Request, analyzers Analyzers, onEvent func(StreamEvent)) (*FinalResult, error) {
	events, err := Analyze(ctx, req, analyzers)
	if err != nil {
		return nil, err
	}

	var final *FinalResult
	for ev := range events {
		if onEvent != nil {
			onEvent(ev)
		}
		if ev.Type == EventFinal {
			final = ev.Final
		}
	}
	return final, nil
}
