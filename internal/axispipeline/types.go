// Package axispipeline implements the streaming multi-axis analysis
// pipeline (C8): axes are grouped by analyzer, groups run concurrently, and
// progress/partial results stream out over an event channel while a single
// terminal event carries the aggregated result.
package axispipeline

import (
	"context"
	"time"
)

// Axis identifies one of the seven analysis dimensions.
type Axis string

const (
	A1 Axis = "A1"
	A2 Axis = "A2"
	A3 Axis = "A3"
	A4 Axis = "A4"
	A5 Axis = "A5"
	A6 Axis = "A6"
	A7 Axis = "A7"
)

// Group names the analyzer a set of axes belongs to.
type Group string

const (
	GroupGrok    Group = "grok"
	GroupOpus    Group = "opus"
	GroupEmotion Group = "emotion"
)

// groupAxes is the a-priori partition of axes into analyzer groups.
var groupAxes = map[Group][]Axis{
	GroupGrok:    {A1, A2, A3},
	GroupOpus:    {A4, A5, A6},
	GroupEmotion: {A7},
}

// AxisStatus is one axis's lifecycle state. It transitions
// pending -> running -> (completed | failed), monotonically.
type AxisStatus string

const (
	AxisPending   AxisStatus = "pending"
	AxisRunning   AxisStatus = "running"
	AxisCompleted AxisStatus = "completed"
	AxisFailed    AxisStatus = "failed"
)

// AxisProgress is one axis's current state, per spec.md §3.
type AxisProgress struct {
	ID          Axis
	Label       string
	Status      AxisStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	DurationMs  int64
	Error       string
}

// Request is the validated input to Analyze.
type Request struct {
	Prompt       string
	Language     string // "ja" | "en"
	IncludeAxes  []Axis // empty means all axes
}

// Analyzer produces a group-specific result for a request. result is
// expected to satisfy the group's schema (validated by Validate).
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (map[string]any, error)
	Validate(result map[string]any) (map[string]any, error)
}

// Analyzers injects one analyzer per group; a nil entry means the group has
// no available analyzer and is skipped, not failed.
type Analyzers struct {
	Grok    Analyzer
	Opus    Analyzer
	Emotion Analyzer
}

func (a Analyzers) forGroup(g Group) Analyzer {
	switch g {
	case GroupGrok:
		return a.Grok
	case GroupOpus:
		return a.Opus
	case GroupEmotion:
		return a.Emotion
	default:
		return nil
	}
}

// EventType discriminates StreamEvent.
type EventType string

const (
	EventAxisStart    EventType = "axis_start"
	EventAxisComplete EventType = "axis_complete"
	EventAxisError    EventType = "axis_error"
	EventProgress     EventType = "progress"
	EventFinal        EventType = "final"
)

// StreamEvent is one emitted event. Exactly one EventFinal event is emitted
// per run, and it is always last (spec.md §3).
type StreamEvent struct {
	Type        EventType
	Axes        map[Axis]AxisProgress
	PercentDone float64
	Final       *FinalResult
}

// Confidence is the computed confidence score breakdown.
type Confidence struct {
	Coverage    float64
	Depth       float64
	Coherence   float64
	Specificity float64
	Total       float64
}

// FinalResult is the terminal aggregated result.
type FinalResult struct {
	Partial          map[string]any
	Confidence       Confidence
	ProcessedAt      time.Time
	TotalDurationMs  int64
	AxisResults      map[Axis]AxisProgress
}
