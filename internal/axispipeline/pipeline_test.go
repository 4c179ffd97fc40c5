package axispipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnalyzer struct {
	result map[string]any
	err    error
}

func (s stubAnalyzer) Analyze(ctx context.Context, req Request) (map[string]any, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s stubAnalyzer) Validate(result map[string]any) (map[string]any, error) {
	return result, nil
}

func TestAnalyzeRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()
	_, err := Analyze(context.Background(), Request{}, Analyzers{})
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestAnalyzePartialFailureAggregatesCorrectly(t *testing.T) {
	t.Parallel()

	analyzers := Analyzers{
		Grok: stubAnalyzer{err: errors.New("grok down")},
		Opus: stubAnalyzer{result: map[string]any{"mood": "calm"}},
	}

	events, err := Analyze(context.Background(), Request{Prompt: "a cat"}, analyzers)
	require.NoError(t, err)

	var finalCount int
	var final *FinalResult
	for ev := range events {
		if ev.Type == EventFinal {
			finalCount++
			final = ev.Final
		}
	}

	require.Equal(t, 1, finalCount, "exactly one final event")
	require.NotNil(t, final)

	_, hasGrok := final.Partial[string(GroupGrok)]
	assert.False(t, hasGrok)
	_, hasOpus := final.Partial[string(GroupOpus)]
	assert.True(t, hasOpus)

	failedCount, completedCount := 0, 0
	for _, axis := range []Axis{A1, A2, A3} {
		if final.AxisResults[axis].Status == AxisFailed {
			failedCount++
		}
	}
	for _, axis := range []Axis{A4, A5, A6} {
		if final.AxisResults[axis].Status == AxisCompleted {
			completedCount++
		}
	}
	assert.Equal(t, 3, failedCount)
	assert.Equal(t, 3, completedCount)
}

func TestAnalyzeMissingAnalyzerSkipsAxesAsCompleted(t *testing.T) {
	t.Parallel()

	final, err := StreamAxisAnalysis(context.Background(), Request{Prompt: "p", IncludeAxes: []Axis{A7}}, Analyzers{}, nil)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, AxisCompleted, final.AxisResults[A7].Status)
	assert.Zero(t, final.AxisResults[A7].DurationMs)
}

func TestAnalyzeFinalIsLastEvent(t *testing.T) {
	t.Parallel()

	analyzers := Analyzers{
		Grok: stubAnalyzer{result: map[string]any{"x": 1}},
		Opus: stubAnalyzer{result: map[string]any{"y": 2}},
		Emotion: stubAnalyzer{result: map[string]any{"z": 3}},
	}
	events, err := Analyze(context.Background(), Request{Prompt: "p"}, analyzers)
	require.NoError(t, err)

	var saw []EventType
	for ev := range events {
		saw = append(saw, ev.Type)
	}
	require.NotEmpty(t, saw)
	assert.Equal(t, EventFinal, saw[len(saw)-1])
}
