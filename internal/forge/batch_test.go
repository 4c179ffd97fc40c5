package forge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genforge/internal/providers"
)

func TestExecuteBatchPreservesOrderWithMixedOutcomes(t *testing.T) {
	t.Parallel()

	images := newStubImages()
	f := newTestForge(t, images, stubVideos{resp: providers.VideoResponse{Status: providers.VideoCompleted}}, 10)

	requests := []Request{
		{Prompt: "one", Style: StyleIllustration},
		{Style: StyleIllustration}, // empty prompt -> failed
		{Prompt: "three", Style: StyleIllustration},
	}

	var progressed []BatchProgress
	result := f.ExecuteBatch(context.Background(), requests, 2, func(p BatchProgress) {
		progressed = append(progressed, p)
	})

	require.Len(t, result.Results, 3)
	assert.Equal(t, StatusCompleted, result.Results[0].Status)
	assert.Equal(t, StatusFailed, result.Results[1].Status)
	assert.Equal(t, StatusCompleted, result.Results[2].Status)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	assert.NotEmpty(t, progressed)
}

func TestExecuteBatchAbortedBeforeStartFailsEverything(t *testing.T) {
	t.Parallel()

	f := newTestForge(t, newStubImages(), stubVideos{resp: providers.VideoResponse{Status: providers.VideoCompleted}}, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	requests := []Request{
		{Prompt: "one", Style: StyleIllustration},
		{Prompt: "two", Style: StyleIllustration},
	}

	result := f.ExecuteBatch(ctx, requests, 1, nil)
	require.Len(t, result.Results, 2)
	for _, r := range result.Results {
		assert.Equal(t, StatusFailed, r.Status)
		assert.Equal(t, "cancelled", r.Error)
	}
	assert.Equal(t, 2, result.FailureCount)
}

func TestExecuteBatchDefaultsConcurrencyToOne(t *testing.T) {
	t.Parallel()

	f := newTestForge(t, newStubImages(), stubVideos{resp: providers.VideoResponse{Status: providers.VideoCompleted}}, 10)
	requests := []Request{
		{Prompt: "one", Style: StyleIllustration},
	}

	result := f.ExecuteBatch(context.Background(), requests, 0, nil)
	require.Len(t, result.Results, 1)
	assert.Equal(t, StatusCompleted, result.Results[0].Status)
}
