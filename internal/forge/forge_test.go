package forge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genforge/internal/providers"
)

type stubImages struct {
	byModel map[providers.ImageModel]providers.ImageResponse
	errs    map[providers.ImageModel]error
	calls   map[providers.ImageModel]int
}

func newStubImages() *stubImages {
	return &stubImages{
		byModel: map[providers.ImageModel]providers.ImageResponse{},
		errs:    map[providers.ImageModel]error{},
		calls:   map[providers.ImageModel]int{},
	}
}

func (s *stubImages) GenerateImage(ctx context.Context, req providers.ImageRequest) (providers.ImageResponse, error) {
	s.calls[req.Model]++
	if err, ok := s.errs[req.Model]; ok {
		return providers.ImageResponse{}, err
	}
	if resp, ok := s.byModel[req.Model]; ok {
		return resp, nil
	}
	return providers.ImageResponse{Success: true, Images: []providers.Image{{Bytes: []byte("img"), MimeType: "image/png"}}}, nil
}

type stubVideos struct {
	resp providers.VideoResponse
	err  error
}

func (s stubVideos) GenerateVideoFromImage(ctx context.Context, bytes []byte, mimeType, prompt string, opts providers.VideoOptions, onProgress providers.ProgressCallback) (providers.VideoResponse, error) {
	return s.resp, s.err
}

func validRequest() Request {
	return Request{
		Prompt: "a cat in a hat",
		Style:  StyleIllustration,
	}
}

func newTestForge(t *testing.T, images providers.ImageProvider, videos providers.VideoProvider, cacheCapacity int) *Forge {
	t.Helper()
	f, err := New("test-api-key", images, videos, cacheCapacity)
	require.NoError(t, err)
	return f
}

func TestNewRejectsMissingAPIKey(t *testing.T) {
	t.Parallel()
	f, err := New("", newStubImages(), stubVideos{}, 10)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, providers.ErrMissingAPIKey)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()
	f := newTestForge(t, newStubImages(), stubVideos{}, 10)
	result := f.Generate(context.Background(), Request{Style: StyleIllustration})
	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, ErrEmptyPrompt.Error(), result.Error)
}

func TestGenerateCompletesAndCaches(t *testing.T) {
	t.Parallel()
	videos := stubVideos{resp: providers.VideoResponse{Status: providers.VideoCompleted, VideoURI: "uri://1"}}
	f := newTestForge(t, newStubImages(), videos, 10)

	req := validRequest()
	first := f.Generate(context.Background(), req)
	require.Equal(t, StatusCompleted, first.Status)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, f.CacheSize())

	second := f.Generate(context.Background(), req)
	assert.True(t, second.Cached)
	assert.Equal(t, StatusCompleted, second.Status)
}

func TestGenerateFallsBackToOtherModelOnPrimaryFailure(t *testing.T) {
	t.Parallel()
	images := newStubImages()
	images.errs[providers.ModelA] = errors.New("primary down")

	f := newTestForge(t, images, stubVideos{resp: providers.VideoResponse{Status: providers.VideoCompleted}}, 10)
	req := validRequest()
	req.ImageModel = providers.ModelA

	result := f.Generate(context.Background(), req)
	require.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, 1, images.calls[providers.ModelA])
	assert.Equal(t, 1, images.calls[providers.ModelB])
}

func TestGenerateFailsWhenBothModelsFail(t *testing.T) {
	t.Parallel()
	images := newStubImages()
	images.errs[providers.ModelA] = errors.New("down")
	images.errs[providers.ModelB] = errors.New("also down")

	f := newTestForge(t, images, stubVideos{}, 10)
	req := validRequest()
	req.ImageModel = providers.ModelA

	result := f.Generate(context.Background(), req)
	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Error, "fallback")
}

func TestGenerateSkipAnimationCompletesWithoutVideo(t *testing.T) {
	t.Parallel()
	f := newTestForge(t, newStubImages(), stubVideos{}, 10)
	req := validRequest()
	req.SkipAnimation = true

	result := f.Generate(context.Background(), req)
	require.Equal(t, StatusCompleted, result.Status)
	assert.Nil(t, result.Animation)
}

func TestGeneratePartialWhenVideoFails(t *testing.T) {
	t.Parallel()
	videos := stubVideos{resp: providers.VideoResponse{Status: providers.VideoFailed, Error: "render error"}}
	f := newTestForge(t, newStubImages(), videos, 10)

	result := f.Generate(context.Background(), validRequest())
	require.Equal(t, StatusPartial, result.Status)
	assert.NotNil(t, result.Illustration)
	assert.Nil(t, result.Animation)
	assert.Equal(t, 1, f.CacheSize(), "partial results are cached")
}

func TestGenerateFailedResultsAreNotCached(t *testing.T) {
	t.Parallel()
	f := newTestForge(t, newStubImages(), stubVideos{}, 10)
	f.Generate(context.Background(), Request{Style: StyleIllustration})
	assert.Equal(t, 0, f.CacheSize())
}

func TestClearCache(t *testing.T) {
	t.Parallel()
	f := newTestForge(t, newStubImages(), stubVideos{resp: providers.VideoResponse{Status: providers.VideoCompleted}}, 10)
	f.Generate(context.Background(), validRequest())
	require.Equal(t, 1, f.CacheSize())
	f.ClearCache()
	assert.Equal(t, 0, f.CacheSize())
}
