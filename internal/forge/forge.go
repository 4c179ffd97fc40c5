package forge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"genforge/internal/providers"
	"genforge/internal/resilience"
	"genforge/internal/telemetry"
)

// ErrEmptyPrompt is returned when Request.Prompt is empty after validation.
var ErrEmptyPrompt = errors.New("forge: prompt must not be empty")

// ErrUnrecognizedStyle is returned for a style outside the closed
// enumeration.
var ErrUnrecognizedStyle = errors.New("forge: unrecognized style")

const defaultCacheCapacity = 50

// resultCache is the contract Forge needs of a result cache. The default
// implementation is resilience.LRU[Fingerprint, Result]; the enterprise
// build tag adds a Redis-backed cache satisfying the same shape (see
// cache_redis.go) for cross-instance sharing, which a caller passes in
// through NewWithCache. New always uses the in-process LRU.
type resultCache interface {
	Get(Fingerprint) (Result, bool)
	Set(Fingerprint, Result)
	Size() int
	Clear()
}

// Forge owns the result cache and the wired providers, per spec.md §4.11's
// single-owner model.
type Forge struct {
	images providers.ImageProvider
	videos providers.VideoProvider

	cache resultCache
}

// New builds a Forge with the default in-process LRU result cache.
// cacheCapacity <= 0 falls back to the default capacity. apiKey is the
// mandatory adapter credential (spec.md §6); constructing a Forge without
// one is a synchronous construction error (spec.md §7/§8), returned as
// providers.ErrMissingAPIKey.
func New(apiKey string, images providers.ImageProvider, videos providers.VideoProvider, cacheCapacity int) (*Forge, error) {
	if apiKey == "" {
		return nil, providers.ErrMissingAPIKey
	}
	if cacheCapacity <= 0 {
		cacheCapacity = defaultCacheCapacity
	}
	cache, err := resilience.NewLRU[Fingerprint, Result](cacheCapacity)
	if err != nil {
		// cacheCapacity is always >= 1 here by construction above.
		panic(err)
	}
	return &Forge{
		images: images,
		videos: videos,
		cache:  cache,
	}, nil
}

// NewWithCache builds a Forge using a caller-supplied cache implementation,
// e.g. a RedisResultCache for cross-instance sharing. apiKey is subject to
// the same construction-time check as New.
func NewWithCache(apiKey string, images providers.ImageProvider, videos providers.VideoProvider, cache resultCache) (*Forge, error) {
	if apiKey == "" {
		return nil, providers.ErrMissingAPIKey
	}
	return &Forge{images: images, videos: videos, cache: cache}, nil
}

func validateStyle(s Style) error {
	if _, ok := styleDirectives[s]; !ok {
		return ErrUnrecognizedStyle
	}
	return nil
}

func buildPrompt(req Request) string {
	parts := make([]string, 0, 3)
	if directive := styleDirectives[req.Style]; directive != "" {
		parts = append(parts, directive)
	}
	if req.StyleOverride != "" {
		parts = append(parts, req.StyleOverride)
	}
	parts = append(parts, req.Prompt)
	return strings.Join(parts, ". ")
}

// fingerprint derives the cache key from the request's cache-relevant
// fields, in a fixed field order so equal inputs hash identically.
func fingerprint(req Request) Fingerprint {
	var b strings.Builder
	fmt.Fprintf(&b, "prompt=%s|style=%s|override=%s|aspect=%s|res=%s|img=%s|vid=%s|neg=%s|skipanim=%t",
		req.Prompt, req.Style, req.StyleOverride, req.AspectRatio, req.Resolution,
		req.ImageModel, req.VideoModel, req.NegativePrompt, req.SkipAnimation)
	return Fingerprint(b.String())
}

// Generate runs the single-request flow of spec.md §4.11.
func (f *Forge) Generate(ctx context.Context, req Request) Result {
	started := time.Now()

	tracer := telemetry.Tracer(nil)
	ctx, span := tracer.Start(ctx, "forge.generate")
	defer span.End()

	if req.Prompt == "" {
		return failedResult(ErrEmptyPrompt.Error(), started)
	}
	if err := validateStyle(req.Style); err != nil {
		return failedResult(err.Error(), started)
	}

	if err := ctx.Err(); err != nil {
		return failedResult("cancelled", started)
	}

	fp := fingerprint(req)
	if cached, ok := f.cache.Get(fp); ok {
		cached.Cached = true
		cached.DurationMs = time.Since(started).Milliseconds()
		return cached
	}

	finalPrompt := buildPrompt(req)

	image, err := f.generateImageWithFallback(ctx, req, finalPrompt)
	if err != nil {
		return failedResult(err.Error(), started)
	}

	if req.SkipAnimation {
		result := Result{
			Status:       StatusCompleted,
			Illustration: image,
			FinalPrompt:  finalPrompt,
			DurationMs:   time.Since(started).Milliseconds(),
		}
		f.cache.Set(fp, result)
		return result
	}

	if err := ctx.Err(); err != nil {
		return Result{
			Status:       StatusPartial,
			Illustration: image,
			FinalPrompt:  finalPrompt,
			DurationMs:   time.Since(started).Milliseconds(),
			Error:        "cancelled",
		}
	}

	videoResp, err := f.videos.GenerateVideoFromImage(ctx, image.Bytes, image.MimeType, finalPrompt, providers.VideoOptions{
		Model:          req.VideoModel,
		AspectRatio:    req.AspectRatio,
		NegativePrompt: req.NegativePrompt,
	}, nil)

	if err != nil || videoResp.Status == providers.VideoFailed {
		msg := ""
		if err != nil {
			msg = err.Error()
		} else {
			msg = videoResp.Error
		}
		result := Result{
			Status:       StatusPartial,
			Illustration: image,
			FinalPrompt:  finalPrompt,
			DurationMs:   time.Since(started).Milliseconds(),
			Error:        msg,
		}
		f.cache.Set(fp, result)
		return result
	}

	result := Result{
		Status:       StatusCompleted,
		Illustration: image,
		Animation:    &providers.Video{URI: videoResp.VideoURI},
		FinalPrompt:  finalPrompt,
		DurationMs:   time.Since(started).Milliseconds(),
	}
	f.cache.Set(fp, result)
	return result
}

// generateImageWithFallback invokes the primary model, and on failure swaps
// to the other allowed model once, per spec.md §4.11 step 5.
func (f *Forge) generateImageWithFallback(ctx context.Context, req Request, finalPrompt string) (*providers.Image, error) {
	primary := req.ImageModel
	if primary == "" {
		primary = providers.ModelA
	}

	img, err := f.tryImage(ctx, primary, req, finalPrompt)
	if err == nil {
		return img, nil
	}
	log.Debug().Str("model", string(primary)).Err(err).Msg("forge: primary image model failed, trying fallback")

	fallback := primary.Other()
	img, ferr := f.tryImage(ctx, fallback, req, finalPrompt)
	if ferr != nil {
		return nil, fmt.Errorf("forge: image generation failed after fallback: %w", ferr)
	}
	return img, nil
}

func (f *Forge) tryImage(ctx context.Context, model providers.ImageModel, req Request, finalPrompt string) (*providers.Image, error) {
	resp, err := f.images.GenerateImage(ctx, providers.ImageRequest{
		Prompt:         finalPrompt,
		Model:          model,
		AspectRatio:    req.AspectRatio,
		NegativePrompt: req.NegativePrompt,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success || len(resp.Images) == 0 {
		if resp.Error != "" {
			return nil, errors.New(resp.Error)
		}
		return nil, errors.New("no images returned")
	}
	img := resp.Images[0]
	return &img, nil
}

func failedResult(msg string, started time.Time) Result {
	return Result{
		Status:     StatusFailed,
		Error:      msg,
		DurationMs: time.Since(started).Milliseconds(),
	}
}

// CacheSize reports the number of entries currently cached.
func (f *Forge) CacheSize() int { return f.cache.Size() }

// ClearCache empties the result cache.
func (f *Forge) ClearCache() { f.cache.Clear() }
