// Package forge implements the content-addressed generation forge (C9):
// prompt -> illustration -> animation, with two-model fallback, result
// caching keyed on a request fingerprint, and bounded-parallelism batch
// execution.
package forge

import (
	"genforge/internal/providers"
)

// Style is a closed enumeration of canonical prompt directives.
type Style string

const (
	StyleIllustration   Style = "illustration"
	StyleWatercolor     Style = "watercolor"
	StyleAnime          Style = "anime"
	StylePhotorealistic Style = "photorealistic"
	StyleFlatDesign     Style = "flat_design"
	StyleCustom         Style = "custom"
)

var styleDirectives = map[Style]string{
	StyleIllustration:   "A detailed digital illustration",
	StyleWatercolor:     "A soft watercolor painting",
	StyleAnime:          "An anime-style illustration",
	StylePhotorealistic: "A photorealistic rendering",
	StyleFlatDesign:     "A flat design illustration with clean geometric shapes",
	StyleCustom:         "",
}

// Request is the validated input to Generate.
type Request struct {
	Prompt         string
	Style          Style
	AspectRatio    providers.AspectRatio
	Resolution     string
	ImageModel     providers.ImageModel
	VideoModel     providers.VideoModel
	NegativePrompt string
	SkipAnimation  bool
	StyleOverride  string
}

// GenerationStatus discriminates the outcome of a Generate call.
type GenerationStatus string

const (
	StatusCompleted GenerationStatus = "completed"
	StatusPartial   GenerationStatus = "partial"
	StatusFailed    GenerationStatus = "failed"
)

// Result is the outcome envelope, per spec.md §3.
type Result struct {
	Status       GenerationStatus
	Illustration *providers.Image
	Animation    *providers.Video
	FinalPrompt  string
	Cached       bool
	DurationMs   int64
	Error        string
}

// Fingerprint is the deterministic cache key derived from a Request's
// cache-relevant fields, per spec.md §3. Field order is fixed so equal
// inputs always hash identically regardless of how the caller built the
// Request.
type Fingerprint string

// DraftConfig and ProductionConfig are frozen (imageModel, videoModel,
// resolution) tuples per spec.md §4.11.
type preset struct {
	ImageModel providers.ImageModel
	VideoModel providers.VideoModel
	Resolution string
}

var DraftConfig = preset{
	ImageModel: providers.ModelA,
	VideoModel: providers.VideoModelStandard,
	Resolution: "720p",
}

var ProductionConfig = preset{
	ImageModel: providers.ModelB,
	VideoModel: providers.VideoModelHD,
	Resolution: "1080p",
}

// BatchProgress reports progress during batch execution.
type BatchProgress struct {
	Index   int
	Total   int
	Step    string
	Message string
}

// BatchResult is the aggregated outcome of ExecuteBatch.
type BatchResult struct {
	Results         []Result
	SuccessCount    int
	PartialCount    int
	FailureCount    int
	TotalDurationMs int64
}
