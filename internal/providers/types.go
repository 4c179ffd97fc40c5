// Package providers declares the thin external-interface adapters (C12)
// the core consumes: image, video, and vision. Concrete vendor protocol
// details are out of scope (spec.md §1); only the contract shape lives
// here, plus one reference net/http client per provider that wraps its own
// transport calls in retryx.WithRetry. The reference clients do not wrap
// their calls in a circuit breaker.
package providers

import (
	"context"
	"errors"
)

// ErrMissingAPIKey is returned when an adapter (or the forge that wires it)
// is constructed without the API key spec.md §6 marks mandatory.
var ErrMissingAPIKey = errors.New("providers: API key is required")

// ImageModel is one of the two allowed image-generation models.
type ImageModel string

const (
	ModelA ImageModel = "model_A"
	ModelB ImageModel = "model_B"
)

// Other returns the fallback model: the one of the pair that isn't m.
func (m ImageModel) Other() ImageModel {
	if m == ModelA {
		return ModelB
	}
	return ModelA
}

// VideoModel names a video-generation model variant.
type VideoModel string

const (
	VideoModelStandard VideoModel = "standard"
	VideoModelHD       VideoModel = "hd"
)

// AspectRatio is a closed enumeration recognized by the image provider.
type AspectRatio string

const (
	Ratio1x1   AspectRatio = "1:1"
	Ratio16x9  AspectRatio = "16:9"
	Ratio9x16  AspectRatio = "9:16"
	Ratio4x3   AspectRatio = "4:3"
	Ratio3x4   AspectRatio = "3:4"
)

// Image is one generated image, base64-decoded bytes plus its MIME type.
type Image struct {
	Bytes    []byte
	MimeType string
}

// ImageRequest is the input to the image provider contract.
type ImageRequest struct {
	Prompt         string
	Model          ImageModel
	AspectRatio    AspectRatio
	NegativePrompt string
}

// ImageResponse is the output of the image provider contract.
type ImageResponse struct {
	Success bool
	Images  []Image
	Error   string
}

// ImageProvider generates still images from a prompt.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error)
}

// ReferenceImageType discriminates a video reference image's role.
type ReferenceImageType string

const (
	ReferenceAsset   ReferenceImageType = "asset"
	ReferenceStyle   ReferenceImageType = "style"
	ReferenceSubject ReferenceImageType = "subject"
)

// ReferenceImage is an auxiliary image supplied to the video provider.
type ReferenceImage struct {
	Type  ReferenceImageType
	Image Image
}

// VideoOptions configures a video generation call.
type VideoOptions struct {
	Model           VideoModel
	AspectRatio     AspectRatio // 16:9 | 9:16 only
	NegativePrompt  string
	ReferenceImages []ReferenceImage
}

// VideoStatus discriminates the video provider's outcome.
type VideoStatus string

const (
	VideoCompleted VideoStatus = "completed"
	VideoFailed    VideoStatus = "failed"
)

// VideoResponse is the output of the video provider contract.
type VideoResponse struct {
	Status   VideoStatus
	VideoURI string
	Error    string
}

// ProgressCallback reports a human-readable status update during video
// generation.
type ProgressCallback func(status VideoStatus, message string)

// VideoProvider animates a still image from a prompt.
type VideoProvider interface {
	GenerateVideoFromImage(ctx context.Context, bytes []byte, mimeType, prompt string, opts VideoOptions, onProgress ProgressCallback) (VideoResponse, error)
}

// Video is the result artifact stored alongside a generation result.
type Video struct {
	URI string
}

// VisionAnalyzer returns free-form text expected to parse as JSON; callers
// must tolerate malformed JSON (spec.md §7, SchemaMismatch).
type VisionAnalyzer interface {
	Analyze(ctx context.Context, base64Bytes []byte, mimeType, prompt string) (string, error)
}
