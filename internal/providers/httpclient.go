package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"genforge/internal/retryx"
)

// defaultMetrics is the process-wide registry every reference provider
// records its latency and outcome into, per spec.md §4.14's note that each
// adapter owns its own retry/backoff and the metrics that observe it.
var defaultMetrics = retryx.NewMetricsRegistry(200, 5*time.Minute)

// Metrics returns the process-wide registry populated by the reference HTTP
// providers. Exposed so a caller (e.g. a CLI metrics command) can snapshot
// it without reaching into provider internals.
func Metrics() *retryx.MetricsRegistry {
	return defaultMetrics
}

func defaultRetryOptions() retryx.Options {
	return retryx.Options{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// HTTPImageProvider is a reference ImageProvider backed by a JSON-over-HTTP
// endpoint: build request, POST, check status, decode response. Every
// request carries the configured API key as a bearer token.
type HTTPImageProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	Retry    retryx.Options
}

// NewHTTPImageProvider builds a client with a bounded-timeout http.Client.
// apiKey is mandatory (spec.md §6); an empty key is a construction error.
func NewHTTPImageProvider(endpoint, apiKey string) (*HTTPImageProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &HTTPImageProvider{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 60 * time.Second},
		Retry:    defaultRetryOptions(),
	}, nil
}

type httpImageRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	AspectRatio    string `json:"aspect_ratio"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type httpImageResponse struct {
	Success bool `json:"success"`
	Images  []struct {
		Base64   string `json:"base64"`
		MimeType string `json:"mime_type"`
	} `json:"images"`
	Error string `json:"error"`
}

func (p *HTTPImageProvider) GenerateImage(ctx context.Context, req ImageRequest) (ImageResponse, error) {
	payload, err := json.Marshal(httpImageRequest{
		Prompt:         req.Prompt,
		Model:          string(req.Model),
		AspectRatio:    string(req.AspectRatio),
		NegativePrompt: req.NegativePrompt,
	})
	if err != nil {
		return ImageResponse{}, fmt.Errorf("providers: encode image request: %w", err)
	}

	started := time.Now()
	body, err := retryx.WithRetry(ctx, p.Retry, func(ctx context.Context) ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("providers: build image request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

		resp, err := p.Client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("providers: image request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("providers: read image response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("providers: image endpoint status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	})
	defaultMetrics.ObserveLatency("providers.image.generate", time.Since(started))
	defaultMetrics.RecordOutcome("providers.image.generate", err != nil)

	if err != nil {
		return ImageResponse{}, err
	}

	var decoded httpImageResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ImageResponse{}, fmt.Errorf("providers: decode image response: %w", err)
	}

	if !decoded.Success {
		return ImageResponse{Success: false, Error: decoded.Error}, nil
	}

	images := make([]Image, 0, len(decoded.Images))
	for _, img := range decoded.Images {
		raw, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			log.Warn().Err(err).Msg("providers: skipping image with malformed base64")
			continue
		}
		images = append(images, Image{Bytes: raw, MimeType: img.MimeType})
	}

	return ImageResponse{Success: true, Images: images}, nil
}

// HTTPVideoProvider is a reference VideoProvider. Video generation is
// typically long-running; this client polls a status endpoint rather than
// blocking a single request, reporting each poll via onProgress.
type HTTPVideoProvider struct {
	Endpoint     string
	APIKey       string
	Client       *http.Client
	PollInterval time.Duration
	Retry        retryx.Options
}

// NewHTTPVideoProvider builds a polling video client. apiKey is mandatory
// (spec.md §6); an empty key is a construction error.
func NewHTTPVideoProvider(endpoint, apiKey string) (*HTTPVideoProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &HTTPVideoProvider{
		Endpoint:     endpoint,
		APIKey:       apiKey,
		Client:       &http.Client{Timeout: 30 * time.Second},
		PollInterval: 5 * time.Second,
		Retry:        defaultRetryOptions(),
	}, nil
}

type httpVideoSubmitRequest struct {
	ImageBase64    string `json:"image_base64"`
	MimeType       string `json:"mime_type"`
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	AspectRatio    string `json:"aspect_ratio"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

type httpVideoStatusResponse struct {
	Status   string `json:"status"`
	VideoURI string `json:"video_uri"`
	Error    string `json:"error"`
}

func (p *HTTPVideoProvider) GenerateVideoFromImage(ctx context.Context, imageBytes []byte, mimeType, prompt string, opts VideoOptions, onProgress ProgressCallback) (VideoResponse, error) {
	payload, err := json.Marshal(httpVideoSubmitRequest{
		ImageBase64:    base64.StdEncoding.EncodeToString(imageBytes),
		MimeType:       mimeType,
		Prompt:         prompt,
		Model:          string(opts.Model),
		AspectRatio:    string(opts.AspectRatio),
		NegativePrompt: opts.NegativePrompt,
	})
	if err != nil {
		return VideoResponse{}, fmt.Errorf("providers: encode video request: %w", err)
	}

	submitStarted := time.Now()
	body, err := retryx.WithRetry(ctx, p.Retry, func(ctx context.Context) ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("providers: build video request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

		resp, err := p.Client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("providers: video request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("providers: read video response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("providers: video endpoint status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	})
	defaultMetrics.ObserveLatency("providers.video.submit", time.Since(submitStarted))
	defaultMetrics.RecordOutcome("providers.video.submit", err != nil)
	if err != nil {
		return VideoResponse{}, err
	}

	var status httpVideoStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return VideoResponse{}, fmt.Errorf("providers: decode video response: %w", err)
	}

	if onProgress != nil {
		onProgress(VideoStatus(status.Status), "submitted")
	}

	interval := p.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for status.Status != string(VideoCompleted) && status.Status != string(VideoFailed) {
		select {
		case <-ctx.Done():
			return VideoResponse{}, ctx.Err()
		case <-time.After(interval):
		}

		polled, err := p.poll(ctx)
		if err != nil {
			return VideoResponse{}, err
		}
		status = polled
		if onProgress != nil {
			onProgress(VideoStatus(status.Status), "polling")
		}
	}

	return VideoResponse{
		Status:   VideoStatus(status.Status),
		VideoURI: status.VideoURI,
		Error:    status.Error,
	}, nil
}

func (p *HTTPVideoProvider) poll(ctx context.Context) (httpVideoStatusResponse, error) {
	started := time.Now()
	body, err := retryx.WithRetry(ctx, p.Retry, func(ctx context.Context) ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("providers: build poll request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)

		resp, err := p.Client.Do(httpReq)
		if err != nil {
			return nil, fmt.Errorf("providers: poll request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("providers: read poll response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("providers: poll endpoint status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	})
	defaultMetrics.ObserveLatency("providers.video.poll", time.Since(started))
	defaultMetrics.RecordOutcome("providers.video.poll", err != nil)
	if err != nil {
		return httpVideoStatusResponse{}, err
	}

	var status httpVideoStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return httpVideoStatusResponse{}, fmt.Errorf("providers: decode poll response: %w", err)
	}
	return status, nil
}
