package renderer

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces the use of a software (CPU) fallback adapter.
// This is useful for testing or on systems without a compatible GPU.
//
// Returns:
//   - RendererBuilderOption: a function that applies the fallback adapter option to a renderer
func WithForceSoftwareRenderer() RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = true
	}
}

// WithPipelineCacheSize sets how many compiled pipelines are kept before the least recently
// used one is released. Values below 1 keep the default.
//
// Parameters:
//   - size: the cache capacity
//
// Returns:
//   - RendererBuilderOption: a function that applies the cache size option to a renderer
func WithPipelineCacheSize(size int) RendererBuilderOption {
	return func(r *renderer) {
		if size > 0 {
			r.cacheSize = size
		}
	}
}

// WithMaxTextureDimension sets the largest accepted texture edge.
//
// Parameters:
//   - dim: the maximum width or height in pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the dimension option to a renderer
func WithMaxTextureDimension(dim int) RendererBuilderOption {
	return func(r *renderer) {
		r.maxDim = dim
	}
}

// WithSampler overrides the sampler every texture binding uses. Unset fields keep
// clamp-to-edge addressing and linear filtering.
//
// Parameters:
//   - stagingData: the sampler configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the sampler option to a renderer
func WithSampler(stagingData common.SamplerStagingData) RendererBuilderOption {
	return func(r *renderer) {
		r.samplerConfig = stagingData
	}
}

// WithLogger sets the logger receiving adapter and pipeline cache events.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger common.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
