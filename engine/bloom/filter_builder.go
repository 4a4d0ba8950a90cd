package bloom

import "github.com/Carmen-Shannon/oxy-bloom/common"

// FilterBuilderOption is a function that configures a filter instance during construction.
type FilterBuilderOption func(*filter)

// WithParameters is an option builder that replaces every parameter at once.
//
// Parameters:
//   - p: the parameter set
//
// Returns:
//   - FilterBuilderOption: a function that applies the parameters to a filter
func WithParameters(p Parameters) FilterBuilderOption {
	return func(f *filter) {
		f.params = p
	}
}

// WithQuality is an option builder that sets the blur quality.
//
// Parameters:
//   - q: the quality
//
// Returns:
//   - FilterBuilderOption: a function that applies the quality to a filter
func WithQuality(q Quality) FilterBuilderOption {
	return func(f *filter) {
		f.params.Quality = q
	}
}

// WithGlowMode is an option builder that sets the bloom source.
//
// Parameters:
//   - mode: the glow mode
//
// Returns:
//   - FilterBuilderOption: a function that applies the glow mode to a filter
func WithGlowMode(mode GlowMode) FilterBuilderOption {
	return func(f *filter) {
		f.params.GlowMode = mode
	}
}

// WithExposure is an option builder that sets the bright pass exponent and cutoff.
//
// Parameters:
//   - power: the exposure exponent
//   - cutoff: the mean-luminance cutoff
//
// Returns:
//   - FilterBuilderOption: a function that applies the exposure to a filter
func WithExposure(power, cutoff float32) FilterBuilderOption {
	return func(f *filter) {
		f.params.ExposurePower = power
		f.params.ExposureCutoff = cutoff
	}
}

// WithBloomIntensity is an option builder that sets the level weight equation factor * power^i.
//
// Parameters:
//   - factor: the weight of level 0
//   - power: the per-level multiplier
//
// Returns:
//   - FilterBuilderOption: a function that applies the intensity to a filter
func WithBloomIntensity(factor, power float32) FilterBuilderOption {
	return func(f *filter) {
		f.params.BloomFactor = factor
		f.params.BloomPower = power
	}
}

// WithDownSamplingCoefficient is an option builder that sets the per-level size divisor.
//
// Parameters:
//   - c: the coefficient, strictly greater than 1
//
// Returns:
//   - FilterBuilderOption: a function that applies the coefficient to a filter
func WithDownSamplingCoefficient(c float32) FilterBuilderOption {
	return func(f *filter) {
		f.params.DownSamplingCoefficient = c
	}
}

// WithNumLevels is an option builder that sets the mip chain length.
//
// Parameters:
//   - n: the number of levels, 1 to MaxLevels
//
// Returns:
//   - FilterBuilderOption: a function that applies the level count to a filter
func WithNumLevels(n int) FilterBuilderOption {
	return func(f *filter) {
		f.params.NumLevels = n
	}
}

// WithColorFormat is an option builder that sets the format of every intermediate target.
//
// Parameters:
//   - format: an HDR color format
//
// Returns:
//   - FilterBuilderOption: a function that applies the format to a filter
func WithColorFormat(format common.TextureFormat) FilterBuilderOption {
	return func(f *filter) {
		f.params.ColorFormat = format
	}
}

// WithGlowRenderer is an option builder that sets the collaborator drawing the glow pre-pass.
//
// Parameters:
//   - r: the glow renderer
//
// Returns:
//   - FilterBuilderOption: a function that applies the glow renderer to a filter
func WithGlowRenderer(r GlowRenderer) FilterBuilderOption {
	return func(f *filter) {
		f.glowRenderer = r
	}
}

// WithLogger is an option builder that sets the filter logger.
//
// Parameters:
//   - logger: the logger receiving lifecycle messages
//
// Returns:
//   - FilterBuilderOption: a function that applies the logger to a filter
func WithLogger(logger common.Logger) FilterBuilderOption {
	return func(f *filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}
