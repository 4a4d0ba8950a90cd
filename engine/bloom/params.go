package bloom

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
)

// MaxLevels is the largest supported mip chain length.
const MaxLevels = 8

// Quality selects whether every mip level is blurred.
type Quality int

const (
	// QualityHigh runs a horizontal and a vertical blur pass on every level.
	QualityHigh Quality = iota
	// QualityLow uses the mip sampler output directly.
	QualityLow
)

func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "high"
	case QualityLow:
		return "low"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// GlowMode selects the source of bloom.
type GlowMode int

const (
	// GlowScene extracts bloom from the bright parts of the scene only.
	GlowScene GlowMode = iota
	// GlowObjects blooms only what the glow pre-pass renders.
	GlowObjects
	// GlowSceneAndObjects adds the glow pre-pass output on top of the extracted scene.
	GlowSceneAndObjects
)

func (g GlowMode) String() string {
	switch g {
	case GlowScene:
		return "scene"
	case GlowObjects:
		return "objects"
	case GlowSceneAndObjects:
		return "scene+objects"
	default:
		return fmt.Sprintf("GlowMode(%d)", int(g))
	}
}

// usesGlowPass reports whether the mode renders the glow pre-pass.
func (g GlowMode) usesGlowPass() bool {
	return g == GlowObjects || g == GlowSceneAndObjects
}

// extractsScene reports whether the scene contributes to the bright pass.
func (g GlowMode) extractsScene() bool {
	return g != GlowObjects
}

// Parameters configure a bloom filter.
type Parameters struct {
	// Quality selects whether mip levels are blurred.
	Quality Quality
	// GlowMode selects the bloom source.
	GlowMode GlowMode
	// ExposurePower is the exponent applied to extracted colors.
	ExposurePower float32
	// ExposureCutoff is the mean-luminance threshold below which scene pixels are discarded.
	ExposureCutoff float32
	// BloomFactor is the weight of the first mip level.
	BloomFactor float32
	// BloomPower is the per-level weight multiplier.
	BloomPower float32
	// DownSamplingCoefficient is the per-level size divisor, strictly greater than 1.
	DownSamplingCoefficient float32
	// NumLevels is the mip chain length, 1 to MaxLevels.
	NumLevels int
	// ColorFormat is the color format of every intermediate target. Must be an HDR format.
	ColorFormat common.TextureFormat
}

// DefaultParameters returns the canonical parameter set.
//
// Returns:
//   - Parameters: high quality, scene glow, exposure power 3, cutoff 0, bloom factor 0.2,
//     bloom power 1.8, coefficient 2, 8 levels, RGBA16Float targets
func DefaultParameters() Parameters {
	return Parameters{
		Quality:                 QualityHigh,
		GlowMode:                GlowScene,
		ExposurePower:           3.0,
		ExposureCutoff:          0.0,
		BloomFactor:             0.2,
		BloomPower:              1.8,
		DownSamplingCoefficient: 2.0,
		NumLevels:               MaxLevels,
		ColorFormat:             common.FormatRGBA16Float,
	}
}

// PersistedDefaults returns the parameter set restored when no saved state overrides it.
// It differs from DefaultParameters in exposure power and bloom power. The saved-state
// coefficient of 1 would produce no downsampling, so the canonical coefficient is kept.
//
// Returns:
//   - Parameters: DefaultParameters with exposure power 5 and bloom power 2
func PersistedDefaults() Parameters {
	p := DefaultParameters()
	p.ExposurePower = 5.0
	p.BloomPower = 2.0
	return p
}

// Validate checks every parameter against its allowed range.
//
// Returns:
//   - error: an error wrapping ErrInvalidParameter naming the first offending field, or nil
func (p Parameters) Validate() error {
	switch {
	case p.Quality != QualityHigh && p.Quality != QualityLow:
		return fmt.Errorf("quality %s: %w", p.Quality, ErrInvalidParameter)
	case p.GlowMode < GlowScene || p.GlowMode > GlowSceneAndObjects:
		return fmt.Errorf("glow mode %s: %w", p.GlowMode, ErrInvalidParameter)
	case !(p.DownSamplingCoefficient > 1):
		return fmt.Errorf("down sampling coefficient %g must be greater than 1: %w", p.DownSamplingCoefficient, ErrInvalidParameter)
	case p.NumLevels < 1 || p.NumLevels > MaxLevels:
		return fmt.Errorf("level count %d outside 1..%d: %w", p.NumLevels, MaxLevels, ErrInvalidParameter)
	case !(p.ExposurePower >= 0):
		return fmt.Errorf("exposure power %g: %w", p.ExposurePower, ErrInvalidParameter)
	case !(p.BloomFactor >= 0):
		return fmt.Errorf("bloom factor %g: %w", p.BloomFactor, ErrInvalidParameter)
	case !(p.BloomPower >= 0):
		return fmt.Errorf("bloom power %g: %w", p.BloomPower, ErrInvalidParameter)
	case !p.ColorFormat.IsHDR():
		return fmt.Errorf("color format %s is not HDR: %w", p.ColorFormat, ErrInvalidParameter)
	}
	return nil
}
