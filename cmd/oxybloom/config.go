package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/oxy-bloom/engine/bloom"
	"github.com/Carmen-Shannon/oxy-bloom/engine/imageio"
)

var errUsage = errors.New("usage")

// config holds the parsed command line.
type config struct {
	in      string
	out     string
	glowMap string

	gain          float64
	width, height int
	exposure      float64
	tonemap       imageio.Tonemap

	params bloom.Parameters

	workers    int
	cpuProfile string
	debug      bool
}

func parseQuality(s string) (bloom.Quality, error) {
	switch strings.ToLower(s) {
	case "high":
		return bloom.QualityHigh, nil
	case "low":
		return bloom.QualityLow, nil
	default:
		return 0, fmt.Errorf("quality %q: %w", s, bloom.ErrInvalidParameter)
	}
}

func parseGlowMode(s string) (bloom.GlowMode, error) {
	switch strings.ToLower(s) {
	case "scene":
		return bloom.GlowScene, nil
	case "objects":
		return bloom.GlowObjects, nil
	case "scene+objects", "both":
		return bloom.GlowSceneAndObjects, nil
	default:
		return 0, fmt.Errorf("glow mode %q: %w", s, bloom.ErrInvalidParameter)
	}
}

// parseFlags reads the command line into a config. Unset bloom flags keep the
// DefaultParameters values, -persisted starts from PersistedDefaults instead.
func parseFlags(args []string, output io.Writer) (*config, error) {
	fs := flag.NewFlagSet("oxybloom", flag.ContinueOnError)
	fs.SetOutput(output)

	cfg := &config{}
	def := bloom.DefaultParameters()

	fs.StringVar(&cfg.in, "in", "", "input image (png, jpeg, bmp, tiff, webp)")
	fs.StringVar(&cfg.out, "out", "", "output image (png, bmp, tiff)")
	fs.StringVar(&cfg.glowMap, "glowmap", "", "image drawn by the glow pre-pass in objects glow modes")
	fs.Float64Var(&cfg.gain, "gain", 4, "linear gain applied to the input, pushes highlights above 1.0")
	fs.IntVar(&cfg.width, "width", 0, "resample the input to this width (needs -height)")
	fs.IntVar(&cfg.height, "height", 0, "resample the input to this height (needs -width)")
	fs.Float64Var(&cfg.exposure, "exposure", 1, "output exposure multiplier")
	tonemap := fs.String("tonemap", imageio.TonemapReinhard.String(), "tone mapping operator: reinhard or clamp")
	quality := fs.String("quality", def.Quality.String(), "blur quality: high or low")
	glow := fs.String("glow", def.GlowMode.String(), "bloom source: scene, objects or scene+objects")
	persisted := fs.Bool("persisted", false, "start from the persisted default parameter set")
	levels := fs.Int("levels", def.NumLevels, "mip chain length")
	coef := fs.Float64("coef", float64(def.DownSamplingCoefficient), "down sampling coefficient, greater than 1")
	cutoff := fs.Float64("cutoff", float64(def.ExposureCutoff), "bright pass luminance cutoff")
	power := fs.Float64("power", float64(def.ExposurePower), "bright pass exposure power")
	factor := fs.Float64("factor", float64(def.BloomFactor), "weight of the first mip level")
	bloomPower := fs.Float64("bloompower", float64(def.BloomPower), "per-level weight multiplier")
	fs.IntVar(&cfg.workers, "workers", 0, "software device workers, 0 for one per CPU")
	fs.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write a CPU profile into this directory")
	fs.BoolVar(&cfg.debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.in == "" || cfg.out == "" {
		fs.Usage()
		return nil, fmt.Errorf("-in and -out are required: %w", errUsage)
	}
	if (cfg.width > 0) != (cfg.height > 0) {
		return nil, fmt.Errorf("-width and -height must be set together: %w", errUsage)
	}
	if _, err := imageio.FormatFromPath(cfg.out); err != nil {
		return nil, err
	}

	var err error
	if cfg.tonemap, err = imageio.ParseTonemap(*tonemap); err != nil {
		return nil, err
	}

	cfg.params = def
	if *persisted {
		cfg.params = bloom.PersistedDefaults()
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if cfg.params.Quality, err = parseQuality(*quality); err != nil {
		return nil, err
	}
	if cfg.params.GlowMode, err = parseGlowMode(*glow); err != nil {
		return nil, err
	}
	if set["levels"] {
		cfg.params.NumLevels = *levels
	}
	if set["coef"] {
		cfg.params.DownSamplingCoefficient = float32(*coef)
	}
	if set["cutoff"] {
		cfg.params.ExposureCutoff = float32(*cutoff)
	}
	if set["power"] {
		cfg.params.ExposurePower = float32(*power)
	}
	if set["factor"] {
		cfg.params.BloomFactor = float32(*factor)
	}
	if set["bloompower"] {
		cfg.params.BloomPower = float32(*bloomPower)
	}
	if err := cfg.params.Validate(); err != nil {
		return nil, err
	}
	if cfg.params.GlowMode != bloom.GlowScene && cfg.glowMap == "" {
		return nil, fmt.Errorf("glow mode %s needs -glowmap: %w", cfg.params.GlowMode, errUsage)
	}
	return cfg, nil
}
