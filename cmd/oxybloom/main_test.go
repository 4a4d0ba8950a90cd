package main

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/engine/bloom"
	"github.com/Carmen-Shannon/oxy-bloom/engine/imageio"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSpot writes a black square image with a white block in the middle.
func writeSpot(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{A: 255}
			if x >= size/2-2 && x < size/2+2 && y >= size/2-2 && y < size/2+2 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	require.NoError(t, imageio.Save(path, img))
}

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags([]string{"-in", "a.png", "-out", "b.tiff"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, bloom.DefaultParameters(), cfg.params)
	assert.Equal(t, imageio.TonemapReinhard, cfg.tonemap)
	assert.Equal(t, 4.0, cfg.gain)
	assert.Equal(t, 1.0, cfg.exposure)
}

func TestParseFlagsOverrides(t *testing.T) {
	cfg, err := parseFlags([]string{
		"-in", "a.png", "-out", "b.png",
		"-persisted", "-power", "2", "-levels", "4", "-coef", "3",
		"-quality", "low", "-tonemap", "clamp", "-cutoff", "0.5",
		"-factor", "0.1", "-width", "64", "-height", "32",
	}, io.Discard)
	require.NoError(t, err)

	want := bloom.PersistedDefaults()
	want.ExposurePower = 2
	want.NumLevels = 4
	want.DownSamplingCoefficient = 3
	want.Quality = bloom.QualityLow
	want.ExposureCutoff = 0.5
	want.BloomFactor = 0.1
	assert.Equal(t, want, cfg.params)
	assert.Equal(t, imageio.TonemapClamp, cfg.tonemap)
	assert.Equal(t, 64, cfg.width)
	assert.Equal(t, 32, cfg.height)

	cfg, err = parseFlags([]string{"-in", "a.png", "-out", "b.png", "-persisted"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, float32(5), cfg.params.ExposurePower)
	assert.Equal(t, float32(2), cfg.params.BloomPower)
}

func TestParseFlagsErrors(t *testing.T) {
	for name, tc := range map[string]struct {
		args []string
		want error
	}{
		"missing input":    {[]string{"-out", "b.png"}, errUsage},
		"half size":        {[]string{"-in", "a.png", "-out", "b.png", "-width", "8"}, errUsage},
		"glow without map": {[]string{"-in", "a.png", "-out", "b.png", "-glow", "objects"}, errUsage},
		"coefficient":      {[]string{"-in", "a.png", "-out", "b.png", "-coef", "1"}, bloom.ErrInvalidParameter},
		"levels":           {[]string{"-in", "a.png", "-out", "b.png", "-levels", "9"}, bloom.ErrInvalidParameter},
		"quality":          {[]string{"-in", "a.png", "-out", "b.png", "-quality", "ultra"}, bloom.ErrInvalidParameter},
		"glow":             {[]string{"-in", "a.png", "-out", "b.png", "-glow", "sky"}, bloom.ErrInvalidParameter},
		"tonemap":          {[]string{"-in", "a.png", "-out", "b.png", "-tonemap", "aces"}, imageio.ErrUnknownTonemap},
		"output format":    {[]string{"-in", "a.png", "-out", "b.jpg"}, imageio.ErrUnknownFormat},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseFlags(tc.args, io.Discard)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestRunBloomsHighlights(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "spot.png")
	out := filepath.Join(dir, "bloom.png")
	writeSpot(t, in, 32)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"-in", in, "-out", out, "-workers", "2"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "[oxybloom] INFO: wrote "+out)
	assert.Contains(t, stdout.String(), "render: 1 x")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	r, _, _, _ := img.At(16, 8).RGBA()
	assert.Greater(t, r, uint32(0))
	r, _, _, _ = img.At(16, 16).RGBA()
	assert.Greater(t, r, uint32(0xe000))
}

func TestRunGlowMap(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scene.png")
	mask := filepath.Join(dir, "mask.png")
	out := filepath.Join(dir, "bloom.bmp")
	writeSpot(t, in, 16)
	writeSpot(t, mask, 8)

	err := run([]string{"-in", in, "-out", out, "-glow", "objects", "-glowmap", mask, "-levels", "3"}, io.Discard, io.Discard)
	require.NoError(t, err)
	_, err = os.Stat(out)
	assert.NoError(t, err)

	err = run([]string{"-in", filepath.Join(dir, "missing.png"), "-out", out}, io.Discard, io.Discard)
	assert.Error(t, err)
}

func TestGlowMaskDrawsOnlyGlowTechnique(t *testing.T) {
	dev := software.NewDevice(software.WithWorkers(1))
	pixels := make([]float32, 2*2*4)
	for i := range pixels {
		pixels[i] = 1
	}
	maskTex, err := dev.Upload(2, 2, pixels)
	require.NoError(t, err)

	g := newGlowMask(maskTex)
	require.NoError(t, g.RenderGlow(dev, nil, "Opaque"))
	assert.Empty(t, dev.Draws())

	err = g.RenderGlow(dev, nil, bloom.GlowTechnique)
	assert.True(t, errors.Is(err, software.ErrNoFrameBuffer))
}
