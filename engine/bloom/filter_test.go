package bloom

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadScene(t *testing.T, dev software.Device, w, h int, c mgl32.Vec4) SceneInput {
	t.Helper()
	pixels := make([]float32, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels = append(pixels, c[0], c[1], c[2], c[3])
	}
	tex, err := dev.Upload(w, h, pixels)
	require.NoError(t, err)
	return SceneInput{Color: tex}
}

func readAll(t *testing.T, dev software.Device, tex *common.Texture) []mgl32.Vec4 {
	t.Helper()
	data, err := dev.ReadPixels(tex)
	require.NoError(t, err)
	out := make([]mgl32.Vec4, 0, len(data.Pixels)/4)
	for i := 0; i < len(data.Pixels); i += 4 {
		out = append(out, mgl32.Vec4{data.Pixels[i], data.Pixels[i+1], data.Pixels[i+2], data.Pixels[i+3]})
	}
	return out
}

func newTestFilter(t *testing.T, opts ...FilterBuilderOption) Filter {
	t.Helper()
	f, err := NewFilter(opts...)
	require.NoError(t, err)
	return f
}

func levelSizes(levels []MipLevel) [][2]int {
	out := make([][2]int, len(levels))
	for i, l := range levels {
		out[i] = [2]int{l.Width, l.Height}
	}
	return out
}

func TestNewFilterRejectsInvalidParameters(t *testing.T) {
	_, err := NewFilter(WithDownSamplingCoefficient(1))
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = NewFilter(WithNumLevels(9))
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = NewFilter(WithColorFormat(common.FormatRGBA8))
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestInitAllocatesLevels(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t)
	assert.Equal(t, StateUninitialized, f.State())

	require.NoError(t, f.Init(dev, 1920, 1080))

	assert.Equal(t, StateInitialized, f.State())
	w, h := f.Size()
	assert.Equal(t, [2]int{1920, 1080}, [2]int{w, h})
	assert.Equal(t, [][2]int{
		{960, 540}, {480, 270}, {240, 135}, {120, 67},
		{60, 33}, {30, 16}, {15, 8}, {7, 4},
	}, levelSizes(f.Levels()))

	passes := f.Passes()
	assert.Len(t, passes, 1+3*8+1)
	assert.Equal(t, len(passes), dev.Stats().LiveTargets)
	for _, l := range f.Levels() {
		assert.NotEqual(t, l.Sampled.ID, l.Output.ID, "level %d output is the blurred texture", l.Index)
	}
	require.NotNil(t, f.Output())
	assert.Equal(t, 1920, f.Output().Width)
	assert.Equal(t, common.FormatRGBA16Float, f.Output().Format)
}

func TestPassesReturnsCopy(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(1))
	require.NoError(t, f.Init(dev, 8, 8))

	passes := f.Passes()
	passes[len(passes)-1].Inputs[0] = 42
	assert.Equal(t, InputScene, f.Passes()[len(passes)-1].Inputs[0])
}

func TestRenderOrderAndResolutions(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(2))
	require.NoError(t, f.Init(dev, 16, 8))
	scene := uploadScene(t, dev, 16, 8, mgl32.Vec4{1, 1, 1, 1})

	out, err := f.Render(scene)
	require.NoError(t, err)
	assert.Equal(t, f.Output(), out)

	var keys []string
	var sizes [][2]int
	for _, d := range dev.Draws() {
		keys = append(keys, d.PipelineKey)
		sizes = append(sizes, [2]int{d.Width, d.Height})
	}
	assert.Equal(t, []string{
		PipelineExtract,
		PipelineMipSample, PipelineHBlur, PipelineVBlur,
		PipelineMipSample, PipelineHBlur, PipelineVBlur,
		PipelineAccumulate,
	}, keys)
	assert.Equal(t, [][2]int{{16, 8}, {8, 4}, {8, 4}, {8, 4}, {4, 2}, {4, 2}, {4, 2}, {16, 8}}, sizes)
	assert.Nil(t, dev.FrameBuffer())
}

func TestZeroWeightsReturnSceneExactly(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithBloomIntensity(0, 1.8))
	require.NoError(t, f.Init(dev, 12, 6))

	pixels := make([]float32, 0, 12*6*4)
	for i := 0; i < 12*6; i++ {
		pixels = append(pixels, float32(i%4)*0.5, 0.25, 2, 0.5)
	}
	tex, err := dev.Upload(12, 6, pixels)
	require.NoError(t, err)

	out, err := f.Render(SceneInput{Color: tex})
	require.NoError(t, err)
	data, err := dev.ReadPixels(out)
	require.NoError(t, err)
	assert.Equal(t, pixels, data.Pixels)
}

func TestConstantSceneBloom(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t,
		WithQuality(QualityLow),
		WithNumLevels(3),
		WithExposure(1, 0),
	)
	require.NoError(t, f.Init(dev, 32, 16))
	scene := uploadScene(t, dev, 32, 16, mgl32.Vec4{1, 1, 1, 1})

	out, err := f.Render(scene)
	require.NoError(t, err)

	// every level of a flat image is the previous level times the sampler weight sum.
	want := float32(1)
	gain := float32(1)
	for _, w := range f.Weights() {
		gain *= mipSamplerWeightSum()
		want += w * gain
	}
	for _, px := range readAll(t, dev, out) {
		assert.InDelta(t, want, px[0], 0.02)
		assert.InDelta(t, want, px[2], 0.02)
		assert.Equal(t, float32(1), px[3])
	}
}

func TestHighQualityBlurPreservesFlatLevels(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(2), WithExposure(1, 0))
	require.NoError(t, f.Init(dev, 16, 16))
	scene := uploadScene(t, dev, 16, 16, mgl32.Vec4{0.5, 0.5, 0.5, 1})

	_, err := f.Render(scene)
	require.NoError(t, err)

	for _, l := range f.Levels() {
		src := readAll(t, dev, l.Sampled)
		blurred := readAll(t, dev, l.Output)
		require.Len(t, blurred, len(src))
		for i := range src {
			assert.InDelta(t, src[i][0], blurred[i][0], 1e-2, "level %d texel %d", l.Index, i)
		}
	}
}

func TestCutoffRemovesDarkScene(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithExposure(3, 0.6), WithQuality(QualityLow))
	require.NoError(t, f.Init(dev, 8, 8))
	scene := uploadScene(t, dev, 8, 8, mgl32.Vec4{0.5, 0.5, 0.5, 1})

	out, err := f.Render(scene)
	require.NoError(t, err)
	for _, px := range readAll(t, dev, out) {
		assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0.5, 1}, px)
	}
}

func TestIntensityAndExposureDoNotReallocate(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t)
	require.NoError(t, f.Init(dev, 64, 64))
	before := dev.Stats()
	output := f.Output()

	require.NoError(t, f.SetBloomIntensity(0.5, 2))
	require.NoError(t, f.SetExposurePower(4))
	f.SetExposureCutoff(0.1)

	assert.Equal(t, before, dev.Stats())
	assert.Equal(t, output, f.Output())
	assert.InDeltaSlice(t, []float32{0.5, 1, 2, 4, 8, 16, 32, 64}, f.Weights(), 1e-4)
	p := f.Parameters()
	assert.Equal(t, float32(4), p.ExposurePower)
	assert.Equal(t, float32(0.1), p.ExposureCutoff)

	assert.True(t, errors.Is(f.SetBloomIntensity(-1, 2), ErrInvalidParameter))
	assert.True(t, errors.Is(f.SetExposurePower(-1), ErrInvalidParameter))
	assert.Equal(t, float32(4), f.Parameters().ExposurePower)
}

func TestIntensityBeforeInitIsKept(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(2))
	require.NoError(t, f.SetBloomIntensity(1, 3))
	require.NoError(t, f.Init(dev, 8, 8))

	acc := f.Passes()[len(f.Passes())-1].Pass.Material()
	w, ok := acc.Float(LevelWeightParam(1))
	require.True(t, ok)
	assert.Equal(t, float32(3), w)
}

func TestCoefficientChangeReallocates(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(3))
	require.NoError(t, f.Init(dev, 256, 128))
	weights := f.Weights()
	before := dev.Stats()

	require.NoError(t, f.SetDownSamplingCoefficient(4))

	after := dev.Stats()
	assert.Equal(t, before.LiveTargets, after.LiveTargets)
	assert.Equal(t, before.CreatedTargets, after.ReleasedTargets)
	assert.Equal(t, 2*before.CreatedTargets, after.CreatedTargets)
	assert.Equal(t, [][2]int{{64, 32}, {16, 8}, {4, 2}}, levelSizes(f.Levels()))
	assert.Equal(t, weights, f.Weights())
	assert.Equal(t, StateInitialized, f.State())

	err := f.SetDownSamplingCoefficient(0.9)
	assert.True(t, errors.Is(err, ErrInvalidParameter))
	assert.Equal(t, float32(4), f.Parameters().DownSamplingCoefficient)
	assert.Equal(t, after, dev.Stats())
}

func TestCoefficientBeforeInit(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(1))
	require.NoError(t, f.SetDownSamplingCoefficient(3))
	assert.Equal(t, 0, dev.Stats().CreatedTargets)

	require.NoError(t, f.Init(dev, 90, 30))
	assert.Equal(t, [][2]int{{30, 10}}, levelSizes(f.Levels()))
}

func TestReinitIsIdempotent(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t)
	require.NoError(t, f.Init(dev, 640, 360))
	sizes := levelSizes(f.Levels())
	weights := f.Weights()
	live := dev.Stats().LiveTargets

	require.NoError(t, f.Reinit())
	require.NoError(t, f.Reinit())

	assert.Equal(t, sizes, levelSizes(f.Levels()))
	assert.Equal(t, weights, f.Weights())
	assert.Equal(t, live, dev.Stats().LiveTargets)
	assert.Equal(t, StateInitialized, f.State())
}

func TestResize(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(2))

	assert.True(t, errors.Is(f.Resize(10, 10), ErrNotInitialized))

	require.NoError(t, f.Init(dev, 64, 32))
	created := dev.Stats().CreatedTargets

	require.NoError(t, f.Resize(64, 32))
	assert.Equal(t, created, dev.Stats().CreatedTargets)

	require.NoError(t, f.Resize(32, 32))
	assert.Equal(t, [][2]int{{16, 16}, {8, 8}}, levelSizes(f.Levels()))
	assert.Equal(t, 32, f.Output().Width)

	assert.True(t, errors.Is(f.Resize(0, 32), pass.ErrInvalidTargetSize))
	assert.Equal(t, StateInitialized, f.State())
}

func TestTinyViewportClampsLevels(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t)
	require.NoError(t, f.Init(dev, 8, 8))

	assert.Equal(t, [][2]int{{4, 4}, {2, 2}, {1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}, {1, 1}}, levelSizes(f.Levels()))

	scene := uploadScene(t, dev, 8, 8, mgl32.Vec4{2, 2, 2, 1})
	out, err := f.Render(scene)
	require.NoError(t, err)
	for _, px := range readAll(t, dev, out) {
		assert.Greater(t, px[0], float32(2))
	}
}

func TestInitErrors(t *testing.T) {
	dev := software.NewDevice()

	f := newTestFilter(t)
	assert.True(t, errors.Is(f.Init(dev, 0, 10), pass.ErrInvalidTargetSize))

	glow := newTestFilter(t, WithGlowMode(GlowObjects))
	assert.True(t, errors.Is(glow.Init(dev, 10, 10), ErrMissingGlowRenderer))
	assert.Equal(t, StateUninitialized, glow.State())
	assert.Equal(t, 0, dev.Stats().LiveTargets)
}

func TestAllocationFailureReleasesPartialGraph(t *testing.T) {
	var logs bytes.Buffer
	dev := software.NewDevice(software.WithMaxTargets(5))
	f := newTestFilter(t, WithLogger(common.NewWriterLogger("bloom", false, &logs, &logs)))

	err := f.Init(dev, 128, 128)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.True(t, errors.Is(err, software.ErrTargetLimit))
	assert.ErrorContains(t, err, "hblur_1")

	assert.Equal(t, StateUninitialized, f.State())
	assert.Empty(t, f.Passes())
	assert.Empty(t, f.Levels())
	assert.Nil(t, f.Output())
	assert.Equal(t, 0, dev.Stats().LiveTargets)
	assert.Contains(t, logs.String(), "[bloom] ERROR:")

	_, err = f.Render(SceneInput{Color: &common.Texture{}})
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.True(t, errors.Is(f.Reinit(), ErrNotInitialized))
}

func TestReinitFailureLeavesFilterUninitialized(t *testing.T) {
	dev := software.NewDevice(software.WithMaxTextureDimension(64))
	f := newTestFilter(t, WithQuality(QualityLow), WithNumLevels(2))
	require.NoError(t, f.Init(dev, 32, 32))

	err := f.Resize(128, 128)
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.True(t, errors.Is(err, software.ErrTextureTooLarge))
	assert.Equal(t, StateUninitialized, f.State())
	assert.Equal(t, 0, dev.Stats().LiveTargets)
	assert.True(t, errors.Is(f.Reinit(), ErrNotInitialized))

	require.NoError(t, f.Init(dev, 64, 64))
	assert.Equal(t, StateInitialized, f.State())
}

func TestRenderErrors(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t)

	_, err := f.Render(SceneInput{})
	assert.True(t, errors.Is(err, ErrNotInitialized))

	require.NoError(t, f.Init(dev, 8, 8))
	_, err = f.Render(SceneInput{})
	assert.True(t, errors.Is(err, ErrMissingScene))
}

func TestSceneSizeMismatchWarnsOnce(t *testing.T) {
	var logs bytes.Buffer
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(1), WithLogger(common.NewWriterLogger("bloom", false, &logs, &logs)))
	require.NoError(t, f.Init(dev, 8, 8))
	scene := uploadScene(t, dev, 4, 4, mgl32.Vec4{1, 1, 1, 1})

	for i := 0; i < 3; i++ {
		_, err := f.Render(scene)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "WARN"))
}

func TestCleanup(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithGlowMode(GlowSceneAndObjects), WithGlowRenderer(GlowRendererFunc(
		func(pass.Device, *common.RenderTarget, string) error { return nil },
	)))
	require.NoError(t, f.Init(dev, 32, 32))
	require.Greater(t, dev.Stats().LiveTargets, 0)

	f.Cleanup()
	f.Cleanup()

	assert.Equal(t, StateUninitialized, f.State())
	assert.Equal(t, 0, dev.Stats().LiveTargets)
	assert.Nil(t, f.Output())
	_, err := f.Render(SceneInput{Color: &common.Texture{}})
	assert.True(t, errors.Is(err, ErrNotInitialized))

	require.NoError(t, f.Init(dev, 16, 16))
	assert.Equal(t, StateInitialized, f.State())
}

func TestGlowObjectsBloomsOnlyGlow(t *testing.T) {
	dev := software.NewDevice()
	var calls int
	var technique string
	var glowTarget *common.RenderTarget
	glow := GlowRendererFunc(func(d pass.Device, target *common.RenderTarget, tech string) error {
		calls++
		technique = tech
		glowTarget = target
		assert.Same(t, target, d.FrameBuffer())
		d.Clear(mgl32.Vec4{1, 0, 0, 1})
		return nil
	})
	f := newTestFilter(t,
		WithGlowMode(GlowObjects),
		WithGlowRenderer(glow),
		WithQuality(QualityLow),
		WithNumLevels(1),
		WithExposure(1, 0),
		WithBloomIntensity(1, 1),
	)
	require.NoError(t, f.Init(dev, 16, 16))

	passes := f.Passes()
	require.Equal(t, KindGlow, passes[0].Kind)
	assert.Equal(t, [2]int{8, 8}, [2]int{passes[0].Width, passes[0].Height})
	assert.NotNil(t, passes[0].Pass.RenderTarget().Depth)

	scene := uploadScene(t, dev, 16, 16, mgl32.Vec4{5, 5, 5, 1})
	out, err := f.Render(scene)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, GlowTechnique, technique)
	assert.Same(t, passes[0].Pass.RenderTarget(), glowTarget)
	assert.Nil(t, dev.FrameBuffer())

	for _, px := range readAll(t, dev, out) {
		assert.InDelta(t, 5+1.08, px[0], 0.01)
		assert.InDelta(t, 5, px[1], 1e-6)
		assert.InDelta(t, 5, px[2], 1e-6)
		assert.Equal(t, float32(1), px[3])
	}
}

func TestGlowSceneSkipsGlowRenderer(t *testing.T) {
	dev := software.NewDevice()
	called := false
	f := newTestFilter(t, WithGlowRenderer(GlowRendererFunc(func(pass.Device, *common.RenderTarget, string) error {
		called = true
		return nil
	})))
	require.NoError(t, f.Init(dev, 16, 16))
	assert.Equal(t, KindExtract, f.Passes()[0].Kind)

	_, err := f.Render(uploadScene(t, dev, 16, 16, mgl32.Vec4{1, 1, 1, 1}))
	require.NoError(t, err)
	assert.False(t, called)
}

func TestGlowRendererErrorRestoresFrameBuffer(t *testing.T) {
	dev := software.NewDevice()
	boom := errors.New("glow failed")
	f := newTestFilter(t, WithGlowMode(GlowSceneAndObjects), WithGlowRenderer(GlowRendererFunc(
		func(pass.Device, *common.RenderTarget, string) error { return boom },
	)))
	require.NoError(t, f.Init(dev, 16, 16))

	_, err := f.Render(uploadScene(t, dev, 16, 16, mgl32.Vec4{1, 1, 1, 1}))
	assert.True(t, errors.Is(err, boom))
	assert.ErrorContains(t, err, "glow")
	assert.Nil(t, dev.FrameBuffer())
}

func TestConcurrentRenderAndReinit(t *testing.T) {
	dev := software.NewDevice()
	f := newTestFilter(t, WithNumLevels(3))
	require.NoError(t, f.Init(dev, 32, 32))
	scene := uploadScene(t, dev, 32, 32, mgl32.Vec4{1, 1, 1, 1})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				out, err := f.Render(scene)
				assert.NoError(t, err)
				assert.NotNil(t, out)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 5; j++ {
			assert.NoError(t, f.Reinit())
		}
	}()
	wg.Wait()

	assert.Equal(t, StateInitialized, f.State())
	assert.Equal(t, len(f.Passes()), dev.Stats().LiveTargets)
}

func TestLevelSourcesFollowChain(t *testing.T) {
	for _, q := range []Quality{QualityHigh, QualityLow} {
		t.Run(q.String(), func(t *testing.T) {
			dev := software.NewDevice()
			f := newTestFilter(t, WithQuality(q), WithNumLevels(4))
			require.NoError(t, f.Init(dev, 64, 32))

			var extract *common.Texture
			for _, d := range f.Passes() {
				if d.Kind == KindExtract {
					extract = d.Pass.RenderedTexture()
				}
			}
			require.NotNil(t, extract)

			levels := f.Levels()
			require.Len(t, levels, 4)
			assert.Equal(t, extract.ID, levels[0].Source.ID)
			for i := 1; i < len(levels); i++ {
				assert.Equal(t, levels[i-1].Output.ID, levels[i].Source.ID, "level %d", i)
			}
			for _, l := range levels {
				if q == QualityLow {
					assert.Equal(t, l.Sampled.ID, l.Output.ID)
				} else {
					assert.NotEqual(t, l.Sampled.ID, l.Output.ID)
				}
			}
		})
	}
}

// materialTracker records which materials hold device resources: drawn and not yet released.
type materialTracker struct {
	software.Device
	mu   sync.Mutex
	live map[material.Material]bool
}

func (d *materialTracker) Draw(p pipeline.Pipeline, m material.Material) error {
	d.mu.Lock()
	d.live[m] = true
	d.mu.Unlock()
	return d.Device.Draw(p, m)
}

func (d *materialTracker) ReleaseMaterial(m material.Material) {
	d.mu.Lock()
	delete(d.live, m)
	d.mu.Unlock()
	d.Device.ReleaseMaterial(m)
}

func (d *materialTracker) liveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

func TestRebuildReleasesMaterials(t *testing.T) {
	dev := &materialTracker{Device: software.NewDevice(), live: make(map[material.Material]bool)}
	f := newTestFilter(t, WithNumLevels(3))
	require.NoError(t, f.Init(dev, 32, 32))

	render := func(w, h int) {
		t.Helper()
		_, err := f.Render(uploadScene(t, dev.Device, w, h, mgl32.Vec4{1, 1, 1, 1}))
		require.NoError(t, err)
	}
	render(32, 32)
	drawn := len(f.Passes())
	assert.Equal(t, drawn, dev.liveCount())

	require.NoError(t, f.Reinit())
	render(32, 32)
	assert.Equal(t, drawn, dev.liveCount())

	require.NoError(t, f.Resize(16, 16))
	render(16, 16)
	assert.Equal(t, drawn, dev.liveCount())

	require.NoError(t, f.SetDownSamplingCoefficient(3))
	render(16, 16)
	assert.Equal(t, drawn, dev.liveCount())

	f.Cleanup()
	assert.Equal(t, 0, dev.liveCount())
}
