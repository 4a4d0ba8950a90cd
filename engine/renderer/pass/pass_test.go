package pass

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDeviceLost = errors.New("device lost")

type fakeDevice struct {
	fb        *common.RenderTarget
	live      map[uuid.UUID]bool
	released  int
	drawnInto []*common.RenderTarget
	failAlloc bool
	failDraw  bool
	freed     []material.Material
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{live: make(map[uuid.UUID]bool)}
}

func (d *fakeDevice) CreateRenderTarget(desc common.RenderTargetDescriptor) (*common.RenderTarget, error) {
	if d.failAlloc {
		return nil, errDeviceLost
	}
	rt := &common.RenderTarget{
		ID:          uuid.New(),
		Label:       desc.Label,
		Width:       desc.Width,
		Height:      desc.Height,
		ColorFormat: desc.ColorFormat,
		DepthFormat: desc.DepthFormat,
		Samples:     desc.Samples,
		Color:       &common.Texture{ID: uuid.New(), Width: desc.Width, Height: desc.Height, Format: desc.ColorFormat},
	}
	d.live[rt.ID] = true
	return rt, nil
}

func (d *fakeDevice) ReleaseRenderTarget(rt *common.RenderTarget) {
	if rt == nil || !d.live[rt.ID] {
		return
	}
	delete(d.live, rt.ID)
	d.released++
}

func (d *fakeDevice) FrameBuffer() *common.RenderTarget      { return d.fb }
func (d *fakeDevice) SetFrameBuffer(rt *common.RenderTarget) { d.fb = rt }
func (d *fakeDevice) Clear(mgl32.Vec4)                       {}

func (d *fakeDevice) Draw(p pipeline.Pipeline, m material.Material) error {
	d.drawnInto = append(d.drawnInto, d.fb)
	if d.failDraw {
		return errDeviceLost
	}
	return nil
}

func (d *fakeDevice) ReleaseMaterial(m material.Material) {
	d.freed = append(d.freed, m)
}

func testPipeline() pipeline.Pipeline {
	return pipeline.NewPipeline("test", pipeline.WithKernel(func(s pipeline.Sampler, m material.Material, u, v float32) mgl32.Vec4 {
		return mgl32.Vec4{}
	}))
}

func TestInitAllocatesTarget(t *testing.T) {
	dev := newFakeDevice()
	p := NewPass("extract")
	assert.False(t, p.Initialized())
	assert.Nil(t, p.RenderedTexture())

	require.NoError(t, p.Init(dev, 64, 32, common.FormatRGBA16Float, common.FormatNone, 0, testPipeline(), nil))

	assert.True(t, p.Initialized())
	assert.Equal(t, "extract", p.Label())
	rt := p.RenderTarget()
	require.NotNil(t, rt)
	assert.Equal(t, 64, rt.Width)
	assert.Equal(t, 32, rt.Height)
	assert.Equal(t, 1, rt.Samples)
	assert.Same(t, rt.Color, p.RenderedTexture())
	require.NotNil(t, p.Material())
	assert.Equal(t, "extract", p.Material().Name())
	assert.Equal(t, "test", p.Material().PipelineKey())
	assert.Equal(t, "test", p.Pipeline().PipelineKey())
}

func TestInitRejectsInvalidSize(t *testing.T) {
	dev := newFakeDevice()
	p := NewPass("tiny")

	err := p.Init(dev, 0, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil)
	assert.True(t, errors.Is(err, ErrInvalidTargetSize))
	assert.ErrorContains(t, err, "tiny")
	assert.False(t, p.Initialized())
	assert.Empty(t, dev.live)
}

func TestInitRejectsIncompletePipeline(t *testing.T) {
	dev := newFakeDevice()
	err := NewPass("gpu").Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, pipeline.NewPipeline("empty"), nil)
	assert.True(t, errors.Is(err, pipeline.ErrIncompletePipeline))
	assert.Empty(t, dev.live)
}

func TestInitWrapsDeviceError(t *testing.T) {
	dev := newFakeDevice()
	dev.failAlloc = true
	p := NewPass("mip_3")

	err := p.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil)
	assert.True(t, errors.Is(err, errDeviceLost))
	assert.ErrorContains(t, err, "mip_3")
	assert.False(t, p.Initialized())
}

func TestReinitReleasesPreviousTarget(t *testing.T) {
	dev := newFakeDevice()
	p := NewPass("blur")
	require.NoError(t, p.Init(dev, 8, 8, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))
	first := p.RenderTarget()

	require.NoError(t, p.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))

	assert.NotEqual(t, first.ID, p.RenderTarget().ID)
	assert.Equal(t, 1, dev.released)
	assert.Len(t, dev.live, 1)
}

func TestRenderBindsTargetAndRestores(t *testing.T) {
	dev := newFakeDevice()
	outer := &common.RenderTarget{ID: uuid.New()}
	dev.fb = outer

	var hooked material.Material
	p := NewPass("accumulate", WithBeforeRender(func(m material.Material) {
		hooked = m
	}))
	require.NoError(t, p.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))

	require.NoError(t, p.Render(dev))
	assert.Same(t, p.Material(), hooked)
	require.Len(t, dev.drawnInto, 1)
	assert.Same(t, p.RenderTarget(), dev.drawnInto[0])
	assert.Same(t, outer, dev.fb)
}

func TestRenderRestoresFrameBufferOnDrawFailure(t *testing.T) {
	dev := newFakeDevice()
	p := NewPass("vblur")
	require.NoError(t, p.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))
	dev.failDraw = true

	err := p.Render(dev)
	assert.True(t, errors.Is(err, errDeviceLost))
	assert.Nil(t, dev.fb)
}

func TestRenderErrors(t *testing.T) {
	dev := newFakeDevice()

	err := NewPass("early").Render(dev)
	assert.True(t, errors.Is(err, ErrNotInitialized))

	glow := NewPass("glow")
	require.NoError(t, glow.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatDepth24, 1, nil, nil))
	assert.Nil(t, glow.Material())
	assert.Nil(t, glow.Pipeline())
	assert.True(t, errors.Is(glow.Render(dev), ErrNoPipeline))
	assert.Empty(t, dev.drawnInto)
}

func TestCleanupIsIdempotent(t *testing.T) {
	dev := newFakeDevice()
	p := NewPass("hblur")
	require.NoError(t, p.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))

	p.Cleanup(dev)
	p.Cleanup(dev)

	assert.False(t, p.Initialized())
	assert.Nil(t, p.RenderTarget())
	assert.Equal(t, 1, dev.released)
}

func TestCleanupReleasesMaterial(t *testing.T) {
	dev := newFakeDevice()
	p := NewPass("mip_0")
	require.NoError(t, p.Init(dev, 4, 4, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))
	first := p.Material()
	assert.Empty(t, dev.freed)

	require.NoError(t, p.Init(dev, 2, 2, common.FormatRGBA16Float, common.FormatNone, 1, testPipeline(), nil))
	require.Len(t, dev.freed, 1)
	assert.Same(t, first, dev.freed[0])

	p.Cleanup(dev)
	require.Len(t, dev.freed, 2)
	assert.Same(t, p.Material(), dev.freed[1])
}
