package renderer

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWGPUFormat(t *testing.T) {
	cases := []struct {
		in   common.TextureFormat
		want wgpu.TextureFormat
		ok   bool
	}{
		{common.FormatNone, wgpu.TextureFormatUndefined, true},
		{common.FormatRGBA8, wgpu.TextureFormatRGBA8Unorm, true},
		{common.FormatRG11B10Float, wgpu.TextureFormatRG11B10Ufloat, true},
		{common.FormatRGBA16Float, wgpu.TextureFormatRGBA16Float, true},
		{common.FormatDepth24, wgpu.TextureFormatDepth24Plus, true},
		{common.FormatDepth32Float, wgpu.TextureFormatDepth32Float, true},
		{common.FormatRGBA32Float, wgpu.TextureFormatUndefined, false},
	}
	for _, c := range cases {
		got, ok := toWGPUFormat(c.in)
		assert.Equal(t, c.ok, ok, c.in.String())
		if c.ok {
			assert.Equal(t, c.want, got, c.in.String())
		}
	}
}

func TestPresentPipeline(t *testing.T) {
	p, err := newPresentPipeline()
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, PipelinePresent, p.PipelineKey())
	assert.Equal(t, map[int]string{1: ParamTexture}, p.TextureParams())
	assert.Equal(t, "vs_main", p.Shader(shader.ShaderTypeVertex).EntryPoint())
	assert.Equal(t, "fs_main", p.Shader(shader.ShaderTypeFragment).EntryPoint())
}

func TestPackPresent(t *testing.T) {
	m := material.NewMaterial()
	packed := packPresent(m)
	require.Len(t, packed, 16)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(packed[0:4])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(packed[4:8]))

	m.SetFloat(ParamExposure, 2.5)
	m.SetBool(ParamTonemap, true)
	packed = packPresent(m)
	assert.Equal(t, float32(2.5), math.Float32frombits(binary.LittleEndian.Uint32(packed[0:4])))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(packed[4:8]))
}

func TestHalfPixels(t *testing.T) {
	out := halfPixels([]float32{0, 1, -2, 0.5})
	require.Len(t, out, 8)
	assert.Equal(t, uint16(0x0000), binary.LittleEndian.Uint16(out[0:]))
	assert.Equal(t, uint16(0x3C00), binary.LittleEndian.Uint16(out[2:]))
	assert.Equal(t, uint16(0xC000), binary.LittleEndian.Uint16(out[4:]))
	assert.Equal(t, uint16(0x3800), binary.LittleEndian.Uint16(out[6:]))
}

func TestMergeBindGroupLayouts(t *testing.T) {
	vertex := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 2, Visibility: wgpu.ShaderStageVertex},
		}},
		1: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageVertex},
		}},
	}
	fragment := map[int]wgpu.BindGroupLayoutDescriptor{
		0: {Entries: []wgpu.BindGroupLayoutEntry{
			{Binding: 0, Visibility: wgpu.ShaderStageFragment},
			{Binding: 2, Visibility: wgpu.ShaderStageFragment},
		}},
	}

	merged := mergeBindGroupLayouts(vertex, fragment)
	require.Len(t, merged, 2)

	group0 := merged[0].Entries
	require.Len(t, group0, 2)
	assert.Equal(t, uint32(0), group0[0].Binding)
	assert.Equal(t, wgpu.ShaderStageFragment, group0[0].Visibility)
	assert.Equal(t, uint32(2), group0[1].Binding)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, group0[1].Visibility)

	assert.Equal(t, vertex[1], merged[1])
}

func TestRendererBuilderOptions(t *testing.T) {
	r := &renderer{cacheSize: DefaultPipelineCacheSize, maxDim: DefaultMaxTextureDimension, logger: common.NewNopLogger()}
	logger := common.NewNopLogger()
	for _, opt := range []RendererBuilderOption{
		WithPresentMode(PresentModeVSync),
		WithForceSoftwareRenderer(),
		WithPipelineCacheSize(0),
		WithMaxTextureDimension(512),
		WithSampler(common.SamplerStagingData{MagFilter: wgpu.FilterModeNearest}),
		WithLogger(logger),
		WithLogger(nil),
	} {
		opt(r)
	}

	require.NotNil(t, r.pendingPresentMode)
	assert.Equal(t, PresentModeVSync, *r.pendingPresentMode)
	assert.True(t, r.forceFallbackAdapter)
	assert.Equal(t, DefaultPipelineCacheSize, r.cacheSize)
	assert.Equal(t, 512, r.maxDim)
	assert.Equal(t, wgpu.FilterModeNearest, r.samplerConfig.MagFilter)
	assert.Equal(t, logger, r.logger)

	WithPipelineCacheSize(4)(r)
	assert.Equal(t, 4, r.cacheSize)
}

func TestReleaseMaterialDropsProvider(t *testing.T) {
	r := &renderer{mu: &sync.Mutex{}, logger: common.NewNopLogger()}

	// every reinit of a pass graph draws fresh materials and releases the old ones
	var live []material.Material
	for round := 0; round < 3; round++ {
		for _, m := range live {
			r.ReleaseMaterial(m)
			assert.Nil(t, m.BindGroupProvider())
		}
		live = live[:0]
		for i := 0; i < 4; i++ {
			m := material.NewMaterial(material.WithName("level"))
			provider := r.attachProvider(m)
			assert.Same(t, provider, r.attachProvider(m))
			live = append(live, m)
		}
		assert.Len(t, r.providers, 4)
	}

	r.ReleaseMaterial(live[0])
	r.ReleaseMaterial(live[0])
	r.ReleaseMaterial(material.NewMaterial())
	r.ReleaseMaterial(nil)
	assert.Len(t, r.providers, 3)
}
