package bloom

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatSampler returns one constant color per texture name and records tap coordinates.
type flatSampler struct {
	colors map[string]mgl32.Vec4
	taps   [][2]float32
}

func (s *flatSampler) Sample(name string, u, v float32) mgl32.Vec4 {
	s.taps = append(s.taps, [2]float32{u, v})
	return s.colors[name]
}

func tex(w, h int) *common.Texture {
	return &common.Texture{ID: uuid.New(), Width: w, Height: h, Format: common.FormatRGBA16Float}
}

func u32At(buf []byte, off int) uint32 { return binary.LittleEndian.Uint32(buf[off : off+4]) }
func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// The mip sampler is intentionally not normalized.
func TestMipSamplerWeightSumIsPreserved(t *testing.T) {
	assert.InDelta(t, 1.08, mipSamplerWeightSum(), 1e-6)
}

func TestMipSampleKernel(t *testing.T) {
	m := material.NewMaterial()
	bindMipSample(m, tex(16, 8), 8, 4)
	dx, _ := m.Float(ParamDx)
	dy, _ := m.Float(ParamDy)
	assert.Equal(t, float32(0.5/8.0), dx)
	assert.Equal(t, float32(0.5/4.0), dy)

	s := &flatSampler{colors: map[string]mgl32.Vec4{ParamTexture: {1, 2, 0.5, 1}}}
	got := mipSampleKernel(s, m, 0.5, 0.5)
	assert.InDelta(t, 1.08, got[0], 1e-5)
	assert.InDelta(t, 2.16, got[1], 1e-5)
	assert.InDelta(t, 0.54, got[2], 1e-5)
	assert.InDelta(t, 1.08, got[3], 1e-5)

	require.Len(t, s.taps, 9)
	assert.Equal(t, [2]float32{0.5, 0.5}, s.taps[0])
	assert.Contains(t, s.taps, [2]float32{0.5 - dx, 0.5 - dy})
	assert.Contains(t, s.taps, [2]float32{0.5 + dx, 0.5 + dy})

	packed := packMipSample(m)
	require.Len(t, packed, 16)
	assert.Equal(t, dx, f32At(packed, 0))
	assert.Equal(t, dy, f32At(packed, 4))
}

func TestBlurWeightsSumToOne(t *testing.T) {
	var sum float32
	for _, w := range blurWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestBlurKernelTapSpacing(t *testing.T) {
	src := tex(40, 10)
	h := material.NewMaterial()
	bindBlur(h, src, true)
	size, _ := h.Float(ParamSize)
	scale, _ := h.Float(ParamScale)
	assert.Equal(t, float32(40), size)
	assert.Equal(t, float32(0.5), scale)

	s := &flatSampler{colors: map[string]mgl32.Vec4{ParamTexture: {2, 2, 2, 2}}}
	got := blurKernel(true)(s, h, 0.5, 0.25)
	assert.InDelta(t, 2.0, got[0], 1e-5)
	require.Len(t, s.taps, 9)
	assert.InDelta(t, 0.5-4*0.5/40, s.taps[0][0], 1e-7)
	assert.InDelta(t, 0.5+4*0.5/40, s.taps[8][0], 1e-7)
	for _, tap := range s.taps {
		assert.Equal(t, float32(0.25), tap[1])
	}

	v := material.NewMaterial()
	bindBlur(v, src, false)
	size, _ = v.Float(ParamSize)
	assert.Equal(t, float32(10), size)

	s.taps = nil
	blurKernel(false)(s, v, 0.5, 0.5)
	assert.InDelta(t, 0.5-4*0.5/10, s.taps[0][1], 1e-7)
	for _, tap := range s.taps {
		assert.Equal(t, float32(0.5), tap[0])
	}

	packed := packBlur(v)
	assert.Equal(t, float32(10), f32At(packed, 0))
	assert.Equal(t, float32(0.5), f32At(packed, 4))
}

func TestExtractKernel(t *testing.T) {
	scene, glow := tex(4, 4), tex(2, 2)
	p := DefaultParameters()
	p.ExposurePower = 2
	p.ExposureCutoff = 0.5

	t.Run("bright pixel raised to exposure power", func(t *testing.T) {
		m := material.NewMaterial()
		bindExtract(m, scene, nil, p)
		s := &flatSampler{colors: map[string]mgl32.Vec4{ParamTexture: {2, 1, 0.5, 1}}}
		assert.Equal(t, mgl32.Vec4{4, 1, 0.25, 1}, extractKernel(s, m, 0.5, 0.5))
	})

	t.Run("dark pixel cut off", func(t *testing.T) {
		m := material.NewMaterial()
		bindExtract(m, scene, nil, p)
		s := &flatSampler{colors: map[string]mgl32.Vec4{ParamTexture: {0.6, 0.4, 0.4, 1}}}
		assert.Equal(t, mgl32.Vec4{}, extractKernel(s, m, 0.5, 0.5))
	})

	t.Run("zero exposure power yields one", func(t *testing.T) {
		q := p
		q.ExposurePower = 0
		q.ExposureCutoff = 0
		m := material.NewMaterial()
		bindExtract(m, scene, nil, q)
		s := &flatSampler{colors: map[string]mgl32.Vec4{ParamTexture: {0.3, 0.2, 0.1, 1}}}
		assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, extractKernel(s, m, 0.5, 0.5))
	})

	t.Run("objects only ignores the scene", func(t *testing.T) {
		q := p
		q.GlowMode = GlowObjects
		m := material.NewMaterial()
		bindExtract(m, scene, glow, q)
		extract, ok := m.Bool(ParamExtract)
		require.True(t, ok)
		assert.False(t, extract)
		s := &flatSampler{colors: map[string]mgl32.Vec4{
			ParamTexture: {10, 10, 10, 1},
			ParamGlowMap: {0.5, 0, 0, 1},
		}}
		assert.Equal(t, mgl32.Vec4{0.25, 0, 0, 1}, extractKernel(s, m, 0.5, 0.5))
	})

	t.Run("scene and objects adds glow", func(t *testing.T) {
		q := p
		q.GlowMode = GlowSceneAndObjects
		m := material.NewMaterial()
		bindExtract(m, scene, glow, q)
		s := &flatSampler{colors: map[string]mgl32.Vec4{
			ParamTexture: {1, 1, 1, 1},
			ParamGlowMap: {0, 2, 0, 0},
		}}
		assert.Equal(t, mgl32.Vec4{1, 5, 1, 1}, extractKernel(s, m, 0.5, 0.5))

		packed := packExtract(m)
		require.Len(t, packed, 16)
		assert.Equal(t, float32(2), f32At(packed, 0))
		assert.Equal(t, float32(0.5), f32At(packed, 4))
		assert.Equal(t, uint32(1), u32At(packed, 8))
		assert.Equal(t, uint32(1), u32At(packed, 12))
	})

	t.Run("rebinding without glow clears the glow map", func(t *testing.T) {
		m := material.NewMaterial()
		bindExtract(m, scene, glow, p)
		bindExtract(m, scene, nil, p)
		assert.Nil(t, m.Texture(ParamGlowMap))
		assert.Equal(t, uint32(0), u32At(packExtract(m), 12))
	})
}

func TestAccumulateKernel(t *testing.T) {
	levels := []*common.Texture{tex(8, 8), tex(4, 4), tex(2, 2)}
	m := material.NewMaterial()
	bindAccumulate(m, tex(16, 16), levels)
	writeWeights(m, []float32{0.5, 0.25, 0})

	s := &flatSampler{colors: map[string]mgl32.Vec4{
		ParamTexture:         {1, 0.5, 0.25, 0.75},
		LevelTextureParam(0): {2, 0, 0, 9},
		LevelTextureParam(1): {0, 4, 0, 9},
		LevelTextureParam(2): {100, 100, 100, 9},
	}}
	assert.Equal(t, mgl32.Vec4{2, 1.5, 0.25, 0.75}, accumulateKernel(s, m, 0.5, 0.5))

	packed := packAccumulate(m)
	require.Len(t, packed, 48)
	assert.Equal(t, float32(0.5), f32At(packed, 0))
	assert.Equal(t, float32(0.25), f32At(packed, 4))
	assert.Equal(t, float32(0), f32At(packed, 8))
	assert.Equal(t, uint32(3), u32At(packed, 32))
}

func TestAccumulateRebindClearsUnusedSlots(t *testing.T) {
	m := material.NewMaterial()
	bindAccumulate(m, tex(4, 4), []*common.Texture{tex(2, 2), tex(1, 1)})
	writeWeights(m, []float32{1, 1})
	bindAccumulate(m, tex(4, 4), []*common.Texture{tex(2, 2)})
	writeWeights(m, []float32{1})

	assert.Nil(t, m.Texture(LevelTextureParam(1)))
	_, ok := m.Float(LevelWeightParam(1))
	assert.False(t, ok)
	n, _ := m.Float(ParamNumLevels)
	assert.Equal(t, float32(1), n)
}

func TestNewProgramsParsesEmbeddedShaders(t *testing.T) {
	progs, err := newPrograms()
	require.NoError(t, err)

	assert.Nil(t, progs.forKind(KindGlow))
	assert.Equal(t, PipelineExtract, progs.forKind(KindExtract).PipelineKey())
	assert.Equal(t, map[int]string{1: ParamTexture, 2: ParamGlowMap}, progs.forKind(KindExtract).TextureParams())
	assert.Equal(t, map[int]string{1: ParamTexture}, progs.forKind(KindHBlur).TextureParams())

	acc := progs.forKind(KindAccumulate).TextureParams()
	require.Len(t, acc, 1+MaxLevels)
	assert.Equal(t, ParamTexture, acc[1])
	assert.Equal(t, "Texture8", acc[9])

	for _, k := range []PassKind{KindExtract, KindMipSample, KindHBlur, KindVBlur, KindAccumulate} {
		assert.NoError(t, progs.forKind(k).Validate(), k.String())
	}
}
