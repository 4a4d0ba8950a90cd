package bloom

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// Material parameter names read by the mip sampler.
const (
	ParamDx = "Dx"
	ParamDy = "Dy"
)

const (
	mipCenterWeight   = 0.2
	mipNeighborWeight = 0.11
)

// mipNeighbors are the 8 tap offsets around the center, in units of (Dx, Dy).
var mipNeighbors = [8][2]float32{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// MipLevel describes one allocated level of the mip chain.
type MipLevel struct {
	// Index is the 0-based level index.
	Index int
	// Width and Height are the level resolution.
	Width, Height int
	// Source is the texture the level samples: the extract output for level 0, else the
	// Output of the previous level.
	Source *common.Texture
	// Sampled is the mip sampler output of the level.
	Sampled *common.Texture
	// Output is the texture the accumulator reads, the blurred level in QualityHigh.
	Output *common.Texture
}

// mipSamplerWeightSum is the total weight of the 9-tap mip sampler.
func mipSamplerWeightSum() float32 {
	return mipCenterWeight + float32(len(mipNeighbors))*mipNeighborWeight
}

// bindMipSample points a level at its source and sets the half-texel offsets of the level.
func bindMipSample(m material.Material, src *common.Texture, width, height int) {
	m.SetTexture(ParamTexture, src)
	m.SetFloat(ParamDx, 0.5/float32(width))
	m.SetFloat(ParamDy, 0.5/float32(height))
}

func mipSampleKernel(s pipeline.Sampler, m material.Material, u, v float32) mgl32.Vec4 {
	dx, _ := m.Float(ParamDx)
	dy, _ := m.Float(ParamDy)

	color := s.Sample(ParamTexture, u, v).Mul(mipCenterWeight)
	for _, o := range mipNeighbors {
		color = color.Add(s.Sample(ParamTexture, u+o[0]*dx, v+o[1]*dy).Mul(mipNeighborWeight))
	}
	return color
}

func packMipSample(m material.Material) []byte {
	dx, _ := m.Float(ParamDx)
	dy, _ := m.Float(ParamDy)
	params := material.GPUMipParams{Dx: dx, Dy: dy}
	return params.Marshal()
}
