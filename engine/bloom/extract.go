package bloom

import (
	"math"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// Material parameter names read by the bright pass.
const (
	ParamTexture        = "Texture"
	ParamGlowMap        = "GlowMap"
	ParamExposurePow    = "ExposurePow"
	ParamExposureCutoff = "ExposureCutoff"
	ParamExtract        = "Extract"
)

// bindExtract rebinds the bright pass inputs for the current frame.
func bindExtract(m material.Material, scene *common.Texture, glow *common.Texture, p Parameters) {
	m.SetTexture(ParamTexture, scene)
	if glow != nil {
		m.SetTexture(ParamGlowMap, glow)
	} else {
		m.ClearParam(ParamGlowMap)
	}
	m.SetFloat(ParamExposurePow, p.ExposurePower)
	m.SetFloat(ParamExposureCutoff, p.ExposureCutoff)
	m.SetBool(ParamExtract, p.GlowMode.extractsScene())
}

func extractKernel(s pipeline.Sampler, m material.Material, u, v float32) mgl32.Vec4 {
	exponent, _ := m.Float(ParamExposurePow)
	cutoff, _ := m.Float(ParamExposureCutoff)

	var color mgl32.Vec4
	if extract, _ := m.Bool(ParamExtract); extract {
		scene := s.Sample(ParamTexture, u, v)
		if (scene[0]+scene[1]+scene[2])/3 >= cutoff {
			color = powVec(scene, exponent)
		}
	}
	if m.Texture(ParamGlowMap) != nil {
		color = color.Add(powVec(s.Sample(ParamGlowMap, u, v), exponent))
	}
	return color
}

func packExtract(m material.Material) []byte {
	exponent, _ := m.Float(ParamExposurePow)
	cutoff, _ := m.Float(ParamExposureCutoff)
	extract, _ := m.Bool(ParamExtract)
	params := material.GPUExtractParams{
		ExposurePow:    exponent,
		ExposureCutoff: cutoff,
		Extract:        boolToUint(extract),
		HasGlow:        boolToUint(m.Texture(ParamGlowMap) != nil),
	}
	return params.Marshal()
}

// powVec raises every channel to exponent, negative channels count as 0.
func powVec(c mgl32.Vec4, exponent float32) mgl32.Vec4 {
	for i := range c {
		c[i] = float32(math.Pow(float64(max(c[i], 0)), float64(exponent)))
	}
	return c
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
