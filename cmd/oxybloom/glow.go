package main

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/bloom"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

const glowMaskParam = "Mask"

// glowMask stands in for a scene's glow technique: it stretches a mask image over the
// glow target.
type glowMask struct {
	program  pipeline.Pipeline
	material material.Material
}

var _ bloom.GlowRenderer = &glowMask{}

func newGlowMask(mask *common.Texture) *glowMask {
	m := material.NewMaterial(material.WithName("glow_mask"))
	m.SetTexture(glowMaskParam, mask)
	return &glowMask{
		program: pipeline.NewPipeline("oxybloom_glow_mask",
			pipeline.WithKernel(func(s pipeline.Sampler, _ material.Material, u, v float32) mgl32.Vec4 {
				return s.Sample(glowMaskParam, u, v)
			}),
		),
		material: m,
	}
}

func (g *glowMask) RenderGlow(dev pass.Device, _ *common.RenderTarget, technique string) error {
	if technique != bloom.GlowTechnique {
		return nil
	}
	return dev.Draw(g.program, g.material)
}
