package bloom

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
	"github.com/go-gl/mathgl/mgl32"
)

// GlowTechnique is the technique name the glow pre-pass asks the scene to render with.
const GlowTechnique = "Glow"

// glowClearColor is the glow target clear color, black with zero alpha.
var glowClearColor = mgl32.Vec4{0, 0, 0, 0}

// GlowRenderer draws the glow-emitting parts of a scene. The filter binds and clears the
// glow target before the call and restores the previous framebuffer afterwards.
type GlowRenderer interface {
	// RenderGlow draws the scene with the given technique into the bound framebuffer.
	//
	// Parameters:
	//   - dev: the device to draw with
	//   - target: the bound glow target
	//   - technique: the technique to render with, GlowTechnique
	//
	// Returns:
	//   - error: an error if drawing fails
	RenderGlow(dev pass.Device, target *common.RenderTarget, technique string) error
}

// GlowRendererFunc adapts a function to the GlowRenderer interface.
type GlowRendererFunc func(dev pass.Device, target *common.RenderTarget, technique string) error

// RenderGlow calls f.
func (f GlowRendererFunc) RenderGlow(dev pass.Device, target *common.RenderTarget, technique string) error {
	return f(dev, target, technique)
}

// renderGlowPass clears the glow target and lets the glow renderer draw into it.
func renderGlowPass(dev pass.Device, target *common.RenderTarget, r GlowRenderer) error {
	prev := dev.FrameBuffer()
	dev.SetFrameBuffer(target)
	defer dev.SetFrameBuffer(prev)

	dev.Clear(glowClearColor)
	return r.RenderGlow(dev, target, GlowTechnique)
}
