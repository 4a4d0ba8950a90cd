package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
)

// pass is the implementation of the Pass interface.
type pass struct {
	label        string
	target       *common.RenderTarget
	pipeline     pipeline.Pipeline
	material     material.Material
	beforeRender func(m material.Material)
}

// Pass is a single offscreen rendering step: one render target, one program and the
// material feeding it. A pass without a pipeline only owns a target that something else
// renders into.
type Pass interface {
	// Label retrieves the pass label used for target labels and error messages.
	//
	// Returns:
	//   - string: the pass label
	Label() string

	// Init allocates the render target and binds the program and material. Calling Init on
	// an initialized pass releases the previous target first.
	//
	// Parameters:
	//   - dev: the device allocating the target
	//   - width: the target width in pixels
	//   - height: the target height in pixels
	//   - colorFormat: the color attachment format
	//   - depthFormat: the depth attachment format, FormatNone for no depth
	//   - samples: the attachment sample count
	//   - p: the program to draw, or nil for a target-only pass
	//   - m: the material to bind, or nil to create an empty one when p is set
	//
	// Returns:
	//   - error: ErrInvalidTargetSize, a pipeline validation error, or the device allocation error
	Init(dev Device, width, height int, colorFormat, depthFormat common.TextureFormat, samples int, p pipeline.Pipeline, m material.Material) error

	// BeforeRender runs the hook installed with WithBeforeRender, if any.
	BeforeRender()

	// Render runs BeforeRender, binds the pass target, draws the program and restores the
	// previously bound framebuffer, also when the draw fails.
	//
	// Parameters:
	//   - dev: the device to draw with
	//
	// Returns:
	//   - error: ErrNotInitialized, ErrNoPipeline, or the draw error
	Render(dev Device) error

	// Cleanup releases the render target and the device resources held for the material.
	// Calling it more than once is a no-op.
	//
	// Parameters:
	//   - dev: the device that allocated the target
	Cleanup(dev Device)

	// RenderTarget retrieves the pass render target.
	//
	// Returns:
	//   - *common.RenderTarget: the target, or nil before Init and after Cleanup
	RenderTarget() *common.RenderTarget

	// RenderedTexture retrieves the color texture the pass renders into.
	//
	// Returns:
	//   - *common.Texture: the color attachment, or nil when not initialized
	RenderedTexture() *common.Texture

	// Material retrieves the bound material.
	//
	// Returns:
	//   - material.Material: the material, or nil for a target-only pass
	Material() material.Material

	// Pipeline retrieves the bound program.
	//
	// Returns:
	//   - pipeline.Pipeline: the program, or nil for a target-only pass
	Pipeline() pipeline.Pipeline

	// Initialized reports whether the pass currently owns a render target.
	//
	// Returns:
	//   - bool: true between Init and Cleanup
	Initialized() bool
}

var _ Pass = &pass{}

// NewPass creates a new uninitialized Pass configured with the provided options.
//
// Parameters:
//   - label: the pass label
//   - options: variadic list of PassBuilderOption functions to configure the pass
//
// Returns:
//   - Pass: a new Pass instance
func NewPass(label string, options ...PassBuilderOption) Pass {
	p := &pass{
		label: label,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *pass) Label() string {
	return p.label
}

func (p *pass) Init(dev Device, width, height int, colorFormat, depthFormat common.TextureFormat, samples int, pl pipeline.Pipeline, m material.Material) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("pass %s: %dx%d: %w", p.label, width, height, ErrInvalidTargetSize)
	}
	if pl != nil {
		if err := pl.Validate(); err != nil {
			return fmt.Errorf("pass %s: %w", p.label, err)
		}
	}

	p.Cleanup(dev)

	rt, err := dev.CreateRenderTarget(common.RenderTargetDescriptor{
		Label:       p.label,
		Width:       width,
		Height:      height,
		ColorFormat: colorFormat,
		DepthFormat: depthFormat,
		Samples:     common.AtLeast(samples, 1),
	})
	if err != nil {
		return fmt.Errorf("pass %s: %w", p.label, err)
	}

	if pl != nil && m == nil {
		m = material.NewMaterial(material.WithName(p.label))
	}
	if pl != nil {
		m.SetPipelineKey(pl.PipelineKey())
	}
	p.target = rt
	p.pipeline = pl
	p.material = m
	return nil
}

func (p *pass) BeforeRender() {
	if p.beforeRender != nil {
		p.beforeRender(p.material)
	}
}

func (p *pass) Render(dev Device) error {
	if p.target == nil {
		return fmt.Errorf("pass %s: %w", p.label, ErrNotInitialized)
	}
	if p.pipeline == nil {
		return fmt.Errorf("pass %s: %w", p.label, ErrNoPipeline)
	}

	p.BeforeRender()

	prev := dev.FrameBuffer()
	dev.SetFrameBuffer(p.target)
	defer dev.SetFrameBuffer(prev)

	if err := dev.Draw(p.pipeline, p.material); err != nil {
		return fmt.Errorf("pass %s: draw: %w", p.label, err)
	}
	return nil
}

func (p *pass) Cleanup(dev Device) {
	if p.material != nil {
		dev.ReleaseMaterial(p.material)
	}
	if p.target == nil {
		return
	}
	dev.ReleaseRenderTarget(p.target)
	p.target = nil
}

func (p *pass) RenderTarget() *common.RenderTarget {
	return p.target
}

func (p *pass) RenderedTexture() *common.Texture {
	if p.target == nil {
		return nil
	}
	return p.target.Color
}

func (p *pass) Material() material.Material {
	return p.material
}

func (p *pass) Pipeline() pipeline.Pipeline {
	return p.pipeline
}

func (p *pass) Initialized() bool {
	return p.target != nil
}
