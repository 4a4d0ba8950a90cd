package pass

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrInvalidTargetSize is returned when a render target is requested with a width or height below 1.
	ErrInvalidTargetSize = errors.New("render target size must be at least 1x1")
	// ErrUnsupportedFormat is returned when a render target color or depth format cannot be rendered to.
	ErrUnsupportedFormat = errors.New("unsupported render target format")
	// ErrNotInitialized is returned when rendering a pass that has no render target.
	ErrNotInitialized = errors.New("pass not initialized")
	// ErrNoPipeline is returned when rendering a target-only pass.
	ErrNoPipeline = errors.New("pass has no pipeline")
)

// Device is the rendering contract a pass draws through. It owns render target memory
// and the framebuffer binding, and executes full-screen draws of a pipeline with the
// parameters of a material.
type Device interface {
	// CreateRenderTarget allocates an offscreen render target.
	//
	// Parameters:
	//   - desc: the size, formats and sample count of the target
	//
	// Returns:
	//   - *common.RenderTarget: the allocated target
	//   - error: ErrInvalidTargetSize, ErrUnsupportedFormat, or a wrapped device error
	CreateRenderTarget(desc common.RenderTargetDescriptor) (*common.RenderTarget, error)

	// ReleaseRenderTarget frees the textures of a render target. Releasing nil or an
	// already released target is a no-op.
	//
	// Parameters:
	//   - rt: the target to release
	ReleaseRenderTarget(rt *common.RenderTarget)

	// FrameBuffer retrieves the currently bound framebuffer.
	//
	// Returns:
	//   - *common.RenderTarget: the bound target, or nil for the device output
	FrameBuffer() *common.RenderTarget

	// SetFrameBuffer binds the framebuffer subsequent Clear and Draw calls write into.
	//
	// Parameters:
	//   - rt: the target to bind, or nil for the device output
	SetFrameBuffer(rt *common.RenderTarget)

	// Clear fills the color attachment of the bound framebuffer.
	//
	// Parameters:
	//   - color: the clear color
	Clear(color mgl32.Vec4)

	// Draw executes one full-screen draw into the bound framebuffer.
	//
	// Parameters:
	//   - p: the program to run
	//   - m: the material supplying its parameters
	//
	// Returns:
	//   - error: an error if the program cannot run on this device
	Draw(p pipeline.Pipeline, m material.Material) error

	// ReleaseMaterial frees the device resources created for a material by its draws.
	// The material stays usable; a later Draw recreates what it needs. Releasing a
	// material that was never drawn is a no-op.
	//
	// Parameters:
	//   - m: the material to release
	ReleaseMaterial(m material.Material)
}
