package pipeline

import (
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a function that configures a pipeline instance during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader is an option builder that sets the vertex stage shader.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: a function that applies the vertex shader option to a pipeline
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader is an option builder that sets the fragment stage shader.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PipelineBuilderOption: a function that applies the fragment shader option to a pipeline
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithKernel is an option builder that sets the CPU rendition of the fragment program.
//
// Parameters:
//   - k: the kernel
//
// Returns:
//   - PipelineBuilderOption: a function that applies the kernel option to a pipeline
func WithKernel(k Kernel) PipelineBuilderOption {
	return func(p *pipeline) {
		p.kernel = k
	}
}

// WithUniformPacker is an option builder that sets the uniform block packer.
//
// Parameters:
//   - packer: the function serializing material parameters
//
// Returns:
//   - PipelineBuilderOption: a function that applies the packer option to a pipeline
func WithUniformPacker(packer UniformPacker) PipelineBuilderOption {
	return func(p *pipeline) {
		p.packer = packer
	}
}

// WithVertexCount is an option builder that sets the number of vertices issued per draw.
//
// Parameters:
//   - count: the vertex count
//
// Returns:
//   - PipelineBuilderOption: a function that applies the vertex count option to a pipeline
func WithVertexCount(count uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexCount = count
	}
}

// WithBlendEnabled is an option builder that toggles color blending.
//
// Parameters:
//   - enabled: whether blending is enabled
//
// Returns:
//   - PipelineBuilderOption: a function that applies the blend option to a pipeline
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState is an option builder that sets the blend state.
//
// Parameters:
//   - state: the blend state used when blending is enabled
//
// Returns:
//   - PipelineBuilderOption: a function that applies the blend state option to a pipeline
func WithBlendState(state *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = state
	}
}

// WithWriteMask is an option builder that sets the color write mask.
//
// Parameters:
//   - mask: the color write mask
//
// Returns:
//   - PipelineBuilderOption: a function that applies the write mask option to a pipeline
func WithWriteMask(mask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = mask
	}
}

// WithCullMode is an option builder that sets the face culling mode.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - PipelineBuilderOption: a function that applies the cull mode option to a pipeline
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology is an option builder that sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - PipelineBuilderOption: a function that applies the topology option to a pipeline
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace is an option builder that sets the front face winding.
//
// Parameters:
//   - face: the front face winding
//
// Returns:
//   - PipelineBuilderOption: a function that applies the front face option to a pipeline
func WithFrontFace(face wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = face
	}
}
