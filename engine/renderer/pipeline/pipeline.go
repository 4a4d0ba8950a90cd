package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrIncompletePipeline is returned by Validate when a pipeline has neither a complete
// shader pair nor a CPU kernel.
var ErrIncompletePipeline = errors.New("pipeline has no runnable program")

// Sampler reads filtered texels from the textures bound on a material.
// Coordinates are normalized with (0, 0) at the top-left corner of the texture.
type Sampler interface {
	// Sample returns the filtered color of the texture bound under name at (u, v).
	// Unbound names sample as transparent black.
	Sample(name string, u, v float32) mgl32.Vec4
}

// Kernel is the CPU rendition of a fragment program. It is invoked once per output
// texel with the texel-center coordinate of that texel.
type Kernel func(s Sampler, m material.Material, u, v float32) mgl32.Vec4

// UniformPacker serializes the scalar parameters of a material into the byte layout
// the fragment shader's uniform block expects.
type UniformPacker func(m material.Material) []byte

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey    string
	vertexShader   shader.Shader
	fragmentShader shader.Shader
	kernel         Kernel
	packer         UniformPacker
	vertexCount    uint32

	blendEnabled bool
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState
}

// Pipeline describes a fullscreen shading program. A pipeline carries the WGSL shader pair
// a GPU device compiles, the uniform packer feeding its parameter block, and the CPU kernel
// a software device evaluates instead. Devices cache the compiled GPU objects themselves,
// keyed by PipelineKey and the formats of the target being drawn into.
type Pipeline interface {
	// PipelineKey retrieves the unique key identifying this pipeline.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader retrieves the shader for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the shader, or nil when the stage is not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Kernel retrieves the CPU rendition of the fragment program.
	//
	// Returns:
	//   - Kernel: the kernel, or nil when the pipeline is GPU-only
	Kernel() Kernel

	// PackUniforms serializes the scalar parameters of a material for upload.
	//
	// Parameters:
	//   - m: the material whose parameters are packed
	//
	// Returns:
	//   - []byte: the packed uniform block, nil when the pipeline has no packer
	PackUniforms(m material.Material) []byte

	// TextureParams retrieves the material texture parameter names the fragment shader
	// samples, keyed by binding index in group 0.
	//
	// Returns:
	//   - map[int]string: binding index to parameter name, empty without a fragment shader
	TextureParams() map[int]string

	// VertexCount retrieves the number of vertices issued per draw.
	//
	// Returns:
	//   - uint32: the vertex count
	VertexCount() uint32

	// BlendEnabled reports whether color blending is enabled.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// BlendState retrieves the blend state used when blending is enabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// WriteMask retrieves the color write mask.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the write mask
	WriteMask() wgpu.ColorWriteMask

	// CullMode retrieves the face culling mode.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology retrieves the primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace retrieves the winding order considered front facing.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding
	FrontFace() wgpu.FrontFace

	// Validate checks that the pipeline can be drawn by at least one kind of device.
	//
	// Returns:
	//   - error: ErrIncompletePipeline when there is no kernel and no complete shader pair
	Validate() error
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline configured with the provided options.
// Defaults describe a fullscreen triangle without blending, culling or depth.
//
// Parameters:
//   - pipelineKey: the unique key identifying the pipeline
//   - opts: variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		vertexCount:  3,
		blendEnabled: false,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Kernel() Kernel {
	return p.kernel
}

func (p *pipeline) PackUniforms(m material.Material) []byte {
	if p.packer == nil || m == nil {
		return nil
	}
	return p.packer(m)
}

func (p *pipeline) TextureParams() map[int]string {
	if p.fragmentShader == nil {
		return map[int]string{}
	}
	return p.fragmentShader.TextureParams(0)
}

func (p *pipeline) VertexCount() uint32 {
	return p.vertexCount
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) Validate() error {
	if p.kernel != nil {
		return nil
	}
	if p.vertexShader != nil && p.fragmentShader != nil {
		return nil
	}
	return fmt.Errorf("pipeline %q: %w", p.pipelineKey, ErrIncompletePipeline)
}
