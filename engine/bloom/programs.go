package bloom

import (
	"embed"
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
)

//go:embed assets/*.wgsl
var assets embed.FS

// Pipeline keys of the bloom programs.
const (
	PipelineExtract    = "bloom_extract"
	PipelineMipSample  = "bloom_mip_sampler"
	PipelineHBlur      = "bloom_blur_h"
	PipelineVBlur      = "bloom_blur_v"
	PipelineAccumulate = "bloom_accumulate"
)

// programs holds one pipeline per drawing pass kind.
type programs struct {
	byKind map[PassKind]pipeline.Pipeline
}

func loadShader(name string, shaderType shader.ShaderType) (shader.Shader, error) {
	src, err := assets.ReadFile("assets/" + name + ".wgsl")
	if err != nil {
		return nil, fmt.Errorf("bloom: read %s: %w", name, err)
	}
	return shader.NewShader("bloom_"+name, shaderType, string(src))
}

// newPrograms parses the embedded WGSL sources and pairs each with its kernel and packer.
func newPrograms() (*programs, error) {
	vs, err := loadShader("fullscreen", shader.ShaderTypeVertex)
	if err != nil {
		return nil, err
	}

	defs := []struct {
		kind   PassKind
		key    string
		source string
		kernel pipeline.Kernel
		packer pipeline.UniformPacker
	}{
		{KindExtract, PipelineExtract, "extract", extractKernel, packExtract},
		{KindMipSample, PipelineMipSample, "mip_sampler", mipSampleKernel, packMipSample},
		{KindHBlur, PipelineHBlur, "blur_h", blurKernel(true), packBlur},
		{KindVBlur, PipelineVBlur, "blur_v", blurKernel(false), packBlur},
		{KindAccumulate, PipelineAccumulate, "accumulate", accumulateKernel, packAccumulate},
	}

	p := &programs{byKind: make(map[PassKind]pipeline.Pipeline, len(defs))}
	for _, def := range defs {
		fs, err := loadShader(def.source, shader.ShaderTypeFragment)
		if err != nil {
			return nil, err
		}
		p.byKind[def.kind] = pipeline.NewPipeline(def.key,
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithKernel(def.kernel),
			pipeline.WithUniformPacker(def.packer),
		)
	}
	return p, nil
}

// forKind returns the program of a pass kind, nil for the target-only glow pass.
func (p *programs) forKind(kind PassKind) pipeline.Pipeline {
	return p.byKind[kind]
}
