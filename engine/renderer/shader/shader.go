package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader module is written for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation and material binding.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	entryPoint   string
	bindings     []BindingInfo
	layouts      map[int]wgpu.BindGroupLayoutDescriptor
	declarations []Annotation
	module       *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded and parsed WGSL shader. It exposes the shader's
// unique key, processed source, entry point, resource bindings, and the pre-processor
// declarations needed to bind material parameters.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "fs_main")
	EntryPoint() string

	// Bindings returns every resource declaration in group then binding order.
	//
	// Returns:
	//   - []BindingInfo: the parsed declarations
	Bindings() []BindingInfo

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all parsed bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// TextureParams maps texture bindings of a group to the material parameter each one samples,
	// as declared with @oxy:param annotations.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - map[int]string: material parameter names keyed by binding index
	TextureParams(group int) map[int]string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the group and param annotations parsed from the shader source.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader pre-processes and parses WGSL source into a Shader.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the shader is written for
//   - source: the raw WGSL source, possibly containing @oxy: annotations
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if pre-processing fails, no entry point exists, or a param annotation has no matching texture declaration
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: pre-process: %w", key, err)
	}
	s := &shader{
		key:          key,
		source:       processed,
		shaderType:   shaderType,
		declarations: append([]Annotation(nil), pp.Declarations()...),
	}
	s.entryPoint = parseEntryPoint(processed, shaderType)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no entry point for stage %d", key, shaderType)
	}

	visibility := wgpu.ShaderStageVertex
	if shaderType == ShaderTypeFragment {
		visibility = wgpu.ShaderStageFragment
	}
	s.bindings = parseBindings(processed, visibility)
	s.layouts = groupLayouts(s.bindings)

	for _, d := range s.declarations {
		if d.Type != AnnotationTypeParam {
			continue
		}
		info, ok := s.binding(*d.Group, *d.Binding)
		if !ok || info.Entry.Texture.SampleType == wgpu.TextureSampleTypeUndefined {
			return nil, fmt.Errorf("shader %s: line %d: @oxy:param %s does not precede a texture at group %d binding %d", key, d.Line, d.Args[0], *d.Group, *d.Binding)
		}
	}

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: processed,
		},
	}
	return s, nil
}

// NewShaderFromPath reads WGSL source from disk and parses it with NewShader.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is written for
//   - sourcePath: the file path to read WGSL source from
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the file cannot be read or parsing fails
func NewShaderFromPath(key string, shaderType ShaderType, sourcePath string) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, sourcePath, err)
	}
	return NewShader(key, shaderType, string(data))
}

func (s *shader) binding(group, binding int) (BindingInfo, bool) {
	for _, b := range s.bindings {
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return BindingInfo{}, false
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Bindings() []BindingInfo {
	return s.bindings
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.layouts[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) BindGroupVarName(group, binding int) string {
	b, _ := s.binding(group, binding)
	return b.VarName
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for _, b := range s.bindings {
		if b.Group == group && b.VarName == varName {
			return b.Binding, true
		}
	}
	return -1, false
}

func (s *shader) TextureParams(group int) map[int]string {
	out := make(map[int]string)
	for _, d := range s.declarations {
		if d.Type == AnnotationTypeParam && *d.Group == group {
			out[*d.Binding] = string(d.Args[0])
		}
	}
	return out
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
