package material

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/bind_group_provider"
)

// ParamType identifies the kind of value a material parameter holds.
type ParamType int

const (
	// ParamTexture is a sampled texture parameter.
	ParamTexture ParamType = iota
	// ParamFloat is a scalar float parameter.
	ParamFloat
	// ParamBool is a boolean switch parameter.
	ParamBool
)

func (t ParamType) String() string {
	switch t {
	case ParamTexture:
		return "texture"
	case ParamFloat:
		return "float"
	case ParamBool:
		return "bool"
	default:
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
}

// Param is a single named value bound on a material.
type Param struct {
	// Name is the parameter name the shader program reads it under.
	Name string
	// Type selects which of the value fields is meaningful.
	Type ParamType
	// Texture is the bound texture for ParamTexture.
	Texture *common.Texture
	// Float is the bound value for ParamFloat.
	Float float32
	// Bool is the bound value for ParamBool.
	Bool bool
}

// material is the implementation of the Material interface.
type material struct {
	name              string
	pipelineKey       string
	params            map[string]Param
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material is a named parameter bag consumed by a shader program. Parameters are
// textures, floats and booleans addressed by name. Setting a parameter under an
// existing name replaces its value and type.
//
// GPU resource references (pipeline key, bind group provider) are mutable so a device
// can attach its resources lazily on the first draw.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// SetTexture binds a texture parameter. A nil texture removes the parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//   - tex: the texture handle to bind
	SetTexture(name string, tex *common.Texture)

	// SetFloat binds a float parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the value to bind
	SetFloat(name string, value float32)

	// SetBool binds a boolean parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//   - value: the value to bind
	SetBool(name string, value bool)

	// ClearParam removes a parameter of any type.
	//
	// Parameters:
	//   - name: the parameter name
	ClearParam(name string)

	// Texture retrieves a texture parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - *common.Texture: the bound texture, or nil when absent or not a texture
	Texture(name string) *common.Texture

	// Float retrieves a float parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - float32: the bound value, 0 when absent
	//   - bool: true if a float parameter with this name is bound
	Float(name string) (float32, bool)

	// Bool retrieves a boolean parameter.
	//
	// Parameters:
	//   - name: the parameter name
	//
	// Returns:
	//   - bool: the bound value, false when absent
	//   - bool: true if a boolean parameter with this name is bound
	Bool(name string) (bool, bool)

	// Params retrieves every bound parameter sorted by name.
	//
	// Returns:
	//   - []Param: a copy of the bound parameters
	Params() []Param

	// PipelineKey retrieves the key identifying the pipeline this material was last drawn with.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		params: make(map[string]Param),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) SetTexture(name string, tex *common.Texture) {
	if tex == nil {
		delete(m.params, name)
		return
	}
	m.params[name] = Param{Name: name, Type: ParamTexture, Texture: tex}
}

func (m *material) SetFloat(name string, value float32) {
	m.params[name] = Param{Name: name, Type: ParamFloat, Float: value}
}

func (m *material) SetBool(name string, value bool) {
	m.params[name] = Param{Name: name, Type: ParamBool, Bool: value}
}

func (m *material) ClearParam(name string) {
	delete(m.params, name)
}

func (m *material) Texture(name string) *common.Texture {
	p, ok := m.params[name]
	if !ok || p.Type != ParamTexture {
		return nil
	}
	return p.Texture
}

func (m *material) Float(name string) (float32, bool) {
	p, ok := m.params[name]
	if !ok || p.Type != ParamFloat {
		return 0, false
	}
	return p.Float, true
}

func (m *material) Bool(name string) (bool, bool) {
	p, ok := m.params[name]
	if !ok || p.Type != ParamBool {
		return false, false
	}
	return p.Bool, true
}

func (m *material) Params() []Param {
	out := make([]Param, 0, len(m.params))
	for _, p := range m.params {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
