package material

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/bind_group_provider"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithTexture is an option builder that binds an initial texture parameter.
//
// Parameters:
//   - name: the parameter name
//   - tex: the texture handle
//
// Returns:
//   - MaterialBuilderOption: a function that binds the texture on the material
func WithTexture(name string, tex *common.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.SetTexture(name, tex)
	}
}

// WithFloat is an option builder that binds an initial float parameter.
//
// Parameters:
//   - name: the parameter name
//   - value: the value
//
// Returns:
//   - MaterialBuilderOption: a function that binds the value on the material
func WithFloat(name string, value float32) MaterialBuilderOption {
	return func(m *material) {
		m.SetFloat(name, value)
	}
}

// WithBool is an option builder that binds an initial boolean parameter.
//
// Parameters:
//   - name: the parameter name
//   - value: the value
//
// Returns:
//   - MaterialBuilderOption: a function that binds the value on the material
func WithBool(name string, value bool) MaterialBuilderOption {
	return func(m *material) {
		m.SetBool(name, value)
	}
}

// WithPipelineKey is an option builder that sets the pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key to associate with the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithBindGroupProvider is an option builder that sets the bind group provider for the material.
//
// Parameters:
//   - provider: the bind group provider containing GPU resources for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bind group provider option to a material
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) MaterialBuilderOption {
	return func(m *material) {
		m.bindGroupProvider = provider
	}
}
