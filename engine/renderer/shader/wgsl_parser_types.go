package shader

import "github.com/cogentcore/webgpu/wgpu"

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
// Used to compute MinBindingSize for uniform bindings.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// BindingInfo describes one resource declaration of a shader module.
type BindingInfo struct {
	// Group and Binding are the @group and @binding indices.
	Group, Binding int
	// VarName is the WGSL variable name.
	VarName string
	// TypeName is the declared WGSL type, e.g. "texture_2d<f32>" or "MipParams".
	TypeName string
	// Entry is the layout entry derived from the declaration.
	Entry wgpu.BindGroupLayoutEntry
}
