// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that drive struct injection, uniform declaration, and the mapping from
// texture bindings to material parameter names. The parsed results are stored as
// Annotation values and consumed by the PreProcessor and the Renderer's draw path.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition
	// into the shader at the annotation site. This annotation does not produce a
	// declaration and is consumed entirely during pre-processing.
	//
	// Syntax: //@oxy:include <struct_type>
	//
	// Example: //@oxy:include extract_params
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding uniform declaration
	// and appends an Annotation to the PreProcessor's declarations list.
	//
	// Syntax: //@oxy:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@oxy:group 0 3 storage_uniform params extract_params
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeParam binds a hand-written texture declaration to the material
	// parameter it samples. No WGSL is generated; the declaration stays directly below
	// the annotation in the shader source.
	//
	// Syntax: //@oxy:param <group> <binding> <material_param_name>
	//
	// Example:
	//   //@oxy:param 0 1 Texture
	//   @group(0) @binding(1) var scene_texture: texture_2d<f32>;
	AnnotationTypeParam AnnotationType = "param"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or param).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = struct type key (e.g. "mip_params")
	//   - group:   [0] = address space, [1] = var name, [2] = WGSL type key
	//   - param:   [0] = material parameter name (e.g. "GlowMap")
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Group is the @group index for group and param annotations. Nil for include annotations.
	Group *int

	// Binding is the @binding index for group and param annotations. Nil for include annotations.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL struct types. Each maps to a Go GPU type in the
// material package with an embedded .wgsl asset file.

const (
	// AnnotationArgExtractParams identifies the ExtractParams struct.
	// Source: engine/renderer/material/assets/extract_params.wgsl
	AnnotationArgExtractParams AnnotationArg = "extract_params"

	// AnnotationArgMipParams identifies the MipParams struct.
	// Source: engine/renderer/material/assets/mip_params.wgsl
	AnnotationArgMipParams AnnotationArg = "mip_params"

	// AnnotationArgBlurParams identifies the BlurParams struct.
	// Source: engine/renderer/material/assets/blur_params.wgsl
	AnnotationArgBlurParams AnnotationArg = "blur_params"

	// AnnotationArgAccumulateParams identifies the AccumulateParams struct.
	// Source: engine/renderer/material/assets/accumulate_params.wgsl
	AnnotationArgAccumulateParams AnnotationArg = "accumulate_params"

	// AnnotationArgPresentParams identifies the PresentParams struct.
	// Source: engine/renderer/material/assets/present_params.wgsl
	AnnotationArgPresentParams AnnotationArg = "present_params"
)

// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
const annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

// validStructTypes lists all AnnotationArg values that are accepted as struct type
// arguments in @oxy:include and @oxy:group annotations. Each entry must have a
// corresponding registryEntry in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgExtractParams,
	AnnotationArgMipParams,
	AnnotationArgBlurParams,
	AnnotationArgAccumulateParams,
	AnnotationArgPresentParams,
}

// validAddressSpaces lists the address space arguments accepted in @oxy:group annotations.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @oxy group annotation requires exactly five arguments (group, binding, address space, var name, struct type)", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @oxy group annotation", lineNum, args[3])
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[5])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy group annotation", lineNum, args[5])
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case string(AnnotationTypeParam):
		if len(args) != 4 {
			return nil, fmt.Errorf("line %d: @oxy param annotation requires exactly three arguments (group, binding, param name)", lineNum)
		}
		group, binding, err := parseGroupBinding(args[1], args[2], lineNum)
		if err != nil {
			return nil, err
		}
		if !isParamName(args[3]) {
			return nil, fmt.Errorf("line %d: invalid material parameter name %q in @oxy param annotation", lineNum, args[3])
		}
		return &Annotation{
			Type:    AnnotationTypeParam,
			Args:    []AnnotationArg{AnnotationArg(args[3])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}

func parseGroupBinding(groupArg, bindingArg string, lineNum int) (int, int, error) {
	group, err := strconv.Atoi(groupArg)
	if err != nil || group < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid group number %q in @oxy annotation", lineNum, groupArg)
	}
	binding, err := strconv.Atoi(bindingArg)
	if err != nil || binding < 0 {
		return 0, 0, fmt.Errorf("line %d: invalid binding number %q in @oxy annotation", lineNum, bindingArg)
	}
	return group, binding, nil
}

// isParamName accepts identifiers made of letters, digits and underscores, not starting with a digit.
func isParamName(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return s != ""
}
