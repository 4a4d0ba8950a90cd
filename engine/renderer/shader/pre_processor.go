// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, replaces them with generated WGSL declarations
// or injected struct source, and collects a declarations list that the Renderer uses
// to bind material parameters and uniforms without hard-coded binding indices.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL struct sources and their
//     resolved type names.
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name emitted in @oxy:group declarations (e.g. "MipParams").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group and param annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations,
// replacing them with generated declarations or injected struct sources while collecting
// a declarations list for downstream binding.
type PreProcessor interface {
	// Process takes raw WGSL shader source code and replaces @oxy: annotations with their
	// WGSL output. @oxy:include annotations are replaced with embedded struct source text,
	// @oxy:group annotations with generated @group/@binding declarations. @oxy:param
	// annotations produce no output but are recorded in the declarations list.
	//
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//
	// Returns:
	//   - string: the processed WGSL shader source code with annotations replaced
	//   - error: an error if any annotation is malformed or references an unknown type
	Process(source string) (string, error)

	// Declarations returns the group and param annotations collected during the most
	// recent call to Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered struct types and
// address space mappings pre-populated.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgExtractParams:    {Source: material.GPUExtractParamsSource, Type: "ExtractParams"},
			AnnotationArgMipParams:        {Source: material.GPUMipParamsSource, Type: "MipParams"},
			AnnotationArgBlurParams:       {Source: material.GPUBlurParamsSource, Type: "BlurParams"},
			AnnotationArgAccumulateParams: {Source: material.GPUAccumulateParamsSource, Type: "AccumulateParams"},
			AnnotationArgPresentParams:    {Source: material.GPUPresentParamsSource, Type: "PresentParams"},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.declarations = p.declarations[:0]
	included := make(map[AnnotationArg]bool)

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			// a struct may only be declared once per module.
			if included[a.Args[0]] {
				continue
			}
			included[a.Args[0]] = true
			out = append(out, entry.Source)
		case AnnotationTypeBindingGroup:
			entry, ok := p.structRegistry[a.Args[2]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:group struct type %q", i+1, a.Args[2])
			}
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeParam:
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
