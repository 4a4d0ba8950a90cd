package bloom

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
)

// InputScene marks a pass input that reads the scene color texture rather than an earlier pass.
const InputScene = -1

// PassKind identifies the role of a pass in the bloom graph and selects its binding routine.
type PassKind int

const (
	// KindGlow is the glow pre-pass target rendered by the GlowRenderer.
	KindGlow PassKind = iota
	// KindExtract is the bright pass.
	KindExtract
	// KindMipSample downsamples into one mip level.
	KindMipSample
	// KindHBlur is the horizontal blur of one level.
	KindHBlur
	// KindVBlur is the vertical blur of one level.
	KindVBlur
	// KindAccumulate composites the scene with every level.
	KindAccumulate
)

func (k PassKind) String() string {
	switch k {
	case KindGlow:
		return "glow"
	case KindExtract:
		return "extract"
	case KindMipSample:
		return "mip"
	case KindHBlur:
		return "hblur"
	case KindVBlur:
		return "vblur"
	case KindAccumulate:
		return "accumulate"
	default:
		return fmt.Sprintf("PassKind(%d)", int(k))
	}
}

// PassDescriptor is one node of the bloom graph. Descriptors are stored in execution order
// and every input refers to an earlier descriptor or to InputScene.
type PassDescriptor struct {
	// Kind is the role of the pass.
	Kind PassKind
	// Level is the mip level the pass belongs to, -1 for glow, extract and accumulate.
	Level int
	// Inputs are the indices of the descriptors whose output the pass samples, in binding order.
	Inputs []int
	// Width and Height are the render target dimensions.
	Width, Height int
	// Pass is the allocated pass, nil until the graph is initialized.
	Pass pass.Pass
}

// Label names the pass after its kind and level.
func (d PassDescriptor) Label() string {
	if d.Level < 0 {
		return d.Kind.String()
	}
	return fmt.Sprintf("%s_%d", d.Kind, d.Level)
}

// buildGraph lays out the pass graph for a viewport in execution order.
func buildGraph(p Parameters, width, height int) []PassDescriptor {
	graph := make([]PassDescriptor, 0, 3+3*p.NumLevels)

	extractInputs := []int{InputScene}
	if p.GlowMode.usesGlowPass() {
		w, h := LevelSize(width, height, p.DownSamplingCoefficient, 0)
		graph = append(graph, PassDescriptor{Kind: KindGlow, Level: -1, Width: w, Height: h})
		extractInputs = append(extractInputs, len(graph)-1)
	}

	graph = append(graph, PassDescriptor{Kind: KindExtract, Level: -1, Inputs: extractInputs, Width: width, Height: height})
	prev := len(graph) - 1

	outputs := make([]int, 0, p.NumLevels)
	for i := 0; i < p.NumLevels; i++ {
		w, h := LevelSize(width, height, p.DownSamplingCoefficient, i)
		graph = append(graph, PassDescriptor{Kind: KindMipSample, Level: i, Inputs: []int{prev}, Width: w, Height: h})
		prev = len(graph) - 1
		if p.Quality == QualityHigh {
			graph = append(graph, PassDescriptor{Kind: KindHBlur, Level: i, Inputs: []int{prev}, Width: w, Height: h})
			prev = len(graph) - 1
			graph = append(graph, PassDescriptor{Kind: KindVBlur, Level: i, Inputs: []int{prev}, Width: w, Height: h})
			prev = len(graph) - 1
		}
		outputs = append(outputs, prev)
	}

	accInputs := append([]int{InputScene}, outputs...)
	graph = append(graph, PassDescriptor{Kind: KindAccumulate, Level: -1, Inputs: accInputs, Width: width, Height: height})
	return graph
}
