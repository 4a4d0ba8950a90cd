package bloom

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
)

// State is the lifecycle state of a filter.
type State int

const (
	// StateUninitialized means no targets are allocated.
	StateUninitialized State = iota
	// StateInitialized means the pass graph is allocated and frames can be rendered.
	StateInitialized
	// StateReinitializing means the pass graph is being released and rebuilt.
	StateReinitializing
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateReinitializing:
		return "reinitializing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SceneInput is the rendered scene a frame is filtered from.
type SceneInput struct {
	// Color is the HDR scene color texture. Required.
	Color *common.Texture
	// Depth is the scene depth texture, if any.
	Depth *common.Texture
}

// filter is the implementation of the Filter interface.
type filter struct {
	mu sync.Mutex

	params  Parameters
	weights []float32

	dev           pass.Device
	width, height int
	state         State
	graph         []PassDescriptor
	programs      *programs

	glowRenderer GlowRenderer
	logger       common.Logger
	warnedWidth  int
	warnedHeight int
}

// Filter is a mipmap bloom post-processing filter. It owns a fixed graph of offscreen
// passes: an optional glow pre-pass, a bright pass, a chain of downsampled levels that are
// optionally blurred, and an accumulation pass adding the weighted levels onto the scene.
//
// All methods are safe for concurrent use. Reinitialization holds the filter lock for its
// whole duration, so a frame never observes a partially rebuilt graph.
type Filter interface {
	// Init builds the pass graph for a viewport and allocates every render target. When an
	// allocation fails every target allocated so far is released and the filter stays
	// uninitialized.
	//
	// Parameters:
	//   - dev: the device allocating targets and executing passes
	//   - width: the viewport width in pixels
	//   - height: the viewport height in pixels
	//
	// Returns:
	//   - error: pass.ErrInvalidTargetSize for an empty viewport, ErrMissingGlowRenderer,
	//     or an error wrapping ErrAllocation and the device error
	Init(dev pass.Device, width, height int) error

	// Resize rebuilds the pass graph for a new viewport. Resizing to the current size is a no-op.
	//
	// Parameters:
	//   - width: the new viewport width
	//   - height: the new viewport height
	//
	// Returns:
	//   - error: ErrNotInitialized, pass.ErrInvalidTargetSize, or an allocation error
	Resize(width, height int) error

	// Reinit releases every pass and rebuilds the graph with the current parameters.
	//
	// Returns:
	//   - error: ErrNotInitialized or an allocation error
	Reinit() error

	// SetDownSamplingCoefficient changes the per-level size divisor and rebuilds the graph
	// when the filter is initialized.
	//
	// Parameters:
	//   - c: the new coefficient, strictly greater than 1
	//
	// Returns:
	//   - error: ErrInvalidParameter or an allocation error
	SetDownSamplingCoefficient(c float32) error

	// SetBloomIntensity recomputes the level weights factor * power^i. No target is reallocated.
	//
	// Parameters:
	//   - factor: the weight of level 0
	//   - power: the per-level multiplier
	//
	// Returns:
	//   - error: ErrInvalidParameter for negative values
	SetBloomIntensity(factor, power float32) error

	// SetExposurePower changes the bright pass exponent from the next frame on.
	//
	// Parameters:
	//   - p: the exponent, non-negative
	//
	// Returns:
	//   - error: ErrInvalidParameter for a negative exponent
	SetExposurePower(p float32) error

	// SetExposureCutoff changes the bright pass threshold from the next frame on.
	//
	// Parameters:
	//   - c: the mean-luminance cutoff
	SetExposureCutoff(c float32)

	// Render filters one frame: glow pre-pass, bright pass, every level and the accumulation.
	//
	// Parameters:
	//   - scene: the rendered scene
	//
	// Returns:
	//   - *common.Texture: the accumulate output, the filtered frame
	//   - error: ErrNotInitialized, ErrMissingScene, or an error naming the failing pass
	Render(scene SceneInput) (*common.Texture, error)

	// Cleanup releases every pass. The filter returns to StateUninitialized and needs Init again.
	Cleanup()

	// Parameters retrieves the current parameters.
	//
	// Returns:
	//   - Parameters: a copy of the parameters
	Parameters() Parameters

	// State retrieves the lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Levels retrieves the allocated mip levels.
	//
	// Returns:
	//   - []MipLevel: one entry per level, empty when uninitialized
	Levels() []MipLevel

	// Weights retrieves the accumulation weight of every level.
	//
	// Returns:
	//   - []float32: a copy of the weights
	Weights() []float32

	// Passes retrieves the pass graph in execution order.
	//
	// Returns:
	//   - []PassDescriptor: a copy of the descriptors, empty when uninitialized
	Passes() []PassDescriptor

	// Output retrieves the texture Render writes the filtered frame into.
	//
	// Returns:
	//   - *common.Texture: the accumulate output, nil when uninitialized
	Output() *common.Texture

	// Size retrieves the viewport size the graph is built for.
	//
	// Returns:
	//   - int: the viewport width
	//   - int: the viewport height
	Size() (int, int)
}

var _ Filter = &filter{}

// NewFilter creates a new uninitialized Filter configured with the provided options.
// Options start from DefaultParameters.
//
// Parameters:
//   - options: variadic list of FilterBuilderOption functions to configure the filter
//
// Returns:
//   - Filter: a new Filter instance
//   - error: an error wrapping ErrInvalidParameter, or a shader parse error
func NewFilter(options ...FilterBuilderOption) (Filter, error) {
	f := &filter{
		params: DefaultParameters(),
		logger: common.NewNopLogger(),
	}
	for _, opt := range options {
		opt(f)
	}
	if err := f.params.Validate(); err != nil {
		return nil, fmt.Errorf("bloom: %w", err)
	}
	progs, err := newPrograms()
	if err != nil {
		return nil, err
	}
	f.programs = progs
	f.weights = LevelWeights(f.params.BloomFactor, f.params.BloomPower, f.params.NumLevels)
	return f, nil
}

func (f *filter) Init(dev pass.Device, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if width < 1 || height < 1 {
		return fmt.Errorf("bloom: viewport %dx%d: %w", width, height, pass.ErrInvalidTargetSize)
	}
	if f.params.GlowMode.usesGlowPass() && f.glowRenderer == nil {
		return fmt.Errorf("bloom: glow mode %s: %w", f.params.GlowMode, ErrMissingGlowRenderer)
	}

	f.release()
	f.dev = dev
	f.width, f.height = width, height
	return f.build()
}

// build allocates the pass graph for the current viewport. Called with the lock held.
func (f *filter) build() error {
	graph := buildGraph(f.params, f.width, f.height)
	for i := range graph {
		d := &graph[i]
		depth := common.FormatNone
		if d.Kind == KindGlow {
			depth = common.FormatDepth24
		}

		p := pass.NewPass(d.Label())
		if err := p.Init(f.dev, d.Width, d.Height, f.params.ColorFormat, depth, 1, f.programs.forKind(d.Kind), nil); err != nil {
			for j := 0; j < i; j++ {
				graph[j].Pass.Cleanup(f.dev)
			}
			f.graph = nil
			f.state = StateUninitialized
			f.logger.Errorf("allocation of %s %dx%d failed: %v", d.Label(), d.Width, d.Height, err)
			return fmt.Errorf("bloom: %s %dx%d: %w: %w", d.Label(), d.Width, d.Height, ErrAllocation, err)
		}
		d.Pass = p
	}

	acc := graph[len(graph)-1]
	writeWeights(acc.Pass.Material(), f.weights)

	f.graph = graph
	f.state = StateInitialized
	f.logger.Infof("built %d passes for %dx%d, %d levels, coefficient %g", len(graph), f.width, f.height, f.params.NumLevels, f.params.DownSamplingCoefficient)
	return nil
}

// release frees every allocated pass. Called with the lock held.
func (f *filter) release() {
	for i := range f.graph {
		if p := f.graph[i].Pass; p != nil {
			p.Cleanup(f.dev)
		}
	}
	f.graph = nil
}

// reinit rebuilds the graph in place. Called with the lock held.
func (f *filter) reinit() error {
	f.state = StateReinitializing
	f.release()
	return f.build()
}

func (f *filter) Resize(width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateInitialized {
		return fmt.Errorf("bloom: resize: %w", ErrNotInitialized)
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("bloom: viewport %dx%d: %w", width, height, pass.ErrInvalidTargetSize)
	}
	if width == f.width && height == f.height {
		return nil
	}
	f.width, f.height = width, height
	return f.reinit()
}

func (f *filter) Reinit() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateInitialized {
		return fmt.Errorf("bloom: reinit: %w", ErrNotInitialized)
	}
	return f.reinit()
}

func (f *filter) SetDownSamplingCoefficient(c float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.params
	next.DownSamplingCoefficient = c
	if err := next.Validate(); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	f.params = next
	if f.state != StateInitialized {
		return nil
	}
	return f.reinit()
}

func (f *filter) SetBloomIntensity(factor, power float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.params
	next.BloomFactor = factor
	next.BloomPower = power
	if err := next.Validate(); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	f.params = next
	f.weights = LevelWeights(factor, power, f.params.NumLevels)
	if len(f.graph) > 0 {
		writeWeights(f.graph[len(f.graph)-1].Pass.Material(), f.weights)
	}
	return nil
}

func (f *filter) SetExposurePower(p float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := f.params
	next.ExposurePower = p
	if err := next.Validate(); err != nil {
		return fmt.Errorf("bloom: %w", err)
	}
	f.params = next
	return nil
}

func (f *filter) SetExposureCutoff(c float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params.ExposureCutoff = c
}

func (f *filter) Render(scene SceneInput) (*common.Texture, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateInitialized {
		return nil, fmt.Errorf("bloom: render: %w", ErrNotInitialized)
	}
	if scene.Color == nil {
		return nil, fmt.Errorf("bloom: render: %w", ErrMissingScene)
	}
	f.checkSceneSize(scene.Color)

	for i := range f.graph {
		d := &f.graph[i]
		var err error
		if d.Kind == KindGlow {
			err = renderGlowPass(f.dev, d.Pass.RenderTarget(), f.glowRenderer)
		} else {
			f.bind(d, scene)
			err = d.Pass.Render(f.dev)
		}
		if err != nil {
			return nil, fmt.Errorf("bloom: %s: %w", d.Label(), err)
		}
	}
	return f.graph[len(f.graph)-1].Pass.RenderedTexture(), nil
}

// checkSceneSize warns once per mismatching scene size.
func (f *filter) checkSceneSize(tex *common.Texture) {
	if tex.Width == f.width && tex.Height == f.height {
		return
	}
	if tex.Width == f.warnedWidth && tex.Height == f.warnedHeight {
		return
	}
	f.warnedWidth, f.warnedHeight = tex.Width, tex.Height
	f.logger.Warnf("scene %dx%d does not match viewport %dx%d", tex.Width, tex.Height, f.width, f.height)
}

// input resolves a descriptor input index to the texture it reads.
func (f *filter) input(idx int, scene SceneInput) *common.Texture {
	if idx == InputScene {
		return scene.Color
	}
	return f.graph[idx].Pass.RenderedTexture()
}

// bind runs the binding routine of a descriptor's kind.
func (f *filter) bind(d *PassDescriptor, scene SceneInput) {
	m := d.Pass.Material()
	switch d.Kind {
	case KindExtract:
		var glow *common.Texture
		if len(d.Inputs) > 1 {
			glow = f.input(d.Inputs[1], scene)
		}
		bindExtract(m, f.input(d.Inputs[0], scene), glow, f.params)
	case KindMipSample:
		bindMipSample(m, f.input(d.Inputs[0], scene), d.Width, d.Height)
	case KindHBlur:
		bindBlur(m, f.input(d.Inputs[0], scene), true)
	case KindVBlur:
		bindBlur(m, f.input(d.Inputs[0], scene), false)
	case KindAccumulate:
		levels := make([]*common.Texture, 0, len(d.Inputs)-1)
		for _, idx := range d.Inputs[1:] {
			levels = append(levels, f.input(idx, scene))
		}
		bindAccumulate(m, f.input(d.Inputs[0], scene), levels)
	}
}

func (f *filter) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.release()
	f.state = StateUninitialized
	f.dev = nil
}

func (f *filter) Parameters() Parameters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.params
}

func (f *filter) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *filter) Levels() []MipLevel {
	f.mu.Lock()
	defer f.mu.Unlock()

	levels := make([]MipLevel, 0, f.params.NumLevels)
	for _, d := range f.graph {
		switch d.Kind {
		case KindMipSample:
			tex := d.Pass.RenderedTexture()
			levels = append(levels, MipLevel{
				Index:   d.Level,
				Width:   d.Width,
				Height:  d.Height,
				Source:  f.graph[d.Inputs[0]].Pass.RenderedTexture(),
				Sampled: tex,
				Output:  tex,
			})
		case KindVBlur:
			levels[len(levels)-1].Output = d.Pass.RenderedTexture()
		}
	}
	return levels
}

func (f *filter) Weights() []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float32(nil), f.weights...)
}

func (f *filter) Passes() []PassDescriptor {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]PassDescriptor, len(f.graph))
	for i, d := range f.graph {
		d.Inputs = append([]int(nil), d.Inputs...)
		out[i] = d
	}
	return out
}

func (f *filter) Output() *common.Texture {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.graph) == 0 {
		return nil
	}
	return f.graph[len(f.graph)-1].Pass.RenderedTexture()
}

func (f *filter) Size() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width, f.height
}
