package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed. They are populated by the Renderer on draw, not by user-creation.

	// bindGroup is the GPU bind group last created for this provider, or nil.
	bindGroup *wgpu.BindGroup
	// signature identifies the pipeline layout and texture set bindGroup was created for.
	signature string
	// buffers holds the GPU uniform buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
}

// BindGroupProvider holds the GPU resources one material needs for a draw: its uniform
// buffers and the bind group that ties them to the sampled textures. Texture views are
// borrowed from the render targets that own them and are never released here.
//
// Usage pattern:
//  1. The Renderer attaches a provider to a material on its first draw
//  2. Each draw writes the material uniforms into Buffer(binding)
//  3. When the bound textures or the pipeline layout change, the Renderer builds a new
//     bind group and stores it with SetBindGroup, which releases the previous one
//  4. Release frees everything when the material's pass is cleaned up
type BindGroupProvider interface {
	// Release releases any GPU resources held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the current bind group, or nil if none has been created.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Signature returns the key the current bind group was created for.
	//
	// Returns:
	//   - string: the signature, empty when no bind group exists
	Signature() string

	// SetBindGroup replaces the current bind group, releasing the previous one.
	//
	// Parameters:
	//   - bg: the created bind group
	//   - signature: the layout and texture key bg was created for
	SetBindGroup(bg *wgpu.BindGroup, signature string)

	// Buffer returns the uniform buffer for a binding, or nil if not created.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns all buffers keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: a map of buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// SetBuffer stores a uniform buffer for a binding, releasing any buffer it replaces.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)
}

// UniformWrite is one queued upload of packed material uniforms into the buffer a
// provider holds for a binding.
type UniformWrite struct {
	Provider BindGroupProvider
	Binding  int
	Data     []byte
}

// Target resolves the destination buffer, nil when the provider has none for the binding.
func (w UniformWrite) Target() *wgpu.Buffer {
	if w.Provider == nil {
		return nil
	}
	return w.Provider.Buffer(w.Binding)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label for the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Signature() string {
	return p.signature
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup, signature string) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
	p.signature = signature
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	if buf == nil {
		delete(p.buffers, binding)
		return
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	p.signature = ""
}
