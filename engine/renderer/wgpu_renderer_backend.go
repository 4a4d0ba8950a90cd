package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrHeadless is returned by surface operations on a backend created without a surface.
var ErrHeadless = errors.New("renderer has no surface")

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	// swapchain image acquired by the first draw into the device output, released by Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// gpuPipeline holds the GPU objects compiled for one pipeline and target format pair.
type gpuPipeline struct {
	// id is unique per renderer and keys bind groups built against this pipeline's layouts.
	id           uint64
	key          string
	pipeline     *wgpu.RenderPipeline
	layout       *wgpu.PipelineLayout
	groupLayouts []*wgpu.BindGroupLayout
	// entries is the merged layout of bind group 0 in binding order.
	entries []wgpu.BindGroupLayoutEntry
}

func (g *gpuPipeline) release() {
	if g.pipeline != nil {
		g.pipeline.Release()
		g.pipeline = nil
	}
	if g.layout != nil {
		g.layout.Release()
		g.layout = nil
	}
	for i, l := range g.groupLayouts {
		if l != nil {
			l.Release()
		}
		g.groupLayouts[i] = nil
	}
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Adapter() *wgpu.Adapter
	Surface() *wgpu.Surface

	// Headless reports whether the backend was created without a presentation surface.
	//
	// Returns:
	//   - bool: true when there is no surface
	Headless() bool

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	// It is a no-op on a headless backend.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SurfaceFormat retrieves the color format of the configured surface.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format, TextureFormatUndefined before ConfigureSurface
	SurfaceFormat() wgpu.TextureFormat

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CreateTexture allocates a single-sampled 2D texture and its default view.
	//
	// Parameters:
	//   - label: debug label for the texture
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//   - format: the texel format
	//   - usage: the usage flags
	//
	// Returns:
	//   - *wgpu.Texture: the texture
	//   - *wgpu.TextureView: the default view
	//   - error: an error if creation fails
	CreateTexture(label string, width, height int, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error)

	// WriteTexture uploads tightly packed texel rows into a texture.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - data: the texel bytes, row-major from the top-left corner
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//   - bytesPerPixel: the size of one texel in data
	WriteTexture(tex *wgpu.Texture, data []byte, width, height, bytesPerPixel int)

	// CreateSampler creates a GPU sampler from the provided staging data.
	// Unset fields fall back to clamp-to-edge addressing and linear filtering.
	//
	// Parameters:
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler
	//   - error: an error if creation fails
	CreateSampler(samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error)

	// RegisterRenderPipeline compiles the shader pair of p into a render pipeline drawing
	// into the given attachment formats.
	//
	// Parameters:
	//   - p: the pipeline to compile
	//   - colorFormat: the color attachment format
	//   - depthFormat: the depth attachment format, TextureFormatUndefined for none
	//
	// Returns:
	//   - *gpuPipeline: the compiled objects, owned by the caller
	//   - error: an error if compilation fails
	RegisterRenderPipeline(p pipeline.Pipeline, colorFormat, depthFormat wgpu.TextureFormat) (*gpuPipeline, error)

	// InitUniformBuffer creates the uniform buffer for a binding on the provider if it does not exist.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffer on
	//   - binding: the binding index
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - error: an error if the buffer could not be created
	InitUniformBuffer(provider bind_group_provider.BindGroupProvider, binding int, size uint64) error

	// InitBindGroup creates a bind group from the given entries and stores it on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the bind group on
	//   - layout: the bind group layout the entries follow
	//   - entries: the resources to bind
	//   - signature: the key identifying the layout and resource set
	//
	// Returns:
	//   - error: an error if the bind group could not be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry, signature string) error

	// WriteUniforms queues every uniform upload. Writes whose provider has no buffer for
	// the binding are skipped.
	//
	// Parameters:
	//   - writes: the packed uniforms of one draw
	WriteUniforms(writes []bind_group_provider.UniformWrite)

	// AcquireSurfaceView returns the view of the current swapchain image, acquiring the
	// image on first use. The image is held until Present.
	//
	// Returns:
	//   - *wgpu.TextureView: the swapchain image view
	//   - error: ErrHeadless without a surface, or the acquisition error
	AcquireSurfaceView() (*wgpu.TextureView, error)

	// SubmitRenderPass encodes a single render pass and submits it to the queue.
	//
	// Parameters:
	//   - desc: the render pass attachments
	//   - record: records commands into the pass, may be nil for a clear-only pass
	//
	// Returns:
	//   - error: an error if the command buffer could not be created
	SubmitRenderPass(desc *wgpu.RenderPassDescriptor, record func(rp *wgpu.RenderPassEncoder)) error

	// Present presents the acquired swapchain image and releases it.
	// It is a no-op when no image is held.
	Present()

	// Release frees the device, adapter, surface and instance.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:            &sync.Mutex{},
		instance:      wgpu.CreateInstance(nil),
		presentMode:   wgpu.PresentModeImmediate,
		surfaceFormat: wgpu.TextureFormatUndefined,
	}
	if surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Bloom Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) Headless() bool {
	return b.surface == nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) CreateTexture(label string, width, height int, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label,
		Usage:     usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (b *wgpuRendererBackendImpl) WriteTexture(tex *wgpu.Texture, data []byte, width, height, bytesPerPixel int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * bytesPerPixel),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
}

func (b *wgpuRendererBackendImpl) CreateSampler(samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Bloom Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
	})
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline, colorFormat, depthFormat wgpu.TextureFormat) (*gpuPipeline, error) {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return nil, fmt.Errorf("pipeline %q: both vertex and fragment shaders must be set to create a render pipeline", p.PipelineKey())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", vertexShader.Key(), err)
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", fragmentShader.Key(), err)
	}
	defer fs.Release()

	out := &gpuPipeline{key: p.PipelineKey()}

	merged := mergeBindGroupLayouts(vertexShader.BindGroupLayoutDescriptors(), fragmentShader.BindGroupLayoutDescriptors())
	maxGroup := -1
	for g := range merged {
		if g > maxGroup {
			maxGroup = g
		}
	}
	out.groupLayouts = make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		desc := merged[g]
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			out.release()
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		out.groupLayouts[g] = layout
	}
	out.entries = merged[0].Entries

	out.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: out.groupLayouts,
	})
	if err != nil {
		out.release()
		return nil, err
	}

	target := wgpu.ColorTargetState{
		Format:    colorFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	var depthStencil *wgpu.DepthStencilState
	if depthFormat != wgpu.TextureFormatUndefined {
		// fullscreen programs neither test nor write depth, the attachment only has to match
		depthStencil = &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	out.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: out.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		out.release()
		return nil, err
	}

	return out, nil
}

func (b *wgpuRendererBackendImpl) InitUniformBuffer(provider bind_group_provider.BindGroupProvider, binding int, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if buf := provider.Buffer(binding); buf != nil {
		return nil
	}
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: provider.Label() + " Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	provider.SetBuffer(binding, buf)
	return nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupEntry, signature string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup, signature)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteUniforms(writes []bind_group_provider.UniformWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if buf := w.Target(); buf != nil {
			b.queue.WriteBuffer(buf, 0, w.Data)
		}
	}
}

func (b *wgpuRendererBackendImpl) AcquireSurfaceView() (*wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil {
		return nil, ErrHeadless
	}
	if b.frameView != nil {
		return b.frameView, nil
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view
	return view, nil
}

func (b *wgpuRendererBackendImpl) SubmitRenderPass(desc *wgpu.RenderPassDescriptor, record func(rp *wgpu.RenderPassEncoder)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	rp := encoder.BeginRenderPass(desc)
	if record != nil {
		record(rp)
	}
	rp.End()
	rp.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) Adapter() *wgpu.Adapter {
	return b.adapter
}

func (b *wgpuRendererBackendImpl) Surface() *wgpu.Surface {
	return b.surface
}

// mergeBindGroupLayouts combines the bind group layouts of a vertex and fragment shader.
// Bindings present in both stages have their visibility OR-ed together.
//
// Parameters:
//   - vertexLayouts: the vertex shader descriptors keyed by group index
//   - fragmentLayouts: the fragment shader descriptors keyed by group index
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(
	vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor,
) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	groups := make(map[int]bool)
	for g := range vertexLayouts {
		groups[g] = true
	}
	for g := range fragmentLayouts {
		groups[g] = true
	}

	for g := range groups {
		vDesc, hasV := vertexLayouts[g]
		fDesc, hasF := fragmentLayouts[g]

		switch {
		case hasV && !hasF:
			merged[g] = vDesc
		case hasF && !hasV:
			merged[g] = fDesc
		default:
			entryMap := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range vDesc.Entries {
				entryMap[e.Binding] = e
			}
			for _, e := range fDesc.Entries {
				if existing, ok := entryMap[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entryMap[e.Binding] = existing
				} else {
					entryMap[e.Binding] = e
				}
			}

			entries := make([]wgpu.BindGroupLayoutEntry, 0, len(entryMap))
			for _, e := range entryMap {
				entries = append(entries, e)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].Binding < entries[j].Binding
			})

			merged[g] = wgpu.BindGroupLayoutDescriptor{
				Label:   fDesc.Label,
				Entries: entries,
			}
		}
	}

	return merged
}
