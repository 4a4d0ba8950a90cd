package renderer

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultPipelineCacheSize is the number of compiled pipelines kept before the least recently used is released.
	DefaultPipelineCacheSize = 16
	// DefaultMaxTextureDimension is the largest texture edge the renderer accepts unless overridden.
	DefaultMaxTextureDimension = 8192

	// PipelinePresent is the key of the program that draws an HDR texture to the surface.
	PipelinePresent = "renderer_present"
	// ParamTexture is the present material parameter holding the displayed texture.
	ParamTexture = "Texture"
	// ParamExposure is the present material parameter scaling linear color before tone mapping.
	ParamExposure = "Exposure"
	// ParamTonemap is the present material parameter enabling Reinhard tone mapping.
	ParamTonemap = "Tonemap"
)

var (
	// ErrTextureTooLarge is returned when a texture edge exceeds the renderer limit.
	ErrTextureTooLarge = errors.New("texture exceeds maximum dimension")
	// ErrUnsupportedSampleCount is returned when a render target asks for more than one sample.
	ErrUnsupportedSampleCount = errors.New("multisampled render targets are not supported")
	// ErrUnknownTexture is returned when a texture handle does not belong to the renderer or was released.
	ErrUnknownTexture = errors.New("unknown texture")
	// ErrNoFrameBuffer is returned when drawing into the device output of a headless renderer.
	ErrNoFrameBuffer = errors.New("no framebuffer bound")
	// ErrFeedbackLoop is returned when a draw samples the texture it renders into.
	ErrFeedbackLoop = errors.New("draw samples its own render target")
	// ErrPixelCount is returned when uploaded pixel data does not match the texture size.
	ErrPixelCount = errors.New("pixel data does not match texture size")
	// ErrUnsupportedBinding is returned when a shader declares a resource the renderer cannot bind.
	ErrUnsupportedBinding = errors.New("unsupported shader binding")
)

//go:embed assets/present.wgsl
var presentSource string

// Surface is the presentation target a Renderer draws its device output into.
// window.Window satisfies it.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// pipelineCacheKey identifies a compiled pipeline. The same program compiles once per
// attachment format pair it is drawn into.
type pipelineCacheKey struct {
	key   string
	color wgpu.TextureFormat
	depth wgpu.TextureFormat
}

// gpuTexture is a texture allocation owned by the renderer.
type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	handle  *common.Texture
	// uploaded marks textures created by UploadTexture rather than by a render target.
	uploaded bool
}

func (t *gpuTexture) release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache *lru.Cache[pipelineCacheKey, *gpuPipeline]
	pipelineIDs   uint64

	backendType RendererBackendType
	backend     RendererBackend
	logger      common.Logger

	textures    map[uuid.UUID]*gpuTexture
	targets     map[uuid.UUID]*common.RenderTarget
	providers   []bind_group_provider.BindGroupProvider
	frameBuffer *common.RenderTarget
	sampler     *wgpu.Sampler
	fallback    *gpuTexture

	presentPipeline pipeline.Pipeline
	presentMaterial material.Material

	width, height int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	cacheSize            int
	maxDim               int
	samplerConfig        common.SamplerStagingData
}

// Renderer is the GPU implementation of pass.Device on WebGPU.
//
// Render targets are single-sampled textures usable both as attachments and as sampled
// inputs. Every Draw and Clear is encoded as its own render pass and submitted immediately,
// so uniform writes always land before the draw that reads them. Compiled pipelines are kept
// in an LRU cache keyed by pipeline key and attachment formats; evicted pipelines release
// their GPU objects. Materials get a BindGroupProvider on their first draw, and its bind group
// is rebuilt only when the pipeline or the bound textures change.
//
// A Renderer created with a nil Surface is headless: the device output is unavailable and
// work only goes into render targets.
type Renderer interface {
	pass.Device

	// Resize reconfigures the surface for a new size. It is a no-op when headless.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Size retrieves the last configured surface size.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	Size() (int, int)

	// Headless reports whether the renderer has no surface.
	//
	// Returns:
	//   - bool: true when there is no surface
	Headless() bool

	// UploadTexture creates a half-float texture from linear RGBA data.
	//
	// Parameters:
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//   - pixels: 4 floats per pixel, row-major from the top-left corner
	//
	// Returns:
	//   - *common.Texture: the texture handle
	//   - error: ErrPixelCount, ErrTextureTooLarge, pass.ErrInvalidTargetSize, or a wrapped device error
	UploadTexture(width, height int, pixels []float32) (*common.Texture, error)

	// ReleaseTexture frees a texture created by UploadTexture. Render target attachments
	// are released with their target; passing one here is a no-op.
	//
	// Parameters:
	//   - tex: the texture to release
	ReleaseTexture(tex *common.Texture)

	// Present draws tex to the surface and presents the frame. The framebuffer binding is
	// left unchanged.
	//
	// Parameters:
	//   - tex: the HDR texture to display
	//   - exposure: the multiplier applied to linear color before tone mapping
	//   - tonemap: true applies Reinhard tone mapping, false clamps
	//
	// Returns:
	//   - error: ErrHeadless without a surface, or a draw error
	Present(tex *common.Texture, exposure float32, tonemap bool) error

	// PipelineCacheLen retrieves the number of compiled pipelines currently cached.
	//
	// Returns:
	//   - int: the number of cached pipelines
	PipelineCacheLen() int

	// Release frees every GPU resource owned by the renderer, the backend included.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the given backend type and surface, applying the provided options.
// A nil surface creates a headless renderer. Adapter or device creation failures panic.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - surface: the presentation surface, or nil for headless rendering
//   - options: variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: a new Renderer instance configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		logger:      common.NewNopLogger(),
		textures:    make(map[uuid.UUID]*gpuTexture),
		targets:     make(map[uuid.UUID]*common.RenderTarget),
		cacheSize:   DefaultPipelineCacheSize,
		maxDim:      DefaultMaxTextureDimension,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	cache, err := lru.NewWithEvict(r.cacheSize, r.releasePipelineOnEviction)
	if err != nil {
		panic(fmt.Sprintf("failed to create pipeline cache: %v", err))
	}
	r.pipelineCache = cache

	var descriptor *wgpu.SurfaceDescriptor
	if surface != nil {
		descriptor = surface.SurfaceDescriptor()
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(descriptor, r.forceFallbackAdapter)
	}
	r.logger.Debugf("adapter acquired (headless=%t, fallback=%t)", r.backend.Headless(), r.forceFallbackAdapter)

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if surface != nil {
		r.width, r.height = surface.Width(), surface.Height()
		r.backend.ConfigureSurface(r.width, r.height)
	}

	if r.sampler, err = r.backend.CreateSampler(r.samplerConfig); err != nil {
		panic(fmt.Sprintf("failed to create sampler: %v", err))
	}
	tex, view, err := r.backend.CreateTexture("Fallback Texture", 1, 1, wgpu.TextureFormatRGBA16Float,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		panic(fmt.Sprintf("failed to create fallback texture: %v", err))
	}
	r.backend.WriteTexture(tex, make([]byte, 8), 1, 1, 8)
	r.fallback = &gpuTexture{texture: tex, view: view}

	if r.presentPipeline, err = newPresentPipeline(); err != nil {
		panic(err)
	}
	r.presentMaterial = material.NewMaterial(
		material.WithName("present"),
		material.WithPipelineKey(PipelinePresent),
	)

	return r
}

// newPresentPipeline builds the program drawing an HDR texture to the surface.
func newPresentPipeline() (pipeline.Pipeline, error) {
	vs, err := shader.NewShader(PipelinePresent+"_vs", shader.ShaderTypeVertex, presentSource)
	if err != nil {
		return nil, fmt.Errorf("present shader: %w", err)
	}
	fs, err := shader.NewShader(PipelinePresent+"_fs", shader.ShaderTypeFragment, presentSource)
	if err != nil {
		return nil, fmt.Errorf("present shader: %w", err)
	}
	return pipeline.NewPipeline(PipelinePresent,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithUniformPacker(packPresent),
	), nil
}

// packPresent serializes the present material into a GPUPresentParams block.
func packPresent(m material.Material) []byte {
	params := material.GPUPresentParams{Exposure: 1}
	if exposure, ok := m.Float(ParamExposure); ok {
		params.Exposure = exposure
	}
	if tonemap, _ := m.Bool(ParamTonemap); tonemap {
		params.Tonemap = 1
	}
	return params.Marshal()
}

// halfPixels packs float pixels into little-endian RGBA16Float texels.
func halfPixels(pixels []float32) []byte {
	out := make([]byte, len(pixels)*2)
	for i, v := range pixels {
		binary.LittleEndian.PutUint16(out[i*2:], common.Float32ToHalf(v))
	}
	return out
}

func (r *renderer) releasePipelineOnEviction(key pipelineCacheKey, gp *gpuPipeline) {
	r.logger.Debugf("releasing pipeline %s (%v/%v)", key.key, key.color, key.depth)
	gp.release()
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) Headless() bool {
	return r.backend.Headless()
}

func (r *renderer) PipelineCacheLen() int {
	return r.pipelineCache.Len()
}

func (r *renderer) checkSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%dx%d: %w", width, height, pass.ErrInvalidTargetSize)
	}
	if width > r.maxDim || height > r.maxDim {
		return fmt.Errorf("%dx%d exceeds %d: %w", width, height, r.maxDim, ErrTextureTooLarge)
	}
	return nil
}

func (r *renderer) CreateRenderTarget(desc common.RenderTargetDescriptor) (*common.RenderTarget, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkSize(desc.Width, desc.Height); err != nil {
		return nil, fmt.Errorf("render target %s: %w", desc.Label, err)
	}
	colorFormat, ok := toWGPUFormat(desc.ColorFormat)
	if !ok || !desc.ColorFormat.IsColor() {
		return nil, fmt.Errorf("render target %s: color %v: %w", desc.Label, desc.ColorFormat, pass.ErrUnsupportedFormat)
	}
	depthFormat, ok := toWGPUFormat(desc.DepthFormat)
	if !ok || (desc.DepthFormat != common.FormatNone && !desc.DepthFormat.IsDepth()) {
		return nil, fmt.Errorf("render target %s: depth %v: %w", desc.Label, desc.DepthFormat, pass.ErrUnsupportedFormat)
	}
	samples := common.AtLeast(desc.Samples, 1)
	if samples > 1 {
		return nil, fmt.Errorf("render target %s: %d samples: %w", desc.Label, samples, ErrUnsupportedSampleCount)
	}

	colorTex, colorView, err := r.backend.CreateTexture(desc.Label+" Color", desc.Width, desc.Height, colorFormat,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc|wgpu.TextureUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("render target %s: %w", desc.Label, err)
	}
	color := &gpuTexture{
		texture: colorTex,
		view:    colorView,
		handle:  &common.Texture{ID: uuid.New(), Width: desc.Width, Height: desc.Height, Format: desc.ColorFormat},
	}

	var depth *gpuTexture
	if desc.DepthFormat != common.FormatNone {
		depthTex, depthView, err := r.backend.CreateTexture(desc.Label+" Depth", desc.Width, desc.Height, depthFormat,
			wgpu.TextureUsageRenderAttachment)
		if err != nil {
			color.release()
			return nil, fmt.Errorf("render target %s: %w", desc.Label, err)
		}
		depth = &gpuTexture{
			texture: depthTex,
			view:    depthView,
			handle:  &common.Texture{ID: uuid.New(), Width: desc.Width, Height: desc.Height, Format: desc.DepthFormat},
		}
	}

	rt := &common.RenderTarget{
		ID:          uuid.New(),
		Label:       desc.Label,
		Width:       desc.Width,
		Height:      desc.Height,
		ColorFormat: desc.ColorFormat,
		DepthFormat: desc.DepthFormat,
		Samples:     samples,
		Color:       color.handle,
	}
	r.textures[color.handle.ID] = color
	if depth != nil {
		rt.Depth = depth.handle
		r.textures[depth.handle.ID] = depth
	}
	r.targets[rt.ID] = rt
	return rt, nil
}

func (r *renderer) ReleaseRenderTarget(rt *common.RenderTarget) {
	if rt == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.targets[rt.ID]; !ok {
		return
	}
	delete(r.targets, rt.ID)
	for _, tex := range []*common.Texture{rt.Color, rt.Depth} {
		if tex == nil {
			continue
		}
		if gt, ok := r.textures[tex.ID]; ok {
			gt.release()
			delete(r.textures, tex.ID)
		}
	}
	if r.frameBuffer != nil && r.frameBuffer.ID == rt.ID {
		r.frameBuffer = nil
	}
}

func (r *renderer) FrameBuffer() *common.RenderTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameBuffer
}

func (r *renderer) SetFrameBuffer(rt *common.RenderTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frameBuffer = rt
}

// attachments resolves the views of the bound framebuffer, or of the swapchain image when
// the device output is bound.
func (r *renderer) attachments() (color, depth *wgpu.TextureView, colorFormat, depthFormat wgpu.TextureFormat, err error) {
	if r.frameBuffer == nil {
		if r.backend.Headless() {
			return nil, nil, 0, 0, ErrNoFrameBuffer
		}
		view, err := r.backend.AcquireSurfaceView()
		if err != nil {
			return nil, nil, 0, 0, err
		}
		return view, nil, r.backend.SurfaceFormat(), wgpu.TextureFormatUndefined, nil
	}

	fb := r.frameBuffer
	gc, ok := r.textures[fb.Color.ID]
	if !ok {
		return nil, nil, 0, 0, fmt.Errorf("framebuffer %s: %w", fb.Label, ErrUnknownTexture)
	}
	colorFormat, _ = toWGPUFormat(fb.ColorFormat)
	depthFormat = wgpu.TextureFormatUndefined
	if fb.Depth != nil {
		gd, ok := r.textures[fb.Depth.ID]
		if !ok {
			return nil, nil, 0, 0, fmt.Errorf("framebuffer %s: %w", fb.Label, ErrUnknownTexture)
		}
		depth = gd.view
		depthFormat, _ = toWGPUFormat(fb.DepthFormat)
	}
	return gc.view, depth, colorFormat, depthFormat, nil
}

func (r *renderer) Clear(color mgl32.Vec4) {
	r.mu.Lock()
	defer r.mu.Unlock()

	colorView, depthView, _, _, err := r.attachments()
	if err != nil {
		r.logger.Warnf("clear skipped: %v", err)
		return
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3]),
				},
			},
		},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	if err := r.backend.SubmitRenderPass(desc, nil); err != nil {
		r.logger.Errorf("clear failed: %v", err)
	}
}

func (r *renderer) Draw(p pipeline.Pipeline, m material.Material) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draw(p, m)
}

func (r *renderer) draw(p pipeline.Pipeline, m material.Material) error {
	if m == nil {
		return fmt.Errorf("pipeline %s: nil material", p.PipelineKey())
	}
	colorView, depthView, colorFormat, depthFormat, err := r.attachments()
	if err != nil {
		return err
	}
	gp, err := r.cachedPipeline(p, colorFormat, depthFormat)
	if err != nil {
		return err
	}
	bindGroup, err := r.bindGroup(gp, p, m)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.PipelineKey(), err)
	}

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:         depthView,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
	}
	return r.backend.SubmitRenderPass(desc, func(rp *wgpu.RenderPassEncoder) {
		rp.SetPipeline(gp.pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.Draw(p.VertexCount(), 1, 0, 0)
	})
}

// cachedPipeline returns the compiled pipeline for p and the attachment formats, compiling
// it on a cache miss.
func (r *renderer) cachedPipeline(p pipeline.Pipeline, colorFormat, depthFormat wgpu.TextureFormat) (*gpuPipeline, error) {
	key := pipelineCacheKey{key: p.PipelineKey(), color: colorFormat, depth: depthFormat}
	if gp, ok := r.pipelineCache.Get(key); ok {
		return gp, nil
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	gp, err := r.backend.RegisterRenderPipeline(p, colorFormat, depthFormat)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.PipelineKey(), err)
	}
	r.pipelineIDs++
	gp.id = r.pipelineIDs
	r.pipelineCache.Add(key, gp)
	r.logger.Debugf("compiled pipeline %s (%v/%v)", key.key, colorFormat, depthFormat)
	return gp, nil
}

// bindGroup resolves the bind group 0 of gp for material m, rebuilding it when the
// pipeline or the bound textures changed, and uploads the material uniforms.
func (r *renderer) bindGroup(gp *gpuPipeline, p pipeline.Pipeline, m material.Material) (*wgpu.BindGroup, error) {
	provider := r.attachProvider(m)

	params := p.TextureParams()
	uniforms := p.PackUniforms(m)

	var signature strings.Builder
	fmt.Fprintf(&signature, "%d", gp.id)
	entries := make([]wgpu.BindGroupEntry, 0, len(gp.entries))
	var writes []bind_group_provider.UniformWrite

	for _, e := range gp.entries {
		binding := int(e.Binding)
		switch {
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Sampler: r.sampler})
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			view, id, err := r.textureView(m.Texture(params[binding]))
			if err != nil {
				return nil, fmt.Errorf("binding %d (%s): %w", binding, params[binding], err)
			}
			fmt.Fprintf(&signature, ":%d=%s", binding, id)
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, TextureView: view})
		case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
			size := common.AtLeast(e.Buffer.MinBindingSize, uint64(len(uniforms)))
			if err := r.backend.InitUniformBuffer(provider, binding, size); err != nil {
				return nil, fmt.Errorf("binding %d: %w", binding, err)
			}
			buf := provider.Buffer(binding)
			fmt.Fprintf(&signature, ":%d=%p", binding, buf)
			entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Size: wgpu.WholeSize})
			if len(uniforms) > 0 {
				writes = append(writes, bind_group_provider.UniformWrite{Provider: provider, Binding: binding, Data: uniforms})
			}
		default:
			return nil, fmt.Errorf("binding %d: %w", binding, ErrUnsupportedBinding)
		}
	}

	if provider.Signature() != signature.String() {
		if err := r.backend.InitBindGroup(provider, gp.groupLayouts[0], entries, signature.String()); err != nil {
			return nil, err
		}
	}
	r.backend.WriteUniforms(writes)
	return provider.BindGroup(), nil
}

// textureView resolves the view sampled for tex. A nil texture binds the black fallback.
func (r *renderer) textureView(tex *common.Texture) (*wgpu.TextureView, uuid.UUID, error) {
	if tex == nil {
		return r.fallback.view, uuid.Nil, nil
	}
	gt, ok := r.textures[tex.ID]
	if !ok {
		return nil, uuid.Nil, fmt.Errorf("texture %s: %w", tex.ID, ErrUnknownTexture)
	}
	if r.frameBuffer != nil && r.frameBuffer.Color.ID == tex.ID {
		return nil, uuid.Nil, fmt.Errorf("texture %s: %w", tex.ID, ErrFeedbackLoop)
	}
	return gt.view, tex.ID, nil
}

func (r *renderer) UploadTexture(width, height int, pixels []float32) (*common.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkSize(width, height); err != nil {
		return nil, err
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%d floats for %dx%d: %w", len(pixels), width, height, ErrPixelCount)
	}

	tex, view, err := r.backend.CreateTexture("Upload Texture", width, height, wgpu.TextureFormatRGBA16Float,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("upload %dx%d: %w", width, height, err)
	}
	r.backend.WriteTexture(tex, halfPixels(pixels), width, height, common.FormatRGBA16Float.BytesPerPixel())

	handle := &common.Texture{ID: uuid.New(), Width: width, Height: height, Format: common.FormatRGBA16Float}
	r.textures[handle.ID] = &gpuTexture{texture: tex, view: view, handle: handle, uploaded: true}
	return handle, nil
}

func (r *renderer) ReleaseTexture(tex *common.Texture) {
	if tex == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	gt, ok := r.textures[tex.ID]
	if !ok || !gt.uploaded {
		return
	}
	gt.release()
	delete(r.textures, tex.ID)
}

func (r *renderer) Present(tex *common.Texture, exposure float32, tonemap bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.backend.Headless() {
		return ErrHeadless
	}

	prev := r.frameBuffer
	r.frameBuffer = nil
	defer func() { r.frameBuffer = prev }()

	r.presentMaterial.SetTexture(ParamTexture, tex)
	r.presentMaterial.SetFloat(ParamExposure, exposure)
	r.presentMaterial.SetBool(ParamTonemap, tonemap)
	if err := r.draw(r.presentPipeline, r.presentMaterial); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	r.backend.Present()
	return nil
}

// attachProvider returns the provider of m, creating and tracking one on first use.
func (r *renderer) attachProvider(m material.Material) bind_group_provider.BindGroupProvider {
	provider := m.BindGroupProvider()
	if provider == nil {
		provider = bind_group_provider.NewBindGroupProvider(m.Name())
		m.SetBindGroupProvider(provider)
		r.providers = append(r.providers, provider)
	}
	return provider
}

func (r *renderer) ReleaseMaterial(m material.Material) {
	if m == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	provider := m.BindGroupProvider()
	if provider == nil {
		return
	}
	provider.Release()
	m.SetBindGroupProvider(nil)
	r.providers = slices.DeleteFunc(r.providers, func(p bind_group_provider.BindGroupProvider) bool {
		return p == provider
	})
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pipelineCache.Purge()
	for _, p := range r.providers {
		p.Release()
	}
	r.providers = nil
	for id, gt := range r.textures {
		gt.release()
		delete(r.textures, id)
	}
	for id := range r.targets {
		delete(r.targets, id)
	}
	r.frameBuffer = nil
	if r.fallback != nil {
		r.fallback.release()
		r.fallback = nil
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	r.backend.Release()
}
