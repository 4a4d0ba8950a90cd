package software

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	// DefaultMaxTextureDimension is the largest texture edge the device accepts unless overridden.
	DefaultMaxTextureDimension = 8192
	// tasksPerWorker is how many row bands a draw is split into per worker.
	tasksPerWorker = 4
)

var (
	// ErrTextureTooLarge is returned when a texture edge exceeds the device limit.
	ErrTextureTooLarge = errors.New("texture exceeds maximum dimension")
	// ErrTargetLimit is returned when the device has reached its configured render target count.
	ErrTargetLimit = errors.New("render target limit reached")
	// ErrUnknownTexture is returned when a texture handle does not belong to the device or was released.
	ErrUnknownTexture = errors.New("unknown texture")
	// ErrNoFrameBuffer is returned when drawing without a bound render target.
	ErrNoFrameBuffer = errors.New("no framebuffer bound")
	// ErrNoKernel is returned when drawing a pipeline that has no CPU kernel.
	ErrNoKernel = errors.New("pipeline has no kernel")
	// ErrPixelCount is returned when uploaded pixel data does not match the texture size.
	ErrPixelCount = errors.New("pixel data does not match texture size")
)

// Stats holds render target bookkeeping counters.
type Stats struct {
	// LiveTargets is the number of allocated, unreleased render targets.
	LiveTargets int
	// CreatedTargets is the number of render targets allocated since the device was created.
	CreatedTargets int
	// ReleasedTargets is the number of render targets released since the device was created.
	ReleasedTargets int
	// LiveTextures is the number of texture handles with storage, attachments included.
	LiveTextures int
}

// DrawRecord describes one executed draw.
type DrawRecord struct {
	// PipelineKey is the key of the program that ran.
	PipelineKey string
	// Target is the ID of the render target drawn into.
	Target uuid.UUID
	// Width and Height are the dimensions of the render target.
	Width, Height int
}

// device is the implementation of the Device interface.
type device struct {
	mu sync.Mutex

	textures    map[uuid.UUID]*surface
	targets     map[uuid.UUID]*common.RenderTarget
	frameBuffer *common.RenderTarget

	pool       worker.DynamicWorkerPool
	workers    int
	maxDim     int
	maxTargets int
	logger     common.Logger

	stats Stats
	draws []DrawRecord
}

// Device is a CPU implementation of pass.Device. Programs run through their pipeline
// kernels, one invocation per output texel, with rows shaded in parallel on a worker pool.
// Textures are float images quantized to the precision of their format on every write.
type Device interface {
	pass.Device

	// Upload creates an RGBA32Float texture from RGBA pixel data.
	//
	// Parameters:
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	//   - pixels: RGBA float values, 4 per pixel, row-major from the top-left corner
	//
	// Returns:
	//   - *common.Texture: the new texture
	//   - error: pass.ErrInvalidTargetSize, ErrTextureTooLarge or ErrPixelCount
	Upload(width, height int, pixels []float32) (*common.Texture, error)

	// ReadPixels copies the contents of a texture.
	//
	// Parameters:
	//   - tex: the texture to read
	//
	// Returns:
	//   - common.TextureStagingData: RGBA float pixel data
	//   - error: ErrUnknownTexture when the texture is not owned by this device
	ReadPixels(tex *common.Texture) (common.TextureStagingData, error)

	// ReleaseTexture frees an uploaded texture. Unknown handles are ignored.
	//
	// Parameters:
	//   - tex: the texture to release
	ReleaseTexture(tex *common.Texture)

	// Stats retrieves the render target counters.
	//
	// Returns:
	//   - Stats: a snapshot of the counters
	Stats() Stats

	// Draws retrieves every draw executed since creation or the last ResetDraws.
	//
	// Returns:
	//   - []DrawRecord: a copy of the draw log in execution order
	Draws() []DrawRecord

	// ResetDraws clears the draw log.
	ResetDraws()
}

var _ Device = &device{}

// NewDevice creates a new software Device configured with the provided options.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions to configure the device
//
// Returns:
//   - Device: a new Device instance
func NewDevice(options ...DeviceBuilderOption) Device {
	d := &device{
		textures: make(map[uuid.UUID]*surface),
		targets:  make(map[uuid.UUID]*common.RenderTarget),
		workers:  4,
		maxDim:   DefaultMaxTextureDimension,
		logger:   common.NewNopLogger(),
	}
	for _, opt := range options {
		opt(d)
	}
	d.workers = common.AtLeast(d.workers, 1)
	d.pool = worker.NewDynamicWorkerPool(d.workers, 256, 1*time.Second)
	return d
}

func (d *device) checkSize(width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("%dx%d: %w", width, height, pass.ErrInvalidTargetSize)
	}
	if width > d.maxDim || height > d.maxDim {
		return fmt.Errorf("%dx%d exceeds %d: %w", width, height, d.maxDim, ErrTextureTooLarge)
	}
	return nil
}

func (d *device) newTexture(width, height int, format common.TextureFormat) *common.Texture {
	tex := &common.Texture{
		ID:     uuid.New(),
		Width:  width,
		Height: height,
		Format: format,
	}
	d.textures[tex.ID] = newSurface(width, height, format)
	return tex
}

func (d *device) CreateRenderTarget(desc common.RenderTargetDescriptor) (*common.RenderTarget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkSize(desc.Width, desc.Height); err != nil {
		return nil, fmt.Errorf("render target %s: %w", desc.Label, err)
	}
	if !desc.ColorFormat.IsColor() {
		return nil, fmt.Errorf("render target %s: color format %s: %w", desc.Label, desc.ColorFormat, pass.ErrUnsupportedFormat)
	}
	if desc.DepthFormat != common.FormatNone && !desc.DepthFormat.IsDepth() {
		return nil, fmt.Errorf("render target %s: depth format %s: %w", desc.Label, desc.DepthFormat, pass.ErrUnsupportedFormat)
	}
	if d.maxTargets > 0 && d.stats.LiveTargets >= d.maxTargets {
		return nil, fmt.Errorf("render target %s: %d live: %w", desc.Label, d.stats.LiveTargets, ErrTargetLimit)
	}

	rt := &common.RenderTarget{
		ID:          uuid.New(),
		Label:       desc.Label,
		Width:       desc.Width,
		Height:      desc.Height,
		ColorFormat: desc.ColorFormat,
		DepthFormat: desc.DepthFormat,
		Samples:     common.AtLeast(desc.Samples, 1),
	}
	rt.Color = d.newTexture(desc.Width, desc.Height, desc.ColorFormat)
	if desc.DepthFormat != common.FormatNone {
		rt.Depth = d.newTexture(desc.Width, desc.Height, desc.DepthFormat)
	}
	d.targets[rt.ID] = rt
	d.stats.LiveTargets++
	d.stats.CreatedTargets++
	d.logger.Debugf("created render target %s %dx%d %s", desc.Label, desc.Width, desc.Height, desc.ColorFormat)
	return rt, nil
}

func (d *device) ReleaseRenderTarget(rt *common.RenderTarget) {
	if rt == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.targets[rt.ID]; !ok {
		return
	}
	delete(d.targets, rt.ID)
	if rt.Color != nil {
		delete(d.textures, rt.Color.ID)
	}
	if rt.Depth != nil {
		delete(d.textures, rt.Depth.ID)
	}
	if d.frameBuffer != nil && d.frameBuffer.ID == rt.ID {
		d.frameBuffer = nil
	}
	d.stats.LiveTargets--
	d.stats.ReleasedTargets++
}

func (d *device) FrameBuffer() *common.RenderTarget {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameBuffer
}

func (d *device) SetFrameBuffer(rt *common.RenderTarget) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frameBuffer = rt
}

func (d *device) Clear(color mgl32.Vec4) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameBuffer == nil || d.frameBuffer.Color == nil {
		d.logger.Warnf("clear without a bound framebuffer ignored")
		return
	}
	if surf, ok := d.textures[d.frameBuffer.Color.ID]; ok {
		surf.fill(color)
	}
}

func (d *device) Draw(p pipeline.Pipeline, m material.Material) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frameBuffer == nil || d.frameBuffer.Color == nil {
		return ErrNoFrameBuffer
	}
	kernel := p.Kernel()
	if kernel == nil {
		return fmt.Errorf("%s: %w", p.PipelineKey(), ErrNoKernel)
	}
	dst, ok := d.textures[d.frameBuffer.Color.ID]
	if !ok {
		return fmt.Errorf("framebuffer %s: %w", d.frameBuffer.Label, ErrUnknownTexture)
	}

	sampler := d.newSampler(m)
	width, height := dst.width, dst.height
	out := make([]mgl32.Vec4, width*height)

	bands := min(height, d.workers*tasksPerWorker)
	rowsPerBand := (height + bands - 1) / bands

	var wg sync.WaitGroup
	for b := 0; b < bands; b++ {
		y0 := b * rowsPerBand
		y1 := min(y0+rowsPerBand, height)
		if y0 >= y1 {
			break
		}
		wg.Add(1)
		d.pool.SubmitTask(worker.Task{
			ID: b,
			Do: func() (any, error) {
				defer wg.Done()
				for y := y0; y < y1; y++ {
					v := (float32(y) + 0.5) / float32(height)
					row := out[y*width : (y+1)*width]
					for x := range row {
						u := (float32(x) + 0.5) / float32(width)
						row[x] = kernel(sampler, m, u, v)
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	// out is written in full before it replaces the target so a program may sample its own target.
	dst.store(out)
	d.draws = append(d.draws, DrawRecord{
		PipelineKey: p.PipelineKey(),
		Target:      d.frameBuffer.ID,
		Width:       width,
		Height:      height,
	})
	return nil
}

// ReleaseMaterial is a no-op: draws keep no per-material state on the CPU.
func (d *device) ReleaseMaterial(m material.Material) {}

func (d *device) Upload(width, height int, pixels []float32) (*common.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkSize(width, height); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("upload: %d values for %dx%d: %w", len(pixels), width, height, ErrPixelCount)
	}
	tex := d.newTexture(width, height, common.FormatRGBA32Float)
	data := make([]mgl32.Vec4, width*height)
	for i := range data {
		copy(data[i][:], pixels[i*4:i*4+4])
	}
	d.textures[tex.ID].store(data)
	return tex, nil
}

func (d *device) ReadPixels(tex *common.Texture) (common.TextureStagingData, error) {
	if tex == nil {
		return common.TextureStagingData{}, ErrUnknownTexture
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	surf, ok := d.textures[tex.ID]
	if !ok {
		return common.TextureStagingData{}, fmt.Errorf("texture %s: %w", tex.ID, ErrUnknownTexture)
	}
	pixels := make([]float32, 0, surf.width*surf.height*4)
	for y := 0; y < surf.height; y++ {
		for x := 0; x < surf.width; x++ {
			c := surf.texel(x, y)
			pixels = append(pixels, c[0], c[1], c[2], c[3])
		}
	}
	return common.TextureStagingData{Pixels: pixels, Width: surf.width, Height: surf.height}, nil
}

func (d *device) ReleaseTexture(tex *common.Texture) {
	if tex == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.textures, tex.ID)
}

func (d *device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.LiveTextures = len(d.textures)
	return s
}

func (d *device) Draws() []DrawRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DrawRecord(nil), d.draws...)
}

func (d *device) ResetDraws() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.draws = nil
}
