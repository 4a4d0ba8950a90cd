package renderer

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}

// wgpuTextureFormats maps the formats a Renderer can allocate to their wgpu equivalents.
// FormatRGBA32Float is absent: it is not filterable without an optional device feature.
var wgpuTextureFormats = map[common.TextureFormat]wgpu.TextureFormat{
	common.FormatRGBA8:        wgpu.TextureFormatRGBA8Unorm,
	common.FormatRG11B10Float: wgpu.TextureFormatRG11B10Ufloat,
	common.FormatRGBA16Float:  wgpu.TextureFormatRGBA16Float,
	common.FormatDepth24:      wgpu.TextureFormatDepth24Plus,
	common.FormatDepth32Float: wgpu.TextureFormatDepth32Float,
}

// toWGPUFormat resolves the wgpu format for f.
//
// Parameters:
//   - f: the engine texture format
//
// Returns:
//   - wgpu.TextureFormat: the wgpu format, TextureFormatUndefined for FormatNone
//   - bool: false when the Renderer cannot allocate f
func toWGPUFormat(f common.TextureFormat) (wgpu.TextureFormat, bool) {
	if f == common.FormatNone {
		return wgpu.TextureFormatUndefined, true
	}
	wf, ok := wgpuTextureFormats[f]
	return wf, ok
}
