// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureFormat identifies the pixel layout of a texture or render target attachment.
type TextureFormat int

const (
	// FormatNone marks an absent attachment (for example a render target without depth).
	FormatNone TextureFormat = iota
	// FormatRGBA8 is an 8-bit-per-channel low dynamic range color format.
	FormatRGBA8
	// FormatRG11B10Float is a packed unsigned float HDR color format without alpha.
	FormatRG11B10Float
	// FormatRGBA16Float is a half-float HDR color format.
	FormatRGBA16Float
	// FormatRGBA32Float is a full-float HDR color format.
	FormatRGBA32Float
	// FormatDepth24 is a 24-bit depth format.
	FormatDepth24
	// FormatDepth32Float is a 32-bit float depth format.
	FormatDepth32Float
)

var textureFormatNames = map[TextureFormat]string{
	FormatNone:         "none",
	FormatRGBA8:        "rgba8",
	FormatRG11B10Float: "rg11b10f",
	FormatRGBA16Float:  "rgba16f",
	FormatRGBA32Float:  "rgba32f",
	FormatDepth24:      "depth24",
	FormatDepth32Float: "depth32f",
}

func (f TextureFormat) String() string {
	if name, ok := textureFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

// IsHDR reports whether the format stores color values above 1.0 without clamping.
func (f TextureFormat) IsHDR() bool {
	return f == FormatRG11B10Float || f == FormatRGBA16Float || f == FormatRGBA32Float
}

// IsDepth reports whether the format is a depth attachment format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24 || f == FormatDepth32Float
}

// IsColor reports whether the format can be used as a color attachment.
func (f TextureFormat) IsColor() bool {
	return f == FormatRGBA8 || f.IsHDR()
}

// BytesPerPixel returns the storage size of one texel, or 0 for FormatNone.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatRG11B10Float, FormatDepth24, FormatDepth32Float:
		return 4
	case FormatRGBA16Float:
		return 8
	case FormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// Texture is an opaque handle to a texture owned by a device. Two handles refer to the same texture when their IDs match.
type Texture struct {
	// ID uniquely identifies the texture within the device that created it.
	ID uuid.UUID
	// Width is the texture width in pixels.
	Width int
	// Height is the texture height in pixels.
	Height int
	// Format is the texel format of the texture.
	Format TextureFormat
}

// RenderTargetDescriptor describes a render target to allocate.
type RenderTargetDescriptor struct {
	// Label is a debug name forwarded to the device.
	Label string
	// Width and Height are the attachment dimensions in pixels. Both must be at least 1.
	Width, Height int
	// ColorFormat is the format of the color attachment.
	ColorFormat TextureFormat
	// DepthFormat is the format of the optional depth attachment, FormatNone for no depth.
	DepthFormat TextureFormat
	// Samples is the attachment sample count. Zero is treated as 1.
	Samples int
}

// RenderTarget is a color attachment plus an optional depth attachment that passes render into.
type RenderTarget struct {
	// ID uniquely identifies the render target within the device that created it.
	ID uuid.UUID
	// Label is the debug name the target was created with.
	Label string
	// Width and Height are the attachment dimensions in pixels.
	Width, Height int
	// ColorFormat is the format of Color.
	ColorFormat TextureFormat
	// DepthFormat is the format of Depth, FormatNone when Depth is nil.
	DepthFormat TextureFormat
	// Samples is the attachment sample count.
	Samples int
	// Color is the texture written by draws into this target.
	Color *Texture
	// Depth is the depth attachment, nil when DepthFormat is FormatNone.
	Depth *Texture
}

// TextureStagingData holds HDR pixel data for a texture pending upload.
type TextureStagingData struct {
	// Pixels holds RGBA float values, 4 per pixel, row-major from the top-left corner.
	Pixels []float32
	// Width is the width of the texture in pixels.
	Width int
	// Height is the height of the texture in pixels.
	Height int
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// ImportedTexture represents an image loaded from memory or disk to be used as a scene input.
// For in-memory images the Data field contains raw encoded bytes.
// For external images the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture.
	Name string

	// Path is the file path for external images (empty for in-memory data).
	Path string

	// Data contains raw encoded image bytes (PNG, JPEG, BMP, TIFF or WebP).
	Data []byte

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int
}

// DecodeImage decodes the texture into an image.Image.
// Uses either Data bytes or loads from Path on disk.
//
// Returns:
//   - image.Image: the decoded image
//   - string: the format name reported by the decoder
//   - error: error if decoding fails
func (t *ImportedTexture) DecodeImage() (image.Image, string, error) {
	if t == nil {
		return nil, "", fmt.Errorf("texture is nil")
	}

	var img image.Image
	var format string
	var err error

	if len(t.Data) > 0 {
		img, format, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, "", fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, format, err = image.Decode(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return nil, "", fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	t.Width = bounds.Dx()
	t.Height = bounds.Dy()
	return img, format, nil
}

// Decode decodes the texture to linear HDR staging data.
// Color channels are converted from sRGB-encoded 8/16-bit values to linear floats and multiplied by gain,
// which lets ordinary LDR images produce values above 1.0. Alpha is kept linear and is not scaled.
//
// Parameters:
//   - gain: multiplier applied to the linear color channels
//
// Returns:
//   - TextureStagingData: RGBA float pixel data
//   - error: error if decoding fails
func (t *ImportedTexture) Decode(gain float32) (TextureStagingData, error) {
	img, _, err := t.DecodeImage()
	if err != nil {
		return TextureStagingData{}, err
	}
	return ImageToStaging(img, gain), nil
}

// ImageToStaging converts an image into linear HDR staging data, see ImportedTexture.Decode.
//
// Parameters:
//   - img: the source image
//   - gain: multiplier applied to the linear color channels
//
// Returns:
//   - TextureStagingData: RGBA float pixel data
func ImageToStaging(img image.Image, gain float32) TextureStagingData {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]float32, 0, width*height*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			alpha := float32(a) / 0xffff
			// RGBA() is alpha-premultiplied.
			unmul := func(c uint32) float32 {
				if a == 0 {
					return 0
				}
				return float32(c) / float32(a)
			}
			pixels = append(pixels,
				SRGBToLinear(unmul(r))*gain,
				SRGBToLinear(unmul(g))*gain,
				SRGBToLinear(unmul(b))*gain,
				alpha,
			)
		}
	}
	return TextureStagingData{Pixels: pixels, Width: width, Height: height}
}
