package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxAccumulateLevels is the number of level slots in the accumulate uniform.
const MaxAccumulateLevels = 8

// GPUExtractParamsSource is the canonical WGSL definition of the ExtractParams struct.
// Matches GPUExtractParams layout exactly (16 bytes).
//
//go:embed assets/extract_params.wgsl
var GPUExtractParamsSource string

// GPUExtractParams is the uniform for the bright-pass extract fragment shader.
// Size: 16 bytes.
type GPUExtractParams struct {
	ExposurePow    float32 // offset 0
	ExposureCutoff float32 // offset 4
	Extract        uint32  // offset 8: 1 when the scene contributes, 0 for glow-only
	HasGlow        uint32  // offset 12: 1 when a glow map is bound
}

// Size returns the size of the GPUExtractParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUExtractParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUExtractParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUExtractParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.ExposurePow))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.ExposureCutoff))
	binary.LittleEndian.PutUint32(buf[8:12], g.Extract)
	binary.LittleEndian.PutUint32(buf[12:16], g.HasGlow)
	return buf
}

// GPUMipParamsSource is the canonical WGSL definition of the MipParams struct.
//
//go:embed assets/mip_params.wgsl
var GPUMipParamsSource string

// GPUMipParams is the uniform for the mip sampler fragment shader.
// Dx and Dy are half-texel offsets of the destination level.
// Size: 16 bytes.
type GPUMipParams struct {
	Dx   float32    // offset 0
	Dy   float32    // offset 4
	_pad [2]float32 // offset 8
}

// Size returns the size of the GPUMipParams struct in bytes.
func (g *GPUMipParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMipParams struct into a 16-byte buffer.
func (g *GPUMipParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Dx))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Dy))
	return buf
}

// GPUBlurParamsSource is the canonical WGSL definition of the BlurParams struct.
//
//go:embed assets/blur_params.wgsl
var GPUBlurParamsSource string

// GPUBlurParams is the uniform shared by the horizontal and vertical blur shaders.
// Extent is the texture size along the blur axis, Scale the tap spacing in texels.
// Size: 16 bytes.
type GPUBlurParams struct {
	Extent float32    // offset 0
	Scale  float32    // offset 4
	_pad   [2]float32 // offset 8
}

// Size returns the size of the GPUBlurParams struct in bytes.
func (g *GPUBlurParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBlurParams struct into a 16-byte buffer.
func (g *GPUBlurParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Extent))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Scale))
	return buf
}

// GPUAccumulateParamsSource is the canonical WGSL definition of the AccumulateParams struct.
//
//go:embed assets/accumulate_params.wgsl
var GPUAccumulateParamsSource string

// GPUAccumulateParams is the uniform for the accumulate fragment shader.
// Weights are packed four per vec4 in WGSL; slots at or beyond NumLevels are zero.
// Size: 48 bytes.
type GPUAccumulateParams struct {
	Weights   [MaxAccumulateLevels]float32 // offset 0: array<vec4<f32>, 2>
	NumLevels uint32                       // offset 32
	_pad      [3]uint32                    // offset 36
}

// Size returns the size of the GPUAccumulateParams struct in bytes.
func (g *GPUAccumulateParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUAccumulateParams struct into a 48-byte buffer.
func (g *GPUAccumulateParams) Marshal() []byte {
	buf := make([]byte, 48)
	for i, w := range g.Weights {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(w))
	}
	binary.LittleEndian.PutUint32(buf[32:36], g.NumLevels)
	return buf
}

// GPUPresentParamsSource is the canonical WGSL definition of the PresentParams struct.
//
//go:embed assets/present_params.wgsl
var GPUPresentParamsSource string

// GPUPresentParams is the uniform for the swap-chain present shader.
// Size: 16 bytes.
type GPUPresentParams struct {
	Exposure float32    // offset 0
	Tonemap  uint32     // offset 4: 1 applies Reinhard before output
	_pad     [2]float32 // offset 8
}

// Size returns the size of the GPUPresentParams struct in bytes.
func (g *GPUPresentParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPresentParams struct into a 16-byte buffer.
func (g *GPUPresentParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Exposure))
	binary.LittleEndian.PutUint32(buf[4:8], g.Tonemap)
	return buf
}
