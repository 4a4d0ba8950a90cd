package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/go-gl/mathgl/mgl32"
)

// surface is the CPU storage behind a texture handle. Pixels are allocated on first write;
// an unwritten surface reads as transparent black.
type surface struct {
	width  int
	height int
	format common.TextureFormat
	pixels []mgl32.Vec4
}

func newSurface(width, height int, format common.TextureFormat) *surface {
	return &surface{width: width, height: height, format: format}
}

func (s *surface) texel(x, y int) mgl32.Vec4 {
	if s.pixels == nil {
		return mgl32.Vec4{}
	}
	return s.pixels[y*s.width+x]
}

// store replaces the surface contents, quantizing every texel to the surface format.
func (s *surface) store(pixels []mgl32.Vec4) {
	for i := range pixels {
		pixels[i] = quantize(pixels[i], s.format)
	}
	s.pixels = pixels
}

func (s *surface) fill(c mgl32.Vec4) {
	c = quantize(c, s.format)
	if s.pixels == nil {
		s.pixels = make([]mgl32.Vec4, s.width*s.height)
	}
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// quantize rounds a color to the precision and range of a texel format.
func quantize(c mgl32.Vec4, format common.TextureFormat) mgl32.Vec4 {
	switch format {
	case common.FormatRGBA8:
		for i := range c {
			c[i] = float32(math.Round(float64(common.Clamp(c[i], 0, 1))*255)) / 255
		}
	case common.FormatRGBA16Float:
		for i := range c {
			c[i] = common.HalfToFloat32(common.Float32ToHalf(c[i]))
		}
	case common.FormatRG11B10Float:
		// unsigned packed float, no alpha channel.
		for i := 0; i < 3; i++ {
			c[i] = common.HalfToFloat32(common.Float32ToHalf(common.AtLeast(c[i], 0)))
		}
		c[3] = 1
	}
	return c
}
