// Package imageio moves HDR staging data in and out of ordinary image files. Decoding
// linearizes sRGB input and can push it above 1.0 with a gain, encoding tone maps linear
// values back to 8-bit sRGB.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

var (
	// ErrUnknownFormat is returned when an output path has no supported extension.
	ErrUnknownFormat = errors.New("unknown image format")
	// ErrUnknownTonemap is returned when a tone mapping operator name is not recognized.
	ErrUnknownTonemap = errors.New("unknown tonemap operator")
	// ErrPixelCount is returned when staging data does not hold 4 floats per pixel.
	ErrPixelCount = errors.New("pixel data does not match image size")
)

// Tonemap selects how linear HDR values are compressed into [0, 1].
type Tonemap int

const (
	// TonemapReinhard maps c to c / (1 + c).
	TonemapReinhard Tonemap = iota
	// TonemapClamp clips values above 1.
	TonemapClamp
)

func (t Tonemap) String() string {
	switch t {
	case TonemapReinhard:
		return "reinhard"
	case TonemapClamp:
		return "clamp"
	default:
		return fmt.Sprintf("Tonemap(%d)", int(t))
	}
}

// ParseTonemap resolves a tone mapping operator by name.
//
// Parameters:
//   - name: "reinhard" or "clamp", case insensitive
//
// Returns:
//   - Tonemap: the operator
//   - error: ErrUnknownTonemap for any other name
func ParseTonemap(name string) (Tonemap, error) {
	switch strings.ToLower(name) {
	case "reinhard":
		return TonemapReinhard, nil
	case "clamp":
		return TonemapClamp, nil
	default:
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownTonemap)
	}
}

// Apply maps one linear channel value into [0, 1].
func (t Tonemap) Apply(c float32) float32 {
	if c <= 0 {
		return 0
	}
	if t == TonemapReinhard {
		return c / (1 + c)
	}
	return common.Clamp(c, 0, 1)
}

// Format is an encodable output file format.
type Format int

const (
	// FormatPNG encodes with image/png.
	FormatPNG Format = iota
	// FormatBMP encodes with golang.org/x/image/bmp.
	FormatBMP
	// FormatTIFF encodes deflate-compressed TIFF with golang.org/x/image/tiff.
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the output format from a file extension.
//
// Parameters:
//   - path: the output file path
//
// Returns:
//   - Format: the format
//   - error: ErrUnknownFormat for unsupported extensions
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Load decodes an image file into linear HDR staging data. When width and height are both
// positive the image is resampled to that size before linearization.
//
// Parameters:
//   - path: the image file, in any format common.ImportedTexture decodes
//   - gain: multiplier applied to the linear color channels
//   - width: the target width, or 0 to keep the source size
//   - height: the target height, or 0 to keep the source size
//
// Returns:
//   - common.TextureStagingData: RGBA float pixel data
//   - error: a wrapped decode error
func Load(path string, gain float32, width, height int) (common.TextureStagingData, error) {
	src := &common.ImportedTexture{Name: filepath.Base(path), Path: path}
	img, _, err := src.DecodeImage()
	if err != nil {
		return common.TextureStagingData{}, err
	}
	if width > 0 && height > 0 && (width != src.Width || height != src.Height) {
		img = Resize(img, width, height)
	}
	return common.ImageToStaging(img, gain), nil
}

// Resize resamples img to width x height with a Catmull-Rom filter.
//
// Parameters:
//   - img: the source image
//   - width: the target width in pixels
//   - height: the target height in pixels
//
// Returns:
//   - image.Image: the resampled image
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewNRGBA64(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// ToImage tone maps linear staging data into an 8-bit sRGB image.
//
// Parameters:
//   - data: the linear pixel data
//   - exposure: multiplier applied before tone mapping
//   - tm: the tone mapping operator
//
// Returns:
//   - *image.NRGBA: the encoded image
//   - error: ErrPixelCount when data is inconsistent
func ToImage(data common.TextureStagingData, exposure float32, tm Tonemap) (*image.NRGBA, error) {
	if data.Width < 1 || data.Height < 1 || len(data.Pixels) != data.Width*data.Height*4 {
		return nil, fmt.Errorf("%d floats for %dx%d: %w", len(data.Pixels), data.Width, data.Height, ErrPixelCount)
	}
	img := image.NewNRGBA(image.Rect(0, 0, data.Width, data.Height))
	to8 := func(c float32) uint8 {
		return uint8(common.LinearToSRGB(tm.Apply(c*exposure))*255 + 0.5)
	}
	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			i := (y*data.Width + x) * 4
			px := data.Pixels[i : i+4]
			img.SetNRGBA(x, y, color.NRGBA{
				R: to8(px[0]),
				G: to8(px[1]),
				B: to8(px[2]),
				A: uint8(common.Clamp(px[3], 0, 1)*255 + 0.5),
			})
		}
	}
	return img, nil
}

// Encode writes img in the given format.
//
// Parameters:
//   - w: the destination
//   - img: the image to encode
//   - f: the output format
//
// Returns:
//   - error: the encoder error, or ErrUnknownFormat
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%v: %w", f, ErrUnknownFormat)
	}
}

// Save encodes img into path, picking the format from the extension.
//
// Parameters:
//   - path: the output file path
//   - img: the image to write
//
// Returns:
//   - error: a format, create or encode error
func Save(path string, img image.Image) (err error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := Encode(out, img, f); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
