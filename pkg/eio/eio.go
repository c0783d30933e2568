// Package eio loads and saves images as float64 RGB, hiding the
// integer codecs. PNG, TIFF and JPEG come in over image.Decode and are
// normalized by their bit depth; Radiance .hdr files carry float data
// and pass through untouched.
package eio

import(
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"

	"github.com/equinoxlab/astropost/pkg/eimage"
)

// Load reads filename into a float64 RGB image. Integer formats are
// normalized to [0, 1] by their bit depth; grayscale replicates onto
// all three planes; alpha is premultiplied in. Metadata (format,
// colordepth, channels, and EXIF when present) lands in Meta.
func Load(filename string) (*eimage.Image, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer reader.Close()

	if strings.ToLower(filepath.Ext(filename)) == ".hdr" {
		return loadHDR(reader, filename)
	}

	img, format, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %v", filename, err)
	}

	depth, channels := probe(img)
	bounds := img.Bounds()
	im := eimage.New(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// RGBA() is 16-bit and alpha premultiplied regardless of
			// the source depth, which is exactly the normalization we
			// want.
			r, g, b, _ := img.At(x, y).RGBA()
			im.Planes[0].Set(x-bounds.Min.X, y-bounds.Min.Y, float64(r)/65535.0)
			im.Planes[1].Set(x-bounds.Min.X, y-bounds.Min.Y, float64(g)/65535.0)
			im.Planes[2].Set(x-bounds.Min.X, y-bounds.Min.Y, float64(b)/65535.0)
		}
	}
	im.Meta["format"] = format
	im.Meta["colordepth"] = depth
	im.Meta["channels"] = channels

	// EXIF is best effort; plenty of files have none.
	if ex, err := loadEXIF(filename); err == nil {
		im.Meta["exif"] = ex
	}

	return im, nil
}

func loadHDR(reader *os.File, filename string) (*eimage.Image, error) {
	img, err := rgbe.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("rgbe decoding '%s': %v", filename, err)
	}
	hdrImg, ok := img.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("rgbe decoding '%s': not an HDR image", filename)
	}
	bounds := hdrImg.Bounds()
	im := eimage.New(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := hdrImg.HDRAt(x, y).HDRRGBA()
			im.Planes[0].Set(x-bounds.Min.X, y-bounds.Min.Y, r)
			im.Planes[1].Set(x-bounds.Min.X, y-bounds.Min.Y, g)
			im.Planes[2].Set(x-bounds.Min.X, y-bounds.Min.Y, b)
		}
	}
	im.Meta["format"] = "hdr"
	im.Meta["colordepth"] = 32
	im.Meta["channels"] = 3
	return im, nil
}

// probe reports the bit depth and channel count of the decoded image.
func probe(img image.Image) (depth, channels int) {
	switch img.(type) {
	case *image.Gray:
		return 8, 1
	case *image.Gray16:
		return 16, 1
	case *image.NRGBA64, *image.RGBA64:
		return 16, 4
	case *image.YCbCr:
		return 8, 3
	default:
		return 8, 4
	}
}

func loadEXIF(filename string) (*exif.Exif, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return exif.Decode(reader)
}

// hdrAdapter wraps a float image as an hdr.Image for the RGBE encoder.
type hdrAdapter struct {
	im *eimage.Image
}

func (a hdrAdapter)ColorModel() color.Model { return hdrcolor.RGBModel }
func (a hdrAdapter)Bounds() image.Rectangle {
	w, h := a.im.Size()
	return image.Rect(0, 0, w, h)
}
func (a hdrAdapter)At(x, y int) color.Color { return a.HDRAt(x, y) }
func (a hdrAdapter)Size() int               { w, h := a.im.Size(); return w * h }
func (a hdrAdapter)HDRAt(x, y int) hdrcolor.Color {
	return hdrcolor.RGB{
		R: a.im.Planes[0].Get(x, y),
		G: a.im.Planes[1].Get(x, y),
		B: a.im.Planes[2].Get(x, y),
	}
}

// quantize clips v to [0, 1] and scales it to an integer level.
func quantize(v float64, levels float64) uint32 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint32(math.Round(v * levels))
}

// Save writes the image to filename. PNG, TIFF and JPEG quantize at
// depth 8 or 16 (JPEG only 8) and clip to [0, 1]; .hdr keeps the full
// float range and ignores depth. A grayscale image saves as a single
// channel where the format allows it.
func Save(im *eimage.Image, filename string, depth int) error {
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".hdr" {
		writer, err := os.Create(filename)
		if err != nil {
			return fmt.Errorf("open+w '%s': %v", filename, err)
		}
		defer writer.Close()
		return rgbe.Encode(writer, hdrAdapter{im})
	}

	if depth != 8 && depth != 16 {
		return fmt.Errorf("save '%s': color depth must be 8 or 16, got %d", filename, depth)
	}

	var img image.Image
	gray := im.IsGrayScale()
	switch {
	case gray && depth == 8:
		img = render8Gray(im)
	case gray:
		img = render16Gray(im)
	case depth == 8:
		img = render8(im)
	default:
		img = render16(im)
	}

	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	}
	defer writer.Close()

	switch ext {
	case ".png":
		return png.Encode(writer, img)
	case ".tif", ".tiff":
		return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate})
	case ".jpg", ".jpeg":
		if depth != 8 {
			return fmt.Errorf("save '%s': JPEG only supports 8 bit", filename)
		}
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	default:
		return fmt.Errorf("save '%s': unsupported extension %q", filename, ext)
	}
}

func render8(im *eimage.Image) *image.NRGBA {
	w, h := im.Size()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(quantize(im.Planes[0].Get(x, y), 255)),
				G: uint8(quantize(im.Planes[1].Get(x, y), 255)),
				B: uint8(quantize(im.Planes[2].Get(x, y), 255)),
				A: 255,
			})
		}
	}
	return out
}

func render16(im *eimage.Image) *image.NRGBA64 {
	w, h := im.Size()
	out := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(quantize(im.Planes[0].Get(x, y), 65535)),
				G: uint16(quantize(im.Planes[1].Get(x, y), 65535)),
				B: uint16(quantize(im.Planes[2].Get(x, y), 65535)),
				A: 65535,
			})
		}
	}
	return out
}

func render8Gray(im *eimage.Image) *image.Gray {
	w, h := im.Size()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetGray(x, y, color.Gray{Y: uint8(quantize(im.Planes[0].Get(x, y), 255))})
		}
	}
	return out
}

func render16Gray(im *eimage.Image) *image.Gray16 {
	w, h := im.Size()
	out := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetGray16(x, y, color.Gray16{Y: uint16(quantize(im.Planes[0].Get(x, y), 65535))})
		}
	}
	return out
}

// WriteOpLog writes the operation log next to the saved image, as
// <image>.log.
func WriteOpLog(imageFilename, logs string) error {
	if logs == "" {
		return nil
	}
	logname := strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename)) + ".log"
	if err := os.WriteFile(logname, []byte(logs), 0644); err != nil {
		return fmt.Errorf("open+w '%s': %v", logname, err)
	}
	log.Printf("Wrote operation log to %s", logname)
	return nil
}
