package eimage

import(
	"fmt"
	"math"

	"github.com/equinoxlab/astropost/pkg/emath"
)

const (
	maxSide   = 32768
	maxPixels = 1 << 26 // 64 Mpixels
	maxScale  = 16.0
)

// ResampleMethods names the supported per plane resampling filters.
var ResampleMethods = map[string]emath.Filter{
	"nearest":  {Name: "nearest"},
	"box":      emath.Box,
	"bilinear": emath.Bilinear,
	"bicubic":  emath.Bicubic,
	"lanczos":  emath.Lanczos,
	"hamming":  emath.Hamming,
}

// Resize resamples each plane independently to width x height.
func (im *Image)Resize(width, height int, method string) error {
	if width < 1 || width > maxSide {
		return fmt.Errorf("width must be >= 1 and <= %d pixels, got %d", maxSide, width)
	}
	if height < 1 || height > maxSide {
		return fmt.Errorf("height must be >= 1 and <= %d pixels, got %d", maxSide, height)
	}
	if width*height > maxPixels {
		return fmt.Errorf("can not resize to > 64 Mpixels (%dx%d)", width, height)
	}
	f, ok := ResampleMethods[method]
	if !ok {
		return fmt.Errorf("invalid resampling method %q", method)
	}
	for c := 0; c < 3; c++ {
		im.Planes[c] = im.Planes[c].Resample(width, height, f)
	}
	return nil
}

// Rescale resamples the image by a scale factor in (0, 16].
func (im *Image)Rescale(scale float64, method string) error {
	if scale <= 0 || scale > maxScale {
		return fmt.Errorf("scale must be > 0 and <= %g, got %g", maxScale, scale)
	}
	w, h := im.Size()
	return im.Resize(int(math.Round(scale*float64(w))), int(math.Round(scale*float64(h))), method)
}

// Crop keeps the pixels with xmin <= x < xmax and ymin <= y < ymax.
// Bounds are clamped to the image first.
func (im *Image)Crop(xmin, xmax, ymin, ymax int) error {
	w, h := im.Size()
	if xmin < 0 {
		xmin = 0
	}
	if ymin < 0 {
		ymin = 0
	}
	if xmax > w {
		xmax = w
	}
	if ymax > h {
		ymax = h
	}
	if xmax <= xmin {
		return fmt.Errorf("xmax (%d) must be > xmin (%d)", xmax, xmin)
	}
	if ymax <= ymin {
		return fmt.Errorf("ymax (%d) must be > ymin (%d)", ymax, ymin)
	}
	for c := 0; c < 3; c++ {
		cropped := emath.NewFloatGrid(xmax-xmin, ymax-ymin)
		for y := ymin; y < ymax; y++ {
			for x := xmin; x < xmax; x++ {
				cropped.Set(x-xmin, y-ymin, im.Planes[c].Get(x, y))
			}
		}
		im.Planes[c] = cropped
	}
	return nil
}
