// Package eimage is the core image model: three float64 RGB planes
// plus a metadata map. The planes are conventionally in [0, 1] but are
// never clamped at rest - out of range levels are a first class state,
// reported by IsOutOfRange, not an error.
//
// Every transform exists in two forms: a mutating method on the owned
// buffer, and a pure "...ed" variant returning a fresh Image. History
// snapshots rely on Clone being a deep copy: mutating the working
// buffer must never alter a snapshot pushed earlier.
package eimage

import(
	"fmt"

	"github.com/equinoxlab/astropost/pkg/ecolor"
	"github.com/equinoxlab/astropost/pkg/emath"
)

type Image struct {
	// Planes are the red, green, blue planes, always of identical shape.
	Planes [3]emath.FloatGrid
	// Meta maps string keys (tag, description, colordepth, exif...) to
	// arbitrary values.
	Meta map[string]any
}

// New returns a black image of the given size.
func New(w, h int) *Image {
	im := &Image{Meta: map[string]any{}}
	for c := 0; c < 3; c++ {
		im.Planes[c] = emath.NewFloatGrid(w, h)
	}
	return im
}

// NewWhite returns a white image of the given size.
func NewWhite(w, h int) *Image {
	im := New(w, h)
	for c := 0; c < 3; c++ {
		im.Planes[c].Fill(1)
	}
	return im
}

// FromPlanes builds an image from three planes, which must have
// identical shapes.
func FromPlanes(planes [3]emath.FloatGrid, meta map[string]any) (*Image, error) {
	if !planes[0].SameSizeAs(&planes[1]) || !planes[0].SameSizeAs(&planes[2]) {
		return nil, fmt.Errorf("plane shapes differ: %s / %s / %s",
			planes[0].Stats(), planes[1].Stats(), planes[2].Stats())
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return &Image{Planes: planes, Meta: meta}, nil
}

// Size returns the image width and height in pixels.
func (im *Image)Size() (w, h int) {
	return im.Planes[0].Dx(), im.Planes[0].Dy()
}

// Clone returns an independent deep copy: new plane storage, new
// metadata map.
func (im *Image)Clone() *Image {
	out := &Image{Meta: make(map[string]any, len(im.Meta))}
	for c := 0; c < 3; c++ {
		out.Planes[c] = im.Planes[c].Copy()
	}
	for k, v := range im.Meta {
		out.Meta[k] = v
	}
	return out
}

// Ref returns a new header sharing this image's plane storage. For
// callers that want an alias rather than a snapshot; mutate through
// either and both see it.
func (im *Image)Ref() *Image {
	out := &Image{Planes: im.Planes, Meta: im.Meta}
	return out
}

// CopyFrom replaces this image's planes with a deep copy of source's.
func (im *Image)CopyFrom(source *Image) {
	for c := 0; c < 3; c++ {
		im.Planes[c] = source.Planes[c].Copy()
	}
}

// Value returns the HSV value channel, computed from the current planes.
func (im *Image)Value() emath.FloatGrid { return ecolor.HSVValue(&im.Planes) }

// Saturation returns the HSV saturation channel.
func (im *Image)Saturation() emath.FloatGrid { return ecolor.HSVSaturation(&im.Planes) }

// Luma returns the luma channel under the current process wide weights.
func (im *Image)Luma() emath.FloatGrid { return ecolor.Luma(&im.Planes) }

// Luminance returns the BT.709 luminance Y, treating the planes as sRGB.
func (im *Image)Luminance() emath.FloatGrid { return ecolor.SRGBLuminance(&im.Planes) }

// Lightness returns the CIE lightness L* in [0, 100], treating the
// planes as sRGB.
func (im *Image)Lightness() emath.FloatGrid { return ecolor.SRGBLightness(&im.Planes) }

// scalar resolves a scalar channel selector against this image. The
// lightness channel is rescaled from [0, 100] to [0, 1] so that every
// scalar channel feeds the stretch machinery the same way.
func (im *Image)scalar(c Channel) emath.FloatGrid {
	switch c.kind {
	case kindValue:
		return im.Value()
	case kindLuma:
		return im.Luma()
	case kindLuminance:
		return im.Luminance()
	case kindLightness:
		l := im.Lightness()
		l.Apply(func(v float64) float64 { return v / 100 })
		return l
	}
	panic("scalar called with a plane subset selector")
}

// IsGrayScale reports whether all three planes are pixel-wise
// identical within tolerance.
func (im *Image)IsGrayScale() bool {
	return im.Planes[1].EqualWithin(&im.Planes[0], emath.Tol) &&
		im.Planes[2].EqualWithin(&im.Planes[0], emath.Tol)
}

// IsOutOfRange reports whether any plane holds a level below 0 or
// above 1 (beyond tolerance).
func (im *Image)IsOutOfRange() bool {
	for c := 0; c < 3; c++ {
		if im.Planes[c].Min() < -emath.Tol || im.Planes[c].Max() > 1+emath.Tol {
			return true
		}
	}
	return false
}

// A CachedLuma caches the luma channel of one image (the main display
// keeps one per tab). The cache is invalidated by the luma weight
// generation: after SetLumaWeights, the next Get re-derives.
type CachedLuma struct {
	gen   uint64
	valid bool
	luma  emath.FloatGrid
}

func (cl *CachedLuma)Get(im *Image) emath.FloatGrid {
	if gen := ecolor.LumaGeneration(); !cl.valid || cl.gen != gen {
		cl.luma = im.Luma()
		cl.gen = gen
		cl.valid = true
	}
	return cl.luma
}

// Invalidate drops the cache; the next Get recomputes regardless of
// the weight generation (used after the image itself mutates).
func (cl *CachedLuma)Invalidate() { cl.valid = false }
