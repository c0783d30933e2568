package ecolor

import(
	"fmt"
	"math"
	"sync"

	"github.com/equinoxlab/astropost/pkg/emath"
)

// All of this stuff expects to operate on color channel values in the
// range [0, 1.0]. No particular color space is assumed for "RGB";
// practically, most images here are non-linear sRGB, and it is up to
// the caller to convert where a physically linear quantity is needed.

// The luma weights are process wide state: one small cell, updated
// atomically by swapping the whole triple under a lock. Every change
// bumps a generation counter so that components caching a derived luma
// can tell when to re-derive.
var(
	lumaMu  sync.RWMutex
	lumaW   = [3]float64{0.3, 0.6, 0.1}
	lumaGen uint64
)

// LumaWeights returns the weights of the R, G, B channels in the luma.
func LumaWeights() (r, g, b float64) {
	lumaMu.RLock()
	defer lumaMu.RUnlock()
	return lumaW[0], lumaW[1], lumaW[2]
}

// SetLumaWeights replaces the luma weight triple and invalidates any
// cached luma (see LumaGeneration).
func SetLumaWeights(r, g, b float64) error {
	if r < 0 || g < 0 || b < 0 {
		return fmt.Errorf("luma weights must be >= 0, got (%g, %g, %g)", r, g, b)
	}
	lumaMu.Lock()
	defer lumaMu.Unlock()
	lumaW = [3]float64{r, g, b}
	lumaGen++
	return nil
}

// LumaGeneration increases every time the weights change. A cached
// luma computed at generation N is stale once LumaGeneration() != N.
func LumaGeneration() uint64 {
	lumaMu.RLock()
	defer lumaMu.RUnlock()
	return lumaGen
}

// Luma returns the generalized luma of an RGB image: the linear
// combination of the channels weighted by the process wide triple.
func Luma(rgb *[3]emath.FloatGrid) emath.FloatGrid {
	r, g, b := LumaWeights()
	out := rgb[0].NewFromThis()
	vr, vg, vb, vo := rgb[0].Values(), rgb[1].Values(), rgb[2].Values(), out.Values()
	for i := range vo {
		vo[i] = r*vr[i] + g*vg[i] + b*vb[i]
	}
	return out
}

// HSVValue returns the HSV value = max(R, G, B).
func HSVValue(rgb *[3]emath.FloatGrid) emath.FloatGrid {
	out := rgb[0].NewFromThis()
	vr, vg, vb, vo := rgb[0].Values(), rgb[1].Values(), rgb[2].Values(), out.Values()
	for i := range vo {
		vo[i] = math.Max(vr[i], math.Max(vg[i], vb[i]))
	}
	return out
}

// HSVSaturation returns the HSV saturation = 1 - min/max, with the
// division guarded against a near zero maximum.
func HSVSaturation(rgb *[3]emath.FloatGrid) emath.FloatGrid {
	out := rgb[0].NewFromThis()
	vr, vg, vb, vo := rgb[0].Values(), rgb[1].Values(), rgb[2].Values(), out.Values()
	for i := range vo {
		max := math.Max(vr[i], math.Max(vg[i], vb[i]))
		min := math.Min(vr[i], math.Min(vg[i], vb[i]))
		vo[i] = 1 - min/(math.Abs(max)+emath.Tol)
	}
	return out
}

// GammaExpand_F64 maps one linear RGB level to sRGB.
// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/
func GammaExpand_F64(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// GammaCompress_F64 maps one sRGB level to linear RGB.
func GammaCompress_F64(f float64) float64 {
	if f <= 0.04045 {
		return f / 12.92
	}
	return math.Pow((f+0.055)/1.055, 2.4)
}

func clip01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// SRGBToLRGB converts an sRGB image to linear RGB. The input is
// clipped to [0, 1] first.
func SRGBToLRGB(srgb *[3]emath.FloatGrid) [3]emath.FloatGrid {
	var lrgb [3]emath.FloatGrid
	for c := 0; c < 3; c++ {
		lrgb[c] = srgb[c].Applied(func(v float64) float64 { return GammaCompress_F64(clip01(v)) })
	}
	return lrgb
}

// LRGBToSRGB converts a linear RGB image to sRGB. The input is
// clipped to [0, 1] first.
func LRGBToSRGB(lrgb *[3]emath.FloatGrid) [3]emath.FloatGrid {
	var srgb [3]emath.FloatGrid
	for c := 0; c < 3; c++ {
		srgb[c] = lrgb[c].Applied(func(v float64) float64 { return GammaExpand_F64(clip01(v)) })
	}
	return srgb
}

// LRGBLuminance returns the luminance Y of a linear RGB image, with
// the fixed ITU-R BT.709 weights. Unlike the luma, these weights are
// not user configurable.
func LRGBLuminance(lrgb *[3]emath.FloatGrid) emath.FloatGrid {
	out := lrgb[0].NewFromThis()
	vr, vg, vb, vo := lrgb[0].Values(), lrgb[1].Values(), lrgb[2].Values(), out.Values()
	for i := range vo {
		vo[i] = 0.2126*vr[i] + 0.7152*vg[i] + 0.0722*vb[i]
	}
	return out
}

// Lightness_F64 maps one luminance Y to the CIE lightness L*.
// Beware: L* lives in [0, 100], not [0, 1].
func Lightness_F64(y float64) float64 {
	if y > 0.008856 {
		return 116*math.Cbrt(y) - 16
	}
	return 903.3 * y
}

// LRGBLightness returns the CIE lightness L* of a linear RGB image,
// in [0, 100].
func LRGBLightness(lrgb *[3]emath.FloatGrid) emath.FloatGrid {
	y := LRGBLuminance(lrgb)
	y.Apply(Lightness_F64)
	return y
}

// SRGBLuminance returns the luminance Y of an sRGB image.
func SRGBLuminance(srgb *[3]emath.FloatGrid) emath.FloatGrid {
	lrgb := SRGBToLRGB(srgb)
	return LRGBLuminance(&lrgb)
}

// SRGBLightness returns the CIE lightness L* of an sRGB image, in
// [0, 100].
func SRGBLightness(srgb *[3]emath.FloatGrid) emath.FloatGrid {
	lrgb := SRGBToLRGB(srgb)
	return LRGBLightness(&lrgb)
}
