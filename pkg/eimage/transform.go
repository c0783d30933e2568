package eimage

import(
	"fmt"
	"math"

	"github.com/equinoxlab/astropost/pkg/emath"
	"github.com/equinoxlab/astropost/pkg/estretch"
)

// Applied runs a mutating transform on a fresh clone and returns it,
// leaving the receiver untouched. This is the pure counterpart of
// every mutating method: reference snapshots stay byte identical while
// tools write into the returned working buffer.
func (im *Image)Applied(fn func(*Image) error) (*Image, error) {
	out := im.Clone()
	if err := fn(out); err != nil {
		return nil, err
	}
	return out, nil
}

// redistribute rescales all three planes by the pointwise ratio
// target/source, propagating a scalar channel transform back onto RGB
// while preserving the relative channel ratios (hue). Wherever the
// original scalar level is below tolerance the ratio is unstable and
// the output is forced to exactly 0.
func (im *Image)redistribute(source, target *emath.FloatGrid) {
	for c := 0; c < 3; c++ {
		vp := im.Planes[c].Values()
		vs, vt := source.Values(), target.Values()
		for i := range vp {
			if math.Abs(vs[i]) > emath.Tol {
				vp[i] = vp[i] * vt[i] / vs[i]
			} else {
				vp[i] = 0
			}
		}
	}
}

// AutoClipBounds returns the default shadow/highlight bounds for
// ClipShadowsHighlights on the given channel: the channel minimum
// (floored at 0) and maximum.
func (im *Image)AutoClipBounds(ch Channel) (shadow, highlight float64) {
	var g emath.FloatGrid
	if ch.IsScalar() {
		g = im.scalar(ch)
	} else {
		first := true
		for c := 0; c < 3; c++ {
			if !ch.Selected(c) {
				continue
			}
			if first {
				shadow, highlight = im.Planes[c].Min(), im.Planes[c].Max()
				first = false
			} else {
				shadow = math.Min(shadow, im.Planes[c].Min())
				highlight = math.Max(highlight, im.Planes[c].Max())
			}
		}
		return math.Max(shadow, 0), highlight
	}
	return math.Max(g.Min(), 0), g.Max()
}

// ClipShadowsHighlights clips the channel below shadow and above
// highlight, then remaps [shadow, highlight] to [0, 1]. Scalar
// channels are redistributed onto RGB; plane subsets are remapped
// independently.
func (im *Image)ClipShadowsHighlights(shadow, highlight float64, ch Channel) error {
	if highlight <= shadow {
		return fmt.Errorf("highlight (%g) must be > shadow (%g)", highlight, shadow)
	}
	remap := func(v float64) float64 {
		return emath.Interp(v, shadow, highlight, 0, 1)
	}
	if ch.IsScalar() {
		source := im.scalar(ch)
		target := source.Applied(remap)
		im.redistribute(&source, &target)
		return nil
	}
	for c := 0; c < 3; c++ {
		if ch.Selected(c) {
			im.Planes[c].Apply(remap)
		}
	}
	return nil
}

// SetDynamicRange remaps the channel from the range from to the range
// to, saturating outside and flooring at 0.
func (im *Image)SetDynamicRange(from, to [2]float64, ch Channel) error {
	if from[1] <= from[0] {
		return fmt.Errorf("from[1] (%g) must be > from[0] (%g)", from[1], from[0])
	}
	if to[1] <= to[0] {
		return fmt.Errorf("to[1] (%g) must be > to[0] (%g)", to[1], to[0])
	}
	remap := func(v float64) float64 {
		return math.Max(emath.Interp(v, from[0], from[1], to[0], to[1]), 0)
	}
	if ch.IsScalar() {
		source := im.scalar(ch)
		target := source.Applied(remap)
		for c := 0; c < 3; c++ {
			im.Planes[c] = emath.ScalePixels(&im.Planes[c], &source, &target, emath.Tol)
		}
		return nil
	}
	for c := 0; c < 3; c++ {
		if ch.Selected(c) {
			im.Planes[c].Apply(remap)
		}
	}
	return nil
}

// GammaCorrection raises the channel to the power gamma.
func (im *Image)GammaCorrection(gamma float64, ch Channel) error {
	if gamma <= 0 {
		return fmt.Errorf("gamma must be > 0, got %g", gamma)
	}
	return im.stretchWith(func(t float64) float64 { return math.Pow(t, gamma) }, ch)
}

// MidtoneCorrection applies the rational midtone transfer function.
func (im *Image)MidtoneCorrection(midtone float64, ch Channel) error {
	return im.GeneralizedStretch(estretch.Midtone{Midtone: midtone}, ch)
}

// GeneralizedStretch applies an arbitrary parametrized stretch to the
// channel. Scalar channels are clipped to [0, 1], stretched, and the
// change redistributed onto RGB; pixels whose original scalar level is
// ~0 come out exactly 0. Plane subsets are clipped and stretched
// independently, no redistribution.
func (im *Image)GeneralizedStretch(p estretch.Params, ch Channel) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return im.stretchWith(p.Curve(), ch)
}

// GeneralizedStretchLUT is GeneralizedStretch through a cached lookup
// table, worthwhile when the stretch function is expensive. nlut <= 1
// picks the default table size.
func (im *Image)GeneralizedStretchLUT(p estretch.Params, ch Channel, nlut int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return im.stretchWith(estretch.Lookup(p, nlut).Func(), ch)
}

func (im *Image)stretchWith(f estretch.Func, ch Channel) error {
	if ch.IsScalar() {
		source := im.scalar(ch)
		target := source.Clipped(0, 1)
		target.Apply(f)
		im.redistribute(&source, &target)
		return nil
	}
	for c := 0; c < 3; c++ {
		if ch.Selected(c) {
			im.Planes[c].Clip(0, 1)
			im.Planes[c].Apply(f)
		}
	}
	return nil
}

// ProtectHighlights rescales every pixel whose maximum channel exceeds
// 1 so that its maximum is exactly 1, preserving hue. Call it after a
// stretch that actually changed the image.
func (im *Image)ProtectHighlights() {
	vr, vg, vb := im.Planes[0].Values(), im.Planes[1].Values(), im.Planes[2].Values()
	for i := range vr {
		max := math.Max(vr[i], math.Max(vg[i], vb[i]))
		if max > 1 {
			vr[i] /= max
			vg[i] /= max
			vb[i] /= max
		}
	}
}

// NormalizeOutOfRange divides every pixel by its maximum channel where
// that maximum exceeds 1, bringing highlights back into range.
func (im *Image)NormalizeOutOfRange() { im.ProtectHighlights() }

// GrayScale replaces all three planes by the chosen scalar channel
// (value, luma or luminance), making IsGrayScale true.
func (im *Image)GrayScale(ch Channel) error {
	switch ch {
	case Value, Luma, Luminance:
	default:
		return fmt.Errorf("gray scale wants channel V, L or Y, got %q", ch)
	}
	g := im.scalar(ch)
	im.Planes[0] = g
	im.Planes[1] = g.Copy()
	im.Planes[2] = g.Copy()
	return nil
}

// GrayScaled is the pure variant of GrayScale.
func (im *Image)GrayScaled(ch Channel) (*Image, error) {
	return im.Applied(func(w *Image) error { return w.GrayScale(ch) })
}

// ColorBalance multiplies the R, G, B planes by the given non negative
// factors. A negative factor errors before anything mutates.
func (im *Image)ColorBalance(red, green, blue float64) error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"red", red}, {"green", green}, {"blue", blue}} {
		if f.v < 0 {
			return fmt.Errorf("%s factor must be >= 0, got %g", f.name, f.v)
		}
	}
	for c, f := range [3]float64{red, green, blue} {
		if f != 1 {
			im.Planes[c].Apply(func(v float64) float64 { return v * f })
		}
	}
	return nil
}

// Negative inverts the image: clip(1 - rgb, 0, 1).
func (im *Image)Negative() {
	for c := 0; c < 3; c++ {
		im.Planes[c].Apply(func(v float64) float64 { return clampUnit(1 - v) })
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
