package eimage

import(
	"fmt"

	"github.com/equinoxlab/astropost/pkg/emath"
)

var sharpenKernel = [9]float64{
	-1, -1, -1,
	-1, 9, -1,
	-1, -1, -1,
}

// Sharpen convolves each plane with the fixed 3x3 sharpening kernel,
// zero padded at the boundary.
func (im *Image)Sharpen() {
	for c := 0; c < 3; c++ {
		im.Planes[c] = im.Planes[c].Convolve3x3(sharpenKernel)
	}
}

// Sharpened is the pure variant of Sharpen.
func (im *Image)Sharpened() *Image {
	out, _ := im.Applied(func(w *Image) error { w.Sharpen(); return nil })
	return out
}

// RemoveHotPixels replaces every pixel whose level exceeds ratio times
// the mean of its 8 nearest neighbors by that mean. With a scalar
// channel selector the mask is derived once from the scalar channel
// and applied to all three planes; with a plane subset each selected
// plane gets its own mask.
func (im *Image)RemoveHotPixels(ratio float64, ch Channel) error {
	if ratio <= 0 {
		return fmt.Errorf("ratio must be > 0, got %g", ratio)
	}

	hotfix := func(plane *emath.FloatGrid, mask []bool) {
		avg := plane.NeighborMean()
		vp, va := plane.Values(), avg.Values()
		for i := range vp {
			if mask[i] {
				vp[i] = va[i]
			}
		}
	}

	if ch.IsScalar() {
		channel := im.scalar(ch)
		avg := channel.NeighborMean()
		mask := make([]bool, len(channel.Values()))
		vc, va := channel.Values(), avg.Values()
		for i := range mask {
			mask[i] = vc[i] > ratio*va[i]
		}
		for c := 0; c < 3; c++ {
			hotfix(&im.Planes[c], mask)
		}
		return nil
	}

	for c := 0; c < 3; c++ {
		if !ch.Selected(c) {
			continue
		}
		avg := im.Planes[c].NeighborMean()
		mask := make([]bool, len(im.Planes[c].Values()))
		vp, va := im.Planes[c].Values(), avg.Values()
		for i := range mask {
			mask[i] = vp[i] > ratio*va[i]
		}
		hotfix(&im.Planes[c], mask)
	}
	return nil
}
