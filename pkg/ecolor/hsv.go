package ecolor

import(
	"github.com/lucasb-eyer/go-colorful"

	"github.com/equinoxlab/astropost/pkg/emath"
)

// RGB images are three separate planes; HSV images are conventionally
// pixel records, height x width x 3. HSVImage keeps that layout: Pix
// holds H, S, V triples row by row, with H in degrees [0, 360).
type HSVImage struct {
	Width  int
	Height int
	Pix    []float64
}

func (h *HSVImage)At(x, y int) (hue, sat, val float64) {
	i := 3 * (y*h.Width + x)
	return h.Pix[i], h.Pix[i+1], h.Pix[i+2]
}

// RGBToHSV converts an RGB image to HSV, moving the channel axis to
// the last position. The input is clipped to [0, 1].
func RGBToHSV(rgb *[3]emath.FloatGrid) *HSVImage {
	w, h := rgb[0].Dx(), rgb[0].Dy()
	out := &HSVImage{Width: w, Height: h, Pix: make([]float64, 3*w*h)}
	vr, vg, vb := rgb[0].Values(), rgb[1].Values(), rgb[2].Values()
	for i := 0; i < w*h; i++ {
		c := colorful.Color{R: clip01(vr[i]), G: clip01(vg[i]), B: clip01(vb[i])}
		hue, sat, val := c.Hsv()
		out.Pix[3*i] = hue
		out.Pix[3*i+1] = sat
		out.Pix[3*i+2] = val
	}
	return out
}

// HSVToRGB converts an HSV image back to three RGB planes.
func HSVToRGB(hsv *HSVImage) [3]emath.FloatGrid {
	var rgb [3]emath.FloatGrid
	for c := 0; c < 3; c++ {
		rgb[c] = emath.NewFloatGrid(hsv.Width, hsv.Height)
	}
	vr, vg, vb := rgb[0].Values(), rgb[1].Values(), rgb[2].Values()
	for i := 0; i < hsv.Width*hsv.Height; i++ {
		c := colorful.Hsv(hsv.Pix[3*i], hsv.Pix[3*i+1], hsv.Pix[3*i+2])
		vr[i], vg[i], vb[i] = c.R, c.G, c.B
	}
	return rgb
}
