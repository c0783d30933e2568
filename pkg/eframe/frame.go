// Package eframe handles the decorative frames some smart telescopes
// bake into their exports: a dark margin outside a circular field of
// view, with bright markings in it. The frame is detected from image
// geometry, lifted out before processing, and composited back on top
// afterwards so stretches never amplify it.
package eframe

import(
	"errors"
	"fmt"
	"image/color"
	"io/ioutil"
	"math"

	"github.com/fogleman/gg"
	"gopkg.in/yaml.v2"

	"github.com/equinoxlab/astropost/pkg/eimage"
	"github.com/equinoxlab/astropost/pkg/emath"
)

// ErrNoFrame means the image matches no known frame geometry.
var ErrNoFrame = errors.New("no frame found in image")

// A Profile describes one frame geometry: exact image dimensions, the
// radius of the circular field of view (centered), and the level below
// which the margin counts as frame background.
type Profile struct {
	Type      string  `yaml:"type"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Radius    float64 `yaml:"radius"`
	Threshold float64 `yaml:"threshold"`
}

// DefaultProfiles covers the Unistellar export geometries.
var DefaultProfiles = []Profile{
	{Type: "Unistellar eQuinox 1", Width: 2240, Height: 2240, Radius: 997, Threshold: 24.0 / 255.0},
	{Type: "Unistellar eQuinox 1 (Planets)", Width: 1120, Height: 1120, Radius: 498.5, Threshold: 24.0 / 255.0},
}

// LoadProfiles reads additional frame profiles from a YAML file.
func LoadProfiles(filename string) ([]Profile, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("LoadProfiles: %v", err)
	}
	var profiles []Profile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("LoadProfiles: parsing %s: %v", filename, err)
	}
	for _, p := range profiles {
		if p.Width < 1 || p.Height < 1 || p.Radius <= 0 {
			return nil, fmt.Errorf("LoadProfiles: bad profile %q", p.Type)
		}
	}
	return profiles, nil
}

// outside reports whether (x, y) lies outside the circular field of
// view of p.
func (p Profile)outside(x, y int) bool {
	dx := float64(x) - float64(p.Width-1)/2
	dy := float64(y) - float64(p.Height-1)/2
	return math.Sqrt(dx*dx+dy*dy) > p.Radius
}

// Detect matches the image against the profiles by exact dimensions,
// then checks that the margin really is dark: at least 90% of the
// pixels outside the field of view must sit below the threshold.
// Returns ErrNoFrame when nothing matches.
func Detect(im *eimage.Image, profiles []Profile) (Profile, error) {
	w, h := im.Size()
	for _, p := range profiles {
		if p.Width != w || p.Height != h {
			continue
		}
		value := im.Value()
		margin, dark := 0, 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !p.outside(x, y) {
					continue
				}
				margin++
				if value.Get(x, y) < p.Threshold {
					dark++
				}
			}
		}
		if margin > 0 && float64(dark) >= 0.9*float64(margin) {
			return p, nil
		}
	}
	return Profile{}, ErrNoFrame
}

// Extract returns the frame as an image: the bright markings in the
// margin (outside the field of view, at or above threshold) keep their
// pixels, everything else is 0.
func Extract(im *eimage.Image, p Profile) *eimage.Image {
	w, h := im.Size()
	frame := eimage.New(w, h)
	value := im.Value()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if p.outside(x, y) && value.Get(x, y) >= p.Threshold {
				for c := 0; c < 3; c++ {
					frame.Planes[c].Set(x, y, im.Planes[c].Get(x, y))
				}
			}
		}
	}
	return frame
}

// Remove blanks the image wherever the frame has content, so that
// processing never sees the markings.
func Remove(im, frame *eimage.Image) error {
	if err := sameSize(im, frame); err != nil {
		return err
	}
	mask := frameMask(frame)
	for c := 0; c < 3; c++ {
		vp := im.Planes[c].Values()
		for i := range vp {
			if mask[i] {
				vp[i] = 0
			}
		}
	}
	return nil
}

// Restore composites the frame back on top of the image: wherever the
// frame has content, the frame pixel wins.
func Restore(im, frame *eimage.Image) error {
	if err := sameSize(im, frame); err != nil {
		return err
	}
	mask := frameMask(frame)
	for c := 0; c < 3; c++ {
		vp, vf := im.Planes[c].Values(), frame.Planes[c].Values()
		for i := range vp {
			if mask[i] {
				vp[i] = vf[i]
			}
		}
	}
	return nil
}

// frameMask marks the pixels where any frame channel is above
// tolerance.
func frameMask(frame *eimage.Image) []bool {
	vr, vg, vb := frame.Planes[0].Values(), frame.Planes[1].Values(), frame.Planes[2].Values()
	mask := make([]bool, len(vr))
	for i := range mask {
		mask[i] = vr[i] > emath.Tol || vg[i] > emath.Tol || vb[i] > emath.Tol
	}
	return mask
}

func sameSize(im, frame *eimage.Image) error {
	w, h := im.Size()
	fw, fh := frame.Size()
	if w != fw || h != fh {
		return fmt.Errorf("frame is %dx%d but image is %dx%d", fw, fh, w, h)
	}
	return nil
}

// DrawBoundary returns a copy of the image with the field of view
// boundary stroked on top, for eyeballing whether a profile fits.
func DrawBoundary(im *eimage.Image, p Profile, col color.Color) *eimage.Image {
	w, h := im.Size()
	dc := gg.NewContext(w, h)
	dc.SetColor(col)
	dc.SetLineWidth(2)
	dc.SetDash(8, 8)
	dc.DrawCircle(float64(p.Width-1)/2, float64(p.Height-1)/2, p.Radius)
	dc.Stroke()

	out := im.Clone()
	overlay := dc.Image()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := overlay.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			// Alpha blend the (premultiplied) stroke over the image.
			af := float64(a) / 65535.0
			src := [3]float64{float64(r) / 65535.0, float64(g) / 65535.0, float64(b) / 65535.0}
			for c := 0; c < 3; c++ {
				v := out.Planes[c].Get(x, y)
				out.Planes[c].Set(x, y, src[c]+(1-af)*v)
			}
		}
	}
	return out
}
