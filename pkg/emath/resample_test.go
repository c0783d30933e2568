package emath

import(
	"math"
	"testing"
)

func TestResampleIdentity(t *testing.T) {
	g := NewFloatGrid(4, 3)
	for i, v := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12} {
		g.Values()[i] = v
	}
	for _, f := range []Filter{Box, Bilinear, Bicubic, Lanczos, Hamming} {
		out := g.Resample(4, 3, f)
		if !out.EqualWithin(&g, 1e-9) {
			t.Errorf("%s: same-size resample should be the identity, got %v", f.Name, out.Values())
		}
	}
}

func TestResampleNearest(t *testing.T) {
	g := NewFloatGrid(2, 2)
	g.Set(0, 0, 1)
	g.Set(1, 0, 2)
	g.Set(0, 1, 3)
	g.Set(1, 1, 4)

	out := g.ResampleNearest(4, 4)
	if out.Dx() != 4 || out.Dy() != 4 {
		t.Fatalf("size: got %dx%d, want 4x4", out.Dx(), out.Dy())
	}
	if out.Get(0, 0) != 1 || out.Get(3, 0) != 2 || out.Get(0, 3) != 3 || out.Get(3, 3) != 4 {
		t.Errorf("corners: got %f %f %f %f", out.Get(0, 0), out.Get(3, 0), out.Get(0, 3), out.Get(3, 3))
	}
}

func TestResampleConstantPlane(t *testing.T) {
	g := NewFloatGrid(10, 10)
	g.Fill(0.25)
	for _, f := range []Filter{Box, Bilinear, Bicubic, Lanczos, Hamming} {
		out := g.Resample(7, 13, f)
		for _, v := range out.Values() {
			if math.Abs(v-0.25) > 1e-9 {
				t.Errorf("%s: constant plane should stay constant, got %f", f.Name, v)
				break
			}
		}
	}
}

func TestResampleDownUp(t *testing.T) {
	// A smooth ramp should survive a down/up round trip to within a
	// loose tolerance.
	g := NewFloatGrid(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			g.Set(x, y, float64(x)/15)
		}
	}
	down := g.Resample(8, 8, Bilinear)
	up := down.Resample(16, 16, Bilinear)
	for y := 0; y < 16; y++ {
		for x := 1; x < 15; x++ {
			if math.Abs(up.Get(x, y)-g.Get(x, y)) > 0.1 {
				t.Fatalf("(%d,%d): got %f, want ~%f", x, y, up.Get(x, y), g.Get(x, y))
			}
		}
	}
}
