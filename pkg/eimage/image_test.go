package eimage

import(
	"math"
	"testing"

	"github.com/equinoxlab/astropost/pkg/ecolor"
	"github.com/equinoxlab/astropost/pkg/emath"
)

// uniform builds a w x h image with constant channel levels.
func uniform(w, h int, r, g, b float64) *Image {
	im := New(w, h)
	im.Planes[0].Fill(r)
	im.Planes[1].Fill(g)
	im.Planes[2].Fill(b)
	return im
}

func TestCloneIsDeep(t *testing.T) {
	im := uniform(2, 2, 0.5, 0.5, 0.5)
	im.Meta["tag"] = "a"
	cl := im.Clone()
	cl.Planes[0].Set(0, 0, 0.9)
	cl.Meta["tag"] = "b"
	if im.Planes[0].Get(0, 0) != 0.5 || im.Meta["tag"] != "a" {
		t.Errorf("Clone shares state with the original")
	}
}

func TestRefAliases(t *testing.T) {
	im := uniform(2, 2, 0.5, 0.5, 0.5)
	ref := im.Ref()
	ref.Planes[0].Set(0, 0, 0.9)
	if im.Planes[0].Get(0, 0) != 0.9 {
		t.Errorf("Ref should share plane storage")
	}
}

func TestIsGrayScale(t *testing.T) {
	im := uniform(2, 2, 0.5, 0.5, 0.5)
	if !im.IsGrayScale() {
		t.Errorf("equal planes should be grayscale")
	}
	im.Planes[2].Set(1, 1, 0.6)
	if im.IsGrayScale() {
		t.Errorf("unequal planes should not be grayscale")
	}
}

func TestIsOutOfRange(t *testing.T) {
	im := uniform(2, 2, 0.5, 0.5, 0.5)
	if im.IsOutOfRange() {
		t.Errorf("in-range image flagged out of range")
	}
	im.Planes[1].Set(0, 0, 1.2)
	if !im.IsOutOfRange() {
		t.Errorf("level 1.2 should be out of range")
	}
	im.Planes[1].Set(0, 0, -0.2)
	if !im.IsOutOfRange() {
		t.Errorf("level -0.2 should be out of range")
	}
}

func TestFromPlanesShapeCheck(t *testing.T) {
	a := uniform(2, 2, 0, 0, 0)
	b := uniform(3, 2, 0, 0, 0)
	_, err := FromPlanes([3]emath.FloatGrid{a.Planes[0], a.Planes[1], b.Planes[2]}, nil)
	if err == nil {
		t.Errorf("mismatched plane shapes should be rejected")
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in     string
		ok     bool
		scalar bool
		str    string
	}{
		{"V", true, true, "V"},
		{"L", true, true, "L"},
		{"Y", true, true, "Y"},
		{"L*", true, true, "L*"},
		{"RGB", true, false, "RGB"},
		{"RB", true, false, "RB"},
		{"G", true, false, "G"},
		{"", false, false, ""},
		{"X", false, false, ""},
	}
	for _, tc := range tests {
		c, err := ParseChannel(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseChannel(%q): err = %v, want ok = %t", tc.in, err, tc.ok)
			continue
		}
		if !tc.ok {
			continue
		}
		if c.IsScalar() != tc.scalar || c.String() != tc.str {
			t.Errorf("ParseChannel(%q): scalar=%t str=%q", tc.in, c.IsScalar(), c.String())
		}
	}
}

func TestCachedLuma(t *testing.T) {
	r0, g0, b0 := ecolor.LumaWeights()
	defer ecolor.SetLumaWeights(r0, g0, b0)
	ecolor.SetLumaWeights(0.3, 0.6, 0.1)

	im := uniform(2, 2, 1, 0, 0)
	var cl CachedLuma
	l := cl.Get(im)
	if math.Abs(l.Get(0, 0)-0.3) > 1e-12 {
		t.Fatalf("luma: got %f, want 0.3", l.Get(0, 0))
	}

	// A weight change must invalidate the cache on the next Get.
	ecolor.SetLumaWeights(1, 0, 0)
	l = cl.Get(im)
	if math.Abs(l.Get(0, 0)-1) > 1e-12 {
		t.Errorf("after weight change: got %f, want 1", l.Get(0, 0))
	}

	// Mutating the image needs an explicit Invalidate.
	im.Planes[0].Fill(0.5)
	l = cl.Get(im)
	if l.Get(0, 0) != 1 {
		t.Errorf("cache should still hold the stale luma, got %f", l.Get(0, 0))
	}
	cl.Invalidate()
	l = cl.Get(im)
	if math.Abs(l.Get(0, 0)-0.5) > 1e-12 {
		t.Errorf("after Invalidate: got %f, want 0.5", l.Get(0, 0))
	}
}
