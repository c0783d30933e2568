package pixelmath

import(
	"math"
	"testing"

	"github.com/equinoxlab/astropost/pkg/eimage"
)

func gray(w, h int, v float64) *eimage.Image {
	im := eimage.New(w, h)
	for c := 0; c < 3; c++ {
		im.Planes[c].Fill(v)
	}
	return im
}

func level(t *testing.T, im *eimage.Image, c int) float64 {
	t.Helper()
	return im.Planes[c].Get(0, 0)
}

func TestArithmetic(t *testing.T) {
	a := gray(2, 2, 0.2)
	b := gray(2, 2, 0.8)
	tests := []struct {
		expr string
		want float64
	}{
		{"IMG1 + IMG2", 1.0},
		{"IMG2 - IMG1", 0.6},
		{"IMG1 * IMG2", 0.16},
		{"IMG1 / IMG2", 0.25},
		{"0.5 * IMG1", 0.1},
		{"IMG1 * 0.5", 0.1},
		{"IMG1 + 0.3", 0.5},
		{"1 - IMG1", 0.8},
		{"IMG1 / 2", 0.1},
		{"(IMG1 + IMG2) / 2", 0.5},
	}
	for _, tc := range tests {
		out, err := Eval(tc.expr, []*eimage.Image{a, b})
		if err != nil {
			t.Errorf("%q: %v", tc.expr, err)
			continue
		}
		for c := 0; c < 3; c++ {
			if got := level(t, out, c); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("%q plane %d: got %f, want %f", tc.expr, c, got, tc.want)
			}
		}
	}
}

func TestInputsNotMutated(t *testing.T) {
	a := gray(2, 2, 0.2)
	if _, err := Eval("IMG1 * 3", []*eimage.Image{a}); err != nil {
		t.Fatal(err)
	}
	if level(t, a, 0) != 0.2 {
		t.Errorf("input mutated to %f", level(t, a, 0))
	}
}

func TestBlend(t *testing.T) {
	a := gray(2, 2, 0.2)
	b := gray(2, 2, 0.8)

	out, err := Eval("blend(IMG1, IMG2, 0.5)", []*eimage.Image{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if got := level(t, out, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("blend 0.5: got %f, want 0.5", got)
	}

	// An image mask blends pixel by pixel.
	mask := gray(2, 2, 1)
	mask.Planes[0].Set(0, 0, 0)
	mask.Planes[1].Set(0, 0, 0)
	mask.Planes[2].Set(0, 0, 0)
	out, err = Eval("blend(IMG1, IMG2, IMG3)", []*eimage.Image{a, b, mask})
	if err != nil {
		t.Fatal(err)
	}
	if got := level(t, out, 0); math.Abs(got-0.2) > 1e-9 {
		t.Errorf("masked-out pixel: got %f, want 0.2", got)
	}
	if got := out.Planes[0].Get(1, 1); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("masked-in pixel: got %f, want 0.8", got)
	}
}

func TestDivisionByBlack(t *testing.T) {
	a := gray(1, 1, 0.5)
	zero := gray(1, 1, 0)
	out, err := Eval("IMG1 / IMG2", []*eimage.Image{a, zero})
	if err != nil {
		t.Fatal(err)
	}
	if got := level(t, out, 0); got != 0 {
		t.Errorf("x/0 should be 0, got %f", got)
	}
}

func TestChannelHelpers(t *testing.T) {
	im := eimage.New(1, 1)
	im.Planes[0].Set(0, 0, 0.8)
	im.Planes[1].Set(0, 0, 0.4)
	im.Planes[2].Set(0, 0, 0.2)

	out, err := Eval("value(IMG1)", []*eimage.Image{im})
	if err != nil {
		t.Fatal(err)
	}
	if !out.IsGrayScale() {
		t.Errorf("value() should be grayscale")
	}
	if got := level(t, out, 0); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("value: got %f, want 0.8", got)
	}

	// Trailing midtone argument stretches the channel in the same call.
	im2 := gray(1, 1, 0.25)
	out, err = Eval("value(IMG1, 0.25)", []*eimage.Image{im2})
	if err != nil {
		t.Fatal(err)
	}
	if got := level(t, out, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("value with midtone: got %f, want 0.5", got)
	}
}

func TestStretchHelpers(t *testing.T) {
	im := gray(1, 1, 0.25)
	out, err := Eval("mts(IMG1, 0.25)", []*eimage.Image{im})
	if err != nil {
		t.Fatal(err)
	}
	if got := level(t, out, 0); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("mts: got %f, want 0.5", got)
	}

	if _, err := Eval("ghs(IMG1, 1.0, 0.5, 0.3, 0.1, 0.9)", []*eimage.Image{im}); err != nil {
		t.Errorf("ghs: %v", err)
	}
	if _, err := Eval("ghs(IMG1, 1.0, 0.5, 0.3)", []*eimage.Image{im}); err != nil {
		t.Errorf("ghs with default protection points: %v", err)
	}
	if _, err := Eval("mts(IMG1, 2.0)", []*eimage.Image{im}); err == nil {
		t.Errorf("invalid midtone should error")
	}
}

func TestRejectsUnknownNames(t *testing.T) {
	a := gray(1, 1, 0.5)
	for _, expr := range []string{
		"IMG9 + 1",       // image that was never loaded
		"open('/etc')",   // no such function
		"len(IMG1)",      // builtins are disabled
		"foo",
	} {
		if _, err := Eval(expr, []*eimage.Image{a}); err == nil {
			t.Errorf("%q should be rejected at compile time", expr)
		}
	}
}

func TestResultMustBeImage(t *testing.T) {
	a := gray(1, 1, 0.5)
	if _, err := Eval("1 + 2", []*eimage.Image{a}); err == nil {
		t.Errorf("a scalar result should be rejected")
	}
}

func TestSizeMismatch(t *testing.T) {
	a := gray(2, 2, 0.5)
	b := gray(3, 3, 0.5)
	if _, err := Eval("IMG1 + IMG2", []*eimage.Image{a, b}); err == nil {
		t.Errorf("size mismatch should error")
	}
}

func TestNoImages(t *testing.T) {
	if _, err := Eval("IMG1", nil); err == nil {
		t.Errorf("empty image list should error")
	}
}
