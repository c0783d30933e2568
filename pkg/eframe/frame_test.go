package eframe

import(
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/equinoxlab/astropost/pkg/eimage"
)

// tiny is a 10x10 test geometry: field of view radius 3, centered.
var tiny = Profile{Type: "tiny", Width: 10, Height: 10, Radius: 3, Threshold: 0.1}

// framedImage builds a 10x10 image: bright field inside the radius,
// dark margin, one bright marking in a corner.
func framedImage() *eimage.Image {
	im := eimage.New(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			v := 0.02 // dark margin
			if !tiny.outside(x, y) {
				v = 0.5
			}
			for c := 0; c < 3; c++ {
				im.Planes[c].Set(x, y, v)
			}
		}
	}
	// A logo pixel out in the margin.
	for c := 0; c < 3; c++ {
		im.Planes[c].Set(0, 0, 0.8)
	}
	return im
}

func TestDetect(t *testing.T) {
	im := framedImage()
	p, err := Detect(im, []Profile{tiny})
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != "tiny" {
		t.Errorf("got %q", p.Type)
	}

	// Wrong dimensions: no match.
	small := eimage.New(8, 8)
	if _, err := Detect(small, []Profile{tiny}); err != ErrNoFrame {
		t.Errorf("got %v, want ErrNoFrame", err)
	}

	// Right dimensions but bright margin: no match.
	bright := eimage.NewWhite(10, 10)
	if _, err := Detect(bright, []Profile{tiny}); err != ErrNoFrame {
		t.Errorf("bright margin: got %v, want ErrNoFrame", err)
	}
}

func TestExtractRemoveRestore(t *testing.T) {
	im := framedImage()
	frame := Extract(im, tiny)

	// Only the marking survives into the frame.
	if got := frame.Planes[0].Get(0, 0); got != 0.8 {
		t.Errorf("marking: got %f, want 0.8", got)
	}
	if got := frame.Planes[0].Get(1, 0); got != 0 {
		t.Errorf("dark margin should not be in the frame, got %f", got)
	}
	if got := frame.Planes[0].Get(5, 5); got != 0 {
		t.Errorf("field of view should not be in the frame, got %f", got)
	}

	if err := Remove(im, frame); err != nil {
		t.Fatal(err)
	}
	if got := im.Planes[0].Get(0, 0); got != 0 {
		t.Errorf("Remove: marking still at %f", got)
	}
	if got := im.Planes[0].Get(5, 5); got != 0.5 {
		t.Errorf("Remove touched the field of view: %f", got)
	}

	if err := Restore(im, frame); err != nil {
		t.Fatal(err)
	}
	if got := im.Planes[0].Get(0, 0); got != 0.8 {
		t.Errorf("Restore: marking at %f, want 0.8", got)
	}

	// Size mismatch is an error.
	if err := Remove(eimage.New(4, 4), frame); err == nil {
		t.Errorf("size mismatch should be rejected")
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "frames.yaml")
	yaml := `
- type: "custom scope"
  width: 640
  height: 480
  radius: 200
  threshold: 0.05
`
	if err := os.WriteFile(filename, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	profiles, err := LoadProfiles(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0].Width != 640 || profiles[0].Radius != 200 {
		t.Errorf("got %+v", profiles)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("- type: x\n  width: 0\n"), 0644)
	if _, err := LoadProfiles(bad); err == nil {
		t.Errorf("zero width profile should be rejected")
	}
}

func TestDefaultProfiles(t *testing.T) {
	for _, p := range DefaultProfiles {
		if p.Width < 1 || p.Height < 1 || p.Radius <= 0 || p.Threshold <= 0 {
			t.Errorf("bad default profile %+v", p)
		}
	}
}

func TestDrawBoundaryKeepsSize(t *testing.T) {
	im := framedImage()
	out := DrawBoundary(im, tiny, color.RGBA{R: 255, A: 255})
	w, h := out.Size()
	if w != 10 || h != 10 {
		t.Errorf("got %dx%d, want 10x10", w, h)
	}
	// The input must not be touched.
	if im.Planes[0].Get(5, 5) != 0.5 {
		t.Errorf("DrawBoundary mutated its input")
	}
}
