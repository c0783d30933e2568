package eimage

import(
	"math"
	"testing"
)

func TestStatisticsExclusion(t *testing.T) {
	// 4 pixels per plane: one black, one blown, one out of range, one
	// mid level. Only the mid level survives into the percentiles.
	im := uniform(4, 1, 0, 0, 0)
	levels := []float64{0, 1, 1.5, 0.42}
	for i, v := range levels {
		for c := 0; c < 3; c++ {
			im.Planes[c].Set(i, 0, v)
		}
	}

	stats := im.Statistics()
	cs, ok := stats["R"]
	if !ok {
		t.Fatalf("no R stats")
	}
	if cs.NPixels != 4 {
		t.Errorf("NPixels = %d, want 4", cs.NPixels)
	}
	if cs.ZeroCount != 1 {
		t.Errorf("ZeroCount = %d, want 1", cs.ZeroCount)
	}
	if cs.OutCount != 1 {
		t.Errorf("OutCount = %d, want 1", cs.OutCount)
	}
	if cs.Minimum != 0 || cs.Maximum != 1.5 {
		t.Errorf("min/max = %f/%f, want 0/1.5", cs.Minimum, cs.Maximum)
	}
	if cs.Median == nil || math.Abs(*cs.Median-0.42) > 1e-9 {
		t.Errorf("median: got %v, want 0.42", cs.Median)
	}
}

func TestStatisticsMedianInterpolates(t *testing.T) {
	// An even count of surviving pixels: the median interpolates
	// between the two middle levels rather than picking one of them.
	im := uniform(2, 2, 0, 0, 0)
	levels := []float64{0, 0.2, 0.4, 1.5}
	for i, v := range levels {
		for c := 0; c < 3; c++ {
			im.Planes[c].Set(i%2, i/2, v)
		}
	}

	cs := im.Statistics()["R"]
	if cs.ZeroCount != 1 || cs.OutCount != 1 {
		t.Errorf("zero/out = %d/%d, want 1/1", cs.ZeroCount, cs.OutCount)
	}
	if cs.Median == nil || math.Abs(*cs.Median-0.3) > 1e-9 {
		t.Errorf("median of {0.2, 0.4}: got %v, want 0.3", cs.Median)
	}
}

func TestStatisticsAllClipped(t *testing.T) {
	// Every pixel excluded: percentiles must be absent, not zero.
	im := uniform(2, 2, 0, 1, 0)
	cs := im.Statistics()["R"]
	if cs.Percentiles != nil || cs.Median != nil {
		t.Errorf("fully clipped channel should have nil percentiles")
	}
	if cs.ZeroCount != 4 {
		t.Errorf("ZeroCount = %d, want 4", cs.ZeroCount)
	}
}

func TestStatKeys(t *testing.T) {
	keys := StatKeys()
	want := []string{"R", "G", "B", "V", "L"}
	if len(keys) != len(want) {
		t.Fatalf("got %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: got %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestHistogramsInRange(t *testing.T) {
	im := uniform(4, 4, 0.5, 0.5, 0.5)
	edges, counts := im.Histograms(100)
	if len(edges) != 101 {
		t.Fatalf("edges: got %d, want 101", len(edges))
	}
	total := 0.0
	for _, c := range counts[0] {
		total += c
	}
	if total != 16 {
		t.Errorf("R histogram mass = %f, want 16", total)
	}
}

func TestHistogramsExtendedRange(t *testing.T) {
	// Out of range data extends the binned range instead of clipping,
	// keeping the bin width at ~1/nbins.
	im := uniform(2, 2, 0.5, 0.5, 0.5)
	im.Planes[0].Set(0, 0, 1.5)
	edges, counts := im.Histograms(100)
	if got := len(edges) - 1; got != 150 {
		t.Errorf("bins: got %d, want 150", got)
	}
	if edges[0] != 0 {
		t.Errorf("range start: got %f, want 0", edges[0])
	}
	// The out of range pixel must land in the histogram, not fall off.
	total := 0.0
	for _, c := range counts[0] {
		total += c
	}
	if total != 4 {
		t.Errorf("R histogram mass = %f, want 4", total)
	}
}
