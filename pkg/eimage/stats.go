package eimage

import(
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/equinoxlab/astropost/pkg/emath"
)

// ChannelStats summarizes one channel. Percentiles and the median are
// computed excluding pixels <= 0 or >= 1: clipped pixels pile up at
// the range ends and would otherwise dominate the estimates. They are
// nil when no pixel qualifies.
type ChannelStats struct {
	Name        string
	Width       int
	Height      int
	NPixels     int
	Minimum     float64
	Maximum     float64
	Percentiles *[3]float64 // 25th, 50th, 75th
	Median      *float64
	ZeroCount   int // pixels <= 0
	OutCount    int // pixels > 1
}

var statChannels = []struct {
	key, name string
}{
	{"R", "Red"}, {"G", "Green"}, {"B", "Blue"}, {"V", "Value"}, {"L", "Luma"},
}

// StatKeys lists the channel keys of Statistics, in display order.
func StatKeys() []string {
	keys := make([]string, len(statChannels))
	for i, sc := range statChannels {
		keys[i] = sc.key
	}
	return keys
}

// Statistics computes per channel statistics for R, G, B, V (value)
// and L (luma).
func (im *Image)Statistics() map[string]ChannelStats {
	w, h := im.Size()
	stats := make(map[string]ChannelStats, len(statChannels))

	for i, sc := range statChannels {
		var channel emath.FloatGrid
		switch sc.key {
		case "V":
			channel = im.Value()
		case "L":
			channel = im.Luma()
		default:
			channel = im.Planes[i]
		}

		cs := ChannelStats{
			Name:    sc.name,
			Width:   w,
			Height:  h,
			NPixels: w * h,
			Minimum: channel.Min(),
			Maximum: channel.Max(),
		}

		kept := make([]float64, 0, w*h)
		for _, v := range channel.Values() {
			switch {
			case v < emath.Tol:
				cs.ZeroCount++
			case v > 1+emath.Tol:
				cs.OutCount++
			}
			if v >= emath.Tol && v <= 1-emath.Tol {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			qs := emath.Quantiles(kept, 0.25, 0.50, 0.75)
			p := [3]float64{qs[0], qs[1], qs[2]}
			cs.Percentiles = &p
			cs.Median = &p[1]
		}
		stats[sc.key] = cs
	}
	return stats
}

// Histograms bins the R, G, B, V and L channels over a shared range
// covering at least [0, 1], extended to the actual min/max when the
// image is out of range. nbins is the bin count per unit interval; the
// effective count scales with the extended range. Returns the shared
// bin edges and one count row per channel, in StatKeys order.
func (im *Image)Histograms(nbins int) (edges []float64, counts [5][]float64) {
	min, max := 0.0, 1.0
	for c := 0; c < 3; c++ {
		min = math.Min(min, im.Planes[c].Min())
		max = math.Max(max, im.Planes[c].Max())
	}
	n := int(math.Round(float64(nbins) * (max - min)))
	if n < 1 {
		n = 1
	}

	edges = make([]float64, n+1)
	floats.Span(edges, min, max)
	// stat.Histogram wants max(x) strictly below the last divider.
	edges[n] = math.Nextafter(max, math.Inf(1))

	channels := [5]emath.FloatGrid{
		im.Planes[0], im.Planes[1], im.Planes[2], im.Value(), im.Luma(),
	}
	for i, channel := range channels {
		x := make([]float64, len(channel.Values()))
		copy(x, channel.Values())
		sort.Float64s(x)
		counts[i] = stat.Histogram(nil, edges, x, nil)
	}
	return edges, counts
}
