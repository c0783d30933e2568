package emath

import(
	"fmt"
	"math"
	"sort"
)

// Tol is the accuracy expected of float64 pixel calculations. Levels
// closer than this are considered equal.
const Tol = 1e-9

// A FloatGrid is a single image plane: a grid of float64 levels,
// conventionally in [0,1]. Levels are never clamped at rest - out of
// range data is a valid state, and gets clipped only where a transform
// requires it.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g1 *FloatGrid)NewFromThis() FloatGrid  { return NewFloatGrid(g1.Dx(), g1.Dy()) }
func (fg *FloatGrid)Set(x, y int, v float64) { fg.values[fg.stride*y + x] = v }
func (fg *FloatGrid)Get(x, y int) float64    { return fg.values[fg.stride*y + x] }
func (fg *FloatGrid)Dx() int                 { return fg.stride }
func (fg *FloatGrid)Dy() int                 { return len(fg.values) / fg.stride }
func (fg *FloatGrid)Values() []float64       { return fg.values }

func (g1 *FloatGrid)Copy() FloatGrid {
	g2 := FloatGrid{stride: g1.stride, values: make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return g2
}

func (fg *FloatGrid)Fill(v float64) {
	for i := range fg.values {
		fg.values[i] = v
	}
}

// Apply replaces every level v by f(v), in place.
func (fg *FloatGrid)Apply(f func(float64) float64) {
	for i, v := range fg.values {
		fg.values[i] = f(v)
	}
}

func (g1 *FloatGrid)Applied(f func(float64) float64) FloatGrid {
	g2 := g1.Copy()
	g2.Apply(f)
	return g2
}

func (fg *FloatGrid)Clip(lo, hi float64) {
	for i, v := range fg.values {
		if v < lo {
			fg.values[i] = lo
		} else if v > hi {
			fg.values[i] = hi
		}
	}
}

func (g1 *FloatGrid)Clipped(lo, hi float64) FloatGrid {
	g2 := g1.Copy()
	g2.Clip(lo, hi)
	return g2
}

func (fg *FloatGrid)Min() float64 {
	min := math.Inf(1)
	for _, v := range fg.values {
		if v < min {
			min = v
		}
	}
	return min
}

func (fg *FloatGrid)Max() float64 {
	max := math.Inf(-1)
	for _, v := range fg.values {
		if v > max {
			max = v
		}
	}
	return max
}

func (g1 *FloatGrid)SameSizeAs(g2 *FloatGrid) bool {
	return g1.stride == g2.stride && len(g1.values) == len(g2.values)
}

func (g1 *FloatGrid)EqualWithin(g2 *FloatGrid, tol float64) bool {
	if !g1.SameSizeAs(g2) {
		return false
	}
	for i, v := range g1.values {
		if math.Abs(v-g2.values[i]) >= tol {
			return false
		}
	}
	return true
}

// Convolve3x3 convolves the plane with a 3x3 kernel, zero padded at
// the boundary. The kernel is row major.
func (g1 *FloatGrid)Convolve3x3(k [9]float64) FloatGrid {
	width, height := g1.Dx(), g1.Dy()
	g2 := g1.NewFromThis()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			acc := 0.0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || xx >= width || yy < 0 || yy >= height {
						continue
					}
					acc += k[3*(dy+1)+(dx+1)] * g1.Get(xx, yy)
				}
			}
			g2.Set(x, y, acc)
		}
	}
	return g2
}

// NeighborMean returns, for each pixel, the unweighted mean of its 8
// nearest neighbors, center excluded. The plane is zero padded, and
// the per pixel neighbor count is adjusted at edges and corners so
// that the padding never dilutes the denominator.
func (g1 *FloatGrid)NeighborMean() FloatGrid {
	width, height := g1.Dx(), g1.Dy()
	g2 := g1.NewFromThis()

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, n := 0.0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					xx, yy := x+dx, y+dy
					if xx < 0 || xx >= width || yy < 0 || yy >= height {
						continue
					}
					sum += g1.Get(xx, yy)
					n++
				}
			}
			g2.Set(x, y, sum/float64(n))
		}
	}
	return g2
}

// ScalePixels scales every level of plane by the pointwise ratio
// target/source. Wherever |source| < cutoff the ratio is unstable, so
// the output level is forced to target instead of risking a 0/0 NaN.
func ScalePixels(plane, source, target *FloatGrid, cutoff float64) FloatGrid {
	out := plane.NewFromThis()
	for i, v := range plane.values {
		if math.Abs(source.values[i]) > cutoff {
			out.values[i] = v * target.values[i] / source.values[i]
		} else {
			out.values[i] = target.values[i]
		}
	}
	return out
}

// Interp linearly remaps t from [x0,x1] to [y0,y1], saturating outside.
func Interp(t, x0, x1, y0, y1 float64) float64 {
	if t <= x0 {
		return y0
	}
	if t >= x1 {
		return y1
	}
	return y0 + (t-x0)*(y1-y0)/(x1-x0)
}

// Quantiles returns the quantiles of vals at the probes ps, linearly
// interpolated at the fractional order statistic (n-1)p. This is the
// convention numpy.percentile and numpy.median use, so the median of
// {0.2, 0.4} is 0.3, not an order statistic. vals is copied and
// sorted, not mutated.
func Quantiles(vals []float64, ps ...float64) []float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = interpQuantile(sorted, p)
	}
	return out
}

func interpQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	idx := p * float64(n-1)
	lo := int(math.Floor(idx))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func (fg *FloatGrid)Stats() string {
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), fg.Min(), fg.Max())
}
