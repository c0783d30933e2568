package emath

import(
	"math"
)

// Separable resampling over float64 planes. The weight list scheme
// follows the classic resampler design (see jsummers/fpresize): for
// each output sample, precompute the span of contributing input
// samples and their normalized filter weights, then run the same list
// down every row or column. Working directly on FloatGrid keeps full
// float precision and out of range levels, which byte oriented
// resizers would clamp.

type Filter struct {
	Name    string
	Support float64
	At      func(x float64) float64
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

var(
	Box = Filter{"box", 0.5, func(x float64) float64 {
		if x <= 0.5 && x >= -0.5 {
			return 1
		}
		return 0
	}}

	Bilinear = Filter{"bilinear", 1, func(x float64) float64 {
		x = math.Abs(x)
		if x < 1 {
			return 1 - x
		}
		return 0
	}}

	// Keys cubic with a = -0.5, as used by most image libraries.
	Bicubic = Filter{"bicubic", 2, func(x float64) float64 {
		x = math.Abs(x)
		const a = -0.5
		switch {
		case x < 1:
			return ((a+2)*x-(a+3))*x*x + 1
		case x < 2:
			return (((x-5)*x+8)*x - 4) * a
		default:
			return 0
		}
	}}

	Lanczos = Filter{"lanczos", 3, func(x float64) float64 {
		if x < -3 || x > 3 {
			return 0
		}
		return sinc(x) * sinc(x/3)
	}}

	Hamming = Filter{"hamming", 1, func(x float64) float64 {
		x = math.Abs(x)
		if x >= 1 {
			return 0
		}
		return sinc(x) * (0.54 + 0.46*math.Cos(math.Pi*x))
	}}
)

type weight struct {
	src int
	w   float64
}

// weightList precomputes, for every output index, the contributing
// input indices and weights along one axis.
func weightList(srcN, dstN int, f Filter) [][]weight {
	scale := float64(srcN) / float64(dstN)
	fscale := scale
	if fscale < 1 {
		fscale = 1
	}
	support := f.Support * fscale

	lists := make([][]weight, dstN)
	for i := 0; i < dstN; i++ {
		center := (float64(i)+0.5)*scale - 0.5
		lo := int(math.Floor(center - support))
		hi := int(math.Ceil(center + support))

		var ws []weight
		sum := 0.0
		for j := lo; j <= hi; j++ {
			w := f.At((float64(j) - center) / fscale)
			if w == 0 {
				continue
			}
			jj := j
			if jj < 0 {
				jj = 0
			}
			if jj >= srcN {
				jj = srcN - 1
			}
			ws = append(ws, weight{jj, w})
			sum += w
		}
		if sum != 0 {
			for k := range ws {
				ws[k].w /= sum
			}
		}
		lists[i] = ws
	}
	return lists
}

// ResampleNearest picks the nearest source sample, no filtering.
func (g1 *FloatGrid)ResampleNearest(w, h int) FloatGrid {
	g2 := NewFloatGrid(w, h)
	sx := float64(g1.Dx()) / float64(w)
	sy := float64(g1.Dy()) / float64(h)
	for y := 0; y < h; y++ {
		yy := int(float64(y) * sy)
		if yy >= g1.Dy() {
			yy = g1.Dy() - 1
		}
		for x := 0; x < w; x++ {
			xx := int(float64(x) * sx)
			if xx >= g1.Dx() {
				xx = g1.Dx() - 1
			}
			g2.Set(x, y, g1.Get(xx, yy))
		}
	}
	return g2
}

// Resample resizes the plane to w x h with the given filter,
// horizontal pass then vertical pass.
func (g1 *FloatGrid)Resample(w, h int, f Filter) FloatGrid {
	if f.Support <= 0 {
		return g1.ResampleNearest(w, h)
	}

	// Horizontal pass: g1 (srcW x srcH) -> tmp (w x srcH).
	srcH := g1.Dy()
	tmp := NewFloatGrid(w, srcH)
	hw := weightList(g1.Dx(), w, f)
	for y := 0; y < srcH; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for _, wt := range hw[x] {
				acc += wt.w * g1.Get(wt.src, y)
			}
			tmp.Set(x, y, acc)
		}
	}

	// Vertical pass: tmp (w x srcH) -> g2 (w x h).
	g2 := NewFloatGrid(w, h)
	vw := weightList(srcH, h, f)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			acc := 0.0
			for _, wt := range vw[y] {
				acc += wt.w * tmp.Get(x, wt.src)
			}
			g2.Set(x, y, acc)
		}
	}

	return g2
}
