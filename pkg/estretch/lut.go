package estretch

import(
	"sync"
)

// DefaultLUTSize gives levels quantized finer than 16 bit data, so
// interpolation error stays below the session tolerance.
const DefaultLUTSize = 131072

// A LUT tabulates a stretch function on an even grid over [0, 1] and
// evaluates it by linear interpolation. Inputs are expected to be
// clipped to [0, 1] before lookup.
type LUT struct {
	n     int
	y     []float64
	slope []float64
}

var(
	lutMu    sync.Mutex
	lutCache = map[string]*LUT{}
)

// Lookup returns the cached LUT for the parameter set p, building it
// on first use. The cache key embeds the function and all parameters,
// so a table is computed once per distinct parametrization, never once
// per pixel.
func Lookup(p Params, n int) *LUT {
	if n <= 1 {
		n = DefaultLUTSize
	}
	key := p.Key()

	lutMu.Lock()
	defer lutMu.Unlock()
	if l, ok := lutCache[key]; ok && l.n == n {
		return l
	}

	f := p.Curve()
	l := &LUT{
		n:     n,
		y:     make([]float64, n),
		slope: make([]float64, n-1),
	}
	dx := 1 / float64(n-1)
	for i := 0; i < n; i++ {
		l.y[i] = f(float64(i) * dx)
	}
	for i := 0; i < n-1; i++ {
		l.slope[i] = (l.y[i+1] - l.y[i]) / dx
	}
	lutCache[key] = l
	return l
}

// At interpolates f(t) for t in [0, 1].
func (l *LUT)At(t float64) float64 {
	i := int(t * float64(l.n-1))
	if i < 0 {
		i = 0
	}
	if i > l.n-2 {
		i = l.n - 2
	}
	x := float64(i) / float64(l.n-1)
	return l.y[i] + l.slope[i]*(t-x)
}

// Func adapts the LUT to the Func signature.
func (l *LUT)Func() Func {
	return func(t float64) float64 { return l.At(t) }
}
