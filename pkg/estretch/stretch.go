// Package estretch is the catalog of parametric histogram stretch
// functions. Each function maps an input level in [0, 1] to an output
// level, is monotone non decreasing for any valid parameter set, and
// is exactly the identity at its documented degenerate parameters.
package estretch

import(
	"fmt"
	"math"
)

// A Func maps one tone level to another. Callers apply it elementwise
// over planes (or through a LUT, see lut.go).
type Func func(t float64) float64

// eps below which a parameter counts as its degenerate value. Exact
// comparisons would blow up the formulas that are singular there.
const eps = 1e-6

// Params is one parametrized stretch function. Key() is canonical and
// embeds all parameters: it names the operation in history labels and
// keys the LUT cache.
type Params interface {
	Validate() error
	Identity() bool
	Curve() Func
	Key() string
}

// Blackpoint remaps [shadow, 1] to [0, 1]: f(t) = (t-shadow)/(1-shadow).
type Blackpoint struct {
	Shadow float64
}

func (p Blackpoint)Validate() error {
	if p.Shadow < 0 || p.Shadow >= 1 {
		return fmt.Errorf("blackpoint: shadow must be in [0, 1), got %g", p.Shadow)
	}
	return nil
}

func (p Blackpoint)Identity() bool { return p.Shadow == 0 }

func (p Blackpoint)Curve() Func {
	if p.Identity() {
		return func(t float64) float64 { return t }
	}
	shadow := p.Shadow
	return func(t float64) float64 { return (t - shadow) / (1 - shadow) }
}

func (p Blackpoint)Key() string { return fmt.Sprintf("BlackPoint(%.5f)", p.Shadow) }

// Midtone is the rational midtone transfer f(t) = (m-1)t/((2m-1)t - m).
// m = 0.5 is the identity, and must be short circuited: the formula
// degenerates to 0/0 there.
type Midtone struct {
	Midtone float64
}

func (p Midtone)Validate() error {
	if p.Midtone <= 0 || p.Midtone >= 1 {
		return fmt.Errorf("midtone: midtone must be in (0, 1), got %g", p.Midtone)
	}
	return nil
}

func (p Midtone)Identity() bool { return math.Abs(p.Midtone-0.5) < eps }

func (p Midtone)Curve() Func {
	if p.Identity() {
		return func(t float64) float64 { return t }
	}
	m := p.Midtone
	return func(t float64) float64 { return (m - 1) * t / ((2*m-1)*t - m) }
}

func (p Midtone)Key() string { return fmt.Sprintf("Midtone(%.5f)", p.Midtone) }

// Arcsinh is the hyperbolic arcsine stretch
// f(t) = asinh(stretch*(t-shadow)) / asinh(stretch*(1-shadow)),
// falling back to the linear blackpoint remap as stretch -> 0.
type Arcsinh struct {
	Shadow  float64
	Stretch float64
}

func (p Arcsinh)Validate() error {
	if p.Shadow < 0 || p.Shadow >= 1 {
		return fmt.Errorf("arcsinh: shadow must be in [0, 1), got %g", p.Shadow)
	}
	if p.Stretch < 0 {
		return fmt.Errorf("arcsinh: stretch must be >= 0, got %g", p.Stretch)
	}
	return nil
}

func (p Arcsinh)Identity() bool { return p.Shadow == 0 && p.Stretch < eps }

func (p Arcsinh)Curve() Func {
	if p.Identity() {
		return func(t float64) float64 { return t }
	}
	shadow := p.Shadow
	if p.Stretch < eps {
		return func(t float64) float64 { return (t - shadow) / (1 - shadow) }
	}
	stretch := p.Stretch
	norm := math.Asinh(stretch * (1 - shadow))
	return func(t float64) float64 { return math.Asinh(stretch*(t-shadow)) / norm }
}

func (p Arcsinh)Key() string {
	return fmt.Sprintf("Arcsinh(shadow = %.5f, stretch = %.1f)", p.Shadow, p.Stretch)
}

// ByName returns a parametrized stretch by canonical name, for recipe
// files and pixel math helpers.
func ByName(name string, args []float64) (Params, error) {
	switch name {
	case "blackpoint":
		if len(args) != 1 {
			return nil, fmt.Errorf("blackpoint wants 1 parameter, got %d", len(args))
		}
		return Blackpoint{args[0]}, nil
	case "midtone":
		if len(args) != 1 {
			return nil, fmt.Errorf("midtone wants 1 parameter, got %d", len(args))
		}
		return Midtone{args[0]}, nil
	case "arcsinh":
		if len(args) != 2 {
			return nil, fmt.Errorf("arcsinh wants 2 parameters, got %d", len(args))
		}
		return Arcsinh{args[0], args[1]}, nil
	case "ghs":
		if len(args) != 5 {
			return nil, fmt.Errorf("ghs wants 5 parameters, got %d", len(args))
		}
		return GHS{LogD1: args[0], B: args[1], SYP: args[2], SPP: args[3], HPP: args[4]}, nil
	}
	return nil, fmt.Errorf("no stretch function named %q", name)
}
