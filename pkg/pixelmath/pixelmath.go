// Package pixelmath evaluates arithmetic expressions over whole
// images, e.g. "blend(IMG1, IMG2, 0.2)" or "0.5*IMG1 + mts(IMG2, 0.25)".
// The expression language is deliberately closed: the loaded images
// appear as IMG1..IMGn, a fixed set of helpers is exposed, every other
// identifier is a compile error, and no builtin of the host language
// leaks through.
package pixelmath

import(
	"fmt"
	"math"

	"github.com/expr-lang/expr"

	"github.com/equinoxlab/astropost/pkg/eimage"
	"github.com/equinoxlab/astropost/pkg/emath"
	"github.com/equinoxlab/astropost/pkg/estretch"
)

// Eval runs the expression against the numbered images. The result
// must itself be an image; inputs are never mutated.
func Eval(expression string, images []*eimage.Image) (*eimage.Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("pixel math needs at least one image")
	}

	env := newEnv(images)
	program, err := expr.Compile(expression, compileOptions(env)...)
	if err != nil {
		return nil, fmt.Errorf("pixel math: %v", err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("pixel math: %v", err)
	}

	result, ok := out.(*eimage.Image)
	if !ok {
		return nil, fmt.Errorf("pixel math: expression evaluates to %T, not an image", out)
	}
	return result, nil
}

func compileOptions(env map[string]any) []expr.Option {
	return []expr.Option{
		expr.Env(env),
		expr.DisableAllBuiltins(),
		expr.Operator("+", "_add_ii", "_add_if", "_add_fi", "_add_in", "_add_ni"),
		expr.Operator("-", "_sub_ii", "_sub_if", "_sub_fi", "_sub_in", "_sub_ni"),
		expr.Operator("*", "_mul_ii", "_mul_if", "_mul_fi", "_mul_in", "_mul_ni"),
		expr.Operator("/", "_div_ii", "_div_if", "_div_fi", "_div_in", "_div_ni"),
	}
}

func newEnv(images []*eimage.Image) map[string]any {
	env := map[string]any{
		"value":     chanValue,
		"luma":      chanLuma,
		"luminance": chanLuminance,
		"lightness": chanLightness,
		"blend":     blend,
		"mts":       mts,
		"ghs":       ghs,
		"scale":     scalePixels,

		"_add_ii": func(a, b *eimage.Image) *eimage.Image { return binop(a, b, func(x, y float64) float64 { return x + y }) },
		"_add_if": func(a *eimage.Image, b float64) *eimage.Image { return numop(a, b, false, func(x, y float64) float64 { return x + y }) },
		"_add_fi": func(a float64, b *eimage.Image) *eimage.Image { return numop(b, a, true, func(x, y float64) float64 { return x + y }) },
		"_add_in": func(a *eimage.Image, b int) *eimage.Image { return numop(a, float64(b), false, func(x, y float64) float64 { return x + y }) },
		"_add_ni": func(a int, b *eimage.Image) *eimage.Image { return numop(b, float64(a), true, func(x, y float64) float64 { return x + y }) },

		"_sub_ii": func(a, b *eimage.Image) *eimage.Image { return binop(a, b, func(x, y float64) float64 { return x - y }) },
		"_sub_if": func(a *eimage.Image, b float64) *eimage.Image { return numop(a, b, false, func(x, y float64) float64 { return x - y }) },
		"_sub_fi": func(a float64, b *eimage.Image) *eimage.Image { return numop(b, a, true, func(x, y float64) float64 { return x - y }) },
		"_sub_in": func(a *eimage.Image, b int) *eimage.Image { return numop(a, float64(b), false, func(x, y float64) float64 { return x - y }) },
		"_sub_ni": func(a int, b *eimage.Image) *eimage.Image { return numop(b, float64(a), true, func(x, y float64) float64 { return x - y }) },

		"_mul_ii": func(a, b *eimage.Image) *eimage.Image { return binop(a, b, func(x, y float64) float64 { return x * y }) },
		"_mul_if": func(a *eimage.Image, b float64) *eimage.Image { return numop(a, b, false, func(x, y float64) float64 { return x * y }) },
		"_mul_fi": func(a float64, b *eimage.Image) *eimage.Image { return numop(b, a, true, func(x, y float64) float64 { return x * y }) },
		"_mul_in": func(a *eimage.Image, b int) *eimage.Image { return numop(a, float64(b), false, func(x, y float64) float64 { return x * y }) },
		"_mul_ni": func(a int, b *eimage.Image) *eimage.Image { return numop(b, float64(a), true, func(x, y float64) float64 { return x * y }) },

		"_div_ii": func(a, b *eimage.Image) *eimage.Image { return binop(a, b, safeDiv) },
		"_div_if": func(a *eimage.Image, b float64) *eimage.Image { return numop(a, b, false, safeDiv) },
		"_div_fi": func(a float64, b *eimage.Image) *eimage.Image { return numop(b, a, true, safeDiv) },
		"_div_in": func(a *eimage.Image, b int) *eimage.Image { return numop(a, float64(b), false, safeDiv) },
		"_div_ni": func(a int, b *eimage.Image) *eimage.Image { return numop(b, float64(a), true, safeDiv) },
	}
	for i, im := range images {
		env[fmt.Sprintf("IMG%d", i+1)] = im
	}
	return env
}

// safeDiv maps division by ~0 to 0 instead of Inf; a black denominator
// pixel carries no color information worth amplifying.
func safeDiv(x, y float64) float64 {
	if math.Abs(y) < emath.Tol {
		return 0
	}
	return x / y
}

// The helpers panic on bad arguments; the expression VM turns the
// panic into an error returned from Run.

func mustSameSize(a, b *eimage.Image) {
	aw, ah := a.Size()
	bw, bh := b.Size()
	if aw != bw || ah != bh {
		panic(fmt.Errorf("images differ in size: %dx%d vs %dx%d", aw, ah, bw, bh))
	}
}

// binop combines two images pixel by pixel, per plane.
func binop(a, b *eimage.Image, f func(x, y float64) float64) *eimage.Image {
	mustSameSize(a, b)
	out := a.Clone()
	for c := 0; c < 3; c++ {
		vo, vb := out.Planes[c].Values(), b.Planes[c].Values()
		for i := range vo {
			vo[i] = f(vo[i], vb[i])
		}
	}
	return out
}

// numop combines an image with a number. swapped means the number was
// the left operand.
func numop(a *eimage.Image, n float64, swapped bool, f func(x, y float64) float64) *eimage.Image {
	out := a.Clone()
	for c := 0; c < 3; c++ {
		vo := out.Planes[c].Values()
		for i := range vo {
			if swapped {
				vo[i] = f(n, vo[i])
			} else {
				vo[i] = f(vo[i], n)
			}
		}
	}
	return out
}

// grayOf builds a grayscale image from one scalar plane.
func grayOf(im *eimage.Image, g emath.FloatGrid) *eimage.Image {
	out := im.Clone()
	out.Planes[0] = g
	out.Planes[1] = g.Copy()
	out.Planes[2] = g.Copy()
	return out
}

// The channel functions take an optional trailing midtone level, so
// value(IMG1, 0.25) is the stretched value channel in one call.
func chanValue(im *eimage.Image, midtone ...float64) *eimage.Image {
	return withMidtone(grayOf(im, im.Value()), midtone)
}
func chanLuma(im *eimage.Image, midtone ...float64) *eimage.Image {
	return withMidtone(grayOf(im, im.Luma()), midtone)
}
func chanLuminance(im *eimage.Image, midtone ...float64) *eimage.Image {
	return withMidtone(grayOf(im, im.Luminance()), midtone)
}

// chanLightness is CIE lightness rescaled to [0, 1].
func chanLightness(im *eimage.Image, midtone ...float64) *eimage.Image {
	g := im.Lightness()
	g.Apply(func(v float64) float64 { return v / 100 })
	return withMidtone(grayOf(im, g), midtone)
}

func withMidtone(im *eimage.Image, midtone []float64) *eimage.Image {
	switch len(midtone) {
	case 0:
		return im
	case 1:
		return mts(im, midtone[0])
	default:
		panic(fmt.Errorf("at most one midtone argument, got %d", len(midtone)))
	}
}

// blend mixes a and b: (1-t)*a + t*b. t is a number or an image mask
// (its value channel weights pixel by pixel).
func blend(a, b *eimage.Image, t any) *eimage.Image {
	switch t := t.(type) {
	case int:
		return numBlend(a, b, float64(t))
	case float64:
		return numBlend(a, b, t)
	case *eimage.Image:
		mustSameSize(a, t)
		mask := t.Value()
		return binopMasked(a, b, mask)
	default:
		panic(fmt.Errorf("blend weight must be a number or an image, got %T", t))
	}
}

func numBlend(a, b *eimage.Image, t float64) *eimage.Image {
	return binop(a, b, func(x, y float64) float64 { return (1-t)*x + t*y })
}

func binopMasked(a, b *eimage.Image, mask emath.FloatGrid) *eimage.Image {
	mustSameSize(a, b)
	out := a.Clone()
	vm := mask.Values()
	for c := 0; c < 3; c++ {
		vo, vb := out.Planes[c].Values(), b.Planes[c].Values()
		for i := range vo {
			vo[i] = (1-vm[i])*vo[i] + vm[i]*vb[i]
		}
	}
	return out
}

// mts applies the rational midtone transfer function to all planes.
func mts(im *eimage.Image, midtone float64) *eimage.Image {
	p := estretch.Midtone{Midtone: midtone}
	if err := p.Validate(); err != nil {
		panic(err)
	}
	out, err := im.Applied(func(w *eimage.Image) error {
		return w.GeneralizedStretch(p, eimage.RGB)
	})
	if err != nil {
		panic(err)
	}
	return out
}

// ghs applies a generalized hyperbolic stretch to all planes. The
// trailing SPP and HPP arguments are optional and default to 0 and 1.
func ghs(im *eimage.Image, logD1, b, syp float64, protect ...float64) *eimage.Image {
	spp, hpp := 0.0, 1.0
	switch len(protect) {
	case 0:
	case 2:
		spp, hpp = protect[0], protect[1]
	default:
		panic(fmt.Errorf("ghs takes SPP and HPP together or not at all, got %d extra arguments", len(protect)))
	}
	p := estretch.GHS{LogD1: logD1, B: b, SYP: syp, SPP: spp, HPP: hpp}
	if err := p.Validate(); err != nil {
		panic(err)
	}
	out, err := im.Applied(func(w *eimage.Image) error {
		return w.GeneralizedStretch(p, eimage.RGB)
	})
	if err != nil {
		panic(err)
	}
	return out
}

// scale rescales a by the pointwise ratio of the value channels of
// target and source, falling back to the target level where the source
// is ~0.
func scalePixels(a, source, target *eimage.Image) *eimage.Image {
	mustSameSize(a, source)
	mustSameSize(a, target)
	out := a.Clone()
	vs, vt := source.Value(), target.Value()
	for c := 0; c < 3; c++ {
		out.Planes[c] = emath.ScalePixels(&out.Planes[c], &vs, &vt, emath.Tol)
	}
	return out
}
