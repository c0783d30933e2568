package estretch

import(
	"fmt"
	"math"
)

// GHS is the generalized hyperbolic stretch of Payne et al., a five
// piece monotone function of the tone level. See https://ghsastro.co.uk/
// and the reference implementation in GHSStretch.js, whose coefficient
// algebra is reproduced here.
//
//   - LogD1 = ln(D+1) sets the overall stretch amount; D ~ 0 is the identity.
//   - B is the local exponent: B ~ 0 gives an exponential profile,
//     B ~ -1 a logarithmic one, anything else a power law.
//   - SYP is the symmetry point, SPP/HPP the shadow and highlight
//     protection points, with 0 <= SPP <= SYP <= HPP <= 1.
//   - Inverse applies the inverse transform.
//
// The three regimes are selected by comparing B against eps rather
// than by exact equality: the closed forms are singular at B = 0 and
// B = -1 and would produce NaNs nearby.
type GHS struct {
	LogD1   float64
	B       float64
	SYP     float64
	SPP     float64
	HPP     float64
	Inverse bool
}

func (p GHS)Validate() error {
	if p.SPP < 0 || p.SPP > p.SYP {
		return fmt.Errorf("ghs: want 0 <= SPP <= SYP, got SPP = %g, SYP = %g", p.SPP, p.SYP)
	}
	if p.HPP < p.SYP || p.HPP > 1 {
		return fmt.Errorf("ghs: want SYP <= HPP <= 1, got SYP = %g, HPP = %g", p.SYP, p.HPP)
	}
	if p.LogD1 < 0 {
		return fmt.Errorf("ghs: ln(D+1) must be >= 0, got %g", p.LogD1)
	}
	return nil
}

func (p GHS)Identity() bool { return math.Abs(math.Expm1(p.LogD1)) < eps }

func (p GHS)Key() string {
	return fmt.Sprintf("GHS(D = %.2f, B = %.2f, SYP = %.3f, SPP = %.3f, HPP = %.3f, inverse = %t)",
		math.Expm1(p.LogD1), p.B, p.SYP, p.SPP, p.HPP, p.Inverse)
}

// ghsCoeffs holds the per piece coefficients. Pieces, in level order:
//   t < SPP:          b1*t                        (linear, through 0)
//   SPP <= t < SYP:   a2 + b2*core(c2 + d2*t)
//   SYP <= t < HPP:   a3 + b3*core(c3 + d3*t)
//   t >= HPP:         a4 + b4*t                   (linear)
// where core is exp, log, or pow(., e) depending on the B regime.
type ghsCoeffs struct {
	b1                 float64
	a2, b2, c2, d2, e2 float64
	a3, b3, c3, d3, e3 float64
	a4, b4             float64
	core               int
}

const (
	coreExp = iota
	coreLog
	corePow
)

func (p GHS)coeffs() ghsCoeffs {
	D := math.Expm1(p.LogD1)
	B, SYP, SPP, HPP := p.B, p.SYP, p.SPP, p.HPP
	var c ghsCoeffs

	switch {
	case math.Abs(B) < eps:
		qs := math.Exp(-D * (SYP - SPP))
		q0 := qs - D*SPP*math.Exp(-D*(SYP-SPP))
		qh := 2 - math.Exp(-D*(HPP-SYP))
		q1 := qh + D*(1-HPP)*math.Exp(-D*(HPP-SYP))
		q := 1 / (q1 - q0)
		c.core = coreExp
		c.b1 = D * math.Exp(-D*(SYP-SPP)) * q
		c.a2, c.b2, c.c2, c.d2 = -q0*q, q, -D*SYP, D
		c.a3, c.b3, c.c3, c.d3 = (2-q0)*q, -q, D*SYP, -D
		c.a4 = (qh - q0 - D*HPP*math.Exp(-D*(HPP-SYP))) * q
		c.b4 = D * math.Exp(-D*(HPP-SYP)) * q

	case math.Abs(B+1) < eps:
		qs := -math.Log(1 + D*(SYP-SPP))
		q0 := qs - D*SPP/(1+D*(SYP-SPP))
		qh := math.Log(1 + D*(HPP-SYP))
		q1 := qh + D*(1-HPP)/(1+D*(HPP-SYP))
		q := 1 / (q1 - q0)
		c.core = coreLog
		c.b1 = D / (1 + D*(SYP-SPP)) * q
		c.a2, c.b2, c.c2, c.d2 = -q0*q, -q, 1+D*SYP, -D
		c.a3, c.b3, c.c3, c.d3 = -q0*q, q, 1-D*SYP, D
		c.a4 = (qh - q0 - D*HPP/(1+D*(HPP-SYP))) * q
		c.b4 = q * D / (1 + D*(HPP-SYP))

	case B < 0:
		B = -B
		qs := (1 - math.Pow(1+D*B*(SYP-SPP), (B-1)/B)) / (B - 1)
		q0 := qs - D*SPP*math.Pow(1+D*B*(SYP-SPP), -1/B)
		qh := (math.Pow(1+D*B*(HPP-SYP), (B-1)/B) - 1) / (B - 1)
		q1 := qh + D*(1-HPP)*math.Pow(1+D*B*(HPP-SYP), -1/B)
		q := 1 / (q1 - q0)
		c.core = corePow
		c.b1 = D * math.Pow(1+D*B*(SYP-SPP), -1/B) * q
		c.a2, c.b2 = (1/(B-1)-q0)*q, -q/(B-1)
		c.c2, c.d2, c.e2 = 1+D*B*SYP, -D*B, (B-1)/B
		c.a3, c.b3 = (-1/(B-1)-q0)*q, q/(B-1)
		c.c3, c.d3, c.e3 = 1-D*B*SYP, D*B, (B-1)/B
		c.a4 = (qh - q0 - D*HPP*math.Pow(1+D*B*(HPP-SYP), -1/B)) * q
		c.b4 = D * math.Pow(1+D*B*(HPP-SYP), -1/B) * q

	default:
		qs := math.Pow(1+D*B*(SYP-SPP), -1/B)
		q0 := qs - D*SPP*math.Pow(1+D*B*(SYP-SPP), -(1+B)/B)
		qh := 2 - math.Pow(1+D*B*(HPP-SYP), -1/B)
		q1 := qh + D*(1-HPP)*math.Pow(1+D*B*(HPP-SYP), -(1+B)/B)
		q := 1 / (q1 - q0)
		c.core = corePow
		c.b1 = D * math.Pow(1+D*B*(SYP-SPP), -(1+B)/B) * q
		c.a2, c.b2 = -q0*q, q
		c.c2, c.d2, c.e2 = 1+D*B*SYP, -D*B, -1/B
		c.a3, c.b3 = (2-q0)*q, -q
		c.c3, c.d3, c.e3 = 1-D*B*SYP, D*B, -1/B
		c.a4 = (qh - q0 - D*HPP*math.Pow(1+D*B*(HPP-SYP), -(B+1)/B)) * q
		c.b4 = D * math.Pow(1+D*B*(HPP-SYP), -(B+1)/B) * q
	}

	return c
}

func (c ghsCoeffs)mid(a, b, arg, e float64) float64 {
	switch c.core {
	case coreExp:
		return a + b*math.Exp(arg)
	case coreLog:
		return a + b*math.Log(arg)
	default:
		return a + b*math.Pow(arg, e)
	}
}

func (c ghsCoeffs)midInv(a, b, t, e float64) float64 {
	switch c.core {
	case coreExp:
		return math.Log((t - a) / b)
	case coreLog:
		return math.Exp((t - a) / b)
	default:
		return math.Pow((t-a)/b, 1/e)
	}
}

func (p GHS)Curve() Func {
	if p.Identity() {
		return func(t float64) float64 { return t }
	}
	c := p.coeffs()
	SPP, SYP, HPP := p.SPP, p.SYP, p.HPP

	forward := func(t float64) float64 {
		switch {
		case t < SPP:
			return c.b1 * t
		case t < SYP:
			return c.mid(c.a2, c.b2, c.c2+c.d2*t, c.e2)
		case t < HPP:
			return c.mid(c.a3, c.b3, c.c3+c.d3*t, c.e3)
		default:
			return c.a4 + c.b4*t
		}
	}
	if !p.Inverse {
		return forward
	}

	// The inverse maps through the transformed breakpoints.
	SPT := c.b1 * SPP
	SYT := c.mid(c.a2, c.b2, c.c2+c.d2*SYP, c.e2)
	HPT := c.a4 + c.b4*HPP
	return func(t float64) float64 {
		switch {
		case t < SPT:
			return t / c.b1
		case t < SYT:
			return (c.midInv(c.a2, c.b2, t, c.e2) - c.c2) / c.d2
		case t < HPT:
			return (c.midInv(c.a3, c.b3, t, c.e3) - c.c3) / c.d3
		default:
			return (t - c.a4) / c.b4
		}
	}
}
