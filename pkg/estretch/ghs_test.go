package estretch

import(
	"math"
	"testing"
)

var ghsRegimes = []GHS{
	{LogD1: 1.5, B: 0, SYP: 0.3, SPP: 0.1, HPP: 0.8},    // exponential
	{LogD1: 1.5, B: -1, SYP: 0.3, SPP: 0.1, HPP: 0.8},   // logarithmic
	{LogD1: 1.5, B: -0.6, SYP: 0.3, SPP: 0.1, HPP: 0.8}, // power, B < 0
	{LogD1: 1.5, B: 0.8, SYP: 0.3, SPP: 0.1, HPP: 0.8},  // power, B > 0
}

func TestGHSEndpoints(t *testing.T) {
	for _, p := range ghsRegimes {
		f := p.Curve()
		if got := f(0); math.Abs(got) > 1e-9 {
			t.Errorf("%s: f(0) = %g, want 0", p.Key(), got)
		}
		if got := f(1); math.Abs(got-1) > 1e-9 {
			t.Errorf("%s: f(1) = %g, want 1", p.Key(), got)
		}
	}
}

func TestGHSContinuity(t *testing.T) {
	const h = 1e-9
	for _, p := range ghsRegimes {
		f := p.Curve()
		for _, bp := range []float64{p.SPP, p.SYP, p.HPP} {
			lo, hi := f(bp-h), f(bp+h)
			if math.Abs(hi-lo) > 1e-6 {
				t.Errorf("%s: jump at %f: %g vs %g", p.Key(), bp, lo, hi)
			}
		}
	}
}

func TestGHSInverseRoundTrip(t *testing.T) {
	for _, p := range ghsRegimes {
		f := p.Curve()
		inv := p
		inv.Inverse = true
		g := inv.Curve()
		for i := 0; i <= 100; i++ {
			x := float64(i) / 100
			got := g(f(x))
			if math.Abs(got-x) > 1e-6 {
				t.Errorf("%s: inv(f(%f)) = %f", p.Key(), x, got)
				break
			}
		}
	}
}

func TestGHSIdentity(t *testing.T) {
	p := GHS{LogD1: 0, SYP: 0.5, HPP: 1}
	if !p.Identity() {
		t.Errorf("D = 0 should be the identity")
	}
	f := p.Curve()
	if f(0.37) != 0.37 {
		t.Errorf("identity curve altered the level")
	}
}

func TestGHSValidate(t *testing.T) {
	bad := []GHS{
		{LogD1: 1, SPP: 0.5, SYP: 0.3, HPP: 0.8}, // SPP > SYP
		{LogD1: 1, SPP: 0.1, SYP: 0.5, HPP: 0.3}, // HPP < SYP
		{LogD1: 1, SPP: 0.1, SYP: 0.5, HPP: 1.2}, // HPP > 1
		{LogD1: -1, SYP: 0.5, HPP: 1},            // negative ln(D+1)
	}
	for _, p := range bad {
		if p.Validate() == nil {
			t.Errorf("%+v should be invalid", p)
		}
	}
}
