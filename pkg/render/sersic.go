package render

import (
	"math"

	"gonum.org/v1/gonum/mathext"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// Sersic index limits supported by the renderer.
const (
	MinSersicN = 0.3
	MaxSersicN = 6.2
)

// Sersic is a circular Sersic profile I(r) = I0 exp(-b_n (r/re)^(1/N)).
//
// HLR is the half-light radius of the drawn profile. A positive Trunc sets
// the radius beyond which the profile is zero; Flux is then the flux inside
// the truncation radius and re is solved so that HLR still encloses half of
// it. Trunc must exceed sqrt(2) HLR.
type Sersic struct {
	N     float64
	HLR   float64
	Flux  float64
	Trunc float64
}

func (s Sersic) TotalFlux() float64 { return s.Flux }

// SersicB returns b_n, the constant for which HLR encloses half the light
// of an untruncated profile: P(2n, b_n) = 1/2.
func SersicB(n float64) float64 {
	return mathext.GammaIncRegInv(2*n, 0.5)
}

// enclosed returns the fraction of the untruncated flux of a profile with
// scale radius re inside radius r.
func (s Sersic) enclosed(b, re, r float64) float64 {
	if r <= 0 {
		return 0
	}
	return mathext.GammaIncReg(2*s.N, b*math.Pow(r/re, 1/s.N))
}

// scaleRadius returns re, the half-light radius of the untruncated profile
// whose truncation at Trunc has half-light radius HLR.
func (s Sersic) scaleRadius(b float64) float64 {
	if s.Trunc <= 0 {
		return s.HLR
	}
	// half decreases from above 1/2 at re = HLR towards (HLR/Trunc)^2.
	half := func(re float64) float64 {
		return s.enclosed(b, re, s.HLR) / s.enclosed(b, re, s.Trunc)
	}
	lo, hi := s.HLR, 2*s.HLR
	for i := 0; i < 64 && half(hi) > 0.5; i++ {
		lo, hi = hi, 2*hi
	}
	for range 100 {
		mid := math.Sqrt(lo * hi)
		if half(mid) > 0.5 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi)
}

func (s Sersic) field() sbFunc {
	b := SersicB(s.N)
	re := s.scaleRadius(b)
	frac := 1.0
	if s.Trunc > 0 {
		frac = s.enclosed(b, re, s.Trunc)
	}
	// Untruncated flux = 2 pi n re^2 I0 Gamma(2n) / b^(2n).
	lg, _ := math.Lgamma(2 * s.N)
	norm := s.Flux / (2 * math.Pi * s.N * re * re * math.Exp(lg-2*s.N*math.Log(b)) * frac)
	invN := 1 / s.N
	invRe := 1 / re
	trunc2 := s.Trunc * s.Trunc

	return func(x, y float64) float64 {
		r2 := x*x + y*y
		if trunc2 > 0 && r2 > trunc2 {
			return 0
		}
		return norm * math.Exp(-b*math.Pow(math.Sqrt(r2)*invRe, invN))
	}
}

func (s Sersic) validate() error {
	if s.N < MinSersicN || s.N > MaxSersicN || math.IsNaN(s.N) {
		return errors.Render("sersic index %g outside [%g, %g]", s.N, MinSersicN, MaxSersicN)
	}
	if !(s.HLR > 0) || math.IsInf(s.HLR, 0) {
		return errors.Render("sersic half-light radius must be positive, got %g", s.HLR)
	}
	if s.Trunc < 0 {
		return errors.Render("sersic truncation radius must be >= 0, got %g", s.Trunc)
	}
	if s.Trunc > 0 && s.Trunc <= math.Sqrt2*s.HLR {
		return errors.Render("sersic truncation radius %g must exceed sqrt(2) times the half-light radius %g", s.Trunc, s.HLR)
	}
	return checkFlux(s.Flux)
}
