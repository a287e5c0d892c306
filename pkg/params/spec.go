package params

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// Link modes for grid-linked specs.
const (
	LinkNone = ""
	LinkIX   = "ix"
	LinkIY   = "iy"
)

// Spec describes how one numeric field is drawn.
type Spec struct {
	Value   *float64  `toml:"value" yaml:"value"`
	Choices []float64 `toml:"choices" yaml:"choices"`
	Min     float64   `toml:"min" yaml:"min"`
	Max     float64   `toml:"max" yaml:"max"`
	Mu      float64   `toml:"mu" yaml:"mu"`
	Sigma   float64   `toml:"sigma" yaml:"sigma"`
	Link    string    `toml:"link" yaml:"link"`
}

// Fixed returns a Spec pinned to v.
func Fixed(v float64) Spec { return Spec{Value: &v} }

// Uniform returns a Spec drawing uniformly from [lo, hi).
func Uniform(lo, hi float64) Spec { return Spec{Min: lo, Max: hi} }

// Pinned reports whether the spec always yields the same value.
func (s Spec) Pinned() bool {
	return s.Value != nil || len(s.Choices) == 1 || (s.Sigma == 0 && s.Min == s.Max && len(s.Choices) == 0)
}

// Validate checks the spec for internal consistency.
func (s Spec) Validate(name string) error {
	switch s.Link {
	case LinkNone, LinkIX, LinkIY:
	default:
		return errors.Configuration("%s: link must be %q or %q, got %q", name, LinkIX, LinkIY, s.Link)
	}
	if s.Sigma < 0 {
		return errors.Configuration("%s: sigma must be >= 0, got %g", name, s.Sigma)
	}
	if s.Value == nil && len(s.Choices) == 0 && s.Sigma == 0 && s.Max < s.Min {
		return errors.Configuration("%s: max (%g) < min (%g)", name, s.Max, s.Min)
	}
	return nil
}

// Sample draws one value. For linked specs, pos is the index along the
// linked axis and n its length.
func (s Spec) Sample(rng *rand.Rand, pos, n int) float64 {
	switch {
	case s.Value != nil:
		return *s.Value
	case len(s.Choices) > 0:
		return s.Choices[rng.IntN(len(s.Choices))]
	case s.Link != LinkNone:
		if n <= 1 {
			return s.Min
		}
		return s.Min + (s.Max-s.Min)*float64(pos)/float64(n-1)
	case s.Sigma > 0:
		return distuv.Normal{Mu: s.Mu, Sigma: s.Sigma, Src: rng}.Rand()
	case s.Min == s.Max:
		return s.Min
	default:
		return distuv.Uniform{Min: s.Min, Max: s.Max, Src: rng}.Rand()
	}
}

// TruncRayleigh draws from a Rayleigh distribution of scale sigma,
// rejecting values >= cut. A non-positive cut disables truncation; sigma
// zero always yields zero.
func TruncRayleigh(rng *rand.Rand, sigma, cut float64) (float64, error) {
	if sigma < 0 {
		return 0, errors.Configuration("rayleigh sigma must be >= 0, got %g", sigma)
	}
	if sigma == 0 {
		return 0, nil
	}
	d := distuv.Weibull{K: 2, Lambda: sigma * math.Sqrt2, Src: rng}
	if cut <= 0 {
		return d.Rand(), nil
	}
	const maxTries = 10000
	for i := 0; i < maxTries; i++ {
		if v := d.Rand(); v < cut {
			return v, nil
		}
	}
	return 0, errors.Configuration("rayleigh(sigma=%g) truncated at %g rejected %d draws", sigma, cut, maxTries)
}

// Ellipticity draws (g1, g2) with a truncated Rayleigh magnitude and a
// uniform position angle.
func Ellipticity(rng *rand.Rand, sigma, cut float64) (g1, g2 float64, err error) {
	g, err := TruncRayleigh(rng, sigma, cut)
	if err != nil {
		return 0, 0, err
	}
	phi := 2 * math.Pi * rng.Float64()
	return g * math.Cos(phi), g * math.Sin(phi), nil
}
