package raster

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// NoiseModel describes CCD noise in ADU.
//
// Pixel values v are converted to electrons as (v + SkyLevel) * Gain, given
// a Poisson draw, converted back and sky-subtracted. Read noise is Gaussian
// with standard deviation ReadNoise / Gain ADU. A non-positive Gain disables
// the Poisson term and leaves ReadNoise in ADU.
type NoiseModel struct {
	SkyLevel  float64
	Gain      float64
	ReadNoise float64
}

// Validate rejects models that cannot produce a noise realization.
func (m NoiseModel) Validate() error {
	if m.SkyLevel < 0 {
		return errors.Configuration("sky_level must be >= 0, got %g", m.SkyLevel)
	}
	if m.ReadNoise < 0 {
		return errors.Configuration("read_noise must be >= 0, got %g", m.ReadNoise)
	}
	return nil
}

// Apply adds one noise realization to every pixel of v.
func (m NoiseModel) Apply(v *View, src rand.Source) {
	readSigma := m.ReadNoise
	if m.Gain > 0 {
		readSigma = m.ReadNoise / m.Gain
	}
	gauss := distuv.Normal{Mu: 0, Sigma: readSigma, Src: src}

	for y := 0; y < v.H(); y++ {
		for x := 0; x < v.W(); x++ {
			val := v.At(x, y)
			next := val
			if m.Gain > 0 {
				lambda := (val + m.SkyLevel) * m.Gain
				var e float64
				if lambda > 0 {
					e = distuv.Poisson{Lambda: lambda, Src: src}.Rand()
				}
				next = e/m.Gain - m.SkyLevel
			}
			if readSigma > 0 {
				next += gauss.Rand()
			}
			v.Add(x, y, next-val)
		}
	}
}
