package render

import (
	"math"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/raster"
)

// Profile is a declarative surface-brightness distribution.
//
// The interface is closed: only the types in this package implement it.
type Profile interface {
	// TotalFlux returns the integrated flux of the profile.
	TotalFlux() float64

	field() sbFunc
	validate() error
}

// sbFunc evaluates surface brightness at a point.
type sbFunc func(x, y float64) float64

// Gaussian is a circular Gaussian profile.
type Gaussian struct {
	Sigma float64
	Flux  float64
}

func (g Gaussian) TotalFlux() float64 { return g.Flux }

func (g Gaussian) field() sbFunc {
	inv := -1 / (2 * g.Sigma * g.Sigma)
	norm := g.Flux / (2 * math.Pi * g.Sigma * g.Sigma)
	return func(x, y float64) float64 {
		return norm * math.Exp((x*x+y*y)*inv)
	}
}

func (g Gaussian) validate() error {
	if !(g.Sigma > 0) || math.IsInf(g.Sigma, 0) {
		return errors.Render("gaussian sigma must be positive and finite, got %g", g.Sigma)
	}
	return checkFlux(g.Flux)
}

// InclinedExponential is an exponential disk seen at an inclination angle.
// The disk's major axis lies along x; Inclination is 0 for face-on and pi/2
// for edge-on. The projected light is modelled as an elliptical exponential
// whose minor-to-major axis ratio accounts for the disk thickness
// ScaleHOverR.
type InclinedExponential struct {
	Inclination float64
	ScaleRadius float64
	ScaleHOverR float64
	Flux        float64
}

func (e InclinedExponential) TotalFlux() float64 { return e.Flux }

// AxisRatio returns the projected minor-to-major axis ratio.
func (e InclinedExponential) AxisRatio() float64 {
	c, s := math.Cos(e.Inclination), math.Sin(e.Inclination)
	return math.Sqrt(c*c + e.ScaleHOverR*e.ScaleHOverR*s*s)
}

func (e InclinedExponential) field() sbFunc {
	q := e.AxisRatio()
	rs := e.ScaleRadius
	norm := e.Flux / (2 * math.Pi * rs * rs * q)
	return func(x, y float64) float64 {
		return norm * math.Exp(-math.Hypot(x, y/q)/rs)
	}
}

func (e InclinedExponential) validate() error {
	if !(e.ScaleRadius > 0) {
		return errors.Render("inclined exponential scale radius must be positive, got %g", e.ScaleRadius)
	}
	if e.ScaleHOverR < 0 {
		return errors.Render("inclined exponential scale height ratio must be >= 0, got %g", e.ScaleHOverR)
	}
	if e.AxisRatio() <= 0 {
		return errors.Render("inclined exponential is infinitely thin edge-on (tilt %g, h/r %g)", e.Inclination, e.ScaleHOverR)
	}
	return checkFlux(e.Flux)
}

// Pixel is a square top-hat of side Scale with unit flux.
type Pixel struct {
	Scale float64
}

func (p Pixel) TotalFlux() float64 { return 1 }

// field weighs points on the box edge by one half, so a sampling grid that
// lands on the edge sees the box's true width.
func (p Pixel) field() sbFunc {
	h := p.Scale / 2
	v := 1 / (p.Scale * p.Scale)
	eps := 1e-9 * p.Scale
	edge := func(a float64) float64 {
		d := math.Abs(a) - h
		switch {
		case d > eps:
			return 0
		case d >= -eps:
			return 0.5
		}
		return 1
	}
	return func(x, y float64) float64 {
		return v * edge(x) * edge(y)
	}
}

func (p Pixel) validate() error {
	if !(p.Scale > 0) {
		return errors.Render("pixel scale must be positive, got %g", p.Scale)
	}
	return nil
}

// Interpolated is a profile defined by a sampled image with unit pixel
// scale. The image centre is the profile origin; values between samples use
// Keys cubic convolution, which keeps the centroid and second moments of the
// samples. Pixel values are treated as flux per pixel.
type Interpolated struct {
	Image *raster.Image
}

// NewInterpolated wraps a copy of im so later changes to im do not leak
// into the profile.
func NewInterpolated(im *raster.Image) Interpolated {
	return Interpolated{Image: im.Clone()}
}

func (p Interpolated) TotalFlux() float64 { return p.Image.Sum() }

// cubic is the Keys interpolation kernel with a = -0.5.
func cubic(t float64) float64 {
	t = math.Abs(t)
	switch {
	case t <= 1:
		return (1.5*t-2.5)*t*t + 1
	case t < 2:
		return ((-0.5*t+2.5)*t-4)*t + 2
	}
	return 0
}

func (p Interpolated) field() sbFunc {
	im := p.Image
	cx, cy := float64(im.W)/2-0.5, float64(im.H)/2-0.5
	return func(x, y float64) float64 {
		fx, fy := x+cx, y+cy
		x0, y0 := math.Floor(fx), math.Floor(fy)
		if x0 < -2 || y0 < -2 || x0 > float64(im.W)+1 || y0 > float64(im.H)+1 {
			return 0
		}
		tx, ty := fx-x0, fy-y0
		ix, iy := int(x0), int(y0)
		var wx [4]float64
		for k := range wx {
			wx[k] = cubic(tx - float64(k-1))
		}
		var v float64
		for l := -1; l <= 2; l++ {
			j := iy + l
			if j < 0 || j >= im.H {
				continue
			}
			wy := cubic(ty - float64(l))
			if wy == 0 {
				continue
			}
			row := im.Pix[j*im.W:]
			for k := -1; k <= 2; k++ {
				i := ix + k
				if i < 0 || i >= im.W {
					continue
				}
				v += wx[k+1] * wy * row[i]
			}
		}
		return v
	}
}

func (p Interpolated) validate() error {
	if p.Image == nil || p.Image.W == 0 || p.Image.H == 0 {
		return errors.Render("interpolated profile has no image")
	}
	return nil
}

// Sum is the additive combination of its terms.
type Sum []Profile

// Add returns the sum of the given profiles.
func Add(terms ...Profile) Profile {
	if len(terms) == 1 {
		return terms[0]
	}
	return Sum(append([]Profile(nil), terms...))
}

func (s Sum) TotalFlux() float64 {
	var f float64
	for _, p := range s {
		f += p.TotalFlux()
	}
	return f
}

func (s Sum) field() sbFunc {
	fs := make([]sbFunc, len(s))
	for i, p := range s {
		fs[i] = p.field()
	}
	return func(x, y float64) float64 {
		var v float64
		for _, f := range fs {
			v += f(x, y)
		}
		return v
	}
}

func (s Sum) validate() error {
	if len(s) == 0 {
		return errors.Render("empty sum")
	}
	for _, p := range s {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convolution is its first operand convolved with every later one.
type Convolution []Profile

// Convolve returns the convolution of the given profiles.
func Convolve(ops ...Profile) Profile {
	if len(ops) == 1 {
		return ops[0]
	}
	return Convolution(append([]Profile(nil), ops...))
}

func (c Convolution) TotalFlux() float64 {
	if len(c) == 0 {
		return 0
	}
	f := 1.0
	for _, p := range c {
		f *= p.TotalFlux()
	}
	return f
}

// field is never evaluated directly; Draw splits convolutions into a base
// image and kernels first.
func (c Convolution) field() sbFunc {
	return func(x, y float64) float64 { return 0 }
}

func (c Convolution) validate() error {
	if len(c) == 0 {
		return errors.Render("empty convolution")
	}
	for _, p := range c {
		if err := p.validate(); err != nil {
			return err
		}
	}
	return nil
}

func checkFlux(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.Render("flux must be finite, got %g", f)
	}
	return nil
}
