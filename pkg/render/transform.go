package render

import (
	"math"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// Affine is a 2x2 matrix acting on column vectors (x, y).
type Affine [2][2]float64

// Identity is the identity matrix.
var Identity = Affine{{1, 0}, {0, 1}}

// Mul returns a*b.
func (a Affine) Mul(b Affine) Affine {
	return Affine{
		{a[0][0]*b[0][0] + a[0][1]*b[1][0], a[0][0]*b[0][1] + a[0][1]*b[1][1]},
		{a[1][0]*b[0][0] + a[1][1]*b[1][0], a[1][0]*b[0][1] + a[1][1]*b[1][1]},
	}
}

// Det returns the determinant.
func (a Affine) Det() float64 { return a[0][0]*a[1][1] - a[0][1]*a[1][0] }

// Apply maps (x, y) through the matrix.
func (a Affine) Apply(x, y float64) (float64, float64) {
	return a[0][0]*x + a[0][1]*y, a[1][0]*x + a[1][1]*y
}

// Inverse returns the inverse matrix. The caller must ensure Det != 0.
func (a Affine) Inverse() Affine {
	d := a.Det()
	return Affine{
		{a[1][1] / d, -a[0][1] / d},
		{-a[1][0] / d, a[0][0] / d},
	}
}

// Transformed is Inner mapped through M, shifted by (DX, DY) and scaled in
// flux by FluxScale. Surface brightness is FluxScale/|det M| times the inner
// surface brightness at the pre-image point.
type Transformed struct {
	Inner     Profile
	M         Affine
	DX, DY    float64
	FluxScale float64

	err error
}

func (t Transformed) TotalFlux() float64 { return t.FluxScale * t.Inner.TotalFlux() }

func (t Transformed) field() sbFunc {
	inner := t.Inner.field()
	inv := t.M.Inverse()
	scale := t.FluxScale / math.Abs(t.M.Det())
	return func(x, y float64) float64 {
		u, v := inv.Apply(x-t.DX, y-t.DY)
		return scale * inner(u, v)
	}
}

func (t Transformed) validate() error {
	if t.err != nil {
		return t.err
	}
	d := t.M.Det()
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return errors.Render("singular transform %v", t.M)
	}
	if math.IsNaN(t.DX) || math.IsNaN(t.DY) {
		return errors.Render("transform offset is not a number")
	}
	if err := checkFlux(t.FluxScale); err != nil {
		return err
	}
	return t.Inner.validate()
}

// transform composes an affine map, offset and flux scale onto p, folding
// nested transforms into one.
func transform(p Profile, m Affine, dx, dy, fluxScale float64) Transformed {
	if in, ok := p.(Transformed); ok {
		ox, oy := m.Apply(in.DX, in.DY)
		return Transformed{
			Inner:     in.Inner,
			M:         m.Mul(in.M),
			DX:        ox + dx,
			DY:        oy + dy,
			FluxScale: in.FluxScale * fluxScale,
			err:       in.err,
		}
	}
	return Transformed{Inner: p, M: m, DX: dx, DY: dy, FluxScale: fluxScale}
}

func invalid(p Profile, err error) Transformed {
	return Transformed{Inner: p, M: Identity, FluxScale: 1, err: err}
}

// ShearMatrix returns the area-preserving distortion for reduced shear
// (g1, g2). It is only defined for |g| < 1.
func ShearMatrix(g1, g2 float64) Affine {
	f := 1 / math.Sqrt(1-g1*g1-g2*g2)
	return Affine{
		{f * (1 + g1), f * g2},
		{f * g2, f * (1 - g1)},
	}
}

// Shear applies reduced shear (g1, g2).
func Shear(p Profile, g1, g2 float64) Profile {
	if g := math.Hypot(g1, g2); !(g < 1) {
		return invalid(p, errors.Render("shear |g| = %g must be < 1", g))
	}
	if g1 == 0 && g2 == 0 {
		return p
	}
	return transform(p, ShearMatrix(g1, g2), 0, 0, 1)
}

// ShearPolar applies reduced shear of magnitude g along position angle
// beta (radians).
func ShearPolar(p Profile, g, beta float64) Profile {
	return Shear(p, g*math.Cos(2*beta), g*math.Sin(2*beta))
}

// Lens applies a weak-lensing distortion: shear (g1, g2) followed by a
// magnification mu that scales sizes by sqrt(mu) and flux by mu.
func Lens(p Profile, g1, g2, mu float64) Profile {
	if !(mu > 0) {
		return invalid(p, errors.Render("magnification mu must be positive, got %g", mu))
	}
	if g := math.Hypot(g1, g2); !(g < 1) {
		return invalid(p, errors.Render("lensing shear |g| = %g must be < 1", g))
	}
	s := math.Sqrt(mu)
	m := ShearMatrix(g1, g2)
	m = Affine{{s * m[0][0], s * m[0][1]}, {s * m[1][0], s * m[1][1]}}
	return transform(p, m, 0, 0, mu)
}

// Rotate rotates p counter-clockwise by theta radians.
func Rotate(p Profile, theta float64) Profile {
	if theta == 0 {
		return p
	}
	c, s := math.Cos(theta), math.Sin(theta)
	return transform(p, Affine{{c, -s}, {s, c}}, 0, 0, 1)
}

// Shift moves p by (dx, dy) pixels.
func Shift(p Profile, dx, dy float64) Profile {
	if dx == 0 && dy == 0 {
		return p
	}
	return transform(p, Identity, dx, dy, 1)
}

// WithFlux rescales p so that its total flux equals flux.
func WithFlux(p Profile, flux float64) Profile {
	f := p.TotalFlux()
	if f == 0 {
		return invalid(p, errors.Render("cannot rescale a zero-flux profile"))
	}
	return transform(p, Identity, 0, 0, flux/f)
}

// Dilate scales the size of p by s, keeping its flux.
func Dilate(p Profile, s float64) Profile {
	if !(s > 0) {
		return invalid(p, errors.Render("dilation must be positive, got %g", s))
	}
	if s == 1 {
		return p
	}
	return transform(p, Affine{{s, 0}, {0, s}}, 0, 0, 1)
}
