package profile

import (
	"math"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/render"
)

// ExpHLRToScale is the half-light radius of an exponential profile in units
// of its scale radius.
const ExpHLRToScale = 1.6783469900166605

// Variant is a typed profile description built from catalog fields.
type Variant interface {
	Kind() Kind
	// Build returns the unlensed, unshifted profile centred on the origin.
	Build() render.Profile
}

// Sersic is an elliptical Sersic galaxy.
type Sersic struct {
	N, Rad, Flux float64
	G1, G2       float64
	// Cut truncates the profile at Cut*Rad when positive.
	Cut float64
}

func (s Sersic) Kind() Kind { return KindSersic }

func (s Sersic) Build() render.Profile {
	var trunc float64
	if s.Cut > 0 {
		trunc = s.Rad * s.Cut
	}
	return render.Shear(render.Sersic{N: s.N, HLR: s.Rad, Flux: s.Flux, Trunc: trunc}, s.G1, s.G2)
}

// Gaussian is an elliptical Gaussian source.
type Gaussian struct {
	Sigma, Flux float64
	G1, G2      float64
}

func (g Gaussian) Kind() Kind { return KindGaussian }

func (g Gaussian) Build() render.Profile {
	return render.Shear(render.Gaussian{Sigma: g.Sigma, Flux: g.Flux}, g.G1, g.G2)
}

// EBulgeDisk is a Sersic bulge plus an inclined exponential disk. Theta and
// DiskTilt are in degrees.
type EBulgeDisk struct {
	Theta float64

	BulgeG, BulgeN, BulgeHLR, BulgeFlux float64

	DiskTilt, DiskHOverR, DiskHLR, DiskFlux float64
}

func (e EBulgeDisk) Kind() Kind { return KindEBulgeDisk }

func (e EBulgeDisk) Build() render.Profile {
	theta := e.Theta * math.Pi / 180
	bulge := render.ShearPolar(render.Sersic{N: e.BulgeN, HLR: e.BulgeHLR, Flux: e.BulgeFlux}, e.BulgeG, theta)
	disk := render.Rotate(render.InclinedExponential{
		Inclination: e.DiskTilt * math.Pi / 180,
		ScaleRadius: e.DiskHLR / ExpHLRToScale,
		ScaleHOverR: e.DiskHOverR,
		Flux:        e.DiskFlux,
	}, theta)
	return render.Add(bulge, disk)
}

// FromFields builds the variant of kind k from row fields. sersicCut is the
// truncation factor used for Sersic rows without their own tru_sersiccut.
func FromFields(k Kind, f Fields, sersicCut float64) (Variant, error) {
	for _, name := range schema[k] {
		if !f.Has(name) {
			return nil, errors.Configuration("profile %s requires field %s", k, name)
		}
	}
	switch k {
	case KindSersic:
		return Sersic{
			N:    f[FieldSersicN],
			Rad:  f[FieldRad],
			Flux: f[FieldFlux],
			G1:   f[FieldG1],
			G2:   f[FieldG2],
			Cut:  f.Get(FieldSersicCut, sersicCut),
		}, nil
	case KindGaussian:
		return Gaussian{
			Sigma: f[FieldSigma],
			Flux:  f[FieldFlux],
			G1:    f[FieldG1],
			G2:    f[FieldG2],
		}, nil
	case KindEBulgeDisk:
		return EBulgeDisk{
			Theta:      f[FieldTheta],
			BulgeG:     f[FieldBulgeG],
			BulgeN:     f[FieldBulgeSersicN],
			BulgeHLR:   f[FieldBulgeHLR],
			BulgeFlux:  f[FieldBulgeFlux],
			DiskTilt:   f[FieldDiskTilt],
			DiskHOverR: f[FieldDiskScaleHOverR],
			DiskHLR:    f[FieldDiskHLR],
			DiskFlux:   f[FieldDiskFlux],
		}, nil
	}
	return nil, errors.Configuration("unknown profile type %q", k)
}
