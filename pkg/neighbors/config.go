package neighbors

import (
	"math"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/params"
)

// Placement methods.
const (
	PlaceBox  = "box"
	PlaceRing = "ring"
)

// Box places neighbors uniformly inside a sub-box of the stamp. Bounds are
// fractions of the stamp size; X and Y pin the position along one axis.
type Box struct {
	XMin *float64 `toml:"xmin" yaml:"xmin"`
	XMax *float64 `toml:"xmax" yaml:"xmax"`
	YMin *float64 `toml:"ymin" yaml:"ymin"`
	YMax *float64 `toml:"ymax" yaml:"ymax"`
	X    *float64 `toml:"x" yaml:"x"`
	Y    *float64 `toml:"y" yaml:"y"`
}

// Ring places neighbors in an annulus sector around the stamp centre. Radii
// are in pixels, angles in units of pi.
type Ring struct {
	RMin     *float64 `toml:"rmin" yaml:"rmin"`
	RMax     *float64 `toml:"rmax" yaml:"rmax"`
	ThetaMin *float64 `toml:"theta_min" yaml:"theta_min"`
	ThetaMax *float64 `toml:"theta_max" yaml:"theta_max"`
	R        *float64 `toml:"r" yaml:"r"`
	Theta    *float64 `toml:"theta" yaml:"theta"`
}

// Config describes the neighbors injected around every row.
type Config struct {
	// NN fixes the neighbor count. When nil, the count is drawn uniformly
	// from [NNMin, NNMax].
	NN    *int `toml:"nn" yaml:"nn"`
	NNMin int  `toml:"nn_min" yaml:"nn_min"`
	NNMax int  `toml:"nn_max" yaml:"nn_max"`

	// Profile draws the neighbor profiles. Exactly one type is allowed.
	Profile params.Config `toml:"profile" yaml:"profile"`
	// SersicCut truncates Sersic neighbors at SersicCut times their radius.
	SersicCut float64 `toml:"sersiccut" yaml:"sersiccut"`

	Placement string `toml:"placement" yaml:"placement"`
	Box       *Box   `toml:"box" yaml:"box"`
	Ring      *Ring  `toml:"ring" yaml:"ring"`

	// Convolve convolves neighbors with the row PSF before they are added.
	Convolve bool `toml:"convolve" yaml:"convolve"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NN != nil {
		if *c.NN < 0 {
			return errors.Configuration("neighbors: nn must be >= 0, got %d", *c.NN)
		}
	} else if c.NNMin < 0 || c.NNMax < c.NNMin {
		return errors.Configuration("neighbors: need 0 <= nn_min <= nn_max, got [%d, %d]", c.NNMin, c.NNMax)
	}
	if len(c.Profile.Types) > 1 {
		return errors.Configuration("neighbors: one profile type expected, got %d", len(c.Profile.Types))
	}
	if c.Profile.SNCType != 0 {
		return errors.Configuration("neighbors: snc_type is not supported")
	}
	if err := c.Profile.Validate(); err != nil {
		return err
	}
	if c.SersicCut < 0 {
		return errors.Configuration("neighbors: sersiccut must be >= 0")
	}

	switch c.Placement {
	case PlaceBox, "":
		if b := c.Box; b != nil {
			if lo, hi := frac(b.XMin, 0), frac(b.XMax, 1); hi < lo {
				return errors.Configuration("neighbors: box xmax (%g) < xmin (%g)", hi, lo)
			}
			if lo, hi := frac(b.YMin, 0), frac(b.YMax, 1); hi < lo {
				return errors.Configuration("neighbors: box ymax (%g) < ymin (%g)", hi, lo)
			}
		}
	case PlaceRing:
		if r := c.Ring; r != nil {
			if r.RMin != nil && *r.RMin < 0 {
				return errors.Configuration("neighbors: ring rmin must be >= 0")
			}
			if r.RMin != nil && r.RMax != nil && *r.RMax < *r.RMin {
				return errors.Configuration("neighbors: ring rmax (%g) < rmin (%g)", *r.RMax, *r.RMin)
			}
			if lo, hi := frac(r.ThetaMin, 0), frac(r.ThetaMax, 2); hi < lo {
				return errors.Configuration("neighbors: ring theta_max (%g) < theta_min (%g)", hi, lo)
			}
		}
	default:
		return errors.Configuration("neighbors: placement must be %q or %q, got %q", PlaceBox, PlaceRing, c.Placement)
	}
	return nil
}

func frac(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// bounds resolves the ring limits for a stamp of side ss: radii in
// pixels and angles in radians.
func (r *Ring) bounds(ss int) (rmin, rmax, tmin, tmax float64) {
	rmin, rmax = 0, float64(ss)/2
	tmin, tmax = 0, 2*math.Pi
	if r == nil {
		return
	}
	if r.RMin != nil {
		rmin = *r.RMin
	}
	if r.RMax != nil {
		rmax = *r.RMax
	}
	tmin = frac(r.ThetaMin, 0) * math.Pi
	tmax = frac(r.ThetaMax, 2) * math.Pi
	return
}
