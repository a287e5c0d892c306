package neighbors

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/params"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

// Neighbor is one drawn contaminant. XRel and YRel are offsets in pixels
// from the stamp centre.
type Neighbor struct {
	Variant    profile.Variant
	Fields     profile.Fields
	XRel, YRel float64
}

// R returns the distance of the neighbor from the stamp centre.
func (n Neighbor) R() float64 { return math.Hypot(n.XRel, n.YRel) }

// Injector draws neighbors from a validated Config.
type Injector struct {
	cfg  Config
	kind profile.Kind
}

// New validates cfg and returns an Injector.
func New(cfg Config) (*Injector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	kind := profile.KindSersic
	if len(cfg.Profile.Types) == 1 {
		kind, _ = profile.ParseKind(cfg.Profile.Types[0])
	}
	if err := checkFields(kind, cfg.Profile); err != nil {
		return nil, err
	}
	return &Injector{cfg: cfg, kind: kind}, nil
}

// checkFields makes sure every field required by kind can be drawn.
func checkFields(kind profile.Kind, pc params.Config) error {
	covered := map[string]bool{}
	if pc.Ellipticity != nil {
		if kind == profile.KindEBulgeDisk {
			covered[profile.FieldBulgeG] = true
			covered[profile.FieldTheta] = true
		} else {
			covered[profile.FieldG1] = true
			covered[profile.FieldG2] = true
		}
	}
	for _, name := range profile.RequiredFields(kind) {
		if _, ok := pc.Fields[name]; !ok && !covered[name] && !inStat(pc, name) {
			return errors.Configuration("neighbors: profile %s requires field %s", kind, name)
		}
	}
	return nil
}

func inStat(pc params.Config, name string) bool {
	_, ok := pc.Stat[name]
	return ok
}

// Config returns the configuration the injector was built with.
func (in *Injector) Config() Config { return in.cfg }

// Convolve reports whether neighbors share the row PSF.
func (in *Injector) Convolve() bool { return in.cfg.Convolve }

// Count returns the number of neighbors per row for one composition.
func (in *Injector) Count(rng *rand.Rand) int {
	if in.cfg.NN != nil {
		return *in.cfg.NN
	}
	if in.cfg.NNMax == in.cfg.NNMin {
		return in.cfg.NNMin
	}
	return in.cfg.NNMin + rng.IntN(in.cfg.NNMax-in.cfg.NNMin+1)
}

// Draw returns n neighbors for a stamp of side ss.
func (in *Injector) Draw(rng *rand.Rand, n, ss int) ([]Neighbor, error) {
	if n == 0 {
		return nil, nil
	}
	pc := in.cfg.Profile
	pc.Types = []string{string(in.kind)}
	dist, err := params.New(pc, rng)
	if err != nil {
		return nil, err
	}
	stat := dist.Stat()

	out := make([]Neighbor, 0, n)
	for range n {
		truth, err := dist.Draw(0, 0, 1, 1)
		if err != nil {
			return nil, err
		}
		for k, v := range stat.Fields {
			truth.Fields[k] = v
		}
		v, err := profile.FromFields(in.kind, truth.Fields, in.cfg.SersicCut)
		if err != nil {
			return nil, err
		}
		x, y, err := in.place(rng, ss)
		if err != nil {
			return nil, err
		}
		out = append(out, Neighbor{Variant: v, Fields: truth.Fields, XRel: x, YRel: y})
	}
	return out, nil
}

func (in *Injector) place(rng *rand.Rand, ss int) (x, y float64, err error) {
	if in.cfg.Placement == PlaceRing {
		return placeRing(rng, in.cfg.Ring, ss)
	}
	x, y = placeBox(rng, in.cfg.Box, ss)
	return x, y, nil
}

func placeBox(rng *rand.Rand, b *Box, ss int) (x, y float64) {
	if b == nil {
		b = &Box{}
	}
	s := float64(ss)
	axis := func(pin, lo, hi *float64) float64 {
		if pin != nil {
			return math.Floor(*pin * s)
		}
		a, z := math.Floor(frac(lo, 0)*s), math.Floor(frac(hi, 1)*s)-1
		if z <= a {
			return a
		}
		return distuv.Uniform{Min: a, Max: z, Src: rng}.Rand()
	}
	x = axis(b.X, b.XMin, b.XMax)
	y = axis(b.Y, b.YMin, b.YMax)
	return x - s/2, y - s/2
}

func placeRing(rng *rand.Rand, r *Ring, ss int) (x, y float64, err error) {
	rmin, rmax, tmin, tmax := r.bounds(ss)
	if rmax < rmin {
		return 0, 0, errors.Configuration("neighbors: ring rmax (%g) < rmin (%g) for stampsize %d", rmax, rmin, ss)
	}
	uniform := func(lo, hi float64) float64 {
		if hi <= lo {
			return lo
		}
		return distuv.Uniform{Min: lo, Max: hi, Src: rng}.Rand()
	}
	var rad, theta float64
	switch {
	case r != nil && r.R != nil && r.Theta != nil:
		rad, theta = *r.R, *r.Theta*math.Pi
	case r != nil && r.R != nil:
		rad, theta = *r.R, uniform(tmin, tmax)
	case r != nil && r.Theta != nil:
		rad, theta = uniform(rmin, rmax), *r.Theta*math.Pi
	default:
		return ringReject(rng, rmin, rmax, tmin, tmax)
	}
	return rad * math.Cos(theta), rad * math.Sin(theta), nil
}

// ringReject draws uniformly over the annulus sector by rejection from its
// bounding square.
func ringReject(rng *rand.Rand, rmin, rmax, tmin, tmax float64) (x, y float64, err error) {
	if rmax <= 0 {
		return 0, 0, nil
	}
	sq := distuv.Uniform{Min: -rmax, Max: rmax, Src: rng}
	lo, hi := rmin*rmin, rmax*rmax
	const maxTries = 100000
	for range maxTries {
		x, y = sq.Rand(), sq.Rand()
		r2 := x*x + y*y
		theta := math.Atan2(y, x)
		if theta < 0 {
			theta += 2 * math.Pi
		}
		if r2 >= lo && r2 <= hi && theta >= tmin && theta <= tmax {
			return x, y, nil
		}
	}
	return 0, 0, errors.Configuration("neighbors: ring placement rejected %d draws", maxTries)
}

// FindNearest returns the index of the neighbor closest to the stamp
// centre, or -1 if ns is empty.
func FindNearest(ns []Neighbor) int {
	idx := -1
	best := math.Inf(1)
	for i, n := range ns {
		if r2 := n.XRel*n.XRel + n.YRel*n.YRel; r2 < best {
			best, idx = r2, i
		}
	}
	return idx
}
