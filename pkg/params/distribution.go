package params

import (
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

// EllipticitySpec draws intrinsic ellipticities.
type EllipticitySpec struct {
	// Sigma is the Rayleigh scale of |g|.
	Sigma float64 `toml:"sigma" yaml:"sigma"`
	// Max truncates |g|; zero disables truncation.
	Max float64 `toml:"max" yaml:"max"`
}

// Config describes a truth distribution.
type Config struct {
	Name string `toml:"name" yaml:"name"`
	// SNCType is the shape-noise cancellation multiplicity.
	SNCType int `toml:"snc_type" yaml:"snc_type"`
	// Types are the profile families, drawn uniformly. Empty means Sersic.
	Types []string `toml:"types" yaml:"types"`
	// Stat holds constant columns merged into every row.
	Stat map[string]float64 `toml:"stat" yaml:"stat"`
	// Fields holds per-row drawn columns.
	Fields map[string]Spec `toml:"fields" yaml:"fields"`
	// Ellipticity, when set, draws tru_g1/tru_g2 (Sersic, Gaussian) or
	// tru_bulge_g/tru_theta (EBulgeDisk) unless Fields pins them.
	Ellipticity *EllipticitySpec `toml:"ellipticity" yaml:"ellipticity"`
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := errors.ValidateSNCType(c.SNCType); err != nil {
		return err
	}
	for _, t := range c.Types {
		if _, err := profile.ParseKind(t); err != nil {
			return err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Fields)) {
		if err := c.Fields[name].Validate(name); err != nil {
			return err
		}
	}
	if e := c.Ellipticity; e != nil && (e.Sigma < 0 || e.Max < 0) {
		return errors.Configuration("ellipticity sigma and max must be >= 0")
	}
	return nil
}

// Distribution draws rows according to a Config. It implements
// catalog.Distribution and is not safe for concurrent use.
type Distribution struct {
	cfg    Config
	kinds  []profile.Kind
	fields []string
	rng    *rand.Rand
}

var _ catalog.Distribution = (*Distribution)(nil)

// New returns a distribution drawing from rng.
func New(cfg Config, rng *rand.Rand) (*Distribution, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "params: nil random source")
	}
	d := &Distribution{cfg: cfg, rng: rng, fields: slices.Sorted(maps.Keys(cfg.Fields))}
	for _, t := range cfg.Types {
		k, _ := profile.ParseKind(t)
		d.kinds = append(d.kinds, k)
	}
	if len(d.kinds) == 0 {
		d.kinds = []profile.Kind{profile.KindSersic}
	}
	return d, nil
}

// Name returns the configured name.
func (d *Distribution) Name() string {
	if d.cfg.Name == "" {
		return "params"
	}
	return d.cfg.Name
}

// Stat returns the SNC type and the constant columns.
func (d *Distribution) Stat() catalog.Stat {
	fields := make(profile.Fields, len(d.cfg.Stat))
	for k, v := range d.cfg.Stat {
		fields[k] = v
	}
	return catalog.Stat{SNCType: d.cfg.SNCType, Fields: fields}
}

// Draw returns the truth of the distinct source at (ix, iy).
func (d *Distribution) Draw(ix, iy, nc, ny int) (catalog.Truth, error) {
	kind := d.kinds[0]
	if len(d.kinds) > 1 {
		kind = d.kinds[d.rng.IntN(len(d.kinds))]
	}
	fields := make(profile.Fields, len(d.fields)+2)

	if e := d.cfg.Ellipticity; e != nil {
		switch kind {
		case profile.KindEBulgeDisk:
			g, err := TruncRayleigh(d.rng, e.Sigma, e.Max)
			if err != nil {
				return catalog.Truth{}, err
			}
			fields[profile.FieldBulgeG] = g
			fields[profile.FieldTheta] = 360 * d.rng.Float64()
		default:
			g1, g2, err := Ellipticity(d.rng, e.Sigma, e.Max)
			if err != nil {
				return catalog.Truth{}, err
			}
			fields[profile.FieldG1] = g1
			fields[profile.FieldG2] = g2
		}
	}

	for _, name := range d.fields {
		spec := d.cfg.Fields[name]
		pos, n := 0, 1
		switch spec.Link {
		case LinkIX:
			pos, n = ix, nc
		case LinkIY:
			pos, n = iy, ny
		}
		fields[name] = spec.Sample(d.rng, pos, n)
	}
	return catalog.Truth{Type: kind, Fields: fields}, nil
}
