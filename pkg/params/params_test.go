package params

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

func newRand(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, 0)) }

func TestSpecSample(t *testing.T) {
	rng := newRand(1)

	require.Equal(t, 2.5, Fixed(2.5).Sample(rng, 0, 1))
	require.Equal(t, 3.0, Spec{Min: 3, Max: 3}.Sample(rng, 0, 1))

	for range 200 {
		v := Uniform(1, 2).Sample(rng, 0, 1)
		require.GreaterOrEqual(t, v, 1.0)
		require.Less(t, v, 2.0)
	}

	choices := Spec{Choices: []float64{1, 4}}
	for range 50 {
		require.Contains(t, []float64{1, 4}, choices.Sample(rng, 0, 1))
	}

	linked := Spec{Min: 0, Max: 1, Link: LinkIX}
	require.Equal(t, 0.0, linked.Sample(rng, 0, 5))
	require.Equal(t, 0.5, linked.Sample(rng, 2, 5))
	require.Equal(t, 1.0, linked.Sample(rng, 4, 5))
	require.Equal(t, 0.0, linked.Sample(rng, 0, 1))
}

func TestSpecValidate(t *testing.T) {
	require.NoError(t, Uniform(0, 1).Validate("x"))
	require.NoError(t, Fixed(-1).Validate("x"))
	for _, s := range []Spec{
		{Min: 2, Max: 1},
		{Sigma: -1},
		{Link: "diag"},
	} {
		err := s.Validate("x")
		require.Error(t, err)
		require.True(t, errors.Is(err, errors.ErrCodeConfiguration))
	}
}

func TestSpecPinned(t *testing.T) {
	require.True(t, Fixed(1).Pinned())
	require.True(t, Spec{Choices: []float64{2}}.Pinned())
	require.True(t, Spec{Min: 1, Max: 1}.Pinned())
	require.False(t, Uniform(0, 1).Pinned())
	require.False(t, Spec{Mu: 1, Sigma: 1}.Pinned())
}

func TestTruncRayleigh(t *testing.T) {
	rng := newRand(2)
	var sum float64
	const n = 4000
	for range n {
		g, err := TruncRayleigh(rng, 0.3, 0.9)
		require.NoError(t, err)
		require.GreaterOrEqual(t, g, 0.0)
		require.Less(t, g, 0.9)
		sum += g
	}
	// Rayleigh mean is sigma*sqrt(pi/2); truncation at 3 sigma barely moves it.
	require.InDelta(t, 0.3*math.Sqrt(math.Pi/2), sum/n, 0.02)

	g, err := TruncRayleigh(rng, 0, 0.9)
	require.NoError(t, err)
	require.Zero(t, g)

	_, err = TruncRayleigh(rng, -1, 0)
	require.Error(t, err)
}

func TestEllipticityBounded(t *testing.T) {
	rng := newRand(3)
	for range 500 {
		g1, g2, err := Ellipticity(rng, 0.25, 0.7)
		require.NoError(t, err)
		require.Less(t, math.Hypot(g1, g2), 0.7)
	}
}

func sersicConfig() Config {
	return Config{
		Name:    "sersic-test",
		SNCType: 2,
		Types:   []string{"sersic"},
		Stat: map[string]float64{
			profile.FieldSkyLevel:  100,
			profile.FieldGain:      1,
			profile.FieldReadNoise: 0,
		},
		Fields: map[string]Spec{
			profile.FieldFlux:    Uniform(100, 200),
			profile.FieldRad:     Uniform(2, 4),
			profile.FieldSersicN: {Choices: []float64{1, 4}},
		},
		Ellipticity: &EllipticitySpec{Sigma: 0.2, Max: 0.9},
	}
}

func TestDistributionDraw(t *testing.T) {
	d, err := New(sersicConfig(), newRand(4))
	require.NoError(t, err)
	require.Equal(t, "sersic-test", d.Name())

	stat := d.Stat()
	require.Equal(t, 2, stat.SNCType)
	require.Equal(t, 100.0, stat.Fields[profile.FieldSkyLevel])

	tr, err := d.Draw(0, 0, 2, 2)
	require.NoError(t, err)
	require.Equal(t, profile.KindSersic, tr.Type)
	for _, f := range profile.RequiredFields(profile.KindSersic) {
		require.True(t, tr.Fields.Has(f), "missing %s", f)
	}
}

func TestDistributionDeterministic(t *testing.T) {
	draw := func() []catalog.Truth {
		d, err := New(sersicConfig(), newRand(9))
		require.NoError(t, err)
		var out []catalog.Truth
		for i := range 5 {
			tr, err := d.Draw(i%2, i/2, 2, 3)
			require.NoError(t, err)
			out = append(out, tr)
		}
		return out
	}
	require.Equal(t, draw(), draw())
}

func TestDistributionEBulgeDisk(t *testing.T) {
	cfg := Config{
		Types: []string{"EBulgeDisk"},
		Fields: map[string]Spec{
			profile.FieldBulgeSersicN:    Fixed(4),
			profile.FieldBulgeHLR:        Fixed(1),
			profile.FieldBulgeFlux:       Fixed(20),
			profile.FieldDiskTilt:        Uniform(0, 80),
			profile.FieldDiskScaleHOverR: Fixed(0.1),
			profile.FieldDiskHLR:         Fixed(3),
			profile.FieldDiskFlux:        Fixed(80),
		},
		Ellipticity: &EllipticitySpec{Sigma: 0.2, Max: 0.9},
	}
	d, err := New(cfg, newRand(5))
	require.NoError(t, err)

	tr, err := d.Draw(0, 0, 1, 1)
	require.NoError(t, err)
	require.Equal(t, profile.KindEBulgeDisk, tr.Type)
	for _, f := range profile.RequiredFields(profile.KindEBulgeDisk) {
		require.True(t, tr.Fields.Has(f), "missing %s", f)
	}
	theta := tr.Fields[profile.FieldTheta]
	require.GreaterOrEqual(t, theta, 0.0)
	require.Less(t, theta, 360.0)
}

func TestDistributionFieldsOverrideEllipticity(t *testing.T) {
	cfg := sersicConfig()
	cfg.Fields[profile.FieldG1] = Fixed(0.1)
	cfg.Fields[profile.FieldG2] = Fixed(0)
	d, err := New(cfg, newRand(6))
	require.NoError(t, err)
	tr, err := d.Draw(1, 1, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 0.1, tr.Fields[profile.FieldG1])
	require.Equal(t, 0.0, tr.Fields[profile.FieldG2])
}

func TestDistributionGenerate(t *testing.T) {
	d, err := New(sersicConfig(), newRand(7))
	require.NoError(t, err)
	cat, err := catalog.Generate(d, catalog.Options{N: 4, NC: 2, StampSize: 32})
	require.NoError(t, err)
	require.Equal(t, 8, cat.Len())
	require.Equal(t, 4, cat.Meta.NX)
	require.Equal(t, 2, cat.Meta.NY)

	kinds, err := profile.Validate(cat)
	require.NoError(t, err)
	require.Equal(t, []profile.Kind{profile.KindSersic}, kinds)
}

func TestNewErrors(t *testing.T) {
	_, err := New(Config{Types: []string{"moffat"}}, newRand(1))
	require.Error(t, err)

	_, err = New(Config{SNCType: -1}, newRand(1))
	require.Error(t, err)

	_, err = New(Config{}, nil)
	require.Error(t, err)

	_, err = New(Config{Ellipticity: &EllipticitySpec{Sigma: -0.1}}, newRand(1))
	require.Error(t, err)
}
