package neighbors

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stampgrid/pkg/params"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

func ptr[T any](v T) *T { return &v }

func gaussianProfile() params.Config {
	return params.Config{
		Types: []string{"Gaussian"},
		Fields: map[string]params.Spec{
			profile.FieldFlux:  params.Uniform(50, 100),
			profile.FieldSigma: params.Uniform(1, 2),
		},
		Ellipticity: &params.EllipticitySpec{Sigma: 0.2, Max: 0.6},
	}
}

func newRand(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, 1)) }

func TestCount(t *testing.T) {
	in, err := New(Config{NN: ptr(3), Profile: gaussianProfile()})
	require.NoError(t, err)
	require.Equal(t, 3, in.Count(newRand(1)))

	in, err = New(Config{NNMin: 2, NNMax: 2, Profile: gaussianProfile()})
	require.NoError(t, err)
	for range 20 {
		require.Equal(t, 2, in.Count(newRand(2)))
	}

	in, err = New(Config{NNMin: 1, NNMax: 3, Profile: gaussianProfile()})
	require.NoError(t, err)
	rng := newRand(3)
	seen := map[int]bool{}
	for range 200 {
		n := in.Count(rng)
		require.GreaterOrEqual(t, n, 1)
		require.LessOrEqual(t, n, 3)
		seen[n] = true
	}
	require.Len(t, seen, 3)
}

func TestDrawBox(t *testing.T) {
	in, err := New(Config{
		NN:        ptr(2),
		Profile:   gaussianProfile(),
		Placement: PlaceBox,
		Box:       &Box{XMin: ptr(0.25), XMax: ptr(0.75), Y: ptr(0.5)},
	})
	require.NoError(t, err)

	rng := newRand(4)
	for range 50 {
		ns, err := in.Draw(rng, 2, 64)
		require.NoError(t, err)
		require.Len(t, ns, 2)
		for _, n := range ns {
			require.Equal(t, profile.KindGaussian, n.Variant.Kind())
			require.GreaterOrEqual(t, n.XRel, 16.0-32)
			require.LessOrEqual(t, n.XRel, 47.0-32)
			require.Equal(t, 0.0, n.YRel)
		}
	}
}

func TestDrawRing(t *testing.T) {
	in, err := New(Config{
		NN:        ptr(1),
		Profile:   gaussianProfile(),
		Placement: PlaceRing,
		Ring:      &Ring{RMin: ptr(5.0), RMax: ptr(10.0), ThetaMin: ptr(0.0), ThetaMax: ptr(0.5)},
	})
	require.NoError(t, err)

	rng := newRand(5)
	for range 200 {
		ns, err := in.Draw(rng, 1, 64)
		require.NoError(t, err)
		n := ns[0]
		require.GreaterOrEqual(t, n.R(), 5.0)
		require.LessOrEqual(t, n.R(), 10.0)
		require.GreaterOrEqual(t, n.XRel, 0.0)
		require.GreaterOrEqual(t, n.YRel, 0.0)
	}
}

func TestDrawRingPinned(t *testing.T) {
	in, err := New(Config{
		NN:        ptr(1),
		Profile:   gaussianProfile(),
		Placement: PlaceRing,
		Ring:      &Ring{R: ptr(8.0), Theta: ptr(1.0)},
	})
	require.NoError(t, err)
	ns, err := in.Draw(newRand(6), 1, 64)
	require.NoError(t, err)
	require.InDelta(t, -8.0, ns[0].XRel, 1e-12)
	require.InDelta(t, 0.0, ns[0].YRel, 1e-12)
}

func TestDrawPinnedFields(t *testing.T) {
	pc := gaussianProfile()
	pc.Fields[profile.FieldFlux] = params.Fixed(42)
	pc.Stat = map[string]float64{profile.FieldSigma: 1.5}
	in, err := New(Config{NN: ptr(1), Profile: pc})
	require.NoError(t, err)

	ns, err := in.Draw(newRand(7), 3, 32)
	require.NoError(t, err)
	for _, n := range ns {
		g := n.Variant.(profile.Gaussian)
		require.Equal(t, 42.0, g.Flux)
		require.Equal(t, 1.5, g.Sigma)
	}
}

func TestDrawDeterministic(t *testing.T) {
	in, err := New(Config{NNMin: 1, NNMax: 4, Profile: gaussianProfile(), Placement: PlaceRing})
	require.NoError(t, err)
	draw := func() []Neighbor {
		rng := newRand(8)
		ns, err := in.Draw(rng, in.Count(rng), 48)
		require.NoError(t, err)
		return ns
	}
	require.Equal(t, draw(), draw())
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative nn", Config{NN: ptr(-1), Profile: gaussianProfile()}},
		{"inverted range", Config{NNMin: 3, NNMax: 1, Profile: gaussianProfile()}},
		{"two types", Config{Profile: params.Config{Types: []string{"Sersic", "Gaussian"}}}},
		{"missing field", Config{Profile: params.Config{Types: []string{"Gaussian"}}}},
		{"bad placement", Config{Profile: gaussianProfile(), Placement: "grid"}},
		{"inverted ring", Config{Profile: gaussianProfile(), Placement: PlaceRing, Ring: &Ring{RMin: ptr(4.0), RMax: ptr(2.0)}}},
		{"inverted box", Config{Profile: gaussianProfile(), Box: &Box{XMin: ptr(0.8), XMax: ptr(0.2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Errorf("New(%s) = nil error, want error", tt.name)
			}
		})
	}
}

func TestRingTooWideForStamp(t *testing.T) {
	in, err := New(Config{NN: ptr(1), Profile: gaussianProfile(), Placement: PlaceRing, Ring: &Ring{RMin: ptr(40.0)}})
	require.NoError(t, err)
	_, err = in.Draw(newRand(9), 1, 32)
	require.Error(t, err)
}

func TestFindNearest(t *testing.T) {
	if got := FindNearest(nil); got != -1 {
		t.Errorf("FindNearest(nil) = %d, want -1", got)
	}
	ns := []Neighbor{{XRel: 5, YRel: 5}, {XRel: -1, YRel: 2}, {XRel: 3, YRel: 0}}
	if got := FindNearest(ns); got != 1 {
		t.Errorf("FindNearest = %d, want 1", got)
	}
}
