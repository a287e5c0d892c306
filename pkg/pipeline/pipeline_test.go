package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matzehuels/stampgrid/pkg/cache"
	"github.com/matzehuels/stampgrid/pkg/catalog/store"
	"github.com/matzehuels/stampgrid/pkg/config"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/observability"
	"github.com/matzehuels/stampgrid/pkg/params"
	"github.com/matzehuels/stampgrid/pkg/raster"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Catalog = config.CatalogConfig{N: 4, NC: 2, StampSize: 16}
	cfg.Params = params.Config{
		Name:    "gauss",
		SNCType: 2,
		Types:   []string{"Gaussian"},
		Stat: map[string]float64{
			"tru_sky_level":  10,
			"tru_gain":       1,
			"tru_read_noise": 1,
			"tru_psf_sigma":  1,
			"tru_psf_g1":     0,
			"tru_psf_g2":     0,
		},
		Fields: map[string]params.Spec{
			"tru_flux":  params.Uniform(100, 200),
			"tru_sigma": params.Uniform(1, 2),
		},
		Ellipticity: &params.EllipticitySpec{Sigma: 0.2, Max: 0.6},
	}
	cfg.Run = config.RunConfig{NCat: 2, NRea: 2, Workers: 2, Seed: 7, OutDir: t.TempDir()}
	cfg.Cache = config.CacheConfig{Backend: config.CacheNone}
	require.NoError(t, cfg.Validate())
	return cfg
}

func readPix(t *testing.T, path string) []float64 {
	t.Helper()
	im, err := raster.ReadFITS(path)
	require.NoError(t, err)
	return im.Pix
}

func TestExecuteLayout(t *testing.T) {
	cfg := testConfig(t)
	idx, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	r := NewRunner(nil, nil, idx, nil)
	defer r.Close()

	res, err := r.Execute(context.Background(), Options{Config: cfg})
	require.NoError(t, err)

	if res.Dir != filepath.Join(cfg.Run.OutDir, "gauss") {
		t.Errorf("Dir = %q, want set named after the distribution", res.Dir)
	}
	files, err := Catalogs(res.Dir)
	require.NoError(t, err)
	if len(files) != 2 {
		t.Fatalf("catalog files = %d, want 2", len(files))
	}
	for _, c := range res.Catalogs {
		if c.Rows != 8 {
			t.Errorf("catalog %d rows = %d, want 8", c.Index, c.Rows)
		}
		if !strings.HasSuffix(c.ImgDir, "_img") {
			t.Errorf("ImgDir = %q, want _img suffix", c.ImgDir)
		}
		for rea := 0; rea < 2; rea++ {
			p := ImagePath(c.ImgDir, rea, ScienceSuffix)
			if _, err := os.Stat(p); err != nil {
				t.Errorf("missing %s: %v", p, err)
			}
			if _, err := os.Stat(p + ".part"); !os.IsNotExist(err) {
				t.Errorf("staged file %s.part left behind", p)
			}
		}
	}
	if res.Stats.Catalogs != 2 || res.Stats.Realizations != 4 || res.Stats.CacheHits != 0 {
		t.Errorf("Stats = %+v, want 2 catalogs 4 realizations 0 hits", res.Stats)
	}

	ctx := context.Background()
	run, err := idx.Run(ctx, res.RunID)
	require.NoError(t, err)
	if run.NCat != 2 || run.NRea != 2 || run.Seed != 7 {
		t.Errorf("indexed run = %+v, want ncat 2 nrea 2 seed 7", run)
	}
	reas, err := idx.Realizations(ctx, res.RunID)
	require.NoError(t, err)
	if len(reas) != 4 {
		t.Fatalf("indexed realizations = %d, want 4", len(reas))
	}
	if reas[0].Policy != "analytic-gaussian" {
		t.Errorf("Policy = %q, want analytic-gaussian", reas[0].Policy)
	}
}

func TestExecuteDeterministic(t *testing.T) {
	cfg := testConfig(t)
	run := func() *Result {
		opts := Options{Config: cfg, OutDir: t.TempDir(), Workers: 3}
		res, err := NewRunner(nil, nil, nil, nil).Execute(context.Background(), opts)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	for i := range a.Catalogs {
		if a.Catalogs[i].Hash != b.Catalogs[i].Hash {
			t.Errorf("catalog %d hash differs between runs", i)
		}
		for rea := 0; rea < 2; rea++ {
			pa := readPix(t, ImagePath(a.Catalogs[i].ImgDir, rea, ScienceSuffix))
			pb := readPix(t, ImagePath(b.Catalogs[i].ImgDir, rea, ScienceSuffix))
			if diff := cmp.Diff(pa, pb); diff != "" {
				t.Errorf("catalog %d realization %d differs:\n%s", i, rea, diff)
			}
		}
	}
	if a.Catalogs[0].Hash == a.Catalogs[1].Hash {
		t.Error("catalogs 0 and 1 are identical, want independent streams")
	}
}

func TestExecuteCache(t *testing.T) {
	cfg := testConfig(t)
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := NewRunner(fc, nil, nil, nil)
	defer r.Close()

	first, err := r.Execute(context.Background(), Options{Config: cfg})
	require.NoError(t, err)
	second, err := r.Execute(context.Background(), Options{Config: cfg})
	require.NoError(t, err)

	if second.Stats.CacheHits != 4 {
		t.Errorf("second run CacheHits = %d, want 4", second.Stats.CacheHits)
	}
	for i := range second.Catalogs {
		if !second.Catalogs[i].Cached {
			t.Errorf("catalog %d not served from cache", i)
		}
		if first.Catalogs[i].Path == second.Catalogs[i].Path {
			t.Errorf("catalog %d reused file name %s", i, first.Catalogs[i].Path)
		}
		pa := readPix(t, ImagePath(first.Catalogs[i].ImgDir, 1, ScienceSuffix))
		pb := readPix(t, ImagePath(second.Catalogs[i].ImgDir, 1, ScienceSuffix))
		if diff := cmp.Diff(pa, pb); diff != "" {
			t.Errorf("cached realization differs:\n%s", diff)
		}
	}

	refreshed, err := r.Execute(context.Background(), Options{Config: cfg, Refresh: true})
	require.NoError(t, err)
	if refreshed.Stats.CacheHits != 0 {
		t.Errorf("refresh CacheHits = %d, want 0", refreshed.Stats.CacheHits)
	}
}

func TestExecuteTruthAndPSF(t *testing.T) {
	cfg := testConfig(t)
	cfg.Draw.Truth = true
	cfg.Draw.PSF = true
	res, err := NewRunner(nil, nil, nil, nil).Execute(context.Background(), Options{Config: cfg, NCat: 1, NRea: 1})
	require.NoError(t, err)

	rr := res.Catalogs[0].Realizations[0]
	if len(rr.Files) != 3 {
		t.Fatalf("Files = %v, want science, truth and psf", rr.Files)
	}
	psfPix := readPix(t, ImagePath(res.Catalogs[0].ImgDir, 0, PSFSuffix))
	var sum float64
	for _, v := range psfPix {
		sum += v
	}
	// One unit-flux PSF per cell.
	if want := 8.0; sum < want*0.95 || sum > want*1.05 {
		t.Errorf("psf canvas sum = %.3f, want about %.0f", sum, want)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil, nil).Execute(ctx, Options{Config: testConfig(t)})
	if err != context.Canceled {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestExecuteMissingField(t *testing.T) {
	cfg := testConfig(t)
	delete(cfg.Params.Stat, "tru_gain")
	_, err := NewRunner(nil, nil, nil, nil).Execute(context.Background(), Options{Config: cfg})
	if !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Execute() error = %v, want CONFIGURATION_ERROR", err)
	}
}

type countingHooks struct {
	observability.NoopPipelineHooks
	catalogs, composes, writes atomic.Int32
}

func (h *countingHooks) OnCatalogComplete(context.Context, string, int, time.Duration, error) {
	h.catalogs.Add(1)
}

func (h *countingHooks) OnComposeComplete(context.Context, string, time.Duration, error) {
	h.composes.Add(1)
}

func (h *countingHooks) OnWrite(context.Context, string, int64) { h.writes.Add(1) }

func TestExecuteHooks(t *testing.T) {
	h := &countingHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	_, err := NewRunner(nil, nil, nil, nil).Execute(context.Background(), Options{Config: testConfig(t)})
	require.NoError(t, err)
	if got := h.catalogs.Load(); got != 2 {
		t.Errorf("catalog events = %d, want 2", got)
	}
	if got := h.composes.Load(); got != 4 {
		t.Errorf("compose events = %d, want 4", got)
	}
	// 2 catalog files + 4 science images.
	if got := h.writes.Load(); got != 6 {
		t.Errorf("write events = %d, want 6", got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.Params.Name = ""
	cfg.Run = config.RunConfig{NRea: 3}
	opts := Options{Config: cfg, OutDir: "out"}
	require.NoError(t, opts.ValidateAndSetDefaults())

	if opts.Name != DefaultName {
		t.Errorf("Name = %q, want %q", opts.Name, DefaultName)
	}
	if opts.NCat != DefaultNCat {
		t.Errorf("NCat = %d, want %d", opts.NCat, DefaultNCat)
	}
	if opts.NRea != 3 {
		t.Errorf("NRea = %d, want 3 from config", opts.NRea)
	}
	if opts.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", opts.Seed, DefaultSeed)
	}
	if opts.Workers <= 0 {
		t.Errorf("Workers = %d, want > 0", opts.Workers)
	}
	if !filepath.IsAbs(opts.OutDir) {
		t.Errorf("OutDir = %q, want absolute", opts.OutDir)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestOptionsErrors(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("nil config error = %v, want CONFIGURATION_ERROR", err)
	}
	opts = Options{Config: testConfig(t), NCat: -1}
	if err := opts.ValidateAndSetDefaults(); err == nil {
		t.Error("negative ncat accepted")
	}
}

func TestLayoutNames(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)
	a, b := CatalogName(now), CatalogName(now)
	if a == b {
		t.Errorf("CatalogName repeated %q", a)
	}
	if !strings.HasPrefix(a, "20261019T123000_") || !IsCatalog(a) {
		t.Errorf("CatalogName = %q, want timestamp prefix and _cat.json suffix", a)
	}
	dir := ImageDir(filepath.Join("sim", a))
	if !strings.HasSuffix(dir, "_img") || strings.Contains(dir, "_cat") {
		t.Errorf("ImageDir = %q", dir)
	}
	if got, want := ImagePath("d", 3, TruthSuffix), filepath.Join("d", "3_trugalimg.fits"); got != want {
		t.Errorf("ImagePath = %q, want %q", got, want)
	}
}

func TestStreamsIndependent(t *testing.T) {
	seen := map[uint64]string{}
	add := func(name string, v uint64) {
		if prev, ok := seen[v]; ok {
			t.Errorf("%s repeats first draw of %s", name, prev)
		}
		seen[v] = name
	}
	add("cat0", CatalogRand(1, 0).Uint64())
	add("cat1", CatalogRand(1, 1).Uint64())
	add("cat0/rea0", RealizationRand(1, 0, 0).Uint64())
	add("cat0/rea1", RealizationRand(1, 0, 1).Uint64())
	add("cat1/rea0", RealizationRand(1, 1, 0).Uint64())
}
