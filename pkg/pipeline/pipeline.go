// Package pipeline draws whole simulation sets: several catalogs, each with
// several noise realizations, written under a common directory.
//
// # Layout
//
// For a distribution named "sersic" and ncat = nrea = 2 a run produces:
//
//	<outdir>/sersic/20261019T120000_1b2c3d4e_cat.json
//	<outdir>/sersic/20261019T120000_1b2c3d4e_img/0_galimg.fits
//	<outdir>/sersic/20261019T120000_1b2c3d4e_img/1_galimg.fits
//	<outdir>/sersic/20261019T120000_9f8e7d6c_cat.json
//	<outdir>/sersic/20261019T120000_9f8e7d6c_img/...
//
// The timestamp only helps humans; uniqueness comes from the UUID, so
// concurrent runs may share a directory and add to an existing set.
// Truth and PSF canvases are written next to the science image as
// <rea>_trugalimg.fits and <rea>_psfimg.fits when enabled.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, idx, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Config: cfg})
//
// Catalog generation is sequential; realizations run on a bounded worker
// pool. Every catalog and realization draws from its own PCG stream derived
// from the run seed, so results do not depend on scheduling.
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stampgrid/pkg/cache"
	"github.com/matzehuels/stampgrid/pkg/config"
	"github.com/matzehuels/stampgrid/pkg/errors"
)

const (
	// DefaultNCat is the number of catalogs drawn per run.
	DefaultNCat = 1

	// DefaultNRea is the number of realizations drawn per catalog.
	DefaultNRea = 1

	// DefaultSeed seeds runs that do not set one.
	DefaultSeed = uint64(42)

	// DefaultOutDir is the root of all simulation sets.
	DefaultOutDir = "sim"

	// DefaultName names sets whose distribution has no name.
	DefaultName = "params"
)

// Options configures a pipeline run. Zero fields fall back to the
// corresponding config.RunConfig value, then to the Default constants.
type Options struct {
	// Config is the simulation description. Required.
	Config *config.Config `json:"-"`

	// Name is the set subdirectory; defaults to the distribution name.
	Name    string `json:"name,omitempty"`
	NCat    int    `json:"ncat,omitempty"`
	NRea    int    `json:"nrea,omitempty"`
	Workers int    `json:"workers,omitempty"`
	Seed    uint64 `json:"seed,omitempty"`
	OutDir  string `json:"outdir,omitempty"`

	// ConfigDir resolves relative PSF paths.
	ConfigDir string `json:"-"`

	// Refresh ignores cached catalogs and realizations.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills unset fields.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == nil {
		return errors.Configuration("pipeline: config is required")
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	run := o.Config.Run

	if o.Name == "" {
		o.Name = o.Config.Params.Name
	}
	if o.Name == "" {
		o.Name = DefaultName
	}
	o.NCat = firstNonZero(o.NCat, run.NCat, DefaultNCat)
	o.NRea = firstNonZero(o.NRea, run.NRea, DefaultNRea)
	o.Workers = firstNonZero(o.Workers, run.Workers, runtime.NumCPU())
	if o.Seed == 0 {
		o.Seed = run.Seed
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.OutDir == "" {
		o.OutDir = run.OutDir
	}
	if o.OutDir == "" {
		o.OutDir = DefaultOutDir
	}
	if o.NCat < 0 || o.NRea < 0 || o.Workers < 0 {
		return errors.Configuration("pipeline: ncat, nrea and workers must be positive")
	}
	abs, err := filepath.Abs(o.OutDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", o.OutDir)
	}
	o.OutDir = abs
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

func firstNonZero(vs ...int) int {
	for _, v := range vs {
		if v != 0 {
			return v
		}
	}
	return 0
}

// RealizationKeyOpts returns the cache key options of realization rea.
func (o *Options) RealizationKeyOpts(rea int, neighborsHash string) cache.RealizationKeyOpts {
	d := o.Config.Draw
	return cache.RealizationKeyOpts{
		Seed:      o.Seed,
		Index:     rea,
		SersicCut: d.SersicCut,
		JitterPSF: d.JitterPSF == nil || *d.JitterPSF,
		Truth:     d.Truth,
		PSF:       d.PSF,
		NoNoise:   d.NoNoise,
		Neighbors: neighborsHash,
	}
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Name     string
	Dir      string
	Catalogs []CatalogResult
	Stats    Stats
}

// CatalogResult is one catalog and its realizations.
type CatalogResult struct {
	Index        int
	Path         string
	ImgDir       string
	Rows         int
	Hash         string
	Cached       bool
	Realizations []RealizationResult
}

// RealizationResult is one composed image set.
type RealizationResult struct {
	Index     int
	Files     []string
	Policy    string
	Neighbors int
	Cached    bool
	Duration  time.Duration
}

// Stats summarizes a run.
type Stats struct {
	Catalogs     int
	Realizations int
	CacheHits    int
	CatalogTime  time.Duration
	ComposeTime  time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("%d catalogs, %d realizations (%d cached) in %s",
		s.Catalogs, s.Realizations, s.CacheHits, (s.CatalogTime + s.ComposeTime).Round(time.Millisecond))
}
