package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/catalog/store"
	"github.com/matzehuels/stampgrid/pkg/compose"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/neighbors"
	"github.com/matzehuels/stampgrid/pkg/observability"
	"github.com/matzehuels/stampgrid/pkg/psf"
)

// realization is one (catalog, realization index) job of the worker pool.
type realization struct {
	runID string
	cat   *catalog.Catalog
	cr    *CatalogResult
	rea   int

	psf       *psf.Source
	neighbors *neighbors.Injector
	nbHash    string
	ttl       time.Duration
}

// bundle is the cached form of a realization: the encoded FITS files plus
// what the record needs.
type bundle struct {
	Science   []byte `json:"science"`
	Truth     []byte `json:"truth,omitempty"`
	PSF       []byte `json:"psf,omitempty"`
	Policy    string `json:"policy"`
	Neighbors int    `json:"neighbors"`
}

// Sinks returns the output paths of realization rea in imgDir.
func Sinks(imgDir string, rea int, truth, psf bool) compose.Sinks {
	s := compose.Sinks{Science: ImagePath(imgDir, rea, ScienceSuffix)}
	if truth {
		s.Truth = ImagePath(imgDir, rea, TruthSuffix)
	}
	if psf {
		s.PSF = ImagePath(imgDir, rea, PSFSuffix)
	}
	return s
}

// ComposeOptions maps the drawing section of opts onto compose options for
// realization rea of catalog cat.
func ComposeOptions(opts *Options, cat, rea int) compose.Options {
	d := opts.Config.Draw
	return compose.Options{
		Rand:              RealizationRand(opts.Seed, cat, rea),
		PSFDir:            opts.ConfigDir,
		DrawTruth:         d.Truth,
		DrawPSF:           d.PSF,
		SersicCut:         d.SersicCut,
		JitterAnalyticPSF: d.JitterPSF,
		SkipNoise:         d.NoNoise,
		Logger:            opts.Logger.With("cat", cat, "rea", rea),
	}
}

func (r *Runner) realize(ctx context.Context, opts *Options, job realization) (RealizationResult, error) {
	if err := ctx.Err(); err != nil {
		return RealizationResult{}, err
	}
	hooks := observability.Pipeline()
	name := fmt.Sprintf("%d/%d", job.cr.Index, job.rea)
	start := time.Now()
	hooks.OnComposeStart(ctx, name, job.cat.Len())

	rr, err := r.realizeCached(ctx, opts, job)
	rr.Duration = time.Since(start)
	hooks.OnComposeComplete(ctx, name, rr.Duration, err)
	if err != nil {
		return RealizationResult{}, err
	}

	for _, f := range rr.Files {
		if fi, err := os.Stat(f); err == nil {
			hooks.OnWrite(ctx, f, fi.Size())
		}
	}
	if r.Store != nil {
		rec := store.Realization{
			RunID:     job.runID,
			Catalog:   job.cr.Index,
			Index:     job.rea,
			Policy:    rr.Policy,
			Neighbors: rr.Neighbors,
			Duration:  rr.Duration,
			Cached:    rr.Cached,
		}
		d := opts.Config.Draw
		sinks := Sinks(job.cr.ImgDir, job.rea, d.Truth, d.PSF)
		rec.Science, rec.Truth, rec.PSF = sinks.Science, sinks.Truth, sinks.PSF
		if err := r.Store.RecordRealization(ctx, rec); err != nil {
			return RealizationResult{}, err
		}
	}
	opts.Logger.Debug("realization done", "cat", job.cr.Index, "rea", job.rea, "cached", rr.Cached, "duration", rr.Duration)
	return rr, nil
}

func (r *Runner) realizeCached(ctx context.Context, opts *Options, job realization) (RealizationResult, error) {
	copts := ComposeOptions(opts, job.cr.Index, job.rea)
	copts.PSF = job.psf
	copts.Neighbors = job.neighbors
	sinks := Sinks(job.cr.ImgDir, job.rea, copts.DrawTruth, copts.DrawPSF)
	key := r.Keyer.RealizationKey(job.cr.Hash, opts.RealizationKeyOpts(job.rea, job.nbHash))

	if !opts.Refresh {
		if data, hit, err := r.realizations.Get(ctx, key); err == nil && hit {
			var b bundle
			if err := json.Unmarshal(data, &b); err == nil && len(b.Science) > 0 {
				files, err := b.write(sinks)
				if err != nil {
					return RealizationResult{}, err
				}
				return RealizationResult{Index: job.rea, Files: files, Policy: b.Policy, Neighbors: b.Neighbors, Cached: true}, nil
			}
		}
	}

	res, files, err := compose.Run(job.cat, copts, sinks)
	if err != nil {
		return RealizationResult{}, err
	}
	rr := RealizationResult{Index: job.rea, Files: files, Policy: string(res.Policy.Branch()), Neighbors: res.Neighbors}

	b, err := readBundle(sinks)
	if err != nil {
		return RealizationResult{}, err
	}
	b.Policy, b.Neighbors = rr.Policy, rr.Neighbors
	if data, err := json.Marshal(b); err == nil {
		if err := r.realizations.Set(ctx, key, data, job.ttl); err != nil {
			opts.Logger.Warn("cache write failed", "key", "realization", "error", err)
		}
	}
	return rr, nil
}

func readBundle(s compose.Sinks) (*bundle, error) {
	var b bundle
	for _, f := range []struct {
		path string
		dst  *[]byte
	}{{s.Science, &b.Science}, {s.Truth, &b.Truth}, {s.PSF, &b.PSF}} {
		if f.path == "" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read back %s", f.path)
		}
		*f.dst = data
	}
	return &b, nil
}

// write restores the cached files at the sink paths. A sink requested now
// but missing from the bundle is an error.
func (b *bundle) write(s compose.Sinks) ([]string, error) {
	var written []string
	for _, f := range []struct {
		path string
		data []byte
	}{{s.Science, b.Science}, {s.Truth, b.Truth}, {s.PSF, b.PSF}} {
		if f.path == "" {
			continue
		}
		if len(f.data) == 0 {
			return nil, errors.New(errors.ErrCodeInternal, "cached realization lacks %s", f.path)
		}
		if err := writeAtomic(f.path, f.data); err != nil {
			return nil, err
		}
		written = append(written, f.path)
	}
	return written, nil
}
