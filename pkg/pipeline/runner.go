package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stampgrid/pkg/cache"
	"github.com/matzehuels/stampgrid/pkg/catalog/store"
	sgerrors "github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/neighbors"
	"github.com/matzehuels/stampgrid/pkg/psf"
)

// Runner executes simulation runs with caching and an optional run index.
//
// A Runner holds no per-run state; several goroutines may call Execute
// with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  *store.Store
	Logger *log.Logger

	catalogs     *cache.Instrumented
	realizations *cache.Instrumented
}

// NewRunner creates a runner. A nil keyer means cache.DefaultKeyer, a nil
// cache disables caching and a nil store skips run indexing.
func NewRunner(c cache.Cache, keyer cache.Keyer, st *store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:        c,
		Keyer:        keyer,
		Store:        st,
		Logger:       logger,
		catalogs:     cache.Instrument(c, "catalog"),
		realizations: cache.Instrument(c, "realization"),
	}
}

// Execute draws opts.NCat catalogs and opts.NRea realizations of each.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	cfg := opts.Config
	logger := opts.Logger

	ttl, err := cfg.Cache.TTLDuration()
	if err != nil {
		return nil, err
	}
	cfgHash, err := configHash(&opts)
	if err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInternal, err, "hash config")
	}

	// Load shared inputs once; both are read-only during composition.
	var src *psf.Source
	if cfg.PSF != nil {
		if src, err = psf.Load(*cfg.PSF, opts.ConfigDir); err != nil {
			return nil, err
		}
	}
	var inj *neighbors.Injector
	var nbHash string
	if cfg.Neighbors != nil {
		if inj, err = neighbors.New(*cfg.Neighbors); err != nil {
			return nil, err
		}
		if nbHash, err = cache.HashJSON(cfg.Neighbors); err != nil {
			return nil, sgerrors.Wrap(sgerrors.ErrCodeInternal, err, "hash neighbors")
		}
	}

	setDir := filepath.Join(opts.OutDir, opts.Name)
	if _, err := os.Stat(setDir); errors.Is(err, os.ErrNotExist) {
		logger.Info("creating simulation set", "name", opts.Name, "dir", setDir)
	} else {
		logger.Info("adding to existing simulation set", "name", opts.Name, "dir", setDir)
	}
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		return nil, sgerrors.Wrap(sgerrors.ErrCodeInvalidPath, err, "create %s", setDir)
	}

	res := &Result{RunID: uuid.NewString(), Name: opts.Name, Dir: setDir}
	if r.Store != nil {
		run := &store.Run{
			ID:         res.RunID,
			Name:       opts.Name,
			ConfigHash: cfgHash,
			NCat:       opts.NCat,
			NRea:       opts.NRea,
			Seed:       opts.Seed,
			OutDir:     opts.OutDir,
		}
		if err := r.Store.RecordRun(ctx, run); err != nil {
			return nil, err
		}
	}
	logger.Info("drawing catalogs", "ncat", opts.NCat, "nrea", opts.NRea, "workers", opts.Workers, "seed", opts.Seed)

	start := time.Now()
	var cats []realization
	for i := 0; i < opts.NCat; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cat, cr, err := r.catalogStep(ctx, &opts, res.RunID, setDir, cfgHash, i, ttl)
		if err != nil {
			return nil, fmt.Errorf("catalog %d: %w", i, err)
		}
		res.Catalogs = append(res.Catalogs, cr)
		cats = append(cats, realization{runID: res.RunID, cat: cat, psf: src, neighbors: inj, nbHash: nbHash, ttl: ttl})
	}
	res.Stats.CatalogTime = time.Since(start)

	start = time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
schedule:
	for i := range cats {
		for j := 0; j < opts.NRea; j++ {
			if gctx.Err() != nil {
				break schedule
			}
			job := cats[i]
			job.cr = &res.Catalogs[i]
			job.rea = j
			g.Go(func() error {
				rr, err := r.realize(gctx, &opts, job)
				if err != nil {
					return fmt.Errorf("catalog %d realization %d: %w", job.cr.Index, job.rea, err)
				}
				job.cr.Realizations[job.rea] = rr
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Stats.ComposeTime = time.Since(start)

	res.Stats.Catalogs = len(res.Catalogs)
	for _, c := range res.Catalogs {
		for _, rr := range c.Realizations {
			res.Stats.Realizations++
			if rr.Cached {
				res.Stats.CacheHits++
			}
		}
	}
	logger.Info("run complete", "id", res.RunID, "stats", res.Stats.String())
	return res, nil
}

// Close releases the cache and the run index.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}
