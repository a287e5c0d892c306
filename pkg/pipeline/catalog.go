package pipeline

import (
	"bytes"
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stampgrid/pkg/cache"
	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/catalog/store"
	"github.com/matzehuels/stampgrid/pkg/config"
	"github.com/matzehuels/stampgrid/pkg/errors"
	sgio "github.com/matzehuels/stampgrid/pkg/io"
	"github.com/matzehuels/stampgrid/pkg/observability"
	"github.com/matzehuels/stampgrid/pkg/params"
)

// CatalogRand returns the random stream of catalog cat.
func CatalogRand(seed uint64, cat int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(cat)<<32))
}

// RealizationRand returns the random stream of realization rea of catalog
// cat. It never coincides with a catalog stream.
func RealizationRand(seed uint64, cat, rea int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(cat)<<32|uint64(rea+1)))
}

// NewCatalog draws one catalog as described by cfg.
func NewCatalog(cfg *config.Config, rng *rand.Rand, logger *log.Logger) (*catalog.Catalog, error) {
	dist, err := params.New(cfg.Params, rng)
	if err != nil {
		return nil, err
	}
	c := cfg.Catalog
	opts := catalog.Options{
		N:          c.N,
		NC:         c.NC,
		StampSize:  c.StampSize,
		PixelScale: c.PixelScale,
		IDPrefix:   c.IDPrefix,
		Extra:      c.Extra,
		Logger:     logger,
	}
	if cfg.PSF != nil {
		info := *cfg.PSF
		opts.PSF = &info
	}
	return catalog.Generate(dist, opts)
}

// configHash identifies the inputs that determine catalog contents.
func configHash(opts *Options) (string, error) {
	cfg := opts.Config
	return cache.HashJSON(struct {
		Catalog config.CatalogConfig
		Params  params.Config
		PSF     *catalog.PSFInfo
		Seed    uint64
	}{cfg.Catalog, cfg.Params, cfg.PSF, opts.Seed})
}

// catalogStep draws (or loads from cache) catalog i and writes it into
// setDir together with its empty image directory.
func (r *Runner) catalogStep(ctx context.Context, opts *Options, runID, setDir, cfgHash string, i int, ttl time.Duration) (*catalog.Catalog, CatalogResult, error) {
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnCatalogStart(ctx, opts.Name, opts.Config.Catalog.N)

	cat, data, cached, err := r.loadOrDrawCatalog(ctx, opts, cfgHash, i, ttl)
	if err != nil {
		hooks.OnCatalogComplete(ctx, opts.Name, 0, time.Since(start), err)
		return nil, CatalogResult{}, err
	}

	path := filepath.Join(setDir, CatalogName(start))
	if err := writeAtomic(path, data); err != nil {
		hooks.OnCatalogComplete(ctx, opts.Name, 0, time.Since(start), err)
		return nil, CatalogResult{}, err
	}
	hooks.OnWrite(ctx, path, int64(len(data)))
	imgDir := ImageDir(path)
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		err = errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", imgDir)
		hooks.OnCatalogComplete(ctx, opts.Name, 0, time.Since(start), err)
		return nil, CatalogResult{}, err
	}

	cr := CatalogResult{
		Index:        i,
		Path:         path,
		ImgDir:       imgDir,
		Rows:         cat.Len(),
		Hash:         cache.Hash(data),
		Cached:       cached,
		Realizations: make([]RealizationResult, opts.NRea),
	}
	if r.Store != nil {
		if err := r.Store.RecordCatalog(ctx, store.Catalog{RunID: runID, Index: i, Path: path, Rows: cr.Rows, Hash: cr.Hash}); err != nil {
			return nil, CatalogResult{}, err
		}
	}
	hooks.OnCatalogComplete(ctx, opts.Name, cr.Rows, time.Since(start), nil)
	opts.Logger.Info("wrote catalog", "path", path, "rows", cr.Rows, "cached", cached)
	return cat, cr, nil
}

func (r *Runner) loadOrDrawCatalog(ctx context.Context, opts *Options, cfgHash string, i int, ttl time.Duration) (*catalog.Catalog, []byte, bool, error) {
	key := r.Keyer.CatalogKey(cfgHash, i)
	if !opts.Refresh {
		if data, hit, err := r.catalogs.Get(ctx, key); err == nil && hit {
			if cat, err := sgio.ReadJSON(bytes.NewReader(data)); err == nil {
				return cat, data, true, nil
			}
			// Undecodable entries are redrawn and overwritten.
		}
	}

	cat, err := NewCatalog(opts.Config, CatalogRand(opts.Seed, i), opts.Logger)
	if err != nil {
		return nil, nil, false, err
	}
	var buf bytes.Buffer
	if err := sgio.WriteJSON(cat, &buf); err != nil {
		return nil, nil, false, err
	}
	if err := r.catalogs.Set(ctx, key, buf.Bytes(), ttl); err != nil {
		opts.Logger.Warn("cache write failed", "key", "catalog", "error", err)
	}
	return cat, buf.Bytes(), false, nil
}

// writeAtomic writes data to a staged file and renames it into place.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create directory for %s", path)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeInternal, err, "finalize %s", path)
	}
	return nil
}
