// Package pkg provides the libraries behind stampgrid, a simulator of grids
// of galaxy postage stamps.
//
// # Overview
//
// Stampgrid draws catalogs of truth parameters from a configurable
// distribution, lays them out on a regular grid of square stamps and renders
// them into science images with CCD noise, plus optional noiseless truth and
// PSF images. Simulation sets of many catalogs and realizations feed the
// training and calibration of shape measurement methods.
//
// The typical data flow:
//
//	config (TOML / YAML)
//	         ↓
//	    [params] + [catalog] (draw truth rows on the grid)
//	         ↓
//	    [policy] (decide how the PSF is handled)
//	         ↓
//	    [compose] with [render], [psf], [neighbors] (draw every stamp)
//	         ↓
//	    [raster] (FITS science, truth and PSF images)
//
// # Quick Start
//
//	cfg := config.Default()
//	rng := pipeline.CatalogRand(42, 0)
//	cat, _ := pipeline.NewCatalog(cfg, rng, nil)
//
//	opts := compose.Options{Rand: pipeline.RealizationRand(42, 0, 0)}
//	_, _, err := compose.Run(cat, opts, compose.Sinks{Science: "galimg.fits"})
//
// # Main Packages
//
// [catalog] - Truth catalogs, the grid generator with shape-noise
// cancellation, and [catalog/store], the SQLite index of simulation runs.
//
// [params] - The declarative truth distribution: per-field specs, linked
// fields and ellipticity draws.
//
// [profile] - The profile families (Gaussian, Sersic, EBulgeDisk) and the
// catalog field names they read.
//
// [policy] - Resolves whether a catalog is drawn with an analytic PSF, a
// stamp PSF read from disk, or no PSF at all.
//
// [compose] - Composes a catalog into images, cell by cell.
//
// [render], [psf], [neighbors] - Profile rendering with convolution, PSF
// stamp loading, and contaminating neighbor injection.
//
// [raster] - Pixel containers, CCD noise, FITS I/O and PNG previews.
//
// [pipeline] - Orchestrates whole simulation sets with caching, the run
// index and observability hooks.
//
// [cache], [config], [errors], [io], [observability], [buildinfo] - Shared
// infrastructure.
package pkg
