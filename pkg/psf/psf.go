// Package psf loads gridded PSF stamp images and turns stamps into
// convolution kernels.
package psf

import (
	"path/filepath"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/raster"
	"github.com/matzehuels/stampgrid/pkg/render"
)

// LargePixelScale is the stamp pixel scale above which stamps are taken to
// already include the pixel response.
const LargePixelScale = 0.5

// Source is a loaded PSF image plus the metadata locating stamps in it.
type Source struct {
	Info  catalog.PSFInfo
	Image *raster.Image
}

// Load reads the PSF image described by info. Relative paths are resolved
// against dir.
func Load(info catalog.PSFInfo, dir string) (*Source, error) {
	if err := errors.ValidatePath(info.Path); err != nil {
		return nil, err
	}
	if err := errors.ValidateStampSize(info.StampSize); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "psf stampsize")
	}
	if info.PixelScale < 0 {
		return nil, errors.Configuration("psf pixelscale must be > 0, got %g", info.PixelScale)
	}
	if info.XColumn == "" || info.YColumn == "" {
		return nil, errors.Configuration("psf metadata must name its x and y columns")
	}
	path := info.Path
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	im, err := raster.ReadFITS(path)
	if err != nil {
		return nil, err
	}
	return &Source{Info: info, Image: im}, nil
}

// SkipPixelConv reports whether stamps are sampled coarsely enough that
// the final draw must not convolve with the pixel again.
func (s *Source) SkipPixelConv() bool { return SkipPixelConv(s.Info) }

// SkipPixelConv reports whether stamps described by info already include the
// pixel response.
func SkipPixelConv(info catalog.PSFInfo) bool { return info.Scale() > LargePixelScale }

// CheckColumns verifies that every row of cat carries the stamp position
// columns.
func (s *Source) CheckColumns(cat *catalog.Catalog) error {
	return CheckColumns(s.Info, cat)
}

// CheckColumns verifies that every row of cat carries the position columns
// named by info.
func CheckColumns(info catalog.PSFInfo, cat *catalog.Catalog) error {
	for _, col := range []string{info.XColumn, info.YColumn} {
		if !cat.HasColumn(col) {
			return errors.Configuration("psf column %q missing from catalog", col)
		}
	}
	return nil
}

// Extract copies the stamp centred on (x, y).
func (s *Source) Extract(x, y float64) (*raster.Image, error) {
	st, err := s.Image.Stamp(x, y, s.Info.StampSize)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtraction, err, "psf stamp at (%.2f, %.2f)", x, y)
	}
	return st, nil
}

// Stamp extracts the stamp for row r.
func (s *Source) Stamp(r catalog.Row) (*raster.Image, error) {
	x, okx := r.Fields[s.Info.XColumn]
	y, oky := r.Fields[s.Info.YColumn]
	if !okx || !oky {
		return nil, errors.Configuration("row %s: missing psf position %s/%s", r.ID, s.Info.XColumn, s.Info.YColumn)
	}
	return s.Extract(x, y)
}

// Profile returns the unit-flux kernel for row r, interpolated from its
// stamp at the stamp pixel scale.
func (s *Source) Profile(r catalog.Row) (render.Profile, error) {
	st, err := s.Stamp(r)
	if err != nil {
		return nil, err
	}
	return Kernel(st, s.Info.Scale()), nil
}

// Kernel turns a sampled stamp into a unit-flux profile at the given pixel
// scale.
func Kernel(stamp *raster.Image, pixelScale float64) render.Profile {
	return render.WithFlux(render.Dilate(render.NewInterpolated(stamp), pixelScale), 1)
}
