package compose

import (
	"os"
	"path/filepath"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/raster"
)

// Sinks are the output paths of a composition. Science is required; Truth
// and PSF are written only when set and the canvas was drawn.
type Sinks struct {
	Science string
	Truth   string
	PSF     string
}

// Validate checks the sink paths.
func (s Sinks) Validate() error {
	if s.Science == "" {
		return errors.New(errors.ErrCodeInvalidPath, "science image path is required")
	}
	for _, p := range []string{s.Science, s.Truth, s.PSF} {
		if p == "" {
			continue
		}
		if err := errors.ValidatePath(p); err != nil {
			return err
		}
	}
	return nil
}

// Cards returns the FITS header cards describing res.
func (res *Result) Cards() []raster.Card {
	return []raster.Card{
		{Name: "STAMPSZ", Value: res.Science.StampSize, Comment: "stamp side in pixels"},
		{Name: "GRIDNX", Value: res.Science.NX, Comment: "cells along x"},
		{Name: "GRIDNY", Value: res.Science.NY, Comment: "cells along y"},
		{Name: "PSFMODE", Value: string(res.Policy.Branch()), Comment: "psf branch"},
		{Name: "NNEIGH", Value: res.Neighbors, Comment: "neighbors per source"},
		{Name: "NEARNB", Value: res.Nearest, Comment: "nearest neighbor distance [pix]"},
	}
}

// Write stores the canvases of res. Files are staged next to their
// destination and renamed only once every image has been encoded. A failed
// call removes the staged files and any destination already renamed.
func Write(res *Result, sinks Sinks, cards ...raster.Card) (written []string, err error) {
	if err := sinks.Validate(); err != nil {
		return nil, err
	}
	cards = append(res.Cards(), cards...)

	type job struct {
		path string
		im   *raster.Image
	}
	jobs := []job{{sinks.Science, res.Science.Image}}
	if sinks.Truth != "" && res.Truth != nil {
		jobs = append(jobs, job{sinks.Truth, res.Truth.Image})
	}
	if sinks.PSF != "" && res.PSF != nil {
		jobs = append(jobs, job{sinks.PSF, res.PSF.Image})
	}

	var staged, renamed []string
	defer func() {
		if err != nil {
			for _, p := range append(staged, renamed...) {
				os.Remove(p)
			}
		}
	}()
	for _, j := range jobs {
		if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create directory for %s", j.path)
		}
		tmp := j.path + ".part"
		staged = append(staged, tmp)
		if err := raster.WriteFITS(tmp, j.im, cards...); err != nil {
			return nil, err
		}
	}
	for i, j := range jobs {
		if err := os.Rename(staged[i], j.path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "finalize %s", j.path)
		}
		renamed = append(renamed, j.path)
	}
	return renamed, nil
}

// Run composes cat and writes the result to sinks. Nothing is written when
// composition fails.
func Run(cat *catalog.Catalog, opts Options, sinks Sinks) (*Result, []string, error) {
	if err := sinks.Validate(); err != nil {
		return nil, nil, err
	}
	opts.DrawTruth = opts.DrawTruth || sinks.Truth != ""
	opts.DrawPSF = opts.DrawPSF || sinks.PSF != ""
	res, err := Compose(cat, opts)
	if err != nil {
		return nil, nil, err
	}
	written, err := Write(res, sinks)
	if err != nil {
		return nil, nil, err
	}
	return res, written, nil
}
