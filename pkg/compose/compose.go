package compose

import (
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/neighbors"
	"github.com/matzehuels/stampgrid/pkg/policy"
	"github.com/matzehuels/stampgrid/pkg/profile"
	"github.com/matzehuels/stampgrid/pkg/psf"
	"github.com/matzehuels/stampgrid/pkg/raster"
	"github.com/matzehuels/stampgrid/pkg/render"
)

// Renderer draws a profile additively into a raster view.
type Renderer interface {
	Draw(p render.Profile, dst *raster.View, method render.Method) error
}

// Options configures Compose.
type Options struct {
	// Rand drives jitter, neighbors and noise. Required.
	Rand *rand.Rand

	// PSF is the loaded stamp source for catalogs with PSF metadata. When
	// nil it is loaded from the metadata path, relative to PSFDir.
	PSF    *psf.Source
	PSFDir string

	// Neighbors injects contaminating sources when set.
	Neighbors *neighbors.Injector

	// DrawTruth and DrawPSF enable the optional canvases.
	DrawTruth bool
	DrawPSF   bool

	// SersicCut truncates Sersic rows lacking tru_sersiccut at SersicCut
	// times their radius. Zero disables truncation.
	SersicCut float64

	// JitterAnalyticPSF shifts each analytic PSF by its own sub-pixel
	// jitter. Nil means true.
	JitterAnalyticPSF *bool

	// SkipNoise leaves the science canvas noiseless.
	SkipNoise bool

	// Renderer draws profiles. Nil means render.Engine{}.
	Renderer Renderer

	Logger *log.Logger
}

func (o Options) jitterPSF() bool { return o.JitterAnalyticPSF == nil || *o.JitterAnalyticPSF }

// Result holds the canvases of one composition.
type Result struct {
	Science *raster.Canvas
	// Truth and PSF are nil unless requested.
	Truth *raster.Canvas
	PSF   *raster.Canvas

	Policy policy.Policy
	Kinds  []profile.Kind
	// Neighbors is the neighbor count used for every row.
	Neighbors int
	// Nearest is the smallest centre distance of any neighbor, in pixels.
	// Zero when no neighbor was drawn.
	Nearest float64
}

// prepared is a row validated and resolved before any pixel is drawn.
type prepared struct {
	row     catalog.Row
	variant profile.Variant
	noise   raster.NoiseModel
}

// Compose renders cat into fresh canvases.
func Compose(cat *catalog.Catalog, opts Options) (*Result, error) {
	if opts.Rand == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "compose: nil random source")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = render.Engine{}
	}

	if err := cat.CheckGrid(); err != nil {
		return nil, err
	}
	kinds, err := profile.Validate(cat)
	if err != nil {
		return nil, err
	}
	pol, err := policy.Resolve(cat, logger)
	if err != nil {
		return nil, err
	}

	rows, err := prepare(cat, opts.SersicCut)
	if err != nil {
		return nil, err
	}

	src := opts.PSF
	if pol.Branch() == policy.BranchLoadedStamp && src == nil {
		if src, err = psf.Load(*cat.Meta.PSF, opts.PSFDir); err != nil {
			return nil, err
		}
	}

	m := cat.Meta
	res := &Result{Policy: pol, Kinds: kinds}
	if res.Science, err = raster.NewCanvas(m.NX, m.NY, m.StampSize); err != nil {
		return nil, err
	}
	if opts.DrawTruth {
		if res.Truth, err = raster.NewCanvas(m.NX, m.NY, m.StampSize); err != nil {
			return nil, err
		}
	}
	if opts.DrawPSF {
		if res.PSF, err = raster.NewCanvas(m.NX, m.NY, m.StampSize); err != nil {
			return nil, err
		}
	}
	if opts.Neighbors != nil {
		res.Neighbors = opts.Neighbors.Count(opts.Rand)
	}

	logger.Info("composing", "rows", len(rows), "nx", m.NX, "ny", m.NY, "policy", pol.String(), "neighbors", res.Neighbors)

	c := &composer{opts: opts, renderer: renderer, policy: pol, psf: src, res: res, logger: logger}
	for i := range rows {
		if err := c.drawRow(&rows[i]); err != nil {
			return nil, err
		}
		if (i+1)%500 == 0 {
			logger.Debug("progress", "done", i+1, "of", len(rows))
		}
	}
	if res.Nearest > 0 {
		logger.Debug("neighbors drawn", "nearest", res.Nearest)
	}

	if !opts.SkipNoise {
		if err := addNoise(res.Science, rows, opts.Rand); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// prepare builds every variant and noise model up front so that catalog
// errors surface before the first render call.
func prepare(cat *catalog.Catalog, sersicCut float64) ([]prepared, error) {
	out := make([]prepared, len(cat.Rows))
	for i, r := range cat.Rows {
		v, err := profile.FromFields(r.Type, r.Fields, sersicCut)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "row %s", r.ID)
		}
		nm := raster.NoiseModel{
			SkyLevel:  r.Fields[profile.FieldSkyLevel],
			Gain:      r.Fields[profile.FieldGain],
			ReadNoise: r.Fields[profile.FieldReadNoise],
		}
		if err := nm.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "row %s", r.ID)
		}
		out[i] = prepared{row: r, variant: v, noise: nm}
	}
	return out, nil
}

// addNoise applies one CCD noise pass. A catalog with a single noise model
// is treated as one exposure; otherwise each cell gets its own model.
func addNoise(c *raster.Canvas, rows []prepared, rng *rand.Rand) error {
	if len(rows) == 0 {
		return nil
	}
	uniform := true
	for _, r := range rows[1:] {
		if r.noise != rows[0].noise {
			uniform = false
			break
		}
	}
	if uniform {
		rows[0].noise.Apply(raster.NewView(c.Image), rng)
		return nil
	}
	for _, r := range rows {
		cell, err := c.Cell(r.row.IX, r.row.IY)
		if err != nil {
			return err
		}
		r.noise.Apply(cell, rng)
	}
	return nil
}
