package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// PreviewOptions controls PNG preview rendering.
type PreviewOptions struct {
	Title string
	// Size is the output edge length in inches. Zero means 6.
	Size float64
	// Stretch applies an asinh stretch with this softening scale. Zero keeps
	// linear pixel values.
	Stretch float64
	// Colors is the palette size. Zero means 64.
	Colors int
}

// heatGrid adapts an Image to plotter.GridXYZ.
type heatGrid struct {
	im      *Image
	stretch float64
}

func (g heatGrid) Dims() (c, r int) { return g.im.W, g.im.H }

func (g heatGrid) Z(c, r int) float64 {
	v := g.im.At(c, r)
	if g.stretch > 0 {
		return math.Asinh(v / g.stretch)
	}
	return v
}

func (g heatGrid) X(c int) float64 { return float64(c) + 0.5 }
func (g heatGrid) Y(r int) float64 { return float64(r) + 0.5 }

// WritePreview renders im as a heatmap image. The format follows the file
// extension of path (png, svg, pdf, ...).
func WritePreview(path string, im *Image, opts PreviewOptions) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if im.W == 0 || im.H == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "cannot preview an empty image")
	}
	if opts.Size <= 0 {
		opts.Size = 6
	}
	if opts.Colors <= 0 {
		opts.Colors = 64
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x [px]"
	p.Y.Label.Text = "y [px]"

	grid := heatGrid{im: im, stretch: opts.Stretch}
	hm := plotter.NewHeatMap(grid, palette.Heat(opts.Colors, 1))
	if floats.Min(im.Pix) == floats.Max(im.Pix) {
		z := grid.Z(0, 0)
		hm.Min, hm.Max = z-1, z+1
	}
	p.Add(hm)

	size := vg.Length(opts.Size) * vg.Inch
	if err := p.Save(size, size, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save preview %s", path)
	}
	return nil
}
