package compose

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/stampgrid/pkg/neighbors"
	"github.com/matzehuels/stampgrid/pkg/policy"
	"github.com/matzehuels/stampgrid/pkg/profile"
	"github.com/matzehuels/stampgrid/pkg/psf"
	"github.com/matzehuels/stampgrid/pkg/raster"
	"github.com/matzehuels/stampgrid/pkg/render"
)

type composer struct {
	opts     Options
	renderer Renderer
	policy   policy.Policy
	psf      *psf.Source
	res      *Result
	logger   *log.Logger
}

// jitter returns a sub-pixel offset in [-0.5, 0.5) per axis.
func (c *composer) jitter() (float64, float64) {
	return c.opts.Rand.Float64() - 0.5, c.opts.Rand.Float64() - 0.5
}

func (c *composer) drawRow(p *prepared) error {
	r := p.row
	sci, err := c.res.Science.Cell(r.IX, r.IY)
	if err != nil {
		return err
	}
	var truth, psfCell *raster.View
	if c.res.Truth != nil {
		if truth, err = c.res.Truth.Cell(r.IX, r.IY); err != nil {
			return err
		}
	}
	if c.res.PSF != nil {
		if psfCell, err = c.res.PSF.Cell(r.IX, r.IY); err != nil {
			return err
		}
	}

	gal := p.variant.Build()
	s1 := r.Fields.Get(profile.FieldS1, 0)
	s2 := r.Fields.Get(profile.FieldS2, 0)
	mu := r.Fields.Get(profile.FieldMu, 1)
	if s1 != 0 || s2 != 0 || mu != 1 {
		gal = render.Lens(gal, s1, s2, mu)
	}
	xj, yj := c.jitter()
	gal = render.Shift(gal, xj, yj)

	if truth != nil {
		if err := c.renderer.Draw(gal, truth, render.MethodAuto); err != nil {
			return err
		}
	}

	kernel, err := c.kernel(p, psfCell)
	if err != nil {
		return err
	}
	final := gal
	if kernel != nil {
		final = render.Convolve(gal, kernel)
	}

	method := render.MethodAuto
	if c.policy.SkipPixelConv() {
		method = render.MethodNoPixel
	}

	if err := c.drawNeighbors(kernel, sci, truth, method); err != nil {
		return err
	}
	return c.renderer.Draw(final, sci, method)
}

// kernel returns the PSF of the row (nil for the none branch) and draws it
// into the PSF cell when one is given.
func (c *composer) kernel(p *prepared, psfCell *raster.View) (render.Profile, error) {
	r := p.row
	switch c.policy.Branch() {
	case policy.BranchAnalytic:
		k := render.Shear(render.Gaussian{Sigma: r.Fields[profile.FieldPSFSigma], Flux: 1},
			r.Fields[profile.FieldPSFG1], r.Fields[profile.FieldPSFG2])
		if c.opts.jitterPSF() {
			xj, yj := c.jitter()
			k = render.Shift(k, xj, yj)
		}
		if psfCell != nil {
			if err := c.renderer.Draw(k, psfCell, render.MethodAuto); err != nil {
				return nil, err
			}
		}
		if c.policy.ExtraPixelConv() {
			k = render.Convolve(k, render.Pixel{Scale: c.policy.PixelConvSize()})
		}
		return k, nil
	case policy.BranchLoadedStamp:
		k, err := c.psf.Profile(r)
		if err != nil {
			return nil, err
		}
		if psfCell != nil {
			if err := c.renderer.Draw(k, psfCell, render.MethodNoPixel); err != nil {
				return nil, err
			}
		}
		return k, nil
	}
	return nil, nil
}

func (c *composer) drawNeighbors(kernel render.Profile, sci, truth *raster.View, method render.Method) error {
	inj := c.opts.Neighbors
	if inj == nil || c.res.Neighbors == 0 {
		return nil
	}
	ns, err := inj.Draw(c.opts.Rand, c.res.Neighbors, c.res.Science.StampSize)
	if err != nil {
		return err
	}
	if i := neighbors.FindNearest(ns); i >= 0 {
		if d := ns[i].R(); c.res.Nearest == 0 || d < c.res.Nearest {
			c.res.Nearest = d
		}
	}
	for _, n := range ns {
		nb := render.Shift(n.Variant.Build(), n.XRel, n.YRel)
		conv := nb
		if inj.Convolve() && kernel != nil {
			conv = render.Convolve(nb, kernel)
		}
		if err := c.renderer.Draw(conv, sci, method); err != nil {
			return err
		}
		if truth != nil {
			if err := c.renderer.Draw(nb, truth, render.MethodAuto); err != nil {
				return err
			}
		}
	}
	return nil
}
