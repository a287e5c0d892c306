package render

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// plan2D holds the row and column transforms for a pw x ph grid.
type plan2D struct {
	pw, ph   int
	row, col *fourier.CmplxFFT
	cbuf     []complex128
}

func newPlan2D(pw, ph int) *plan2D {
	return &plan2D{
		pw:   pw,
		ph:   ph,
		row:  fourier.NewCmplxFFT(pw),
		col:  fourier.NewCmplxFFT(ph),
		cbuf: make([]complex128, ph),
	}
}

// forward transforms grid in place. inverse runs the unnormalized backward
// transform; callers divide by pw*ph.
func (p *plan2D) forward(grid []complex128) { p.apply(grid, false) }
func (p *plan2D) inverse(grid []complex128) { p.apply(grid, true) }

func (p *plan2D) apply(grid []complex128, inv bool) {
	for j := 0; j < p.ph; j++ {
		row := grid[j*p.pw : (j+1)*p.pw]
		if inv {
			p.row.Sequence(row, row)
		} else {
			p.row.Coefficients(row, row)
		}
	}
	for i := 0; i < p.pw; i++ {
		for j := 0; j < p.ph; j++ {
			p.cbuf[j] = grid[j*p.pw+i]
		}
		if inv {
			p.col.Sequence(p.cbuf, p.cbuf)
		} else {
			p.col.Coefficients(p.cbuf, p.cbuf)
		}
		for j := 0; j < p.ph; j++ {
			grid[j*p.pw+i] = p.cbuf[j]
		}
	}
}

// convolve returns the linear convolution of the w x h image pix, sampled
// every step pixels, with every kernel, restricted to the same w x h window.
func convolve(pix []float64, w, h int, kernels []Profile, step float64) ([]float64, error) {
	pw, ph := nextPow2(2*w), nextPow2(2*h)
	plan := newPlan2D(pw, ph)

	grid := make([]complex128, pw*ph)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			grid[y*pw+x] = complex(pix[y*w+x], 0)
		}
	}
	plan.forward(grid)

	kgrid := make([]complex128, pw*ph)
	for _, k := range kernels {
		if err := sampleKernel(k, kgrid, pw, ph, step); err != nil {
			return nil, err
		}
		plan.forward(kgrid)
		for i := range grid {
			grid[i] *= kgrid[i]
		}
	}
	plan.inverse(grid)

	norm := 1 / float64(pw*ph)
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = real(grid[y*pw+x]) * norm
		}
	}
	return out, nil
}

// sampleKernel fills dst with k evaluated at displacements that are
// multiples of step, stored with wrap-around so displacement (0, 0) sits at
// index 0. The samples are rescaled to the kernel's analytic flux.
func sampleKernel(k Profile, dst []complex128, pw, ph int, step float64) error {
	f := k.field()
	var sum float64
	vals := make([]float64, pw*ph)
	for j := 0; j < ph; j++ {
		dy := j
		if j >= ph/2 {
			dy = j - ph
		}
		for i := 0; i < pw; i++ {
			dx := i
			if i >= pw/2 {
				dx = i - pw
			}
			v := f(float64(dx)*step, float64(dy)*step)
			vals[j*pw+i] = v
			sum += v
		}
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return errors.Render("convolution kernel is not resolved on the pixel grid (sum %g)", sum)
	}
	scale := k.TotalFlux() / sum
	for i, v := range vals {
		dst[i] = complex(v*scale, 0)
	}
	return nil
}
