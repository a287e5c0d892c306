package render

import (
	"strings"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/raster"
)

// Method selects how surface brightness becomes pixel values.
type Method int

const (
	// MethodAuto integrates over each pixel.
	MethodAuto Method = iota
	// MethodNoPixel samples at pixel centres.
	MethodNoPixel
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodAuto:
		return "auto"
	case MethodNoPixel:
		return "no_pixel"
	default:
		return "unknown"
	}
}

// ParseMethod parses "auto" or "no_pixel".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return MethodAuto, nil
	case "no_pixel", "nopixel":
		return MethodNoPixel, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown draw method %q", s)
}

// DefaultSupersample is the per-axis subsample count used by MethodAuto.
const DefaultSupersample = 4

// Engine draws profiles into raster views.
// The zero value is ready to use.
type Engine struct {
	// Supersample is the per-axis subsample count for MethodAuto.
	// Zero means DefaultSupersample.
	Supersample int
}

// Draw adds p into dst with the given method, using the default engine.
func Draw(p Profile, dst *raster.View, method Method) error {
	return Engine{}.Draw(p, dst, method)
}

// DrawImage renders p into a new w x h image.
func DrawImage(p Profile, w, h int, method Method) (*raster.Image, error) {
	im := raster.New(w, h)
	if err := Draw(p, raster.NewView(im), method); err != nil {
		return nil, err
	}
	return im, nil
}

// Draw adds p into dst. The profile origin is the centre of dst.
func (e Engine) Draw(p Profile, dst *raster.View, method Method) error {
	if p == nil {
		return errors.Render("nil profile")
	}
	if err := p.validate(); err != nil {
		return err
	}
	terms, err := split(p)
	if err != nil {
		return err
	}

	w, h := dst.W(), dst.H()
	ss := e.Supersample
	if ss <= 0 {
		ss = DefaultSupersample
	}
	for _, t := range terms {
		var pix []float64
		if len(t.kernels) == 0 {
			pix = rasterize(t.base.field(), w, h, method, ss)
		} else if pix, err = drawConvolved(t, w, h, method, ss); err != nil {
			return err
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Add(x, y, pix[y*w+x])
			}
		}
	}
	return nil
}

// term is a convolution-free base profile and the kernels applied to it.
type term struct {
	base    Profile
	kernels []Profile
}

// split rewrites p as a sum of terms. Sums distribute over convolutions and
// affine transforms distribute over both; only the first operand of a
// convolution keeps the offset and flux scale.
func split(p Profile) ([]term, error) {
	switch v := p.(type) {
	case Sum:
		var out []term
		for _, s := range v {
			ts, err := split(s)
			if err != nil {
				return nil, err
			}
			out = append(out, ts...)
		}
		return out, nil

	case Convolution:
		terms, err := split(v[0])
		if err != nil {
			return nil, err
		}
		var kernels []Profile
		for _, k := range v[1:] {
			kt, err := split(k)
			if err != nil {
				return nil, err
			}
			if len(kt) == 1 {
				kernels = append(kernels, kt[0].base)
				kernels = append(kernels, kt[0].kernels...)
				continue
			}
			bases := make(Sum, 0, len(kt))
			for _, t := range kt {
				if len(t.kernels) > 0 {
					return nil, errors.Render("cannot convolve with a sum of convolutions")
				}
				bases = append(bases, t.base)
			}
			kernels = append(kernels, bases)
		}
		for i := range terms {
			terms[i].kernels = append(append([]Profile(nil), terms[i].kernels...), kernels...)
		}
		return terms, nil

	case Transformed:
		if v.err != nil {
			return nil, v.err
		}
		inner, err := split(v.Inner)
		if err != nil {
			return nil, err
		}
		out := make([]term, len(inner))
		for i, t := range inner {
			out[i].base = transform(t.base, v.M, v.DX, v.DY, v.FluxScale)
			for _, k := range t.kernels {
				out[i].kernels = append(out[i].kernels, transform(k, v.M, 0, 0, 1))
			}
		}
		return out, nil

	default:
		return []term{{base: p}}, nil
	}
}

// rasterize samples f on a w x h grid centred on the origin.
func rasterize(f sbFunc, w, h int, method Method, ss int) []float64 {
	pix := make([]float64, w*h)
	ox, oy := float64(w)/2, float64(h)/2
	for j := 0; j < h; j++ {
		cy := float64(j) + 0.5 - oy
		for i := 0; i < w; i++ {
			cx := float64(i) + 0.5 - ox
			if method == MethodNoPixel {
				pix[j*w+i] = f(cx, cy)
				continue
			}
			var acc float64
			for sy := 0; sy < ss; sy++ {
				y := cy - 0.5 + (float64(sy)+0.5)/float64(ss)
				for sx := 0; sx < ss; sx++ {
					x := cx - 0.5 + (float64(sx)+0.5)/float64(ss)
					acc += f(x, y)
				}
			}
			pix[j*w+i] = acc / float64(ss*ss)
		}
	}
	return pix
}

// convOversample returns the per-axis oversampling of the grid convolutions
// run on. MethodNoPixel needs an odd factor so one fine sample sits on each
// pixel centre.
func convOversample(method Method, ss int) int {
	f := max(ss, 2)
	if method == MethodNoPixel && f%2 == 0 {
		if f > 3 {
			return f - 1
		}
		return f + 1
	}
	return f
}

// drawConvolved samples the term's base and kernels on a grid f times finer
// than the pixels, convolves there, and reduces back to w x h: block means
// for MethodAuto, centre samples for MethodNoPixel.
func drawConvolved(t term, w, h int, method Method, ss int) ([]float64, error) {
	f := convOversample(method, ss)
	fw, fh := w*f, h*f
	step := 1 / float64(f)
	ox, oy := float64(w)/2, float64(h)/2

	fn := t.base.field()
	fine := make([]float64, fw*fh)
	for j := 0; j < fh; j++ {
		y := (float64(j)+0.5)*step - oy
		for i := 0; i < fw; i++ {
			fine[j*fw+i] = fn((float64(i)+0.5)*step-ox, y)
		}
	}
	fine, err := convolve(fine, fw, fh, t.kernels, step)
	if err != nil {
		return nil, err
	}

	pix := make([]float64, w*h)
	if method == MethodNoPixel {
		c := f / 2
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pix[y*w+x] = fine[(y*f+c)*fw+x*f+c]
			}
		}
		return pix, nil
	}
	inv := 1 / float64(f*f)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for sy := 0; sy < f; sy++ {
				row := fine[(y*f+sy)*fw+x*f:]
				for sx := 0; sx < f; sx++ {
					acc += row[sx]
				}
			}
			pix[y*w+x] = acc * inv
		}
	}
	return pix, nil
}
