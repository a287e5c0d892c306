package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// Rect is a half-open pixel rectangle [X0, X1) x [Y0, Y1).
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Dx returns the rectangle width.
func (r Rect) Dx() int { return r.X1 - r.X0 }

// Dy returns the rectangle height.
func (r Rect) Dy() int { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle contains no pixels.
func (r Rect) Empty() bool { return r.X0 >= r.X1 || r.Y0 >= r.Y1 }

// Overlaps reports whether r and s share at least one pixel.
func (r Rect) Overlaps(s Rect) bool {
	return !r.Empty() && !s.Empty() &&
		r.X0 < s.X1 && s.X0 < r.X1 && r.Y0 < s.Y1 && s.Y0 < r.Y1
}

// In reports whether r lies entirely inside s.
func (r Rect) In(s Rect) bool {
	return r.X0 >= s.X0 && r.X1 <= s.X1 && r.Y0 >= s.Y0 && r.Y1 <= s.Y1
}

// Image is a row-major float64 raster.
type Image struct {
	W, H int
	Pix  []float64
}

// New allocates a zeroed w x h image.
func New(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]float64, w*h)}
}

// Bounds returns the full image rectangle.
func (im *Image) Bounds() Rect { return Rect{0, 0, im.W, im.H} }

// At returns the pixel value at (x, y).
func (im *Image) At(x, y int) float64 { return im.Pix[y*im.W+x] }

// Set stores v at (x, y).
func (im *Image) Set(x, y int, v float64) { im.Pix[y*im.W+x] = v }

// Add accumulates v into (x, y).
func (im *Image) Add(x, y int, v float64) { im.Pix[y*im.W+x] += v }

// Sum returns the total of all pixel values.
func (im *Image) Sum() float64 { return floats.Sum(im.Pix) }

// Clone returns a deep copy of the image.
func (im *Image) Clone() *Image {
	out := New(im.W, im.H)
	copy(out.Pix, im.Pix)
	return out
}

// View returns a writable window onto r. Views share pixels with the image.
func (im *Image) View(r Rect) (*View, error) {
	if r.Empty() || !r.In(im.Bounds()) {
		return nil, errors.Extraction("region %v outside %dx%d image", r, im.W, im.H)
	}
	return &View{img: im, r: r}, nil
}

// Crop copies the pixels of r into a new image.
func (im *Image) Crop(r Rect) (*Image, error) {
	v, err := im.View(r)
	if err != nil {
		return nil, err
	}
	return v.Copy(), nil
}

// Stamp extracts the stampsize x stampsize square centred on the
// catalog position (x, y). Positions follow the grid convention where a
// centred source sits at stampsize/2 + 0.5 within its cell.
func (im *Image) Stamp(x, y float64, stampsize int) (*Image, error) {
	x0 := int(math.Round(x - float64(stampsize)/2 - 0.5))
	y0 := int(math.Round(y - float64(stampsize)/2 - 0.5))
	r := Rect{x0, y0, x0 + stampsize, y0 + stampsize}
	if !r.In(im.Bounds()) {
		return nil, errors.Extraction("stamp at (%.1f, %.1f) of size %d outside %dx%d image", x, y, stampsize, im.W, im.H)
	}
	return im.Crop(r)
}

// View is a rectangular window onto an Image. Coordinates passed to its
// methods are local to the window.
type View struct {
	img *Image
	r   Rect
}

// NewView wraps a whole image as a view.
func NewView(im *Image) *View { return &View{img: im, r: im.Bounds()} }

// W returns the view width.
func (v *View) W() int { return v.r.Dx() }

// H returns the view height.
func (v *View) H() int { return v.r.Dy() }

// Bounds returns the window in parent image coordinates.
func (v *View) Bounds() Rect { return v.r }

// At returns the local pixel value at (x, y).
func (v *View) At(x, y int) float64 { return v.img.At(v.r.X0+x, v.r.Y0+y) }

// Add accumulates val into the local pixel (x, y).
func (v *View) Add(x, y int, val float64) { v.img.Add(v.r.X0+x, v.r.Y0+y, val) }

// AddImage accumulates src pixel by pixel. src must match the view size.
func (v *View) AddImage(src *Image) error {
	if src.W != v.W() || src.H != v.H() {
		return errors.New(errors.ErrCodeInternal, "image %dx%d does not match view %dx%d", src.W, src.H, v.W(), v.H())
	}
	for y := 0; y < src.H; y++ {
		row := src.Pix[y*src.W : (y+1)*src.W]
		dst := v.img.Pix[(v.r.Y0+y)*v.img.W+v.r.X0:]
		floats.Add(dst[:src.W], row)
	}
	return nil
}

// Copy returns the window contents as a new image.
func (v *View) Copy() *Image {
	out := New(v.W(), v.H())
	for y := 0; y < out.H; y++ {
		start := (v.r.Y0+y)*v.img.W + v.r.X0
		copy(out.Pix[y*out.W:(y+1)*out.W], v.img.Pix[start:start+out.W])
	}
	return out
}
