package raster

import (
	"bufio"
	"os"

	"github.com/astrogo/fitsio"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// bitpixFloat64 is the FITS BITPIX value for IEEE double pixels.
const bitpixFloat64 = -64

// Card is a FITS header keyword attached to written images.
type Card struct {
	Name    string
	Value   any
	Comment string
}

// WriteFITS stores im as the primary HDU of a new FITS file at path.
// Parent directories must exist.
func WriteFITS(path string, im *Image, cards ...Card) (err error) {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer func() {
		if cerr := fh.Close(); err == nil && cerr != nil {
			err = errors.Wrap(errors.ErrCodeInternal, cerr, "close %s", path)
		}
	}()

	w := bufio.NewWriter(fh)
	f, err := fitsio.Create(w)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "open fits writer")
	}

	img := fitsio.NewImage(bitpixFloat64, []int{im.W, im.H})
	defer img.Close()

	hdr := make([]fitsio.Card, 0, len(cards))
	for _, c := range cards {
		hdr = append(hdr, fitsio.Card{Name: c.Name, Value: c.Value, Comment: c.Comment})
	}
	if len(hdr) > 0 {
		if err := img.Header().Append(hdr...); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "fits header")
		}
	}
	if err := img.Write(im.Pix); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write fits data")
	}
	if err := f.Write(img); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write fits hdu")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "finish fits file")
	}
	return w.Flush()
}

// ReadFITS loads the primary image HDU of the FITS file at path.
func ReadFITS(path string) (*Image, error) {
	fh, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "fits file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer fh.Close()

	f, err := fitsio.Open(bufio.NewReader(fh))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse fits %s", path)
	}
	defer f.Close()

	hdu, ok := f.HDU(0).(fitsio.Image)
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: primary HDU is not an image", path)
	}
	axes := hdu.Header().Axes()
	if len(axes) != 2 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: expected 2 axes, got %d", path, len(axes))
	}

	im := New(axes[0], axes[1])
	if err := hdu.Read(&im.Pix); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read fits data %s", path)
	}
	if len(im.Pix) != im.W*im.H {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s: got %d pixels, want %d", path, len(im.Pix), im.W*im.H)
	}
	return im, nil
}
