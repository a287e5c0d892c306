package catalog

import (
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

// Truth is one draw from a Distribution.
type Truth struct {
	Type   profile.Kind
	Fields profile.Fields
}

// Stat holds the settings shared by every row of a catalog.
type Stat struct {
	// SNCType is the shape-noise cancellation multiplicity; 0 disables it.
	SNCType int
	// Fields are merged into every row, overriding drawn values.
	Fields profile.Fields
}

// Distribution draws truth parameters for the sources of a catalog.
type Distribution interface {
	// Name identifies the distribution in logs and metadata.
	Name() string
	// Stat is called exactly once per generated catalog.
	Stat() Stat
	// Draw returns the truth for the distinct source at (ix, iy) of an
	// nc x ny grid.
	Draw(ix, iy, nc, ny int) (Truth, error)
}

// Options configures Generate.
type Options struct {
	// N is the number of distinct sources; it must be a multiple of NC.
	N int
	// NC is the number of distinct columns before SNC replication.
	NC int
	// StampSize is the even side length of a cell in pixels.
	StampSize int
	// PixelScale is recorded in the metadata; drawing always uses one pixel
	// units.
	PixelScale float64
	// IDPrefix is prepended to the row index to form ids.
	IDPrefix string
	// PSF optionally points rows at a PSF stamp grid.
	PSF *PSFInfo
	// Extra is copied into the catalog metadata.
	Extra map[string]any
	// Logger receives progress messages. Nil disables logging.
	Logger *log.Logger
}

// Defaults applied by Generate.
const (
	DefaultStampSize  = 64
	DefaultPixelScale = 1.0
)

// Generate draws a catalog of opts.N distinct sources, replicated for
// shape-noise cancellation and placed on the stamp grid.
func Generate(d Distribution, opts Options) (*Catalog, error) {
	if opts.StampSize == 0 {
		opts.StampSize = DefaultStampSize
	}
	if opts.PixelScale == 0 {
		opts.PixelScale = DefaultPixelScale
	}
	if err := errors.ValidateStampSize(opts.StampSize); err != nil {
		return nil, err
	}
	if err := errors.ValidateGrid(opts.N, opts.NC); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	stat := d.Stat()
	if err := errors.ValidateSNCType(stat.SNCType); err != nil {
		return nil, err
	}
	nsnc := max(stat.SNCType, 1)
	ny := opts.N / opts.NC
	nx := opts.NC * nsnc
	rot := 180.0 / float64(nsnc)

	logger.Info("drawing catalog", "distribution", d.Name(), "n", opts.N, "grid", strconv.Itoa(nx)+"x"+strconv.Itoa(ny), "nsnc", nsnc)

	rows := make([]Row, 0, opts.N*nsnc)
	for i := 0; i < opts.N; i++ {
		piy, pix := i/opts.NC, i%opts.NC
		truth, err := d.Draw(pix, piy, opts.NC, ny)
		if err != nil {
			return nil, err
		}
		if truth.Type == "" {
			if code, ok := truth.Fields[profile.FieldType]; ok {
				truth.Type, _ = profile.ParseKind(strconv.Itoa(int(code)))
			}
		}
		if !truth.Type.Valid() {
			return nil, errors.Configuration("distribution %s drew unknown profile type %q", d.Name(), truth.Type)
		}

		for k := 0; k < nsnc; k++ {
			fields := truth.Fields.Clone()
			delete(fields, profile.FieldType)
			if k > 0 {
				if err := rotate(truth.Type, fields, float64(k)*rot); err != nil {
					return nil, err
				}
			}
			for name, v := range stat.Fields {
				fields[name] = v
			}
			rows = append(rows, Row{
				IX:     pix*nsnc + k,
				IY:     piy,
				Type:   truth.Type,
				Fields: fields,
			})
		}
	}

	for i := range rows {
		rows[i].ID = opts.IDPrefix + strconv.Itoa(i)
		rows[i].X, rows[i].Y = CellCenter(rows[i].IX, rows[i].IY, opts.StampSize)
	}

	if len(rows) != opts.N*nsnc {
		return nil, errors.Configuration("generated %d rows, want %d", len(rows), opts.N*nsnc)
	}

	cat := &Catalog{
		Meta: Meta{
			StampSize:  opts.StampSize,
			PixelScale: opts.PixelScale,
			NX:         nx,
			NY:         ny,
			NSNC:       nsnc,
			SNCType:    stat.SNCType,
			PSF:        opts.PSF,
			Extra:      opts.Extra,
		},
		Rows: rows,
	}
	logger.Debug("catalog done", "rows", len(rows))
	return cat, nil
}

// rotate applies an SNC rotation of deg degrees to fields in place.
func rotate(k profile.Kind, fields profile.Fields, deg float64) error {
	switch k {
	case profile.KindSersic, profile.KindGaussian:
		g1, ok1 := fields[profile.FieldG1]
		g2, ok2 := fields[profile.FieldG2]
		if !ok1 || !ok2 {
			return errors.Configuration("SNC rotation of %s needs %s and %s", k, profile.FieldG1, profile.FieldG2)
		}
		fields[profile.FieldG1], fields[profile.FieldG2] = RotateEllipticity(g1, g2, deg)
	case profile.KindEBulgeDisk:
		theta, ok := fields[profile.FieldTheta]
		if !ok {
			return errors.Configuration("SNC rotation of %s needs %s", k, profile.FieldTheta)
		}
		fields[profile.FieldTheta] = theta + deg
	default:
		return errors.Configuration("unknown profile type %q", k)
	}
	return nil
}

// RotateEllipticity rotates the ellipticity (g1, g2) by deg degrees on the
// sky. The spin-2 components turn by twice that angle.
func RotateEllipticity(g1, g2, deg float64) (float64, float64) {
	a := 2 * deg * math.Pi / 180
	c, s := math.Cos(a), math.Sin(a)
	return g1*c - g2*s, g1*s + g2*c
}

// EllipticityAngle returns the position angle of (g1, g2) in degrees,
// in [-90, 90].
func EllipticityAngle(g1, g2 float64) float64 {
	return 0.5 * math.Atan2(g2, g1) * 180 / math.Pi
}
