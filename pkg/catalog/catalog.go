package catalog

import (
	"maps"
	"slices"

	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

// Row is one simulated source.
type Row struct {
	ID     string
	IX, IY int
	X, Y   float64
	Type   profile.Kind
	Fields profile.Fields
}

// PSFInfo describes a grid of PSF stamps stored in a FITS image. Each
// catalog row points at its PSF stamp through the columns XColumn and
// YColumn, holding pixel positions in the PSF image.
type PSFInfo struct {
	Path       string  `json:"path" yaml:"path" toml:"path"`
	StampSize  int     `json:"stampsize" yaml:"stampsize" toml:"stampsize"`
	PixelScale float64 `json:"pixelscale" yaml:"pixelscale" toml:"pixelscale"`
	XColumn    string  `json:"xname" yaml:"xname" toml:"xname"`
	YColumn    string  `json:"yname" yaml:"yname" toml:"yname"`
}

// Scale returns the PSF pixel scale, 1 when unset.
func (p PSFInfo) Scale() float64 {
	if p.PixelScale == 0 {
		return 1
	}
	return p.PixelScale
}

// Meta carries the grid description of a catalog.
type Meta struct {
	StampSize  int            `json:"stampsize"`
	PixelScale float64        `json:"pixelscale"`
	NX         int            `json:"nx"`
	NY         int            `json:"ny"`
	NSNC       int            `json:"nsnc"`
	SNCType    int            `json:"snc_type"`
	PSF        *PSFInfo       `json:"psf,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Catalog is an ordered list of rows plus grid metadata.
type Catalog struct {
	Meta Meta
	Rows []Row
}

// Len returns the number of rows.
func (c *Catalog) Len() int { return len(c.Rows) }

// Kind returns the profile family of row i.
func (c *Catalog) Kind(i int) profile.Kind { return c.Rows[i].Type }

// HasField reports whether row i carries name.
func (c *Catalog) HasField(i int, name string) bool {
	if name == profile.FieldType {
		return c.Rows[i].Type != ""
	}
	return c.Rows[i].Fields.Has(name)
}

// HasColumn reports whether every row carries name. An empty catalog has
// no columns.
func (c *Catalog) HasColumn(name string) bool {
	if len(c.Rows) == 0 {
		return false
	}
	for i := range c.Rows {
		if !c.HasField(i, name) {
			return false
		}
	}
	return true
}

// Column returns the values of name in row order. Rows without the field
// contribute def.
func (c *Catalog) Column(name string, def float64) []float64 {
	out := make([]float64, len(c.Rows))
	for i, r := range c.Rows {
		out[i] = r.Fields.Get(name, def)
	}
	return out
}

// Unique returns the distinct values of name in ascending order, ignoring
// rows without the field.
func (c *Catalog) Unique(name string) []float64 {
	seen := make(map[float64]bool)
	for _, r := range c.Rows {
		if v, ok := r.Fields[name]; ok {
			seen[v] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Columns returns the sorted union of numeric field names.
func (c *Catalog) Columns() []string {
	seen := make(map[string]bool)
	for _, r := range c.Rows {
		for k := range r.Fields {
			seen[k] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{Meta: c.Meta, Rows: make([]Row, len(c.Rows))}
	if c.Meta.PSF != nil {
		psf := *c.Meta.PSF
		out.Meta.PSF = &psf
	}
	if c.Meta.Extra != nil {
		out.Meta.Extra = maps.Clone(c.Meta.Extra)
	}
	for i, r := range c.Rows {
		r.Fields = r.Fields.Clone()
		out.Rows[i] = r
	}
	return out
}

// CheckGrid verifies the grid invariants: a valid stamp size, every (ix, iy)
// inside [0, nx) x [0, ny), and no two rows sharing a cell.
func (c *Catalog) CheckGrid() error {
	if err := errors.ValidateStampSize(c.Meta.StampSize); err != nil {
		return err
	}
	if c.Meta.NX <= 0 || c.Meta.NY <= 0 {
		return errors.Configuration("grid must be positive, got %dx%d", c.Meta.NX, c.Meta.NY)
	}
	type cell struct{ ix, iy int }
	used := make(map[cell]string, len(c.Rows))
	for _, r := range c.Rows {
		if r.IX < 0 || r.IX >= c.Meta.NX || r.IY < 0 || r.IY >= c.Meta.NY {
			return errors.Configuration("row %s: cell (%d, %d) outside %dx%d grid", r.ID, r.IX, r.IY, c.Meta.NX, c.Meta.NY)
		}
		k := cell{r.IX, r.IY}
		if other, dup := used[k]; dup {
			return errors.Configuration("rows %s and %s share cell (%d, %d)", other, r.ID, r.IX, r.IY)
		}
		used[k] = r.ID
	}
	return nil
}

// CellCenter returns the pixel centroid of grid cell (ix, iy).
func CellCenter(ix, iy, stampsize int) (x, y float64) {
	half := float64(stampsize) / 2
	return float64(ix*stampsize) + half + 0.5, float64(iy*stampsize) + half + 0.5
}
