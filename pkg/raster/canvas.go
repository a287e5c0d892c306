package raster

import (
	"github.com/matzehuels/stampgrid/pkg/errors"
)

// CellBounds returns the pixel rectangle of grid cell (ix, iy) for square
// cells of side stampsize. Cells tile the plane without overlap: distinct
// index pairs always yield disjoint rectangles.
func CellBounds(ix, iy, stampsize int) Rect {
	return Rect{
		X0: ix * stampsize,
		Y0: iy * stampsize,
		X1: (ix + 1) * stampsize,
		Y1: (iy + 1) * stampsize,
	}
}

// Canvas is a grid of stampsize x stampsize cells backed by one image.
type Canvas struct {
	*Image
	StampSize int
	NX, NY    int
}

// NewCanvas allocates a zeroed canvas of nx x ny cells.
func NewCanvas(nx, ny, stampsize int) (*Canvas, error) {
	if err := errors.ValidateStampSize(stampsize); err != nil {
		return nil, err
	}
	if nx <= 0 || ny <= 0 {
		return nil, errors.Configuration("canvas grid must be positive, got %dx%d", nx, ny)
	}
	return &Canvas{
		Image:     New(nx*stampsize, ny*stampsize),
		StampSize: stampsize,
		NX:        nx,
		NY:        ny,
	}, nil
}

// Cell returns the view for grid cell (ix, iy).
func (c *Canvas) Cell(ix, iy int) (*View, error) {
	if ix < 0 || ix >= c.NX || iy < 0 || iy >= c.NY {
		return nil, errors.Configuration("cell (%d, %d) outside %dx%d grid", ix, iy, c.NX, c.NY)
	}
	return &View{img: c.Image, r: CellBounds(ix, iy, c.StampSize)}, nil
}
