// Package raster holds the pixel containers used by stampgrid.
//
// # Images
//
// [Image] is a row-major float64 buffer: pixel (x, y) lives at
// Pix[y*W+x]. x runs along columns (FITS NAXIS1), y along rows (NAXIS2).
//
// # Canvases
//
// A [Canvas] is an arena of nx*ny square cells of side stampsize. The only
// way to obtain a writable region of a canvas is [Canvas.Cell], which derives
// the region from the grid indices through [CellBounds]. Distinct (ix, iy)
// pairs map to disjoint rectangles, so rows of a catalog can be composed into
// the same canvas without any locking.
//
// # Noise
//
// [NoiseModel] implements the CCD model used to finalize science images:
// Poisson noise on the gain-scaled signal plus sky, followed by Gaussian read
// noise. Draws go through an explicit random source so that two runs with
// identically seeded sources produce bit-identical pixels.
//
// # Files
//
// [WriteFITS] and [ReadFITS] persist images as single-HDU FITS files.
// [WritePreview] renders a PNG heatmap for quick inspection.
package raster
