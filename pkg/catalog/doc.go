// Package catalog holds truth catalogs and the generator that lays sources
// out on a stamp grid.
//
// # Layout
//
// A catalog of n distinct sources drawn on nc columns occupies a grid of
// nx = nc*nsnc columns and ny = n/nc rows, where nsnc is the shape-noise
// cancellation multiplicity. Replica k of distinct source (ix, iy) lands at
// (ix*nsnc + k, iy), so replicas sit next to each other on one grid row.
// Every row gets the pixel centroid
//
//	x = ix*stampsize + stampsize/2 + 0.5
//	y = iy*stampsize + stampsize/2 + 0.5
//
// # Shape-noise cancellation
//
// Replica k is rotated by k*180/nsnc degrees: for Sersic and Gaussian rows
// the ellipticity (g1, g2) is rotated at fixed magnitude, for EBulgeDisk rows
// the shared position angle tru_theta is offset.
//
// # Immutability
//
// A generated catalog is treated as read-only truth by everything
// downstream. Use [Catalog.Clone] before deriving a modified copy.
package catalog
