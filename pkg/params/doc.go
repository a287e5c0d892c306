// Package params provides the configurable truth distribution used to draw
// catalogs.
//
// A [Config] names the profile families to draw, the constant settings
// merged into every row (noise, analytic PSF) and a [Spec] per drawn field.
// A Spec is one of:
//
//   - a pinned value:         { value = 2.5 }
//   - a list of choices:      { choices = [1, 2, 4] }
//   - a uniform range:        { min = 1, max = 5 }
//   - a normal distribution:  { mu = 0, sigma = 0.1 }
//   - a grid-linked sweep:    { min = 10, max = 100, link = "iy" }
//
// Linked specs vary linearly across grid rows (link = "iy") or distinct
// columns (link = "ix") instead of being drawn, which keeps parameters that
// should change seldomly constant along a grid row.
//
// Ellipticities come from a truncated Rayleigh distribution with a uniform
// position angle, see [TruncRayleigh].
package params
