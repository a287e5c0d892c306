// Package profile declares the source profile families stampgrid can
// simulate and the catalog fields each family requires.
//
// # Families
//
// Every catalog row carries a [Kind]:
//
//   - [Sersic]: Sersic index, half-light radius, flux, ellipticity, and an
//     optional truncation factor
//   - [Gaussian]: sigma, flux, ellipticity
//   - [EBulgeDisk]: a sheared Sersic bulge plus an inclined exponential
//     disk sharing one position angle
//
// # Validation
//
// [Validate] checks a whole table against the schema in one pass, before
// anything is rendered. Fields are checked in their declared order, so the
// reported missing field is stable from run to run.
//
//	kinds, err := profile.Validate(cat)
//	if err != nil {
//	    return err // CONFIGURATION_ERROR naming the first missing field
//	}
//
// [FromFields] then turns a row into a typed [Variant] whose Build method
// yields a [render.Profile].
package profile
