// Package render turns declarative light profiles into pixel values.
//
// # Overview
//
// A [Profile] is a closed tree of value types:
//
//   - Leaves: [Gaussian], [Sersic], [InclinedExponential], [Pixel] and
//     [Interpolated] (a sampled image, typically a PSF stamp)
//   - [Transformed]: an affine distortion with offset and flux scaling,
//     built by [Shear], [ShearPolar], [Lens], [Rotate] and [Shift]
//   - [Sum]: additive combination
//   - [Convolution]: the first operand convolved with every other one
//
// Profiles are immutable; every transform returns a new value. Coordinates
// are in pixels, angles in radians, and the profile origin is the geometric
// centre of the destination region.
//
// # Drawing
//
// [Draw] adds a profile into a [raster.View]. It is a pure function of its
// inputs: drawing the same profile twice adds the same pixels twice.
//
//	gal := render.Shear(render.Sersic{N: 1.5, HLR: 3, Flux: 1e4}, 0.1, -0.05)
//	psf := render.Gaussian{Sigma: 1.2, Flux: 1}
//	err := render.Draw(render.Convolve(gal, psf), view, render.MethodAuto)
//
// [MethodAuto] integrates surface brightness over each pixel (the image is
// implicitly convolved with the pixel response). [MethodNoPixel] samples at
// pixel centres, for profiles that already include the pixel, such as PSF
// stamps measured on a detector.
//
// Convolutions are evaluated with FFTs on a zero-padded grid: the first
// operand is rasterized with the requested method and every kernel is
// sampled at integer pixel displacements, then rescaled to its analytic
// flux.
//
// # Errors
//
// Parameters the renderer cannot handle (non-positive sizes, |g| >= 1,
// Sersic indices outside [0.3, 6.2], singular transforms) surface as
// RENDER_ERROR at draw time.
package render
