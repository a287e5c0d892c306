// Package compose turns a catalog into simulated images.
//
// [Compose] walks the catalog once in row order. Each row is built into a
// profile, lensed, jittered, convolved according to the resolved
// [policy.Policy] and drawn into its own cell of a science canvas. Optional
// truth and PSF canvases receive the unconvolved source and the PSF used.
// A single CCD noise pass finishes the science canvas.
//
// All randomness comes from [Options.Rand]; identical catalogs, options and
// seeds give bit-identical canvases. Composition is not safe for concurrent
// use of one Options value, but independent calls may run in parallel.
//
// Errors abort the whole call. [Write] persists a finished [Result] and
// never leaves partial files behind.
package compose
