// Package neighbors draws contaminating sources placed around each primary
// source of a stamp grid.
//
// An [Injector] is built once from a [Config]. The composer calls
// [Injector.Count] once per composition and [Injector.Draw] once per row;
// each returned [Neighbor] carries a profile variant and an offset relative
// to the stamp centre. Rendering is left to the caller.
//
// Neighbor profiles use the same field grammar as primary sources
// (see package params). Placement is either a box, expressed in fractions of
// the stamp size, or a ring around the centre.
package neighbors
