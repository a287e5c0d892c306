// Package io reads and writes truth catalogs as JSON.
//
// # JSON Format
//
// A catalog is an object with a "meta" object and a flat "rows" array.
// Every row is a flat object, one key per column:
//
//	{
//	  "meta": {"stampsize": 64, "pixelscale": 1, "nx": 4, "ny": 2, "nsnc": 2, "snc_type": 2},
//	  "rows": [
//	    {"id": "a0", "ix": 0, "iy": 0, "x": 32.5, "y": 32.5,
//	     "tru_type": "Sersic", "tru_flux": 120.5, "tru_rad": 3.1, ...}
//	  ]
//	}
//
// The keys id, ix, iy, x, y and tru_type are structural. tru_type may be a
// family name or its numeric code. Every other key must hold a number and
// becomes a truth field. Keys are written in sorted order so that equal
// catalogs produce identical files.
//
// # Import and Export
//
//	cat, err := io.ImportJSON("sim_cat.json")
//	err = io.ExportJSON(cat, "copy_cat.json")
//
// [ReadJSON] and [WriteJSON] work on any reader or writer. Decoding errors
// carry the INVALID_FORMAT code and name the offending row.
package io
