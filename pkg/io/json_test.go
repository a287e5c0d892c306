package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

func sample() *catalog.Catalog {
	return &catalog.Catalog{
		Meta: catalog.Meta{
			StampSize: 64, PixelScale: 0.1, NX: 2, NY: 1, NSNC: 2, SNCType: 2,
			PSF: &catalog.PSFInfo{Path: "psf.fits", StampSize: 32, PixelScale: 0.3, XColumn: "psfx", YColumn: "psfy"},
		},
		Rows: []catalog.Row{
			{ID: "a0", IX: 0, IY: 0, X: 32.5, Y: 32.5, Type: profile.KindSersic,
				Fields: profile.Fields{profile.FieldFlux: 120.5, profile.FieldG1: 0.1, "psfx": 16.5}},
			{ID: "a1", IX: 1, IY: 0, X: 96.5, Y: 32.5, Type: profile.KindSersic,
				Fields: profile.Fields{profile.FieldFlux: 120.5, profile.FieldG1: -0.1, "psfx": 48.5}},
		},
	}
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cat.json")
	want := sample()
	require.NoError(t, ExportJSON(want, path))

	got, err := ImportJSON(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteJSONIsStable(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, WriteJSON(sample(), &a))
	require.NoError(t, WriteJSON(sample(), &b))
	if a.String() != b.String() {
		t.Error("WriteJSON output differs between identical catalogs")
	}
	if !strings.Contains(a.String(), `"snc_type": 2`) {
		t.Errorf("output lacks snc_type meta:\n%s", a.String())
	}
}

func TestReadJSONNumericType(t *testing.T) {
	in := `{"meta": {"stampsize": 8, "nx": 1, "ny": 1},
	        "rows": [{"id": "0", "ix": 0, "iy": 0, "x": 4.5, "y": 4.5, "tru_type": 1, "tru_sigma": 2}]}`
	cat, err := ReadJSON(strings.NewReader(in))
	require.NoError(t, err)
	if got := cat.Rows[0].Type; got != profile.KindGaussian {
		t.Errorf("Type = %q, want %q", got, profile.KindGaussian)
	}
	if got := cat.Rows[0].Fields[profile.FieldSigma]; got != 2 {
		t.Errorf("tru_sigma = %v, want 2", got)
	}
}

func TestReadJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"meta": `},
		{"string field", `{"rows": [{"id": "0", "tru_flux": "bright"}]}`},
		{"bad type code", `{"rows": [{"id": "0", "tru_type": 9}]}`},
		{"non-integer ix", `{"rows": [{"id": "0", "ix": 1.5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.in))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestImportJSONMissing(t *testing.T) {
	_, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ImportJSON() error = %v, want FILE_NOT_FOUND", err)
	}
}
