package policy

import (
	"testing"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

func catWith(fields ...profile.Fields) *catalog.Catalog {
	cat := &catalog.Catalog{Meta: catalog.Meta{StampSize: 16, NX: len(fields), NY: 1}}
	for i, f := range fields {
		cat.Rows = append(cat.Rows, catalog.Row{ID: string(rune('a' + i)), IX: i, Type: profile.KindGaussian, Fields: f})
	}
	return cat
}

func analytic(sigma float64) profile.Fields {
	return profile.Fields{profile.FieldPSFSigma: sigma, profile.FieldPSFG1: 0, profile.FieldPSFG2: 0.01}
}

func TestResolve(t *testing.T) {
	withPixel := func(f profile.Fields, v float64) profile.Fields {
		f = f.Clone()
		f[profile.FieldPixel] = v
		return f
	}
	stamp := catWith(profile.Fields{"px": 1, "py": 1})
	stamp.Meta.PSF = &catalog.PSFInfo{Path: "psf.fits", StampSize: 16, PixelScale: 1, XColumn: "px", YColumn: "py"}
	fine := stamp.Clone()
	fine.Meta.PSF.PixelScale = 0.1
	unset := stamp.Clone()
	unset.Meta.PSF.PixelScale = 0

	tests := []struct {
		name      string
		cat       *catalog.Catalog
		branch    Branch
		pixel     float64
		skip      bool
		nWarnings int
	}{
		{"analytic", catWith(analytic(1), analytic(2)), BranchAnalytic, 0, false, 0},
		{"none", catWith(profile.Fields{}, profile.Fields{}), BranchNone, 0, false, 1},
		{"analytic pixel", catWith(withPixel(analytic(1), 2), withPixel(analytic(1), 2)), BranchAnalytic, 2, false, 0},
		{"analytic zero pixel", catWith(withPixel(analytic(1), 0)), BranchAnalytic, 0, false, 0},
		{"stamp coarse", stamp, BranchLoadedStamp, 0, true, 0},
		{"stamp fine", fine, BranchLoadedStamp, 0, false, 0},
		{"stamp unset pixelscale", unset, BranchLoadedStamp, 0, true, 0},
		{"none with pixel", catWith(withPixel(profile.Fields{}, 1)), BranchNone, 0, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Resolve(tt.cat, nil)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if p.Branch() != tt.branch {
				t.Errorf("Branch = %v, want %v", p.Branch(), tt.branch)
			}
			if p.PixelConvSize() != tt.pixel {
				t.Errorf("PixelConvSize = %v, want %v", p.PixelConvSize(), tt.pixel)
			}
			if p.ExtraPixelConv() != (tt.pixel > 0) {
				t.Errorf("ExtraPixelConv = %v, want %v", p.ExtraPixelConv(), tt.pixel > 0)
			}
			if p.SkipPixelConv() != tt.skip {
				t.Errorf("SkipPixelConv = %v, want %v", p.SkipPixelConv(), tt.skip)
			}
			if len(p.Warnings()) != tt.nWarnings {
				t.Errorf("Warnings = %v, want %d", p.Warnings(), tt.nWarnings)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	partial := profile.Fields{profile.FieldPSFSigma: 1, profile.FieldPSFG1: 0}
	mixed := []profile.Fields{
		{profile.FieldPixel: 1},
		{profile.FieldPixel: 2},
	}
	stamp := catWith(profile.Fields{"px": 1})
	stamp.Meta.PSF = &catalog.PSFInfo{Path: "psf.fits", StampSize: 16, XColumn: "px", YColumn: "py"}

	tests := []struct {
		name string
		cat  *catalog.Catalog
	}{
		{"partial analytic", catWith(partial)},
		{"negative sigma", catWith(analytic(1), analytic(-0.5))},
		{"mixed pixel", catWith(mixed...)},
		{"pixel on some rows", catWith(profile.Fields{profile.FieldPixel: 1}, profile.Fields{})},
		{"stamp columns missing", stamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.cat, nil)
			if !errors.Is(err, errors.ErrCodeConfiguration) {
				t.Errorf("Resolve error = %v, want configuration error", err)
			}
		})
	}
}

func TestWarningsAreCopied(t *testing.T) {
	p, err := Resolve(catWith(profile.Fields{}), nil)
	if err != nil {
		t.Fatal(err)
	}
	w := p.Warnings()
	w[0] = "changed"
	if p.Warnings()[0] == "changed" {
		t.Error("Warnings exposes internal state")
	}
}

func TestZeroPolicy(t *testing.T) {
	var p Policy
	if p.Branch() != BranchNone || p.ExtraPixelConv() || p.SkipPixelConv() {
		t.Errorf("zero Policy = %v, want plain none", p)
	}
}
