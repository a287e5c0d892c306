// Package policy decides, once per composition, how sources are convolved
// with a PSF and with an extra pixel response.
package policy

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
	"github.com/matzehuels/stampgrid/pkg/psf"
)

// Branch is the PSF treatment applied to every row.
type Branch string

const (
	BranchLoadedStamp Branch = "loaded-psf-stamp"
	BranchAnalytic    Branch = "analytic-gaussian"
	BranchNone        Branch = "none"
)

// AnalyticColumns are the catalog columns of an analytic Gaussian PSF.
var AnalyticColumns = []string{profile.FieldPSFSigma, profile.FieldPSFG1, profile.FieldPSFG2}

// Policy is the resolved convolution policy. The zero value is BranchNone
// without extra pixel convolution.
type Policy struct {
	branch    Branch
	pixelSize float64
	skipPixel bool
	warnings  []string
}

// Branch returns the PSF branch.
func (p Policy) Branch() Branch {
	if p.branch == "" {
		return BranchNone
	}
	return p.branch
}

// ExtraPixelConv reports whether analytic PSFs are convolved with an extra
// pixel box of side PixelConvSize.
func (p Policy) ExtraPixelConv() bool { return p.pixelSize > 0 }

// PixelConvSize is the side of the extra pixel box, zero when disabled.
func (p Policy) PixelConvSize() float64 { return p.pixelSize }

// SkipPixelConv reports whether the final draw must skip the sampling pixel
// convolution.
func (p Policy) SkipPixelConv() bool { return p.skipPixel }

// Warnings returns the non-fatal findings of the resolution.
func (p Policy) Warnings() []string { return append([]string(nil), p.warnings...) }

func (p Policy) String() string {
	s := string(p.Branch())
	if p.ExtraPixelConv() {
		s += fmt.Sprintf("+pixel(%g)", p.pixelSize)
	}
	if p.skipPixel {
		s += ",no_pixel"
	}
	return s
}

// Resolve inspects cat once and returns its policy. Warnings are also
// logged to logger when it is not nil.
func Resolve(cat *catalog.Catalog, logger *log.Logger) (Policy, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var p Policy

	switch {
	case cat.Meta.PSF != nil:
		if err := psf.CheckColumns(*cat.Meta.PSF, cat); err != nil {
			return Policy{}, err
		}
		p.branch = BranchLoadedStamp
		p.skipPixel = psf.SkipPixelConv(*cat.Meta.PSF)
	default:
		present := 0
		for _, c := range AnalyticColumns {
			if cat.HasColumn(c) {
				present++
			}
		}
		switch present {
		case len(AnalyticColumns):
			for _, r := range cat.Rows {
				if s := r.Fields[profile.FieldPSFSigma]; s < 0 {
					return Policy{}, errors.Configuration("row %s: %s must be >= 0, got %g", r.ID, profile.FieldPSFSigma, s)
				}
			}
			p.branch = BranchAnalytic
		case 0:
			p.branch = BranchNone
			p.warnings = append(p.warnings, "no PSF information in catalog, sources are not convolved")
		default:
			return Policy{}, errors.Configuration("ambiguous PSF policy: catalog needs all of %v or none", AnalyticColumns)
		}
	}

	if hasAny(cat, profile.FieldPixel) {
		if !cat.HasColumn(profile.FieldPixel) {
			return Policy{}, errors.Configuration("%s must be set on every row", profile.FieldPixel)
		}
		vals := cat.Unique(profile.FieldPixel)
		if len(vals) != 1 {
			return Policy{}, errors.Configuration("%s must be uniform, got %d distinct values", profile.FieldPixel, len(vals))
		}
		if vals[0] > 0 {
			if p.branch == BranchAnalytic {
				p.pixelSize = vals[0]
			} else {
				p.warnings = append(p.warnings, fmt.Sprintf("%s = %g ignored with PSF branch %s", profile.FieldPixel, vals[0], p.branch))
			}
		}
	}

	for _, w := range p.warnings {
		logger.Warn(w)
	}
	logger.Debug("resolved policy", "policy", p.String())
	return p, nil
}

func hasAny(cat *catalog.Catalog, name string) bool {
	for _, r := range cat.Rows {
		if r.Fields.Has(name) {
			return true
		}
	}
	return false
}
