package profile

// Catalog column names.
const (
	FieldType = "tru_type"

	FieldFlux      = "tru_flux"
	FieldG1        = "tru_g1"
	FieldG2        = "tru_g2"
	FieldSigma     = "tru_sigma"
	FieldRad       = "tru_rad"
	FieldSersicN   = "tru_sersicn"
	FieldSersicCut = "tru_sersiccut"

	FieldTheta           = "tru_theta"
	FieldBulgeG          = "tru_bulge_g"
	FieldBulgeSersicN    = "tru_bulge_sersicn"
	FieldBulgeHLR        = "tru_bulge_hlr"
	FieldBulgeFlux       = "tru_bulge_flux"
	FieldDiskTilt        = "tru_disk_tilt"
	FieldDiskScaleHOverR = "tru_disk_scale_h_over_r"
	FieldDiskHLR         = "tru_disk_hlr"
	FieldDiskFlux        = "tru_disk_flux"

	FieldS1 = "tru_s1"
	FieldS2 = "tru_s2"
	FieldMu = "tru_mu"

	FieldSkyLevel  = "tru_sky_level"
	FieldGain      = "tru_gain"
	FieldReadNoise = "tru_read_noise"

	FieldPSFSigma = "tru_psf_sigma"
	FieldPSFG1    = "tru_psf_g1"
	FieldPSFG2    = "tru_psf_g2"

	FieldPixel = "tru_pixel"
)

// Fields holds the numeric truth parameters of one row.
type Fields map[string]float64

// Get returns the value of name, or def when it is absent.
func (f Fields) Get(name string, def float64) float64 {
	if v, ok := f[name]; ok {
		return v
	}
	return def
}

// Has reports whether name is present.
func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Clone returns a copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
