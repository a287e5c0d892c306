package cache

// RealizationKeyOpts are the drawing inputs that change the pixels of a
// realization besides the catalog itself.
type RealizationKeyOpts struct {
	Seed      uint64  `json:"seed"`
	Index     int     `json:"index"`
	SersicCut float64 `json:"sersiccut"`
	JitterPSF bool    `json:"jitter_psf"`
	Truth     bool    `json:"truth"`
	PSF       bool    `json:"psf"`
	NoNoise   bool    `json:"no_noise"`
	// Neighbors is the hash of the neighbor configuration, empty if unused.
	Neighbors string `json:"neighbors,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// CatalogKey keys a generated catalog by the hash of its configuration
	// and the catalog index within a run.
	CatalogKey(configHash string, index int) string
	// RealizationKey keys composed images by catalog hash and options.
	RealizationKey(catalogHash string, opts RealizationKeyOpts) string
}

// DefaultKeyer hashes all inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) CatalogKey(configHash string, index int) string {
	return hashKey("catalog", configHash, index)
}

func (DefaultKeyer) RealizationKey(catalogHash string, opts RealizationKeyOpts) string {
	return hashKey("realization", catalogHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}
