package cache

// ScopedKeyer wraps a Keyer with a prefix so that several projects can
// share one backend without colliding.
//
// Example usage:
//
//	// Keys of one survey configuration
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "survey-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CatalogKey generates a prefixed catalog key.
func (k *ScopedKeyer) CatalogKey(configHash string, index int) string {
	return k.prefix + k.inner.CatalogKey(configHash, index)
}

// RealizationKey generates a prefixed realization key.
func (k *ScopedKeyer) RealizationKey(catalogHash string, opts RealizationKeyOpts) string {
	return k.prefix + k.inner.RealizationKey(catalogHash, opts)
}
