package profile

import (
	"strconv"
	"strings"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

// Kind names a source profile family.
type Kind string

const (
	KindSersic     Kind = "Sersic"
	KindGaussian   Kind = "Gaussian"
	KindEBulgeDisk Kind = "EBulgeDisk"
)

// Kinds lists the supported families in code order.
var Kinds = []Kind{KindSersic, KindGaussian, KindEBulgeDisk}

// Code returns the numeric tru_type code of k, or -1 if k is unknown.
func (k Kind) Code() int {
	for i, kk := range Kinds {
		if kk == k {
			return i
		}
	}
	return -1
}

// Valid reports whether k is a supported family.
func (k Kind) Valid() bool { return k.Code() >= 0 }

// ParseKind accepts a family name (case-insensitive) or its numeric code.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(Kinds) {
			return Kinds[n], nil
		}
		return "", errors.Configuration("unknown profile type code %d", n)
	}
	for _, k := range Kinds {
		if strings.EqualFold(string(k), s) {
			return k, nil
		}
	}
	return "", errors.Configuration("unknown profile type %q", s)
}
