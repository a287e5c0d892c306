package profile

import (
	"github.com/matzehuels/stampgrid/pkg/errors"
)

// CommonFields are required on every row regardless of family.
var CommonFields = []string{FieldType, FieldSkyLevel, FieldGain, FieldReadNoise}

// schema lists the required fields of each family in check order.
var schema = map[Kind][]string{
	KindGaussian: {FieldFlux, FieldSigma, FieldG1, FieldG2},
	KindSersic:   {FieldFlux, FieldRad, FieldSersicN, FieldG1, FieldG2},
	KindEBulgeDisk: {
		FieldTheta,
		FieldBulgeG, FieldBulgeSersicN, FieldBulgeHLR, FieldBulgeFlux,
		FieldDiskTilt, FieldDiskScaleHOverR, FieldDiskHLR, FieldDiskFlux,
	},
}

// RequiredFields returns the family-specific required fields of k.
func RequiredFields(k Kind) []string {
	return append([]string(nil), schema[k]...)
}

// Table is the read-only view of a catalog needed for validation.
type Table interface {
	Len() int
	// Kind returns the profile family of row i, empty if unset.
	Kind(i int) Kind
	// HasField reports whether row i carries the named field.
	HasField(i int, name string) bool
}

// Validate checks every row of t against the schema. It returns the
// distinct families present in order of first appearance.
//
// Common fields are checked first on every row. Then, for each family in
// order of first appearance, every row of that family is checked field by
// field in declared order; the first gap aborts with a configuration error.
func Validate(t Table) ([]Kind, error) {
	var kinds []Kind
	seen := make(map[Kind]bool)

	for i := 0; i < t.Len(); i++ {
		k := t.Kind(i)
		if k == "" {
			return nil, errors.Configuration("row %d: missing field %s", i, FieldType)
		}
		if !k.Valid() {
			return nil, errors.Configuration("row %d: unknown profile type %q", i, k)
		}
		for _, f := range CommonFields[1:] {
			if !t.HasField(i, f) {
				return nil, errors.Configuration("row %d: missing field %s", i, f)
			}
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}

	for _, k := range kinds {
		for _, f := range schema[k] {
			for i := 0; i < t.Len(); i++ {
				if t.Kind(i) == k && !t.HasField(i, f) {
					return nil, errors.Configuration("profile %s requires field %s (missing on row %d)", k, f, i)
				}
			}
		}
	}
	return kinds, nil
}
