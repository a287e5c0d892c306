package errors

import (
	"strings"
	"unicode"
)

// ValidateStampSize checks that a stamp size is positive and even.
// Odd stamps have no pixel-centre convention that keeps the source centroid
// at stampsize/2 + 0.5.
func ValidateStampSize(stampsize int) error {
	if stampsize <= 0 {
		return Configuration("stampsize must be positive, got %d", stampsize)
	}
	if stampsize%2 != 0 {
		return Configuration("stampsize must be even, got %d", stampsize)
	}
	return nil
}

// ValidateGrid checks that n distinct sources fill whole rows of nc columns.
func ValidateGrid(n, nc int) error {
	if nc <= 0 {
		return Configuration("nc must be positive, got %d", nc)
	}
	if n < nc {
		return Configuration("n (%d) must be at least nc (%d)", n, nc)
	}
	if n%nc != 0 {
		return Configuration("n (%d) must be a multiple of nc (%d)", n, nc)
	}
	return nil
}

// ValidateSNCType checks a shape-noise-cancellation multiplicity.
// Zero disables SNC; negative values are rejected.
func ValidateSNCType(sncType int) error {
	if sncType < 0 {
		return Configuration("snc_type must be >= 0, got %d", sncType)
	}
	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
