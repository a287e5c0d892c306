package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	catalogSuffix = "_cat.json"
	imgDirSuffix  = "_img"
)

// File name suffixes of the canvases of one realization.
const (
	ScienceSuffix = "_galimg.fits"
	TruthSuffix   = "_trugalimg.fits"
	PSFSuffix     = "_psfimg.fits"
)

// CatalogName returns a fresh catalog file name: a timestamp for humans and
// a random UUID fragment for uniqueness.
func CatalogName(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.UTC().Format("20060102T150405") + "_" + id + catalogSuffix
}

// ImageDir returns the image directory belonging to a catalog file.
func ImageDir(catalogPath string) string {
	return strings.TrimSuffix(catalogPath, catalogSuffix) + imgDirSuffix
}

// ImagePath returns the path of canvas suffix for realization rea.
func ImagePath(imgDir string, rea int, suffix string) string {
	return filepath.Join(imgDir, fmt.Sprintf("%d%s", rea, suffix))
}

// IsCatalog reports whether name looks like a catalog written by a run.
func IsCatalog(name string) bool {
	return strings.HasSuffix(name, catalogSuffix)
}

// Catalogs lists the catalog files of a set directory, sorted by name.
func Catalogs(setDir string) ([]string, error) {
	return filepath.Glob(filepath.Join(setDir, "*"+catalogSuffix))
}
