package raster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stampgrid/pkg/errors"
)

func TestFITSRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.fits")
	im := ramp(6, 4)
	im.Set(2, 3, -1.25)

	require.NoError(t, WriteFITS(path, im, Card{Name: "STAMPSZ", Value: 2, Comment: "stamp size"}))

	got, err := ReadFITS(path)
	require.NoError(t, err)
	if got.W != im.W || got.H != im.H {
		t.Fatalf("size = %dx%d, want %dx%d", got.W, got.H, im.W, im.H)
	}
	for i := range im.Pix {
		if got.Pix[i] != im.Pix[i] {
			t.Errorf("pixel %d = %v, want %v", i, got.Pix[i], im.Pix[i])
		}
	}
}

func TestReadFITSMissing(t *testing.T) {
	_, err := ReadFITS(filepath.Join(t.TempDir(), "missing.fits"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("ReadFITS() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestWritePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	im := ramp(8, 8)
	require.NoError(t, WritePreview(path, im, PreviewOptions{Title: "ramp", Stretch: 1}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Size() == 0 {
		t.Error("preview file is empty")
	}
}

func TestWritePreviewConstantImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flat.png")
	require.NoError(t, WritePreview(path, New(4, 4), PreviewOptions{}))
}
