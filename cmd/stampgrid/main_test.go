package main

import (
	"context"
	"fmt"
	"testing"

	sgerrors "github.com/matzehuels/stampgrid/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"canceled", fmt.Errorf("draw: %w", context.Canceled), 130},
		{"configuration", sgerrors.Configuration("tru_pixel must be uniform"), 2},
		{"extraction", sgerrors.New(sgerrors.ErrCodeExtraction, "psf stamp out of bounds"), 2},
		{"render", sgerrors.New(sgerrors.ErrCodeRender, "|g| > 1"), 2},
		{"invalid path", sgerrors.New(sgerrors.ErrCodeInvalidPath, "empty"), 1},
		{"plain", fmt.Errorf("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
