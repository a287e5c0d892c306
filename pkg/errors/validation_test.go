package errors

import "testing"

func TestValidateStampSize(t *testing.T) {
	tests := []struct {
		ss      int
		wantErr bool
	}{
		{64, false},
		{2, false},
		{63, true},
		{0, true},
		{-4, true},
	}
	for _, tt := range tests {
		err := ValidateStampSize(tt.ss)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateStampSize(%d) error = %v, wantErr %v", tt.ss, err, tt.wantErr)
		}
		if err != nil && !Is(err, ErrCodeConfiguration) {
			t.Errorf("ValidateStampSize(%d) code = %v, want %v", tt.ss, GetCode(err), ErrCodeConfiguration)
		}
	}
}

func TestValidateGrid(t *testing.T) {
	tests := []struct {
		n, nc   int
		wantErr bool
	}{
		{9, 3, false},
		{3, 3, false},
		{10, 3, true},
		{2, 3, true},
		{4, 0, true},
	}
	for _, tt := range tests {
		err := ValidateGrid(tt.n, tt.nc)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateGrid(%d, %d) error = %v, wantErr %v", tt.n, tt.nc, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"out/sim.fits", false},
		{"/tmp/sim/galimg.fits", false},
		{"", true},
		{"../escape.fits", true},
		{"a/\x00b", true},
		{"a..b/c", false},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
	if err := ValidateSNCType(-1); err == nil {
		t.Error("ValidateSNCType(-1) = nil, want error")
	}
}
