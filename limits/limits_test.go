package limits

import (
	"errors"
	"testing"

	"github.com/opd-ai/envelope/cryptoerr"
)

// TestMinHiddenBlobCalculation verifies the smallest blob Unhide can accept
// is MinHaystack + HiddenOverhead
func TestMinHiddenBlobCalculation(t *testing.T) {
	if MinHiddenBlob != 18 {
		t.Errorf("MinHiddenBlob = %d, want 18", MinHiddenBlob)
	}
	if expected := MinHaystack + HiddenOverhead; MinHiddenBlob != expected {
		t.Errorf("MinHiddenBlob = %d, want %d (MinHaystack + HiddenOverhead)", MinHiddenBlob, expected)
	}
}

func TestValidateSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		max     int
		wantErr bool
	}{
		{"empty", 0, 10, false},
		{"at limit", 10, 10, false},
		{"one over", 11, 10, true},
		{"far over", 4096, 128, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSize("blob", make([]byte, tt.size), tt.max)
			if !tt.wantErr {
				if err != nil {
					t.Errorf("ValidateSize(%d, %d) unexpected error: %v", tt.size, tt.max, err)
				}
				return
			}
			if !errors.Is(err, cryptoerr.ErrSizeLimit) {
				t.Errorf("ValidateSize(%d, %d) = %v, want ErrSizeLimit", tt.size, tt.max, err)
			}
			if !errors.Is(err, cryptoerr.ErrData) {
				t.Errorf("ValidateSize(%d, %d) = %v, want a data error", tt.size, tt.max, err)
			}
		})
	}
}

// TestNamedValidators checks each validator accepts its limit and rejects one byte more
func TestNamedValidators(t *testing.T) {
	validators := []struct {
		name     string
		validate func([]byte) error
		max      int
	}{
		{"password hash blob", ValidatePasswordHashBlob, MaxPasswordHashBlob},
		{"public key blob", ValidatePublicKeyBlob, MaxPublicKeyBlob},
		{"wrapped private key", ValidateWrappedPrivateKey, MaxWrappedPrivateKey},
	}

	for _, v := range validators {
		t.Run(v.name, func(t *testing.T) {
			if err := v.validate(make([]byte, v.max)); err != nil {
				t.Errorf("%d bytes rejected: %v", v.max, err)
			}
			if err := v.validate(make([]byte, v.max+1)); !errors.Is(err, cryptoerr.ErrSizeLimit) {
				t.Errorf("%d bytes: got %v, want ErrSizeLimit", v.max+1, err)
			}
		})
	}

	if err := ValidateProcessingBuffer(nil); err != nil {
		t.Errorf("ValidateProcessingBuffer(nil) = %v", err)
	}
}
