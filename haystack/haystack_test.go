package haystack

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/limits"
)

func TestHideZeroHaystack(t *testing.T) {
	haystack := make([]byte, 16)
	blob, err := Hide([]byte{0x23}, haystack)
	if err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if len(blob) != 19 {
		t.Errorf("len(blob) = %d, want 19", len(blob))
	}
	if blob[0] != 0x5b {
		t.Errorf("blob[0] = %#x, want 0x5b", blob[0])
	}

	needle, recovered, err := Unhide(blob)
	if err != nil {
		t.Fatalf("Unhide failed: %v", err)
	}
	if !bytes.Equal(needle, []byte{0x23}) {
		t.Errorf("needle = %x, want 23", needle)
	}
	if !bytes.Equal(recovered, haystack) {
		t.Errorf("haystack = %x, want %x", recovered, haystack)
	}
}

func TestHideLayout(t *testing.T) {
	haystack := make([]byte, 20)
	haystack[0] = 0x31 // pos = 1 + 3 = 4
	for i := 1; i < len(haystack); i++ {
		haystack[i] = byte(0x80 + i)
	}
	needle := []byte{0xAA, 0xBB}

	blob, err := Hide(needle, haystack)
	if err != nil {
		t.Fatalf("Hide failed: %v", err)
	}

	want := []byte{0x5b ^ 0x31}
	want = append(want, haystack[:4]...)
	want = append(want, 2^0x31, 0xAA^0x31, 0xBB^0x31)
	want = append(want, haystack[4:]...)
	if !bytes.Equal(blob, want) {
		t.Errorf("blob = %x\nwant   %x", blob, want)
	}
}

func TestRoundTrip(t *testing.T) {
	sizes := []struct {
		needle   int
		haystack int
	}{
		{0, 16},
		{1, 16},
		{16, 16},
		{40, 17},
		{255, 16},
		{255, 4096},
		{3, 1000},
	}

	for _, sz := range sizes {
		for trial := 0; trial < 8; trial++ {
			needle := make([]byte, sz.needle)
			haystack := make([]byte, sz.haystack)
			_, _ = rand.Read(needle)
			_, _ = rand.Read(haystack)

			blob, err := Hide(needle, haystack)
			if err != nil {
				t.Fatalf("Hide(%d, %d) failed: %v", sz.needle, sz.haystack, err)
			}
			if want := sz.needle + sz.haystack + limits.HiddenOverhead; len(blob) != want {
				t.Errorf("Hide(%d, %d) length = %d, want %d", sz.needle, sz.haystack, len(blob), want)
			}

			gotNeedle, gotHaystack, err := Unhide(blob)
			if err != nil {
				t.Fatalf("Unhide(%d, %d) failed: %v", sz.needle, sz.haystack, err)
			}
			if !bytes.Equal(needle, gotNeedle) || !bytes.Equal(haystack, gotHaystack) {
				t.Errorf("round trip (%d, %d) mismatch", sz.needle, sz.haystack)
			}
		}
	}
}

func TestHidePreconditions(t *testing.T) {
	if _, err := Hide(make([]byte, 256), make([]byte, 16)); !errors.Is(err, cryptoerr.ErrLogic) {
		t.Errorf("oversized needle: got %v, want logic error", err)
	}
	if _, err := Hide([]byte{1}, make([]byte, 15)); !errors.Is(err, cryptoerr.ErrLogic) {
		t.Errorf("short haystack: got %v, want logic error", err)
	}
}

func TestHideDoesNotModifyInputs(t *testing.T) {
	needle := []byte{1, 2, 3}
	haystack := bytes.Repeat([]byte{0xF7}, 32)
	needleCopy := append([]byte(nil), needle...)
	haystackCopy := append([]byte(nil), haystack...)

	if _, err := Hide(needle, haystack); err != nil {
		t.Fatalf("Hide failed: %v", err)
	}
	if !bytes.Equal(needle, needleCopy) || !bytes.Equal(haystack, haystackCopy) {
		t.Error("Hide modified its inputs")
	}
}

func TestUnhideRejects(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		if _, _, err := Unhide(make([]byte, 17)); !errors.Is(err, cryptoerr.ErrInvalidFormat) {
			t.Errorf("got %v, want ErrInvalidFormat", err)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		blob := make([]byte, 30)
		blob[0] = 0x00
		blob[1] = 0x01
		if _, _, err := Unhide(blob); !errors.Is(err, cryptoerr.ErrInvalidFormat) {
			t.Errorf("got %v, want ErrInvalidFormat", err)
		}
	})

	t.Run("needle overrun", func(t *testing.T) {
		blob, err := Hide([]byte{9}, make([]byte, 16))
		if err != nil {
			t.Fatalf("Hide failed: %v", err)
		}
		blob[2] = 200 // mask is zero, so the length byte is stored in the clear
		_, _, err = Unhide(blob)
		if !errors.Is(err, cryptoerr.ErrInvalidFormat) || !errors.Is(err, cryptoerr.ErrData) {
			t.Errorf("got %v, want ErrInvalidFormat", err)
		}
	})
}

func FuzzUnhide(f *testing.F) {
	seed, _ := Hide([]byte("mode"), make([]byte, 32))
	f.Add(seed)
	f.Add(make([]byte, 18))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, blob []byte) {
		needle, haystack, err := Unhide(blob)
		if err != nil {
			return
		}
		// Anything that parses must re-hide to the same bytes.
		again, err := Hide(needle, haystack)
		if err != nil {
			t.Fatalf("re-hide failed: %v", err)
		}
		if !bytes.Equal(again, blob) {
			t.Errorf("re-hide mismatch")
		}
	})
}
