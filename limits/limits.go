package limits

import (
	"github.com/opd-ai/envelope/cryptoerr"
)

const (
	// MaxNeedle is the longest sequence Hide can embed (its length is one byte).
	MaxNeedle = 255

	// MinHaystack is the shortest sequence Hide can embed into.
	MinHaystack = 16

	// HiddenOverhead is what Hide adds besides the needle: a signature byte and
	// a length byte.
	HiddenOverhead = 2

	// MinHiddenBlob is the shortest blob Unhide accepts (empty needle, minimal haystack).
	MinHiddenBlob = MinHaystack + HiddenOverhead

	// MaxPasswordHashBlob caps the external password-hash blob.
	MaxPasswordHashBlob = 128

	// MaxPublicKeyBlob caps a public key with its embedded mode.
	MaxPublicKeyBlob = 512

	// MaxWrappedPrivateKey caps a CipherSet-wrapped private key.
	MaxWrappedPrivateKey = 1280

	// SaltSize is the length of the random password-hash salt.
	SaltSize = 32

	// IVSize is the length of the random cascade IV.
	IVSize = 16

	// MaxProcessingBuffer is the absolute maximum for any single input (16MB).
	MaxProcessingBuffer = 16 * 1024 * 1024
)

// ValidateSize checks that an encoded structure named what is at most max bytes.
// The returned error matches cryptoerr.ErrSizeLimit.
func ValidateSize(what string, data []byte, max int) error {
	if len(data) > max {
		return cryptoerr.Wrapf(cryptoerr.ErrSizeLimit, "%s size %d exceeds limit %d", what, len(data), max)
	}
	return nil
}

// ValidatePasswordHashBlob validates an external password-hash blob.
func ValidatePasswordHashBlob(blob []byte) error {
	return ValidateSize("password hash blob", blob, MaxPasswordHashBlob)
}

// ValidatePublicKeyBlob validates a public key blob with embedded mode.
func ValidatePublicKeyBlob(blob []byte) error {
	return ValidateSize("public key blob", blob, MaxPublicKeyBlob)
}

// ValidateWrappedPrivateKey validates a wrapped private key.
func ValidateWrappedPrivateKey(blob []byte) error {
	return ValidateSize("wrapped private key", blob, MaxWrappedPrivateKey)
}

// ValidateProcessingBuffer validates untrusted input against MaxProcessingBuffer.
func ValidateProcessingBuffer(data []byte) error {
	return ValidateSize("input", data, MaxProcessingBuffer)
}
