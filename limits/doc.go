// Package limits provides the centralized size constants and validation
// functions for every encoded structure the envelope layer produces.
//
// # Size Hierarchy
//
// Each opaque blob carries metadata hidden inside it, and each has a hard
// ceiling that encoders enforce before returning and decoders enforce before
// trusting:
//
//   - MaxNeedle (255 bytes): the longest metadata sequence that can be hidden,
//     because its length travels in a single masked byte.
//
//   - MinHaystack (16 bytes): the shortest sequence a needle may be hidden in.
//     The splice position is derived from the haystack's first byte and can
//     reach offset 16.
//
//   - MaxPasswordHashBlob (128 bytes): the external password-hash blob, i.e. the
//     hash mode and salt hidden beside the external hash.
//
//   - MaxPublicKeyBlob (512 bytes): a public key with its algorithm mode hidden
//     inside.
//
//   - MaxWrappedPrivateKey (1280 bytes): a private key encrypted under a
//     CipherSet with its mode tag.
//
// # Validation Functions
//
//	if err := limits.ValidatePublicKeyBlob(blob); err != nil {
//	    // err matches cryptoerr.ErrSizeLimit and cryptoerr.ErrData
//	}
//
// For custom limits use ValidateSize directly.
package limits
