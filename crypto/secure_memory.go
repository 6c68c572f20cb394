package crypto

import (
	"crypto/subtle"
	"runtime"

	"github.com/opd-ai/envelope/cryptoerr"
)

// SecureWipe attempts to securely erase the contents of a byte slice
// containing sensitive data. It returns an error if the byte slice is nil.
func SecureWipe(data []byte) error {
	if data == nil {
		return cryptoerr.Logicf("cannot wipe nil data")
	}

	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)

	// Keep the overwrite from being optimized away.
	runtime.KeepAlive(data)
	runtime.KeepAlive(zeros)

	return nil
}

// ZeroBytes erases the contents of a byte slice containing sensitive data.
// This is a convenience function that ignores the error from SecureWipe.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}

// ZeroAll erases every slice in turn.
func ZeroAll(data ...[]byte) {
	for _, d := range data {
		ZeroBytes(d)
	}
}

// WipeKeyPair securely erases the private key in a KeyPair and drops it, leaving
// a public-only pair.
func WipeKeyPair(kp *KeyPair) error {
	if kp == nil {
		return cryptoerr.Logicf("cannot wipe nil KeyPair")
	}
	if kp.Private == nil {
		return nil
	}
	err := SecureWipe(kp.Private)
	kp.Private = nil
	return err
}
