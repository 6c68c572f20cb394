// Package cipherset derives one key per catalog cipher from a shared secret and
// chains a random ordered subset of them over each payload.
//
// A CipherSet is built once from a secret, either the secret seed of a password
// hash or an elliptic-curve shared secret, and afterwards encrypts without any
// further derivation:
//
//	cs, err := cipherset.New(provider, cfg, catalog.DigestSHA256, false, secret)
//	blob, err := cs.EncryptBytes(plaintext)
//	plain, err := cs.DecryptBytes(blob)
//
// Every blob is self-describing: the cascade order and the IV are hidden inside
// the ciphertext with the haystack codec. Key wrapping reuses the same cascade
// and tags the result with the wrapped key's type or mode.
package cipherset
