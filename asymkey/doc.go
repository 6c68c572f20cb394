// Package asymkey wraps an asymmetric key pair with the envelope operations
// built on it.
//
// A Key is either full (it holds a private key) or public-only. Public-only keys
// usually come from FromPublicBlob, the exported form that carries the key's
// mode alongside its public encoding.
//
// For elliptic key types, traffic between two keys is protected by a CipherSet
// derived from their key agreement. The set is built once per partner and
// memoized on the Key for its lifetime:
//
//	alice, _ := asymkey.Generate(crypto.Standard, cfg, catalog.AsymECP256)
//	bob, _ := asymkey.Generate(crypto.Standard, cfg, catalog.AsymECP256)
//	ct, _ := alice.EncryptFor(bob, []byte("hello"))
//	pt, _ := bob.DecryptFrom(alice, ct)
//
// RSA keys have no agreement. They encrypt in OAEP blocks with the partner's
// public key and decrypt with their own private key.
package asymkey
