// Package crypto is the primitive layer beneath the envelope packages.
//
// Everything above this package obtains digests, MACs, stage ciphers,
// signatures, key agreements and key pairs through a [Provider]. The
// [Standard] provider registers itself under the name "standard" and is backed
// by the Go standard library, golang.org/x/crypto, github.com/flynn/noise and
// github.com/ethereum/go-ethereum/crypto.
//
// # Configuration
//
// [Config] carries the settings every envelope object is created with:
//
//	cfg := crypto.DefaultConfig()
//	cfg.SecurityPhrase = "shared phrase"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	provider, _ := crypto.ProviderFor(cfg)
//
// # Key Pairs
//
// [KeyPair] stores the encoded halves of an asymmetric key:
//
//	kp, err := provider.GenerateKeyPair(catalog.AsymECP256, cfg.RandReader())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.WipeKeyPair(kp)
//
//	// Public-only copy, and a full rebuild from the private encoding
//	pub := kp.PublicOnly()
//	again, _ := provider.DeriveKeyPair(kp.Type, kp.Private, nil)
//
// RSA keys use PKCS#1 (private) and PKIX (public) DER. NIST curve keys use SEC1
// and PKIX DER. secp256k1 keys use the raw scalar and the uncompressed point.
// X25519 keys use the raw scalar; the public encoding is the X25519 point
// followed by the Ed25519 verification key seeded from the same scalar.
//
// # Signatures
//
// Signers and verifiers are io.Writers. An [Entry] streams itself into them:
//
//	scheme, _ := provider.Signature(kp.Type)
//	sig, _ := crypto.SignEntry(scheme, kp.Private, nil, crypto.BytesEntry(msg))
//	ok, _ := crypto.VerifyEntry(scheme, kp.Public, crypto.BytesEntry(msg), sig)
//
// # Secure Memory Handling
//
// Sensitive data should be wiped after use:
//
//	defer crypto.SecureWipe(sensitiveData)
//	defer crypto.WipeKeyPair(keyPair)
//
// # Errors
//
// Failures of the primitive libraries are reported as cryptoerr.ErrCrypto with
// the failing operation named. Malformed key encodings are cryptoerr.ErrData.
package crypto
