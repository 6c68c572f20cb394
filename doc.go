// Package envelope turns passwords and asymmetric keys into self-describing
// encrypted blobs.
//
// Every blob this module produces carries the metadata needed to open it (the
// algorithms chosen, the IV, the digests) hidden inside bytes that look like
// plain ciphertext. The building blocks live in subpackages:
//
//   - passwordhash: a verifiable password hash and the CipherSet derived from it
//   - cipherset: a cascade of symmetric ciphers with per-message random order
//   - asymkey: asymmetric keys with per-partner CipherSets from key agreement
//   - keystore: a password-protected directory of encrypted files
//
// The Envelope type binds one validated configuration to its provider and
// constructs all of them:
//
//	env, err := envelope.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ph, err := env.NewPasswordHash([]byte("correct horse battery staple"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stored := ph.Bytes()
//
//	ct, err := ph.EncryptBytes([]byte("secret notes"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Later, with the stored hash and the same password:
//	ph, err = env.OpenPasswordHash(stored, []byte("correct horse battery staple"))
//	if errors.Is(err, cryptoerr.ErrWrongPassword) {
//	    // ask again
//	}
//	pt, err := ph.DecryptBytes(ct)
//
// Configuration can be loaded from YAML with LoadConfig. The security phrase is
// mixed into every key derivation, so blobs only open under the phrase they
// were created with.
//
// Errors fall into four kinds defined in cryptoerr. Callers branch with
// errors.Is; ErrWrongPassword is never reported as a data or crypto failure.
package envelope
