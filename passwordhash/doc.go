// Package passwordhash turns a password into a verifiable, exportable hash and
// a private secret seed from which a CipherSet is derived.
//
// The exported blob carries everything needed to verify a password later:
//
//	blob = hide(hide(hashMode, salt), externalHash)
//
// where hide is the haystack codec. The secret seed never leaves the process.
//
//	ph, err := passwordhash.New(provider, cfg, []byte(password))
//	store(ph.Bytes())
//
//	// later
//	ph, err = passwordhash.Open(provider, cfg, blob, []byte(candidate))
//	if errors.Is(err, cryptoerr.ErrWrongPassword) {
//	    // ask again
//	}
//
// Password buffers passed to this package are zeroed before the call returns,
// on every path.
package passwordhash
