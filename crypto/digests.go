package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// digestConstructor returns the unkeyed hash constructor for t.
func digestConstructor(t catalog.DigestType) (func() hash.Hash, error) {
	switch t {
	case catalog.DigestSHA256:
		return sha256.New, nil
	case catalog.DigestSHA384:
		return sha512.New384, nil
	case catalog.DigestSHA512_256:
		return sha512.New512_256, nil
	case catalog.DigestSHA3_256:
		return sha3.New256, nil
	case catalog.DigestBLAKE2b256:
		return func() hash.Hash {
			// Unkeyed BLAKE2b cannot fail.
			h, _ := blake2b.New256(nil)
			return h
		}, nil
	case catalog.DigestBLAKE2s256:
		return func() hash.Hash {
			h, _ := blake2s.New256(nil)
			return h
		}, nil
	default:
		return nil, cryptoerr.Wrapf(cryptoerr.ErrUnknownAlgorithm, "digest type %d", t)
	}
}

func newDigest(t catalog.DigestType) (hash.Hash, error) {
	ctor, err := digestConstructor(t)
	if err != nil {
		return nil, err
	}
	return ctor(), nil
}

// newMAC returns HMAC over t. An empty key is valid.
func newMAC(t catalog.DigestType, key []byte) (hash.Hash, error) {
	ctor, err := digestConstructor(t)
	if err != nil {
		return nil, err
	}
	return hmac.New(ctor, key), nil
}
