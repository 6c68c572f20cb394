package crypto

import (
	"crypto/rand"
	"hash"
	"io"

	"github.com/opd-ai/envelope/catalog"
)

// Standard is the provider backed by the Go standard library, golang.org/x/crypto,
// flynn/noise and go-ethereum.
var Standard Provider = standardProvider{}

func init() {
	RegisterProvider(Standard)
}

type standardProvider struct{}

func (standardProvider) Name() string { return DefaultProvider }

func (standardProvider) Digest(t catalog.DigestType) (hash.Hash, error) {
	return newDigest(t)
}

func (standardProvider) MAC(t catalog.DigestType, key []byte) (hash.Hash, error) {
	return newMAC(t, key)
}

func (standardProvider) Cipher(t catalog.SymmetricKeyType, key *SymmetricKey) (StageCipher, error) {
	return newStageCipher(t, key)
}

func (standardProvider) Signature(t catalog.AsymKeyType) (SignatureScheme, error) {
	return signatureScheme(t)
}

func (standardProvider) KeyAgreement(t catalog.AsymKeyType) (KeyAgreement, error) {
	return keyAgreement(t)
}

func (standardProvider) BlockCipher(t catalog.AsymKeyType) (BlockCipher, error) {
	return blockCipher(t)
}

func (standardProvider) GenerateKeyPair(t catalog.AsymKeyType, rnd io.Reader) (*KeyPair, error) {
	return generateKeyPair(t, orDefault(rnd))
}

func (standardProvider) GenerateSecretKey(t catalog.SymmetricKeyType, length int, rnd io.Reader) (*SymmetricKey, error) {
	return generateSecretKey(t, length, orDefault(rnd))
}

func (standardProvider) DeriveKeyPair(t catalog.AsymKeyType, private, public []byte) (*KeyPair, error) {
	return deriveKeyPair(t, private, public)
}

// orDefault substitutes crypto/rand for a nil source.
func orDefault(rnd io.Reader) io.Reader {
	if rnd == nil {
		return rand.Reader
	}
	return rnd
}
