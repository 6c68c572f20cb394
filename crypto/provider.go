package crypto

import (
	"hash"
	"io"
	"sort"
	"sync"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cryptoerr"
)

// Provider supplies every primitive the envelope layer consumes. Failures of
// the underlying library are reported as cryptoerr.ErrCrypto.
type Provider interface {
	// Name is the registry name.
	Name() string

	// Digest returns a fresh hash.
	Digest(t catalog.DigestType) (hash.Hash, error)

	// MAC returns a fresh keyed hash.
	MAC(t catalog.DigestType, key []byte) (hash.Hash, error)

	// Cipher returns a cascade stage keyed with key.
	Cipher(t catalog.SymmetricKeyType, key *SymmetricKey) (StageCipher, error)

	// Signature returns the signature scheme of an asymmetric key type.
	Signature(t catalog.AsymKeyType) (SignatureScheme, error)

	// KeyAgreement returns the agreement scheme of an elliptic key type.
	KeyAgreement(t catalog.AsymKeyType) (KeyAgreement, error)

	// BlockCipher returns the public-key block cipher of a non-elliptic key type.
	BlockCipher(t catalog.AsymKeyType) (BlockCipher, error)

	// GenerateKeyPair creates a new key pair.
	GenerateKeyPair(t catalog.AsymKeyType, rnd io.Reader) (*KeyPair, error)

	// GenerateSecretKey creates a random symmetric key of the given length.
	GenerateSecretKey(t catalog.SymmetricKeyType, length int, rnd io.Reader) (*SymmetricKey, error)

	// DeriveKeyPair rebuilds a key pair from its encodings. With a private key
	// the public key is derived, and checked against public when both are
	// given. Without one the result is public-only.
	DeriveKeyPair(t catalog.AsymKeyType, private, public []byte) (*KeyPair, error)
}

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// RegisterProvider makes p available to LookupProvider under p.Name(),
// replacing any provider registered under the same name.
func RegisterProvider(p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[p.Name()] = p
}

// LookupProvider returns the provider registered under name.
func LookupProvider(name string) (Provider, error) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	p, ok := providers[name]
	if !ok {
		return nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidConfig, "no provider named %q", name)
	}
	return p, nil
}

// Providers lists registered provider names in order.
func Providers() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderFor resolves the provider named by cfg.
func ProviderFor(cfg Config) (Provider, error) {
	name := cfg.Provider
	if name == "" {
		name = DefaultProvider
	}
	return LookupProvider(name)
}
