package asymkey

import (
	"sync"

	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cipherset"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/haystack"
	"github.com/opd-ai/envelope/limits"
	"github.com/opd-ai/envelope/mode"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

// Key is an asymmetric key pair with its mode. It is safe for concurrent use.
type Key struct {
	provider crypto.Provider
	cfg      crypto.Config
	mode     mode.AsymKeyMode

	// pair and pair.Public never change after construction; mu guards
	// pair.Private and everything below.
	mu        sync.Mutex
	pair      *crypto.KeyPair
	self      *cipherset.CipherSet
	partners  map[string]*cipherset.CipherSet
	wrapped   map[wrapID][]byte
	destroyed bool

	builds atomic.Int64
}

// wrapID identifies an RSA-wrapped symmetric key for one recipient.
type wrapID struct {
	partner string
	key     *crypto.SymmetricKey
}

func newKey(provider crypto.Provider, cfg crypto.Config, m mode.AsymKeyMode, pair *crypto.KeyPair) *Key {
	return &Key{
		provider: provider,
		cfg:      cfg,
		mode:     m,
		pair:     pair,
		partners: make(map[string]*cipherset.CipherSet),
		wrapped:  make(map[wrapID][]byte),
	}
}

// Generate creates a full key of type t with a random mode.
func Generate(provider crypto.Provider, cfg crypto.Config, t catalog.AsymKeyType) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rnd := cfg.RandReader()
	m, err := mode.NewAsymKeyMode(rnd, t, cfg.RestrictedKeys)
	if err != nil {
		return nil, err
	}
	pair, err := provider.GenerateKeyPair(t, rnd)
	if err != nil {
		return nil, err
	}

	k := newKey(provider, cfg, m, pair)
	if _, err := k.PublicBlob(); err != nil {
		_ = crypto.WipeKeyPair(pair)
		return nil, err
	}

	crypto.NewPackageLogger("asymkey", "Generate").WithFields(logrus.Fields{
		"type":   t.String(),
		"digest": m.CipherDigest.String(),
	}).WithPreview(pair.Public, "public_key").Info("Asymmetric key generated")
	return k, nil
}

// FromPublicBlob rebuilds a public-only key from the output of PublicBlob.
func FromPublicBlob(provider crypto.Provider, cfg crypto.Config, blob []byte) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := limits.ValidatePublicKeyBlob(blob); err != nil {
		return nil, err
	}
	modeBytes, public, err := haystack.Unhide(blob)
	if err != nil {
		return nil, err
	}
	m, err := mode.DecodeAsymKeyMode(modeBytes)
	if err != nil {
		return nil, err
	}
	pair, err := provider.DeriveKeyPair(m.KeyType, nil, public)
	if err != nil {
		return nil, err
	}
	return newKey(provider, cfg, m, pair), nil
}

// FromEncoded rebuilds a key from its encoded halves. A nil private yields a
// public-only key; a nil public is recomputed from private.
func FromEncoded(provider crypto.Provider, cfg crypto.Config, m mode.AsymKeyMode, private, public []byte) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(private) == 0 && len(public) == 0 {
		return nil, cryptoerr.Logicf("no key material")
	}
	pair, err := provider.DeriveKeyPair(m.KeyType, private, public)
	if err != nil {
		return nil, err
	}
	k := newKey(provider, cfg, m, pair)
	if _, err := k.PublicBlob(); err != nil {
		_ = crypto.WipeKeyPair(pair)
		return nil, err
	}
	return k, nil
}

// FromWrapped unwraps a private key sealed by a PasswordHash or CipherSet.
func FromWrapped(provider crypto.Provider, cfg crypto.Config, cs *cipherset.CipherSet, wrapped []byte) (*Key, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pair, m, err := cs.DeriveAsymmetricKey(wrapped)
	if err != nil {
		return nil, err
	}
	return newKey(provider, cfg, m, pair), nil
}

// Type returns the key type.
func (k *Key) Type() catalog.AsymKeyType {
	return k.mode.KeyType
}

// Mode returns the key mode.
func (k *Key) Mode() mode.AsymKeyMode {
	return k.mode
}

// PublicKey returns a copy of the encoded public key.
func (k *Key) PublicKey() []byte {
	return append([]byte(nil), k.pair.Public...)
}

// HasPrivate reports whether the key can decrypt and sign.
func (k *Key) HasPrivate() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return !k.destroyed && k.pair.HasPrivate()
}

// Pair returns a copy of the key pair, private half included.
func (k *Key) Pair() (*crypto.KeyPair, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return nil, errDestroyed()
	}
	pair := k.pair.PublicOnly()
	if k.pair.HasPrivate() {
		pair.Private = append([]byte(nil), k.pair.Private...)
	}
	return pair, nil
}

// Public returns a public-only copy sharing this key's mode.
func (k *Key) Public() *Key {
	return newKey(k.provider, k.cfg, k.mode, k.pair.PublicOnly())
}

// PublicBlob exports the mode and the public key as one blob.
func (k *Key) PublicBlob() ([]byte, error) {
	blob, err := haystack.Hide(k.mode.Encode(), k.pair.Public)
	if err != nil {
		return nil, err
	}
	if err := limits.ValidatePublicKeyBlob(blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// Builds returns how many CipherSets this key has derived.
func (k *Key) Builds() int64 {
	return k.builds.Load()
}

// Equal reports whether both keys hold the same mode and key pair.
func (k *Key) Equal(other *Key) bool {
	if k == nil || other == nil {
		return k == other
	}
	if k == other {
		return true
	}
	if k.mode != other.mode {
		return false
	}
	mine, theirs := k.snapshot(), other.snapshot()
	defer crypto.ZeroAll(mine.Private, theirs.Private)
	return mine.Equal(theirs)
}

// snapshot copies the pair under mu. A destroyed key has no private half.
func (k *Key) snapshot() *crypto.KeyPair {
	k.mu.Lock()
	defer k.mu.Unlock()
	pair := k.pair.PublicOnly()
	if !k.destroyed && k.pair.HasPrivate() {
		pair.Private = append([]byte(nil), k.pair.Private...)
	}
	return pair
}

// Destroy wipes the private key and every derived CipherSet.
func (k *Key) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return
	}
	if k.self != nil {
		k.self.Wipe()
		k.self = nil
	}
	for id, cs := range k.partners {
		cs.Wipe()
		delete(k.partners, id)
	}
	for id, w := range k.wrapped {
		crypto.ZeroBytes(w)
		delete(k.wrapped, id)
	}
	_ = crypto.WipeKeyPair(k.pair)
	k.destroyed = true
}

func errDestroyed() error {
	return cryptoerr.Logicf("asymmetric key destroyed")
}
