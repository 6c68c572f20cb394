package envelope

import (
	"github.com/opd-ai/envelope/asymkey"
	"github.com/opd-ai/envelope/catalog"
	"github.com/opd-ai/envelope/cipherset"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/keystore"
	"github.com/opd-ai/envelope/passwordhash"
	"github.com/sirupsen/logrus"
)

// Envelope binds a validated configuration to its provider.
type Envelope struct {
	cfg      crypto.Config
	provider crypto.Provider
}

// New validates cfg and resolves its provider.
func New(cfg crypto.Config) (*Envelope, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	provider, err := crypto.ProviderFor(cfg)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":        "envelope.New",
		"provider":        provider.Name(),
		"cipher_steps":    cfg.CipherSteps,
		"hash_iterations": cfg.HashIterations,
		"restricted":      cfg.RestrictedKeys,
	}).Debug("Envelope configured")
	return &Envelope{cfg: cfg, provider: provider}, nil
}

// NewDefault returns an Envelope with DefaultConfig.
func NewDefault() (*Envelope, error) {
	return New(crypto.DefaultConfig())
}

// Config returns the configuration.
func (e *Envelope) Config() crypto.Config {
	return e.cfg
}

// Provider returns the algorithm provider.
func (e *Envelope) Provider() crypto.Provider {
	return e.provider
}

// NewPasswordHash hashes a fresh password. The password is zeroed.
func (e *Envelope) NewPasswordHash(password []byte) (*passwordhash.PasswordHash, error) {
	return passwordhash.New(e.provider, e.cfg, password)
}

// OpenPasswordHash verifies password against an exported hash. The password
// is zeroed.
func (e *Envelope) OpenPasswordHash(blob, password []byte) (*passwordhash.PasswordHash, error) {
	return passwordhash.Open(e.provider, e.cfg, blob, password)
}

// NewCipherSet derives a CipherSet from secret.
func (e *Envelope) NewCipherSet(digest catalog.DigestType, restricted bool, secret []byte) (*cipherset.CipherSet, error) {
	return cipherset.New(e.provider, e.cfg, digest, restricted, secret)
}

// CipherSetFromKeys builds a CipherSet from one key per symmetric type.
func (e *Envelope) CipherSetFromKeys(digest catalog.DigestType, keys []*crypto.SymmetricKey) (*cipherset.CipherSet, error) {
	return cipherset.FromKeys(e.provider, e.cfg, digest, keys)
}

// GenerateSymmetricKey creates a random key of type t at the configured
// length.
func (e *Envelope) GenerateSymmetricKey(t catalog.SymmetricKeyType) (*crypto.SymmetricKey, error) {
	return e.provider.GenerateSecretKey(t, t.KeyLength(e.cfg.RestrictedKeys), e.cfg.RandReader())
}

// GenerateKey creates a full asymmetric key.
func (e *Envelope) GenerateKey(t catalog.AsymKeyType) (*asymkey.Key, error) {
	return asymkey.Generate(e.provider, e.cfg, t)
}

// KeyFromPublicBlob rebuilds a public-only key from its exported blob.
func (e *Envelope) KeyFromPublicBlob(blob []byte) (*asymkey.Key, error) {
	return asymkey.FromPublicBlob(e.provider, e.cfg, blob)
}

// KeyFromWrapped unwraps a private key sealed under ph.
func (e *Envelope) KeyFromWrapped(ph *passwordhash.PasswordHash, wrapped []byte) (*asymkey.Key, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	return asymkey.FromWrapped(e.provider, e.cfg, cs, wrapped)
}

// OpenKeyStore opens or creates a password-protected store in dir. The
// password is zeroed.
func (e *Envelope) OpenKeyStore(dir string, password []byte) (*keystore.Store, error) {
	return keystore.Open(e.provider, e.cfg, dir, password)
}
