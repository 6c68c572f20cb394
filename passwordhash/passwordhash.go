package passwordhash

import (
	"crypto/subtle"
	"io"
	"sync"

	"github.com/opd-ai/envelope/cipherset"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/haystack"
	"github.com/opd-ai/envelope/limits"
	"github.com/opd-ai/envelope/mode"
	"github.com/sirupsen/logrus"
)

// PasswordHash is a verified password with its derived CipherSet.
type PasswordHash struct {
	provider crypto.Provider
	cfg      crypto.Config
	mode     mode.HashMode
	salt     []byte
	external []byte
	blob     []byte

	mu             sync.Mutex
	secret         []byte
	cipherSet      *cipherset.CipherSet
	sealedPassword []byte
	destroyed      bool
}

// New hashes a fresh password under a random mode and salt. The password is
// zeroed before New returns.
func New(provider crypto.Provider, cfg crypto.Config, password []byte) (*PasswordHash, error) {
	defer crypto.ZeroBytes(password)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rnd := cfg.RandReader()
	m, err := mode.NewHashMode(rnd, cfg.RestrictedKeys)
	if err != nil {
		return nil, err
	}
	salt := make([]byte, limits.SaltSize)
	if _, err := io.ReadFull(rnd, salt); err != nil {
		return nil, cryptoerr.Crypto("generate salt", err)
	}

	external, secret, err := generateHashBytes(provider, cfg, m, salt, password)
	if err != nil {
		return nil, err
	}
	ph, err := assemble(provider, cfg, m, salt, external, secret, password)
	if err != nil {
		return nil, err
	}

	crypto.NewPackageLogger("passwordhash", "New").WithFields(logrus.Fields{
		"prime":     m.Prime.String(),
		"alternate": m.Alternate.String(),
		"secret":    m.Secret.String(),
		"blob_size": len(ph.blob),
	}).Info("Password hash created")
	return ph, nil
}

// Open verifies password against an exported blob. A mismatch returns
// cryptoerr.ErrWrongPassword. The password is zeroed before Open returns.
func Open(provider crypto.Provider, cfg crypto.Config, blob, password []byte) (*PasswordHash, error) {
	defer crypto.ZeroBytes(password)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, salt, external, err := parseBlob(blob)
	if err != nil {
		crypto.NewPackageLogger("passwordhash", "Open").
			WithError(err, "parse").
			Warn("Rejected malformed password hash")
		return nil, err
	}

	candidate, secret, err := generateHashBytes(provider, cfg, m, salt, password)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(candidate, external) != 1 {
		crypto.ZeroAll(candidate, secret)
		crypto.NewPackageLogger("passwordhash", "Open").
			WithError(cryptoerr.ErrWrongPassword, "verify").
			Warn("Password verification failed")
		return nil, cryptoerr.ErrWrongPassword
	}
	crypto.ZeroBytes(candidate)

	return assemble(provider, cfg, m, salt, external, secret, password)
}

// parseBlob splits an exported blob into mode, salt and external hash.
func parseBlob(blob []byte) (mode.HashMode, []byte, []byte, error) {
	if err := limits.ValidatePasswordHashBlob(blob); err != nil {
		return mode.HashMode{}, nil, nil, err
	}
	inner, external, err := haystack.Unhide(blob)
	if err != nil {
		return mode.HashMode{}, nil, nil, err
	}
	modeBytes, salt, err := haystack.Unhide(inner)
	if err != nil {
		return mode.HashMode{}, nil, nil, err
	}
	m, err := mode.DecodeHashMode(modeBytes)
	if err != nil {
		return mode.HashMode{}, nil, nil, err
	}
	if len(salt) != limits.SaltSize {
		return mode.HashMode{}, nil, nil, cryptoerr.Wrapf(cryptoerr.ErrInvalidFormat, "salt of %d bytes", len(salt))
	}
	return m, salt, external, nil
}

// assemble builds the exported blob and the CipherSet, then seals the password
// under it. It takes ownership of secret.
func assemble(provider crypto.Provider, cfg crypto.Config, m mode.HashMode, salt, external, secret, password []byte) (*PasswordHash, error) {
	inner, err := haystack.Hide(m.Encode(), salt)
	if err != nil {
		crypto.ZeroBytes(secret)
		return nil, err
	}
	blob, err := haystack.Hide(inner, external)
	if err != nil {
		crypto.ZeroBytes(secret)
		return nil, err
	}
	if err := limits.ValidatePasswordHashBlob(blob); err != nil {
		crypto.ZeroBytes(secret)
		return nil, err
	}

	cs, err := cipherset.FromHashMode(provider, cfg, m, secret)
	if err != nil {
		crypto.ZeroBytes(secret)
		return nil, err
	}
	sealed, err := cs.EncryptBytes(password)
	if err != nil {
		cs.Wipe()
		crypto.ZeroBytes(secret)
		return nil, err
	}

	return &PasswordHash{
		provider:       provider,
		cfg:            cfg,
		mode:           m,
		salt:           salt,
		external:       external,
		blob:           blob,
		secret:         secret,
		cipherSet:      cs,
		sealedPassword: sealed,
	}, nil
}

// Bytes returns the exported blob.
func (ph *PasswordHash) Bytes() []byte {
	return append([]byte(nil), ph.blob...)
}

// Mode returns the hash mode.
func (ph *PasswordHash) Mode() mode.HashMode {
	return ph.mode
}

// CipherSet returns the CipherSet derived from the secret seed.
func (ph *PasswordHash) CipherSet() (*cipherset.CipherSet, error) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	if ph.destroyed {
		return nil, cryptoerr.Logicf("password hash destroyed")
	}
	if ph.cipherSet == nil {
		cs, err := cipherset.FromHashMode(ph.provider, ph.cfg, ph.mode, ph.secret)
		if err != nil {
			return nil, err
		}
		ph.cipherSet = cs
	}
	return ph.cipherSet, nil
}

// Verify checks password against this hash without building a new object.
// The password is zeroed before Verify returns.
func (ph *PasswordHash) Verify(password []byte) error {
	defer crypto.ZeroBytes(password)
	candidate, secret, err := generateHashBytes(ph.provider, ph.cfg, ph.mode, ph.salt, password)
	if err != nil {
		return err
	}
	defer crypto.ZeroAll(candidate, secret)
	if subtle.ConstantTimeCompare(candidate, ph.external) != 1 {
		return cryptoerr.ErrWrongPassword
	}
	return nil
}

// Attempt opens a different blob with the password this hash was unlocked
// with, for hashes that share a password.
func (ph *PasswordHash) Attempt(blob []byte) (*PasswordHash, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	ph.mu.Lock()
	sealed := ph.sealedPassword
	ph.mu.Unlock()

	password, err := cs.DecryptBytes(sealed)
	if err != nil {
		return nil, err
	}
	return Open(ph.provider, ph.cfg, blob, password)
}

// EncryptBytes encrypts under the derived CipherSet.
func (ph *PasswordHash) EncryptBytes(plaintext []byte) ([]byte, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	return cs.EncryptBytes(plaintext)
}

// DecryptBytes decrypts under the derived CipherSet.
func (ph *PasswordHash) DecryptBytes(blob []byte) ([]byte, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	return cs.DecryptBytes(blob)
}

// SecureSymmetricKey wraps key under the derived CipherSet.
func (ph *PasswordHash) SecureSymmetricKey(key *crypto.SymmetricKey) ([]byte, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	return cs.SecureSymmetricKey(key)
}

// DeriveSymmetricKey unwraps a key wrapped by SecureSymmetricKey.
func (ph *PasswordHash) DeriveSymmetricKey(wrapped []byte) (*crypto.SymmetricKey, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	return cs.DeriveSymmetricKey(wrapped)
}

// SecurePrivateKey wraps the private half of kp under the derived CipherSet.
func (ph *PasswordHash) SecurePrivateKey(kp *crypto.KeyPair, m mode.AsymKeyMode) ([]byte, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, err
	}
	return cs.SecurePrivateKey(kp, m)
}

// DeriveAsymmetricKey unwraps a private key wrapped by SecurePrivateKey.
func (ph *PasswordHash) DeriveAsymmetricKey(wrapped []byte) (*crypto.KeyPair, mode.AsymKeyMode, error) {
	cs, err := ph.CipherSet()
	if err != nil {
		return nil, mode.AsymKeyMode{}, err
	}
	return cs.DeriveAsymmetricKey(wrapped)
}

// Destroy wipes the secret seed, the sealed password and the CipherSet.
func (ph *PasswordHash) Destroy() {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	if ph.destroyed {
		return
	}
	if ph.cipherSet != nil {
		ph.cipherSet.Wipe()
		ph.cipherSet = nil
	}
	crypto.ZeroAll(ph.secret, ph.sealedPassword)
	ph.secret = nil
	ph.sealedPassword = nil
	ph.destroyed = true
}
