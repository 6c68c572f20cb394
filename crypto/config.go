package crypto

import (
	"crypto/rand"
	"io"

	"github.com/opd-ai/envelope/cryptoerr"
)

// Configuration defaults and bounds.
const (
	DefaultCipherSteps    = 3
	MinCipherSteps        = 1
	MaxCipherSteps        = 6
	DefaultHashIterations = 2051
	MinHashIterations     = 1
	MaxHashIterations     = 1 << 20
	DefaultProvider       = "standard"
)

// Config carries the settings every envelope object is created with.
type Config struct {
	// RestrictedKeys selects the shorter symmetric key lengths.
	RestrictedKeys bool `yaml:"restricted_keys"`

	// CipherSteps is the number of cascade stages per encryption.
	CipherSteps int `yaml:"cipher_steps"`

	// HashIterations drives both the password KDF and CipherSet key derivation.
	HashIterations int `yaml:"hash_iterations"`

	// SecurityPhrase is mixed into every KDF round. Both ends of an exchange
	// must use the same phrase.
	SecurityPhrase string `yaml:"security_phrase"`

	// Provider names a registered Provider.
	Provider string `yaml:"provider"`

	// Rand overrides the randomness source. Nil means crypto/rand.
	Rand io.Reader `yaml:"-"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		CipherSteps:    DefaultCipherSteps,
		HashIterations: DefaultHashIterations,
		Provider:       DefaultProvider,
	}
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if c.CipherSteps < MinCipherSteps || c.CipherSteps > MaxCipherSteps {
		return cryptoerr.Wrapf(cryptoerr.ErrInvalidConfig, "cipher_steps %d outside %d..%d",
			c.CipherSteps, MinCipherSteps, MaxCipherSteps)
	}
	if c.HashIterations < MinHashIterations || c.HashIterations > MaxHashIterations {
		return cryptoerr.Wrapf(cryptoerr.ErrInvalidConfig, "hash_iterations %d outside %d..%d",
			c.HashIterations, MinHashIterations, MaxHashIterations)
	}
	if c.Provider == "" {
		return cryptoerr.Wrapf(cryptoerr.ErrInvalidConfig, "provider must be set")
	}
	return nil
}

// RandReader returns the configured randomness source.
func (c Config) RandReader() io.Reader {
	if c.Rand == nil {
		return rand.Reader
	}
	return c.Rand
}

// PhraseBytes returns the security phrase as bytes.
func (c Config) PhraseBytes() []byte {
	return []byte(c.SecurityPhrase)
}
