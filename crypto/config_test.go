package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.CipherSteps)
	assert.Equal(t, 2051, cfg.HashIterations)
	assert.Equal(t, "standard", cfg.Provider)
	assert.False(t, cfg.RestrictedKeys)
	assert.Equal(t, rand.Reader, cfg.RandReader())
	assert.Empty(t, cfg.PhraseBytes())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero steps", func(c *Config) { c.CipherSteps = 0 }},
		{"too many steps", func(c *Config) { c.CipherSteps = 7 }},
		{"zero iterations", func(c *Config) { c.HashIterations = 0 }},
		{"too many iterations", func(c *Config) { c.HashIterations = MaxHashIterations + 1 }},
		{"no provider", func(c *Config) { c.Provider = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, cryptoerr.ErrInvalidConfig)
			assert.ErrorIs(t, err, cryptoerr.ErrLogic)
		})
	}
}

func TestConfigOverrides(t *testing.T) {
	src := bytes.NewReader(make([]byte, 64))
	cfg := DefaultConfig()
	cfg.Rand = src
	cfg.SecurityPhrase = "phrase"
	assert.Equal(t, src, cfg.RandReader())
	assert.Equal(t, []byte("phrase"), cfg.PhraseBytes())
}
