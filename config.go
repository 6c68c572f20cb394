package envelope

import (
	"errors"
	"io"
	"os"

	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration over the defaults. Keys missing from
// the document keep their default values; unknown keys are rejected.
//
//	restricted_keys: false
//	cipher_steps: 3
//	hash_iterations: 2051
//	security_phrase: "application phrase"
//	provider: standard
func LoadConfig(r io.Reader) (crypto.Config, error) {
	cfg := crypto.DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return crypto.Config{}, cryptoerr.Wrapf(cryptoerr.ErrInvalidConfig, "parse yaml: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return crypto.Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads the YAML configuration at path.
func LoadConfigFile(path string) (crypto.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return crypto.Config{}, err
	}
	defer f.Close()
	return LoadConfig(f)
}
